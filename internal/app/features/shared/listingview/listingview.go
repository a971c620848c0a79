// Package listingview shapes listings and messages for JSON responses, with
// user ids replaced by the public profiles they point at.
package listingview

import (
	"context"

	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing is a models.Listing whose seller is a public profile.
type Listing struct {
	models.Listing
	Seller models.PublicUser `json:"seller"`
}

// Message is a models.Message whose sender and receiver are public profiles.
type Message struct {
	models.Message
	Sender   models.PublicUser `json:"sender"`
	Receiver models.PublicUser `json:"receiver"`
}

// Profiles resolves user ids to public profiles. userstore.Store satisfies it.
type Profiles interface {
	PublicByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicUser, error)
}

// Listings populates the seller of every listing with one lookup.
// A seller that no longer exists is rendered with only its id.
func Listings(ctx context.Context, users Profiles, in []models.Listing) ([]Listing, error) {
	ids := make([]primitive.ObjectID, 0, len(in))
	for _, l := range in {
		ids = append(ids, l.Seller)
	}
	profiles, err := users.PublicByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(in))
	for _, l := range in {
		out = append(out, Listing{Listing: l, Seller: profile(profiles, l.Seller)})
	}
	return out, nil
}

// One populates a single listing.
func One(ctx context.Context, users Profiles, l models.Listing) (Listing, error) {
	out, err := Listings(ctx, users, []models.Listing{l})
	if err != nil {
		return Listing{}, err
	}
	return out[0], nil
}

// Messages populates sender and receiver of every message.
func Messages(ctx context.Context, users Profiles, in []models.Message) ([]Message, error) {
	ids := make([]primitive.ObjectID, 0, 2*len(in))
	for _, m := range in {
		ids = append(ids, m.Sender, m.Receiver)
	}
	profiles, err := users.PublicByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(in))
	for _, m := range in {
		out = append(out, Message{
			Message:  m,
			Sender:   profile(profiles, m.Sender),
			Receiver: profile(profiles, m.Receiver),
		})
	}
	return out, nil
}

func profile(m map[primitive.ObjectID]models.PublicUser, id primitive.ObjectID) models.PublicUser {
	if p, ok := m[id]; ok {
		return p
	}
	return models.PublicUser{ID: id}
}
