// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/tradehub/internal/app/store/audit"
	"github.com/dalemusser/tradehub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category setting.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls register, login and profile events.
	Auth string
	// Listing controls listing create, update and delete events.
	Listing string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ListingID != nil {
		fields = append(fields, zap.String("listing_id", event.ListingID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's setting.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryListing:
		setting = l.config.Listing
	default:
		setting = All
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestEvent(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventRegistered)
	e.UserID = &userID
	e.Success = true
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// RegisterFailed logs a rejected registration (e.g. duplicate email).
func (l *Logger) RegisterFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventRegisterFailed)
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.Success = true
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a bad password for a known user.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword)
	e.UserID = &userID
	e.FailureReason = "wrong password"
	l.Log(ctx, e)
}

// ProfileUpdated logs a change to the user's own profile.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventProfileUpdated)
	e.UserID = &userID
	e.Success = true
	l.Log(ctx, e)
}

// --- Listing Events ---

func (l *Logger) listingEvent(ctx context.Context, r *http.Request, eventType string, userID, listingID primitive.ObjectID, ok bool, details map[string]string) {
	e := requestEvent(r, audit.CategoryListing, eventType)
	e.UserID = &userID
	e.ListingID = &listingID
	e.Success = ok
	e.Details = details
	if !ok {
		e.FailureReason = "not the seller"
	}
	l.Log(ctx, e)
}

// ListingCreated logs a new listing.
func (l *Logger) ListingCreated(ctx context.Context, r *http.Request, userID, listingID primitive.ObjectID, title string) {
	l.listingEvent(ctx, r, audit.EventListingCreated, userID, listingID, true, map[string]string{"title": title})
}

// ListingUpdated logs an edit by the seller. fields names the changed fields.
func (l *Logger) ListingUpdated(ctx context.Context, r *http.Request, userID, listingID primitive.ObjectID, fields string) {
	l.listingEvent(ctx, r, audit.EventListingUpdated, userID, listingID, true, map[string]string{"fields": fields})
}

// ListingDeleted logs a soft delete.
func (l *Logger) ListingDeleted(ctx context.Context, r *http.Request, userID, listingID primitive.ObjectID) {
	l.listingEvent(ctx, r, audit.EventListingDeleted, userID, listingID, true, nil)
}

// ListingDenied logs an edit or delete attempted by someone other than the seller.
func (l *Logger) ListingDenied(ctx context.Context, r *http.Request, userID, listingID primitive.ObjectID, action string) {
	l.listingEvent(ctx, r, audit.EventListingDenied, userID, listingID, false, map[string]string{"action": action})
}
