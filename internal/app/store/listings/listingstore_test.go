package listingstore_test

import (
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	listingstore "github.com/dalemusser/tradehub/internal/app/store/listings"
	"github.com/dalemusser/tradehub/internal/app/system/indexes"
	"github.com/dalemusser/tradehub/internal/app/system/listingquery"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"github.com/dalemusser/tradehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seller := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Listing{
		Title:     "Test Car",
		Price:     100000,
		Category:  "cars",
		Location:  models.ListingLocation{City: "  Pune "},
		Images:    []models.Image{{URL: "/uploads/a.jpg"}, {URL: "/uploads/b.jpg"}},
		Seller:    seller,
		Views:     99,
		Status:    models.ListingDeleted,
		Favorites: []primitive.ObjectID{primitive.NewObjectID()},
		Tags:      []string{"Sedan, Diesel", "sedan"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.ListingActive {
		t.Errorf("Status: got %q, want active", got.Status)
	}
	if got.Views != 0 || len(got.Favorites) != 0 {
		t.Errorf("views/favorites must start empty, got %d/%v", got.Views, got.Favorites)
	}
	if got.Location.City != "Pune" || got.CityCI != "pune" {
		t.Errorf("city not normalized: %q / %q", got.Location.City, got.CityCI)
	}
	if !got.Images[0].IsPrimary || got.Images[1].IsPrimary {
		t.Errorf("expected first image primary, got %+v", got.Images)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "sedan" || got.Tags[1] != "diesel" {
		t.Errorf("Tags: got %v", got.Tags)
	}
	if got.Seller != seller {
		t.Error("seller not stored")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, listingstore.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_Search_ExcludesInactiveAndFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := listingstore.New(db)
	fx := testutil.NewFixtures(t, db)
	seller := primitive.NewObjectID()

	car := fx.CreateListing(ctx, seller, "Honda City", testutil.WithCategory("cars", ""), testutil.WithCity("Pune"), testutil.WithPrice(500))
	fx.CreateListing(ctx, seller, "Honda Jazz", testutil.WithCategory("cars", ""), testutil.WithCity("Mumbai"), testutil.WithPrice(600))
	fx.CreateListing(ctx, seller, "Cheap Honda", testutil.WithCategory("cars", ""), testutil.WithCity("Pune"), testutil.WithPrice(50))
	fx.CreateListing(ctx, seller, "Deleted Honda", testutil.WithCategory("cars", ""), testutil.WithCity("Pune"), testutil.WithPrice(500), testutil.WithStatus(models.ListingDeleted))
	fx.CreateListing(ctx, seller, "Sold Honda", testutil.WithCategory("cars", ""), testutil.WithCity("Pune"), testutil.WithPrice(500), testutil.WithStatus(models.ListingSold))

	v, _ := url.ParseQuery("category=cars&city=pun&minPrice=100&maxPrice=500&search=honda")
	q := listingquery.Parse(v)

	got, err := store.Search(ctx, q.Filter(), q.Sort(), q.Page.Skip(), int64(q.Page.Limit))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != car.ID {
		t.Fatalf("expected only %q, got %d listings", car.Title, len(got))
	}

	n, err := store.Count(ctx, q.Filter())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}
}

func TestStore_Search_PagesAreStableAndComplete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	seller := primitive.NewObjectID()

	// identical prices force the _id tiebreak to decide the order
	want := map[primitive.ObjectID]bool{}
	for i := 0; i < 7; i++ {
		l := fx.CreateListing(ctx, seller, "Same price", testutil.WithPrice(100))
		want[l.ID] = true
	}

	seen := map[primitive.ObjectID]bool{}
	for page := 1; page <= 4; page++ {
		v, _ := url.ParseQuery("sortBy=price&sortOrder=asc&limit=3&page=" + strconv.Itoa(page))
		q := listingquery.Parse(v)
		got, err := store.Search(ctx, q.Filter(), q.Sort(), q.Page.Skip(), int64(q.Page.Limit))
		if err != nil {
			t.Fatalf("Search page %d: %v", page, err)
		}
		for _, l := range got {
			if seen[l.ID] {
				t.Errorf("listing %s returned twice", l.ID.Hex())
			}
			seen[l.ID] = true
		}
		if page == 4 && len(got) != 0 {
			t.Errorf("page past the end should be empty, got %d", len(got))
		}
	}
	if len(seen) != len(want) {
		t.Errorf("saw %d listings across pages, want %d", len(seen), len(want))
	}
}

func TestStore_Featured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	seller := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	older := fx.CreateListing(ctx, seller, "older", testutil.Featured(), testutil.CreatedAt(base))
	newer := fx.CreateListing(ctx, seller, "newer", testutil.Featured(), testutil.CreatedAt(base.Add(time.Minute)))
	fx.CreateListing(ctx, seller, "plain")
	fx.CreateListing(ctx, seller, "gone", testutil.Featured(), testutil.WithStatus(models.ListingDeleted))

	got, err := store.Featured(ctx, 10)
	if err != nil {
		t.Fatalf("Featured: %v", err)
	}
	if len(got) != 2 || got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Errorf("expected [newer, older], got %d listings", len(got))
	}

	got, _ = store.Featured(ctx, 1)
	if len(got) != 1 {
		t.Errorf("limit not applied: %d", len(got))
	}
}

func TestStore_IncrementViews(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	l := fx.CreateListing(ctx, primitive.NewObjectID(), "Bike")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrementViews(ctx, l.ID); err != nil {
				t.Errorf("IncrementViews: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.IncrementViews(ctx, l.ID)
	if err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	if got.Views != n+1 {
		t.Errorf("Views: got %d, want %d", got.Views, n+1)
	}

	if _, err := store.IncrementViews(ctx, primitive.NewObjectID()); !errors.Is(err, listingstore.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	owner := primitive.NewObjectID()
	l := fx.CreateListing(ctx, owner, "Test Car", testutil.WithPrice(100000),
		testutil.CreatedAt(time.Now().UTC().Add(-time.Hour)))

	mut := l
	mut.Price = 90000
	mut.Seller = primitive.NewObjectID() // ignored
	mut.Views = 500                      // ignored
	mut.Status = models.ListingSold

	got, err := store.Update(ctx, l.ID, owner, mut, []string{listingstore.FieldPrice, listingstore.FieldStatus})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Price != 90000 || got.Status != models.ListingSold {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Seller != owner || got.Views != 0 {
		t.Error("seller and views must not change")
	}
	if !got.UpdatedAt.After(l.UpdatedAt) {
		t.Error("UpdatedAt not refreshed")
	}

	// non-owner
	if _, err := store.Update(ctx, l.ID, primitive.NewObjectID(), mut, []string{listingstore.FieldPrice}); !errors.Is(err, listingstore.ErrNotOwner) {
		t.Errorf("non-owner: got %v, want ErrNotOwner", err)
	}
	// unknown
	if _, err := store.Update(ctx, primitive.NewObjectID(), owner, mut, []string{listingstore.FieldPrice}); !errors.Is(err, listingstore.ErrNotFound) {
		t.Errorf("unknown: got %v, want ErrNotFound", err)
	}
	// deleted
	if err := store.SoftDelete(ctx, l.ID, owner); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := store.Update(ctx, l.ID, owner, mut, []string{listingstore.FieldPrice}); !errors.Is(err, listingstore.ErrDeleted) {
		t.Errorf("deleted: got %v, want ErrDeleted", err)
	}
}

func TestStore_Update_OnlyNamedFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	owner := primitive.NewObjectID()
	l := fx.CreateListing(ctx, owner, "Desk", testutil.WithPrice(5000), testutil.WithCity("Pune"))

	// two edits read the same version; the first changes only the price
	stale := l
	priced := l
	priced.Price = 4200
	if _, err := store.Update(ctx, l.ID, owner, priced, []string{listingstore.FieldPrice}); err != nil {
		t.Fatalf("price update: %v", err)
	}

	// the second changes only the title, carrying the old price along
	stale.Title = "Standing Desk"
	got, err := store.Update(ctx, l.ID, owner, stale, []string{listingstore.FieldTitle})
	if err != nil {
		t.Fatalf("title update: %v", err)
	}
	if got.Title != "Standing Desk" {
		t.Errorf("Title = %q, want %q", got.Title, "Standing Desk")
	}
	if got.Price != 4200 {
		t.Errorf("Price = %d, want 4200 (unsent field overwritten)", got.Price)
	}
	if got.Location.City != l.Location.City || got.CityCI != l.CityCI {
		t.Errorf("location changed: %+v", got.Location)
	}
}

func TestStore_Update_LocationRefreshesCityIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	owner := primitive.NewObjectID()
	l := fx.CreateListing(ctx, owner, "Sofa", testutil.WithCity("Pune"))

	mut := l
	mut.Location.City = "  new   york "
	got, err := store.Update(ctx, l.ID, owner, mut, []string{listingstore.FieldLocation})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.CityCI == l.CityCI || got.CityCI == "" {
		t.Errorf("CityCI not refreshed: %q", got.CityCI)
	}
}

func TestStore_ImageInUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	fx.CreateListing(ctx, primitive.NewObjectID(), "Chair",
		testutil.WithImages("/uploads/listings/chair.png"),
		testutil.WithStatus(models.ListingDeleted))

	inUse, err := store.ImageInUse(ctx, "/uploads/listings/chair.png")
	if err != nil {
		t.Fatalf("ImageInUse: %v", err)
	}
	if !inUse {
		t.Error("image on a deleted listing should still count as in use")
	}
	if inUse, _ := store.ImageInUse(ctx, "/uploads/listings/other.png"); inUse {
		t.Error("unreferenced image reported in use")
	}
}

func TestStore_SoftDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	owner := primitive.NewObjectID()
	l := fx.CreateListing(ctx, owner, "Lamp")

	if err := store.SoftDelete(ctx, l.ID, primitive.NewObjectID()); !errors.Is(err, listingstore.ErrNotOwner) {
		t.Errorf("non-owner: got %v, want ErrNotOwner", err)
	}
	if err := store.SoftDelete(ctx, l.ID, owner); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := store.SoftDelete(ctx, l.ID, owner); err != nil {
		t.Errorf("repeat delete should succeed, got %v", err)
	}
	if err := store.SoftDelete(ctx, primitive.NewObjectID(), owner); !errors.Is(err, listingstore.ErrNotFound) {
		t.Errorf("unknown: got %v, want ErrNotFound", err)
	}

	got, err := store.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if got.Status != models.ListingDeleted {
		t.Errorf("Status: got %q", got.Status)
	}

	mine, err := store.BySeller(ctx, owner)
	if err != nil {
		t.Fatalf("BySeller: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("deleted listing should not be in BySeller, got %d", len(mine))
	}
}

func TestStore_ToggleFavorite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	owner := primitive.NewObjectID()
	l := fx.CreateListing(ctx, owner, "Phone")
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	steps := []struct {
		user      primitive.ObjectID
		wantFav   bool
		wantCount int
	}{
		{a, true, 1},
		{b, true, 2},
		{a, false, 1},
		{a, true, 2},
		{b, false, 1},
	}
	for i, s := range steps {
		fav, count, err := store.ToggleFavorite(ctx, l.ID, s.user)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if fav != s.wantFav || count != s.wantCount {
			t.Errorf("step %d: got (%v, %d), want (%v, %d)", i, fav, count, s.wantFav, s.wantCount)
		}
	}

	favs, err := store.FavoritedBy(ctx, a)
	if err != nil {
		t.Fatalf("FavoritedBy: %v", err)
	}
	if len(favs) != 1 || favs[0].ID != l.ID {
		t.Errorf("FavoritedBy: got %d listings", len(favs))
	}

	if err := store.SoftDelete(ctx, l.ID, owner); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, _, err := store.ToggleFavorite(ctx, l.ID, a); !errors.Is(err, listingstore.ErrNotFound) {
		t.Errorf("deleted: got %v, want ErrNotFound", err)
	}
}
