package listings

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(&models.PublicListing{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestService(t *testing.T, gdb *gorm.DB, batchSize int) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(gdb),
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		BatchSize: batchSize,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testOwner() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    "owner@example.com",
		Username: "owner",
	}
}

func saleCard(userID uuid.UUID, public bool) *models.CardInstance {
	scryfallID := "scry-bolt"
	return &models.CardInstance{
		ID:         uuid.New(),
		UserID:     userID,
		ScryfallID: &scryfallID,
		Name:       "Lightning Bolt",
		Edition:    "m10",
		Condition:  enums.CardConditionNearMint,
		Quantity:   2,
		Price:      decimal.NewFromInt(3),
		Status:     enums.CardStatusSale,
		Public:     public,
	}
}

func countListings(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(&models.PublicListing{}).Count(&n).Error; err != nil {
		t.Fatalf("count listings: %v", err)
	}
	return n
}

func TestQualifies(t *testing.T) {
	owner := testOwner()
	cases := []struct {
		name   string
		status enums.CardStatus
		public bool
		want   bool
	}{
		{"public sale", enums.CardStatusSale, true, true},
		{"public trade", enums.CardStatusTrade, true, true},
		{"private sale", enums.CardStatusSale, false, false},
		{"public collection", enums.CardStatusCollection, true, false},
		{"public wishlist", enums.CardStatusWishlist, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			card := saleCard(owner.ID, tc.public)
			card.Status = tc.status
			if got := Qualifies(card); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
	if Qualifies(nil) {
		t.Fatal("nil card must not qualify")
	}
}

func TestSyncCardCreatesOnNewQualification(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestService(t, gdb, 0)
	owner := testOwner()
	card := saleCard(owner.ID, true)

	if err := svc.SyncCard(context.Background(), owner, nil, card); err != nil {
		t.Fatalf("sync card: %v", err)
	}

	var listing models.PublicListing
	if err := gdb.First(&listing, "key = ?", KeyFor(owner.ID, card.ID)).Error; err != nil {
		t.Fatalf("expected listing created: %v", err)
	}
	if listing.CardName != "Lightning Bolt" || listing.Kind != enums.ListingKindCard {
		t.Fatalf("unexpected listing %+v", listing)
	}
}

func TestSyncCardDeletesWhenDisqualified(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestService(t, gdb, 0)
	owner := testOwner()
	before := saleCard(owner.ID, true)

	if err := svc.SyncCard(context.Background(), owner, nil, before); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	after := *before
	after.Public = false
	if err := svc.SyncCard(context.Background(), owner, before, &after); err != nil {
		t.Fatalf("disqualifying sync: %v", err)
	}

	if n := countListings(t, gdb); n != 0 {
		t.Fatalf("expected listing deleted, found %d", n)
	}

	// re-qualifying recreates under the same durable key
	requalified := after
	requalified.Public = true
	if err := svc.SyncCard(context.Background(), owner, &after, &requalified); err != nil {
		t.Fatalf("requalifying sync: %v", err)
	}
	var listing models.PublicListing
	if err := gdb.First(&listing, "key = ?", KeyFor(owner.ID, before.ID)).Error; err != nil {
		t.Fatalf("expected listing recreated with same key: %v", err)
	}
}

func TestSyncCardNoopWhenNeverQualified(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestService(t, gdb, 0)
	owner := testOwner()
	before := saleCard(owner.ID, false)
	after := *before
	after.Quantity = 5

	if err := svc.SyncCard(context.Background(), owner, before, &after); err != nil {
		t.Fatalf("sync card: %v", err)
	}
	if n := countListings(t, gdb); n != 0 {
		t.Fatalf("expected no listing, found %d", n)
	}
}

func TestSyncCardUpdatesInPlace(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestService(t, gdb, 0)
	owner := testOwner()
	before := saleCard(owner.ID, true)

	if err := svc.SyncCard(context.Background(), owner, nil, before); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	after := *before
	after.Quantity = 4
	if err := svc.SyncCard(context.Background(), owner, before, &after); err != nil {
		t.Fatalf("update sync: %v", err)
	}

	var listing models.PublicListing
	if err := gdb.First(&listing, "key = ?", KeyFor(owner.ID, before.ID)).Error; err != nil {
		t.Fatalf("load listing: %v", err)
	}
	if listing.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", listing.Quantity)
	}
	if n := countListings(t, gdb); n != 1 {
		t.Fatalf("expected single listing, found %d", n)
	}
}

func TestResyncUserDeletesStaleAndUpserts(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestService(t, gdb, 2)
	owner := testOwner()

	stale := FromCard(owner, saleCard(owner.ID, true))
	if err := gdb.Create(&stale).Error; err != nil {
		t.Fatalf("seed stale listing: %v", err)
	}

	cards := []models.CardInstance{
		*saleCard(owner.ID, true),
		*saleCard(owner.ID, true),
		*saleCard(owner.ID, false),
	}
	prefs := []models.Preference{
		{ID: uuid.New(), UserID: owner.ID, CardName: "Counterspell"},
	}

	if err := svc.ResyncUser(context.Background(), owner, cards, prefs); err != nil {
		t.Fatalf("resync: %v", err)
	}

	// 2 qualifying cards + 1 preference; stale listing gone
	if n := countListings(t, gdb); n != 3 {
		t.Fatalf("expected 3 listings after resync, found %d", n)
	}
	var count int64
	if err := gdb.Model(&models.PublicListing{}).Where("key = ?", stale.Key).Count(&count).Error; err != nil {
		t.Fatalf("check stale: %v", err)
	}
	if count != 0 {
		t.Fatal("expected stale listing removed")
	}
}

func TestPreferenceListingLifecycle(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestService(t, gdb, 0)
	owner := testOwner()
	pref := &models.Preference{ID: uuid.New(), UserID: owner.ID, CardName: "Counterspell"}

	if err := svc.SyncPreference(context.Background(), owner, pref); err != nil {
		t.Fatalf("sync preference: %v", err)
	}
	if n := countListings(t, gdb); n != 1 {
		t.Fatalf("expected 1 listing, found %d", n)
	}

	if err := svc.RemovePreference(context.Background(), owner.ID, pref.ID); err != nil {
		t.Fatalf("remove preference: %v", err)
	}
	if n := countListings(t, gdb); n != 0 {
		t.Fatalf("expected listing removed, found %d", n)
	}
}
