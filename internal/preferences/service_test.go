package preferences

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
)

type fakeUserSource struct {
	user *models.User
	err  error
}

func (f *fakeUserSource) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeListingSyncer struct {
	synced  []*models.Preference
	removed []uuid.UUID
	err     error
}

func (f *fakeListingSyncer) SyncPreference(ctx context.Context, owner *models.User, pref *models.Preference) error {
	if f.err != nil {
		return f.err
	}
	f.synced = append(f.synced, pref)
	return nil
}

func (f *fakeListingSyncer) RemovePreference(ctx context.Context, ownerUserID, prefID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, prefID)
	return nil
}

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
	if err := gdb.AutoMigrate(&models.Preference{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestService(t *testing.T) (Service, *fakeListingSyncer, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	users := &fakeUserSource{user: &models.User{ID: userID, Username: "trader"}}
	syncer := &fakeListingSyncer{}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(openTestDB(t)),
		Users:    users,
		Listings: syncer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, syncer, userID
}

func TestCreatePublishesListing(t *testing.T) {
	svc, syncer, userID := newTestService(t)

	maxPrice := decimal.NewFromInt(12)
	pref, err := svc.Create(context.Background(), userID, CreatePreferenceRequest{
		CardName: "  Lightning Bolt  ",
		MaxPrice: &maxPrice,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pref.CardName != "Lightning Bolt" {
		t.Fatalf("expected trimmed name, got %q", pref.CardName)
	}
	if len(syncer.synced) != 1 || syncer.synced[0].ID != pref.ID {
		t.Fatalf("expected one listing sync for the new preference")
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc, _, userID := newTestService(t)

	_, err := svc.Create(context.Background(), userID, CreatePreferenceRequest{CardName: "   "})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	svc, syncer, userID := newTestService(t)

	pref, err := svc.Create(context.Background(), userID, CreatePreferenceRequest{CardName: "Counterspell"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := decimal.NewFromInt(4)
	updated, err := svc.Update(context.Background(), userID, pref.ID, UpdatePreferenceRequest{MaxPrice: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CardName != "Counterspell" {
		t.Fatalf("expected name untouched, got %q", updated.CardName)
	}
	if updated.MaxPrice == nil || !updated.MaxPrice.Equal(newPrice) {
		t.Fatalf("expected max price updated, got %v", updated.MaxPrice)
	}
	if len(syncer.synced) != 2 {
		t.Fatalf("expected listing re-synced on update, got %d syncs", len(syncer.synced))
	}
}

func TestUpdateUnknownPreferenceIsNotFound(t *testing.T) {
	svc, _, userID := newTestService(t)

	name := "Whatever"
	_, err := svc.Update(context.Background(), userID, uuid.New(), UpdatePreferenceRequest{CardName: &name})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRemovesListing(t *testing.T) {
	svc, syncer, userID := newTestService(t)

	pref, err := svc.Create(context.Background(), userID, CreatePreferenceRequest{CardName: "Brainstorm"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), userID, pref.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(syncer.removed) != 1 || syncer.removed[0] != pref.ID {
		t.Fatalf("expected listing removal for deleted preference")
	}

	remaining, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no preferences left, got %d", len(remaining))
	}
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	svc, _, userID := newTestService(t)

	pref, err := svc.Create(context.Background(), userID, CreatePreferenceRequest{CardName: "Ponder"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.Delete(context.Background(), uuid.New(), pref.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}
