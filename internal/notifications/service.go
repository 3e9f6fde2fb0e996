package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/pkg/db"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	dbtypes "github.com/davidcarrera/tradebinder-backend/pkg/db/types"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
	"github.com/davidcarrera/tradebinder-backend/pkg/pagination"
)

// ExpiryWindow is how long a match notification stays fresh for display.
const ExpiryWindow = 15 * 24 * time.Hour

// idempotencyTTL bounds the fast-path duplicate check. The unique DB index is
// the actual guarantee; redis just short-circuits retries.
const idempotencyTTL = 24 * time.Hour

type userSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// NotifyMatchRequest carries a match proposal from the sender's point of
// view. FromUserID is optional; when supplied it must equal the caller.
type NotifyMatchRequest struct {
	TargetUserID    uuid.UUID         `json:"target_user_id" validate:"required"`
	MatchID         string            `json:"match_id" validate:"required"`
	FromUserID      *uuid.UUID        `json:"from_user_id,omitempty"`
	MatchType       enums.MatchType   `json:"match_type" validate:"required"`
	MyCards         dbtypes.CardLines `json:"my_cards"`
	OtherCards      dbtypes.CardLines `json:"other_cards"`
	MyTotalValue    decimal.Decimal   `json:"my_total_value"`
	TheirTotalValue decimal.Decimal   `json:"their_total_value"`
	ValueDifference decimal.Decimal   `json:"value_difference"`
	Compatibility   int               `json:"compatibility"`
}

// NotifyMatchResult distinguishes a fresh write from a duplicate.
type NotifyMatchResult struct {
	Success       bool `json:"success"`
	AlreadyExists bool `json:"alreadyExists"`
}

// Page is one cursor page of notifications.
type Page struct {
	Items      []models.Notification `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

// Service is the privileged boundary for cross-user notification writes plus
// the recipient-side read operations.
type Service interface {
	NotifyMatch(ctx context.Context, callerID uuid.UUID, req NotifyMatchRequest) (*NotifyMatchResult, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ServiceParams groups dependencies for the notifications service. Store is
// optional; without it the duplicate check falls through to the database.
type ServiceParams struct {
	Repo   *Repository
	Users  userSource
	Store  idempotencyStore
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo  *Repository
	users userSource
	store idempotencyStore
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds a notifications service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notifications repo is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:  params.Repo,
		users: params.Users,
		store: params.Store,
		logg:  params.Logger,
		now:   now,
	}, nil
}

// NotifyMatch writes a match proposal into the target's collection. The
// stored record is side-swapped to the recipient's point of view, and the
// write is idempotent per (target, match id).
func (s *service) NotifyMatch(ctx context.Context, callerID uuid.UUID, req NotifyMatchRequest) (*NotifyMatchResult, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if req.TargetUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target user id is required")
	}
	if req.MatchID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match id is required")
	}
	if req.TargetUserID == callerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot notify yourself")
	}
	if req.FromUserID != nil && *req.FromUserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from user id must match the caller")
	}
	if !req.MatchType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid match type")
	}

	sender, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown caller")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load caller")
	}
	if _, err := s.users.FindByID(ctx, req.TargetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target user")
	}

	// Fast path: a redis claim on (target, match) short-circuits retries
	// without a round-trip to the table. The unique DB index stays the real
	// guarantee, so a claim taken here must be released if the insert never
	// lands, or a retry would see the claim and skip a write that does not
	// exist.
	var claimKey string
	if s.store != nil {
		claimKey = s.store.IdempotencyKey("notify", req.TargetUserID.String()+":"+req.MatchID)
		claimed, err := s.store.SetNX(ctx, claimKey, callerID.String(), idempotencyTTL)
		if err != nil {
			claimKey = ""
		} else if !claimed {
			return &NotifyMatchResult{Success: true, AlreadyExists: true}, nil
		}
	}

	exists, err := s.repo.ExistsForMatch(ctx, req.TargetUserID, req.MatchID)
	if err != nil {
		s.releaseClaim(ctx, claimKey)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing notification")
	}
	if exists {
		return &NotifyMatchResult{Success: true, AlreadyExists: true}, nil
	}

	now := s.now()
	notification := &models.Notification{
		ID:           uuid.New(),
		UserID:       req.TargetUserID,
		MatchID:      req.MatchID,
		Type:         enums.NotificationTypeMatchProposal,
		FromUserID:   sender.ID,
		FromUsername: sender.Username,
		FromLocation: sender.Location,
		FromAvatar:   sender.AvatarURL,
		MatchType:    req.MatchType,
		// Side-swap: the request speaks from the sender's point of view,
		// the stored record from the recipient's.
		MyCards:         req.OtherCards,
		OtherCards:      req.MyCards,
		MyTotalValue:    req.TheirTotalValue,
		TheirTotalValue: req.MyTotalValue,
		ValueDifference: req.ValueDifference.Neg(),
		Compatibility:   req.Compatibility,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ExpiryWindow),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		if db.IsUniqueViolation(err, "") {
			return &NotifyMatchResult{Success: true, AlreadyExists: true}, nil
		}
		s.releaseClaim(ctx, claimKey)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return &NotifyMatchResult{Success: true, AlreadyExists: false}, nil
}

// releaseClaim drops a redis claim whose notification never got stored. Best
// effort: if the delete fails the claim expires with its TTL.
func (s *service) releaseClaim(ctx context.Context, claimKey string) {
	if s.store == nil || claimKey == "" {
		return
	}
	if err := s.store.Del(ctx, claimKey); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"key": claimKey})
		s.logg.Warn(logCtx, "failed to release notification idempotency claim")
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	page := &Page{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and notification id are required")
	}
	if _, err := s.repo.FindByID(ctx, userID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	return s.repo.MarkRead(ctx, userID, notificationID, s.now())
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.MarkAllRead(ctx, userID, s.now())
}

func (s *service) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and notification id are required")
	}
	return s.repo.Delete(ctx, userID, notificationID)
}

// DeleteExpired removes stale notifications. Run from the cron worker.
func (s *service) DeleteExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expired notifications")
	}
	if deleted > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"deleted": deleted})
		s.logg.Info(logCtx, "expired notifications removed")
	}
	return deleted, nil
}
