package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/davidcarrera/tradebinder-backend/internal/allocations"
	"github.com/davidcarrera/tradebinder-backend/internal/collection"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
)

type testCollectionService struct {
	listFn           func(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error)
	createFn         func(ctx context.Context, userID uuid.UUID, req collection.CreateCardRequest) (*models.CardInstance, error)
	updateFn         func(ctx context.Context, userID, cardID uuid.UUID, req collection.UpdateCardRequest) (*models.CardInstance, error)
	deleteFn         func(ctx context.Context, userID, cardID uuid.UUID) error
	totalsFn         func(ctx context.Context, userID uuid.UUID) (*collection.Totals, error)
	summaryFn        func(ctx context.Context, userID, cardID uuid.UUID) (*allocations.Summary, error)
	checkReductionFn func(ctx context.Context, userID, cardID uuid.UUID, newQuantity int) (*allocations.ReductionCheck, error)
	resyncFn         func(ctx context.Context, userID uuid.UUID) error
}

func (s *testCollectionService) List(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}

func (s *testCollectionService) Create(ctx context.Context, userID uuid.UUID, req collection.CreateCardRequest) (*models.CardInstance, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID, req)
	}
	return &models.CardInstance{}, nil
}

func (s *testCollectionService) Update(ctx context.Context, userID, cardID uuid.UUID, req collection.UpdateCardRequest) (*models.CardInstance, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, userID, cardID, req)
	}
	return &models.CardInstance{}, nil
}

func (s *testCollectionService) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, cardID)
	}
	return nil
}

func (s *testCollectionService) Totals(ctx context.Context, userID uuid.UUID) (*collection.Totals, error) {
	if s.totalsFn != nil {
		return s.totalsFn(ctx, userID)
	}
	return &collection.Totals{}, nil
}

func (s *testCollectionService) AllocationSummary(ctx context.Context, userID, cardID uuid.UUID) (*allocations.Summary, error) {
	if s.summaryFn != nil {
		return s.summaryFn(ctx, userID, cardID)
	}
	return &allocations.Summary{}, nil
}

func (s *testCollectionService) CheckReduction(ctx context.Context, userID, cardID uuid.UUID, newQuantity int) (*allocations.ReductionCheck, error) {
	if s.checkReductionFn != nil {
		return s.checkReductionFn(ctx, userID, cardID, newQuantity)
	}
	return &allocations.ReductionCheck{}, nil
}

func (s *testCollectionService) ResyncListings(ctx context.Context, userID uuid.UUID) error {
	if s.resyncFn != nil {
		return s.resyncFn(ctx, userID)
	}
	return nil
}

func TestCollectionCreateReturns201(t *testing.T) {
	userID := uuid.New()
	called := false
	svc := &testCollectionService{
		createFn: func(ctx context.Context, uid uuid.UUID, req collection.CreateCardRequest) (*models.CardInstance, error) {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if req.Name != "Lightning Bolt" {
				t.Fatalf("unexpected name %q", req.Name)
			}
			return &models.CardInstance{ID: uuid.New(), Name: req.Name}, nil
		},
	}

	body := `{"name":"Lightning Bolt","edition":"LEA","quantity":2}`
	req := authedRequest(http.MethodPost, "/api/v1/collection", body, userID)
	resp := httptest.NewRecorder()
	CollectionCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d body %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestCollectionCreateRejectsUnknownFields(t *testing.T) {
	body := `{"name":"Bolt","edition":"LEA","quantity":1,"bogus":true}`
	req := authedRequest(http.MethodPost, "/api/v1/collection", body, uuid.New())
	resp := httptest.NewRecorder()
	CollectionCreate(&testCollectionService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCollectionUpdateOverAllocatedExposesDetails(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	svc := &testCollectionService{
		updateFn: func(ctx context.Context, uid, cid uuid.UUID, req collection.UpdateCardRequest) (*models.CardInstance, error) {
			check := &allocations.ReductionCheck{
				CanReduce:        false,
				CurrentAllocated: 3,
				ExcessAmount:     1,
			}
			return nil, pkgerrors.New(pkgerrors.CodeOverAllocated, "card is allocated to decks").WithDetails(check)
		},
	}

	body := `{"quantity":2}`
	req := authedRequest(http.MethodPatch, "/api/v1/collection/"+cardID.String(), body, userID)
	req = addRouteParam(req, "cardId", cardID.String())
	resp := httptest.NewRecorder()
	CollectionUpdate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Code    string                     `json:"code"`
			Details allocations.ReductionCheck `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeOverAllocated) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
	if envelope.Error.Details.ExcessAmount != 1 {
		t.Fatalf("expected excess 1 got %d", envelope.Error.Details.ExcessAmount)
	}
}

func TestCollectionCheckReductionRequiresQuantity(t *testing.T) {
	cardID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/v1/collection/"+cardID.String()+"/check-reduction", "", uuid.New())
	req = addRouteParam(req, "cardId", cardID.String())
	resp := httptest.NewRecorder()
	CollectionCheckReduction(&testCollectionService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCollectionCheckReductionPassesQuantity(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	var captured int
	svc := &testCollectionService{
		checkReductionFn: func(ctx context.Context, uid, cid uuid.UUID, newQuantity int) (*allocations.ReductionCheck, error) {
			captured = newQuantity
			return &allocations.ReductionCheck{CanReduce: true}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/collection/"+cardID.String()+"/check-reduction?quantity=2", "", userID)
	req = addRouteParam(req, "cardId", cardID.String())
	resp := httptest.NewRecorder()
	CollectionCheckReduction(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured != 2 {
		t.Fatalf("expected quantity 2 got %d", captured)
	}
}

func TestCollectionDeleteRequiresValidID(t *testing.T) {
	req := authedRequest(http.MethodDelete, "/api/v1/collection/bad", "", uuid.New())
	req = addRouteParam(req, "cardId", "bad")
	resp := httptest.NewRecorder()
	CollectionDelete(&testCollectionService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
