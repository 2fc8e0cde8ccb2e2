package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/adapter/http/dto"
	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

type positionServiceStub struct {
	holdingsFn func(ctx context.Context, input usecase.GetHoldingsInput) ([]domain.Position, error)
	summaryFn  func(ctx context.Context, input usecase.GetPortfolioSummaryInput) (*domain.PortfolioSummary, error)
}

func (s *positionServiceStub) GetHoldings(ctx context.Context, input usecase.GetHoldingsInput) ([]domain.Position, error) {
	return s.holdingsFn(ctx, input)
}

func (s *positionServiceStub) GetPortfolioSummary(ctx context.Context, input usecase.GetPortfolioSummaryInput) (*domain.PortfolioSummary, error) {
	return s.summaryFn(ctx, input)
}

type reconcileServiceStub struct {
	reconcileFn func(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconcileReport, error)
}

func (s *reconcileServiceStub) Reconcile(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconcileReport, error) {
	return s.reconcileFn(ctx, input)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestPortfolioHandler_Holdings_NullPricedFields(t *testing.T) {
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	h := NewPortfolioHandler(&positionServiceStub{
		holdingsFn: func(ctx context.Context, input usecase.GetHoldingsInput) ([]domain.Position, error) {
			// Price lookup failed: live fields nil, snapshot value kept.
			return []domain.Position{{
				Ticker:      "PRIVATE",
				Quantity:    decimal.NewFromInt(100),
				MarketValue: decimal.NewFromInt(1200),
				Currency:    "USD",
				PriceSource: "snapshot",
				AsOf:        asOf,
			}}, nil
		},
	}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/holdings", nil), "id", "acc-1")
	rec := httptest.NewRecorder()

	h.Holdings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var raw []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected 1 position, got %d", len(raw))
	}
	if _, present := raw[0]["current_price"]; present {
		t.Error("unavailable price must be omitted, not zero")
	}
	if raw[0]["market_value"] != "1200" {
		t.Errorf("expected last-known market value, got %v", raw[0]["market_value"])
	}
}

func TestPortfolioHandler_Holdings_MalformedAsOf(t *testing.T) {
	called := false
	h := NewPortfolioHandler(&positionServiceStub{
		holdingsFn: func(ctx context.Context, input usecase.GetHoldingsInput) ([]domain.Position, error) {
			called = true
			return nil, nil
		},
	}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/holdings?as_of=2024-13-99", nil), "id", "acc-1")
	rec := httptest.NewRecorder()

	h.Holdings(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed as_of, got %d: %s", rec.Code, rec.Body)
	}
	if called {
		t.Error("a malformed as_of must not reach the resolver")
	}
}

func TestPortfolioHandler_Summary_MalformedAsOf(t *testing.T) {
	h := NewPortfolioHandler(&positionServiceStub{
		summaryFn: func(ctx context.Context, input usecase.GetPortfolioSummaryInput) (*domain.PortfolioSummary, error) {
			t.Fatal("a malformed as_of must not reach the resolver")
			return nil, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/portfolio/summary?as_of=not-a-date", nil)
	rec := httptest.NewRecorder()

	h.Summary(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed as_of, got %d: %s", rec.Code, rec.Body)
	}
}

func TestPortfolioHandler_Holdings_AccountNotFound(t *testing.T) {
	h := NewPortfolioHandler(&positionServiceStub{
		holdingsFn: func(ctx context.Context, input usecase.GetHoldingsInput) ([]domain.Position, error) {
			return nil, domain.ErrAccountNotFound
		},
	}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/ghost/holdings", nil), "id", "ghost")
	rec := httptest.NewRecorder()

	h.Holdings(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPortfolioHandler_Reconcile(t *testing.T) {
	var captured usecase.ReconcileInput
	h := NewPortfolioHandler(nil, &reconcileServiceStub{
		reconcileFn: func(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconcileReport, error) {
			captured = input
			return &usecase.ReconcileReport{
				AccountID:      input.AccountID,
				TickersChecked: 2,
				Discrepancies: []domain.Discrepancy{{
					Ticker:                "MSFT",
					SnapshotQuantity:      decimal.NewFromInt(10),
					LedgerImpliedQuantity: decimal.Zero,
					Gap:                   decimal.NewFromInt(10),
				}},
				Tolerance: decimal.New(1, -6),
				CheckedAt: time.Now().UTC(),
			}, nil
		},
	})

	tolerance := decimal.RequireFromString("0.5")
	body, _ := json.Marshal(dto.ReconcileRequest{Tolerance: &tolerance})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/accounts/acc-1/reconcile", bytes.NewReader(body)), "id", "acc-1")
	rec := httptest.NewRecorder()

	h.Reconcile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if captured.AccountID != "acc-1" || captured.Tolerance == nil || !captured.Tolerance.Equal(tolerance) {
		t.Fatalf("unexpected input captured: %+v", captured)
	}

	var resp dto.ReconcileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Ticker != "MSFT" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPortfolioHandler_Reconcile_NoBody(t *testing.T) {
	h := NewPortfolioHandler(nil, &reconcileServiceStub{
		reconcileFn: func(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconcileReport, error) {
			return &usecase.ReconcileReport{AccountID: input.AccountID}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/accounts/acc-1/reconcile", nil), "id", "acc-1")
	rec := httptest.NewRecorder()

	h.Reconcile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("reconcile without body should use defaults, got %d", rec.Code)
	}
}

func TestPortfolioHandler_Summary_PartialResults(t *testing.T) {
	value := decimal.NewFromInt(1800)
	h := NewPortfolioHandler(&positionServiceStub{
		summaryFn: func(ctx context.Context, input usecase.GetPortfolioSummaryInput) (*domain.PortfolioSummary, error) {
			return &domain.PortfolioSummary{
				Currency: input.Currency,
				Accounts: []domain.AccountSummary{
					{AccountID: "acc-1", Currency: input.Currency, MarketValue: value, CurrentValue: &value},
					{AccountID: "acc-2", Currency: input.Currency, Err: "conversion unavailable: GBP->USD"},
				},
				MarketValue:  value,
				CurrentValue: &value,
			}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/portfolio/summary?owner_id=owner-1&currency=usd", nil)
	rec := httptest.NewRecorder()

	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("partial results must still be 200, got %d", rec.Code)
	}

	var resp dto.PortfolioSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Currency != "USD" {
		t.Errorf("expected uppercased currency, got %s", resp.Currency)
	}
	if len(resp.Accounts) != 2 || resp.Accounts[1].Error == "" {
		t.Fatalf("expected error entry for failed account: %+v", resp.Accounts)
	}
}
