package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/folio/internal/adapter/http/dto"
	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// PositionService defines the behavior needed by PortfolioHandler.
type PositionService interface {
	GetHoldings(ctx context.Context, input usecase.GetHoldingsInput) ([]domain.Position, error)
	GetPortfolioSummary(ctx context.Context, input usecase.GetPortfolioSummaryInput) (*domain.PortfolioSummary, error)
}

// ReconcileService defines the behavior needed for reconciliation.
type ReconcileService interface {
	Reconcile(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconcileReport, error)
}

// PortfolioHandler handles holdings, summary and reconciliation requests.
type PortfolioHandler struct {
	positionUC  PositionService
	reconcileUC ReconcileService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(positionUC PositionService, reconcileUC ReconcileService) *PortfolioHandler {
	return &PortfolioHandler{
		positionUC:  positionUC,
		reconcileUC: reconcileUC,
	}
}

// Holdings resolves an account's current positions.
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	asOf, err := parseTimeQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of parameter", err.Error())
		return
	}

	positions, err := h.positionUC.GetHoldings(r.Context(), usecase.GetHoldingsInput{
		AccountID: accountID,
		AsOf:      asOf,
		Currency:  strings.ToUpper(r.URL.Query().Get("currency")),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve holdings", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PositionsFromDomain(positions))
}

// Summary aggregates positions across accounts in one currency. Accounts
// whose lookups fail carry an error entry; the response is still 200.
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = "USD"
	}

	var accountIDs []string
	if ids := r.URL.Query().Get("account_ids"); ids != "" {
		accountIDs = strings.Split(ids, ",")
	}

	asOf, err := parseTimeQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of parameter", err.Error())
		return
	}

	summary, err := h.positionUC.GetPortfolioSummary(r.Context(), usecase.GetPortfolioSummaryInput{
		OwnerID:    r.URL.Query().Get("owner_id"),
		AccountIDs: accountIDs,
		Currency:   currency,
		AsOf:       asOf,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to build summary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromDomain(summary))
}

// Reconcile runs a snapshot-vs-ledger check for one account.
func (h *PortfolioHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.ReconcileRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	report, err := h.reconcileUC.Reconcile(r.Context(), usecase.ReconcileInput{
		AccountID: accountID,
		AsOf:      req.AsOf,
		Tolerance: req.Tolerance,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconcileFromUseCase(report))
}
