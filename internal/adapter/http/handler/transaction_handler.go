package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/folio/internal/adapter/http/dto"
	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// LedgerService defines the behavior needed by TransactionHandler.
type LedgerService interface {
	RecordTransaction(ctx context.Context, input usecase.RecordTransactionInput) (*domain.Transaction, bool, error)
	Transactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

// TransactionHandler handles ledger HTTP requests.
type TransactionHandler struct {
	ledgerUC LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerUC LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerUC: ledgerUC}
}

// Record appends one transaction. A redelivered provider row returns 200
// with the original row and created=false.
func (h *TransactionHandler) Record(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, created, err := h.ledgerUC.RecordTransaction(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record transaction", err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, dto.TransactionFromDomain(txn, created))
}

// List lists an account's ledger rows in trade-date order.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	txns, err := h.ledgerUC.Transactions(r.Context(), usecase.ListTransactionsInput{
		AccountID: accountID,
		Ticker:    r.URL.Query().Get("ticker"),
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}
