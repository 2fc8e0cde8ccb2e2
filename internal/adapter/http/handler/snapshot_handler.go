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

// SnapshotService defines the behavior needed by SnapshotHandler.
type SnapshotService interface {
	RecordSnapshot(ctx context.Context, input usecase.RecordSnapshotInput) (*domain.Snapshot, bool, error)
	RecordSyncBatch(ctx context.Context, input usecase.RecordSyncBatchInput) (*usecase.SyncBatchResult, error)
	History(ctx context.Context, accountID, ticker string, limit, offset int) ([]*domain.Snapshot, error)
}

// SnapshotHandler handles snapshot ingest and history requests.
type SnapshotHandler struct {
	snapshotUC SnapshotService
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotUC SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotUC: snapshotUC}
}

// Record appends one snapshot row. Redelivered rows return 200 with
// created=false instead of 201.
func (h *SnapshotHandler) Record(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.RecordSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	snapshot, created, err := h.snapshotUC.RecordSnapshot(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record snapshot", err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, dto.SnapshotFromDomain(snapshot, created))
}

// Sync ingests a full sync delivery atomically.
func (h *SnapshotHandler) Sync(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.SyncBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.snapshotUC.RecordSyncBatch(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to ingest sync batch", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncBatchFromUseCase(result))
}

// History lists a ticker's snapshot rows, newest first.
func (h *SnapshotHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	ticker := chi.URLParam(r, "ticker")

	snapshots, err := h.snapshotUC.History(
		r.Context(),
		accountID,
		ticker,
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list snapshot history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SnapshotsFromDomain(snapshots))
}
