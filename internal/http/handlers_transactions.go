package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// handleListTransactions materializes due recurring rules, then returns the
// ledger filtered by the query parameters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if n, err := s.materializer.MaterializeDue(ctx, core.Today()); err != nil {
		slog.ErrorContext(ctx, "Materialization before list failed", "error", err)
	} else if n > 0 {
		s.invalidateAnalytics()
	}

	filter := storage.TransactionFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}
	if v := strings.TrimSpace(r.URL.Query().Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		filter.From = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		filter.To = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		typ := core.TransactionType(strings.ToLower(v))
		if !typ.Valid() {
			writeError(w, http.StatusBadRequest, "invalid type")
			return
		}
		filter.Type = typ
	}

	txs, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "Transaction list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, renderTransactions(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body transactionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := body.toTransaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.transactions.CreateTransaction(ctx, tx)
	if err != nil {
		slog.ErrorContext(ctx, "Transaction create failed", "error", err, "description", tx.Description)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}
	s.invalidateAnalytics()
	writeJSON(w, http.StatusCreated, renderTransaction(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		slog.ErrorContext(ctx, "Transaction lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}

	var body transactionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Absent fields keep their stored values.
	if body.Date == "" {
		body.Date = existing.Date.String()
	}
	if body.Description == "" {
		body.Description = existing.Description
	}
	if body.Amount == "" {
		body.Amount = json.Number(existing.Amount.Decimal().String())
	}
	if body.Type == "" {
		body.Type = string(existing.Type)
	}
	if body.Category == "" {
		body.Category = existing.Category
	}
	if body.Notes == nil {
		// Absent keeps the stored notes; an explicit "" clears them.
		body.Notes = &existing.Notes
	}

	tx, err := body.toTransaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx.ID = id
	tx.RecurringID = existing.RecurringID

	updated, err := s.transactions.UpdateTransaction(ctx, tx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		if errors.Is(err, storage.ErrDuplicateOccurrence) {
			writeError(w, http.StatusConflict, "A transaction for this occurrence already exists")
			return
		}
		slog.ErrorContext(ctx, "Transaction update failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}
	s.invalidateAnalytics()
	writeJSON(w, http.StatusOK, renderTransaction(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.transactions.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		slog.ErrorContext(ctx, "Transaction delete failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	s.invalidateAnalytics()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}
