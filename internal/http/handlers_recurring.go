package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rules, err := s.store.ListRules(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recurring transactions")
		return
	}
	out := make([]recurringJSON, 0, len(rules))
	for _, rule := range rules {
		out = append(out, renderRule(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body recurringBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := body.toRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// The cursor starts one period after the start date; the start date
	// itself is entered manually or via the first materialization window.
	rule.NextOccurrence = core.NextDate(rule.StartDate, rule.Frequency)
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.InsertRule(ctx, rule)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring create failed", "error", err, "description", rule.Description)
		writeError(w, http.StatusInternalServerError, "failed to create recurring transaction")
		return
	}
	created, err := s.store.GetRule(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring read-back failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load recurring transaction")
		return
	}
	writeJSON(w, http.StatusCreated, renderRule(created))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	existing, err := s.store.GetRule(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recurring transaction not found")
			return
		}
		slog.ErrorContext(ctx, "Recurring lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load recurring transaction")
		return
	}

	var body recurringBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
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
		body.Notes = &existing.Notes
	}
	if body.Frequency == "" {
		body.Frequency = string(existing.Frequency)
	}
	if body.StartDate == "" {
		body.StartDate = existing.StartDate.String()
	}
	if body.EndDate == nil && !existing.EndDate.IsZero() {
		// Absent keeps the stored end date; an explicit "" removes it.
		end := existing.EndDate.String()
		body.EndDate = &end
	}
	if body.IsActive == nil {
		active := existing.IsActive
		body.IsActive = &active
	}

	rule, err := body.toRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = id
	// The cursor stays on its lattice: only a schedule change resets it.
	rule.NextOccurrence = existing.NextOccurrence
	if rule.StartDate != existing.StartDate || rule.Frequency != existing.Frequency {
		rule.NextOccurrence = core.NextDate(rule.StartDate, rule.Frequency)
	}
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateRule(ctx, rule); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recurring transaction not found")
			return
		}
		slog.ErrorContext(ctx, "Recurring update failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update recurring transaction")
		return
	}
	updated, err := s.store.GetRule(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring read-back failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load recurring transaction")
		return
	}
	writeJSON(w, http.StatusOK, renderRule(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Materialized transactions keep their recurring_id back-reference.
	if err := s.store.DeleteRule(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recurring transaction not found")
			return
		}
		slog.ErrorContext(ctx, "Recurring delete failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete recurring transaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Recurring transaction deleted successfully"})
}

func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := s.materializer.MaterializeDue(ctx, core.Today())
	if err != nil {
		slog.ErrorContext(ctx, "Manual materialization failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process recurring transactions")
		return
	}
	if n > 0 {
		s.invalidateAnalytics()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Processed %d recurring transactions", n),
		"processed": n,
	})
}
