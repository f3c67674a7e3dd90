package http

import (
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// periodStart maps a reporting period to its first included date.
func periodStart(period string, today core.Date) core.Date {
	switch period {
	case "6months":
		return core.AddMonths(today, -6)
	case "year":
		return core.AddMonths(today, -12)
	default: // "month"
		return today.FirstOfMonth()
	}
}

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period := strings.TrimSpace(r.URL.Query().Get("period"))
	switch period {
	case "", "month":
		period = "month"
	case "6months", "year":
	default:
		period = "month"
	}

	rows, found := s.spendingCache.Get(period)
	if !found {
		var err error
		rows, err = s.store.SpendingByCategory(ctx, periodStart(period, core.Today()))
		if err != nil {
			slog.ErrorContext(ctx, "Spending aggregation failed", "error", err, "period", period)
			writeError(w, http.StatusInternalServerError, "failed to aggregate spending")
			return
		}
		s.spendingCache.Set(period, rows)
	}

	type row struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row{Category: r.Category, Amount: r.Amount.Float()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFinancialOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ov, found := s.overviewCache.Get("current")
	if !found {
		var err error
		ov, err = s.store.Overview(ctx, core.Today().FirstOfMonth())
		if err != nil {
			slog.ErrorContext(ctx, "Overview aggregation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to compute overview")
			return
		}
		s.overviewCache.Set("current", ov)
	}

	// TODO: derive debt and net worth from account balances once account
	// types distinguish liabilities.
	writeJSON(w, http.StatusOK, map[string]float64{
		"income":    ov.Income.Float(),
		"expenses":  ov.Expenses.Float(),
		"savings":   core.Money{Cents: ov.SavingsCents}.Float(),
		"debt":      12500,
		"net_worth": 25750,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cats, err := s.store.Categories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Category list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
