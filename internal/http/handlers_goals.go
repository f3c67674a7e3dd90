package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// defaultBudgetGoals is returned before any goals have been saved.
var defaultBudgetGoals = budgetGoalJSON{
	MonthlyIncome: 5200,
	DebtPayments:  800,
	Savings:       1000,
	Investments:   600,
	Discretionary: 2800,
}

func (s *Server) handleGetBudgetGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	goal, err := s.store.LatestBudgetGoal(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusOK, defaultBudgetGoals)
			return
		}
		slog.ErrorContext(ctx, "Budget goal lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load budget goals")
		return
	}
	writeJSON(w, http.StatusOK, renderBudgetGoal(goal))
}

// goalAmount converts an optional JSON number to Money; unlike transaction
// amounts, zero is allowed here.
func goalAmount(raw json.Number) (core.Money, error) {
	if raw == "" {
		return core.Money{}, nil
	}
	dec, err := decimal.NewFromString(raw.String())
	if err != nil || dec.IsNegative() {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.Money{Cents: dec.Mul(decimal.New(100, 0)).Round(0).IntPart()}, nil
}

func (s *Server) handleCreateBudgetGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		MonthlyIncome json.Number `json:"monthly_income"`
		DebtPayments  json.Number `json:"debt_payments"`
		Savings       json.Number `json:"savings"`
		Investments   json.Number `json:"investments"`
		Discretionary json.Number `json:"discretionary"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var goal core.BudgetGoal
	var err error
	fields := []struct {
		raw json.Number
		dst *core.Money
	}{
		{body.MonthlyIncome, &goal.MonthlyIncome},
		{body.DebtPayments, &goal.DebtPayments},
		{body.Savings, &goal.Savings},
		{body.Investments, &goal.Investments},
		{body.Discretionary, &goal.Discretionary},
	}
	for _, f := range fields {
		if *f.dst, err = goalAmount(f.raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
	}

	created, err := s.store.InsertBudgetGoal(ctx, goal)
	if err != nil {
		slog.ErrorContext(ctx, "Budget goal create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save budget goals")
		return
	}
	writeJSON(w, http.StatusOK, renderBudgetGoal(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Account list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, renderAccount(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Name                string      `json:"name"`
		Type                string      `json:"type"`
		Balance             json.Number `json:"balance"`
		MonthlyContribution json.Number `json:"monthly_contribution"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := core.Account{
		Name: sanitizeInput(body.Name),
		Type: sanitizeInput(body.Type),
	}
	var err error
	if account.Balance, err = goalAmount(body.Balance); err != nil {
		writeError(w, http.StatusBadRequest, "invalid balance")
		return
	}
	if account.MonthlyContribution, err = goalAmount(body.MonthlyContribution); err != nil {
		writeError(w, http.StatusBadRequest, "invalid monthly_contribution")
		return
	}
	if err := account.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.InsertAccount(ctx, account)
	if err != nil {
		slog.ErrorContext(ctx, "Account create failed", "error", err, "name", account.Name)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, renderAccount(created))
}
