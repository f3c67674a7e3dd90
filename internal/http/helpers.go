package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// writeJSON serializes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

// writeError emits the `{"error": "..."}` body the frontend expects.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// parseAmountField converts a JSON amount (number or string) into Money,
// enforcing consistency between its sign and the transaction type.
func parseAmountField(raw json.Number, typ core.TransactionType) (core.Money, error) {
	amount, negative, err := core.ParseAmount(raw.String())
	if err != nil {
		return core.Money{}, err
	}
	if negative && typ == core.Income {
		return core.Money{}, core.ErrAmountTypeConflict
	}
	return amount, nil
}

// transactionBody is the request payload for transaction create/update.
// Notes is a pointer so updates can tell an absent field (keep the stored
// value) from an explicit empty string (clear it).
type transactionBody struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Notes       *string     `json:"notes"`
}

func (b transactionBody) toTransaction() (core.Transaction, error) {
	date, err := core.ParseDate(b.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(b.Type)))
	if !typ.Valid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	amount, err := parseAmountField(b.Amount, typ)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	tx := core.Transaction{
		Date:        date,
		Description: sanitizeInput(b.Description),
		Amount:      amount,
		Type:        typ,
		Category:    sanitizeInput(b.Category),
		Notes:       sanitizeInput(strValue(b.Notes)),
	}
	return tx, tx.Validate()
}

// recurringBody is the request payload for recurring rule create/update.
// Notes and EndDate are pointers for the same absent-vs-empty distinction
// as transactionBody: an empty string clears the field on update.
type recurringBody struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Notes       *string     `json:"notes"`
	Frequency   string      `json:"frequency"`
	StartDate   string      `json:"start_date"`
	EndDate     *string     `json:"end_date"`
	IsActive    *bool       `json:"is_active"`
}

func (b recurringBody) toRule() (core.RecurringRule, error) {
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(b.Type)))
	if !typ.Valid() {
		return core.RecurringRule{}, core.ErrInvalidType
	}
	amount, err := parseAmountField(b.Amount, typ)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("amount: %w", err)
	}
	freq := core.Frequency(strings.ToLower(strings.TrimSpace(b.Frequency)))
	if !freq.Valid() {
		return core.RecurringRule{}, core.ErrInvalidFrequency
	}
	start, err := core.ParseDate(b.StartDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("start_date: %w", err)
	}
	rule := core.RecurringRule{
		Description: sanitizeInput(b.Description),
		Amount:      amount,
		Type:        typ,
		Category:    sanitizeInput(b.Category),
		Notes:       sanitizeInput(strValue(b.Notes)),
		Frequency:   freq,
		StartDate:   start,
		IsActive:    true,
	}
	if strValue(b.EndDate) != "" {
		end, err := core.ParseDate(*b.EndDate)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("end_date: %w", err)
		}
		rule.EndDate = end
	}
	if b.IsActive != nil {
		rule.IsActive = *b.IsActive
	}
	return rule, nil
}

// decodeBody unmarshals a JSON request body, preserving number precision.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// transactionJSON mirrors the row shape the frontend consumes: amounts as
// signed decimals, recurring_id null for manual entries.
type transactionJSON struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Notes       string  `json:"notes"`
	RecurringID *int64  `json:"recurring_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func renderTransaction(tx core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          tx.ID,
		Date:        tx.Date.String(),
		Description: tx.Description,
		Amount:      tx.Amount.SignedFloat(tx.Type),
		Type:        string(tx.Type),
		Category:    tx.Category,
		Notes:       tx.Notes,
		CreatedAt:   formatTimestamp(tx.CreatedAt),
		UpdatedAt:   formatTimestamp(tx.UpdatedAt),
	}
	if tx.RecurringID != 0 {
		id := tx.RecurringID
		out.RecurringID = &id
	}
	return out
}

func renderTransactions(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, renderTransaction(tx))
	}
	return out
}

type recurringJSON struct {
	ID             int64   `json:"id"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	Type           string  `json:"type"`
	Category       string  `json:"category"`
	Notes          string  `json:"notes"`
	Frequency      string  `json:"frequency"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	NextOccurrence string  `json:"next_occurrence"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func renderRule(rule core.RecurringRule) recurringJSON {
	out := recurringJSON{
		ID:             rule.ID,
		Description:    rule.Description,
		Amount:         rule.Amount.SignedFloat(rule.Type),
		Type:           string(rule.Type),
		Category:       rule.Category,
		Notes:          rule.Notes,
		Frequency:      string(rule.Frequency),
		StartDate:      rule.StartDate.String(),
		NextOccurrence: rule.NextOccurrence.String(),
		IsActive:       rule.IsActive,
		CreatedAt:      formatTimestamp(rule.CreatedAt),
		UpdatedAt:      formatTimestamp(rule.UpdatedAt),
	}
	if !rule.EndDate.IsZero() {
		end := rule.EndDate.String()
		out.EndDate = &end
	}
	return out
}

type budgetGoalJSON struct {
	ID            int64   `json:"id,omitempty"`
	MonthlyIncome float64 `json:"monthly_income"`
	DebtPayments  float64 `json:"debt_payments"`
	Savings       float64 `json:"savings"`
	Investments   float64 `json:"investments"`
	Discretionary float64 `json:"discretionary"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

func renderBudgetGoal(g core.BudgetGoal) budgetGoalJSON {
	return budgetGoalJSON{
		ID:            g.ID,
		MonthlyIncome: g.MonthlyIncome.Float(),
		DebtPayments:  g.DebtPayments.Float(),
		Savings:       g.Savings.Float(),
		Investments:   g.Investments.Float(),
		Discretionary: g.Discretionary.Float(),
		CreatedAt:     formatTimestamp(g.CreatedAt),
	}
}

type accountJSON struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Type                string  `json:"type"`
	Balance             float64 `json:"balance"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

func renderAccount(a core.Account) accountJSON {
	return accountJSON{
		ID:                  a.ID,
		Name:                a.Name,
		Type:                a.Type,
		Balance:             a.Balance.Float(),
		MonthlyContribution: a.MonthlyContribution.Float(),
		CreatedAt:           formatTimestamp(a.CreatedAt),
		UpdatedAt:           formatTimestamp(a.UpdatedAt),
	}
}
