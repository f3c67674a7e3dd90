package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	txs := services.NewTransactionService(repo, nil)
	m := services.NewMaterializer(repo, repo, nil)
	srv := NewServer(":0", repo, txs, m)
	t.Cleanup(func() { srv.rateLimiter.stop(); srv.cacheManager.Stop() })
	return srv, repo
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCreateAndListTransactions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"date":        "2025-08-10",
		"description": "Groceries",
		"amount":      -85.5,
		"type":        "expense",
		"category":    "Food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decode[transactionJSON](t, rec)
	if created.ID == 0 || created.Amount != -85.5 || created.RecurringID != nil {
		t.Errorf("created = %+v", created)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decode[[]transactionJSON](t, rec)
	if len(list) != 1 || list[0].Description != "Groceries" {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"bad date", map[string]any{"date": "August 10", "description": "x", "amount": 1, "type": "expense", "category": "Food"}},
		{"zero amount", map[string]any{"date": "2025-08-10", "description": "x", "amount": 0, "type": "expense", "category": "Food"}},
		{"bad type", map[string]any{"date": "2025-08-10", "description": "x", "amount": 1, "type": "transfer", "category": "Food"}},
		{"negative income", map[string]any{"date": "2025-08-10", "description": "x", "amount": -5, "type": "income", "category": "Income"}},
		{"empty description", map[string]any{"date": "2025-08-10", "description": " ", "amount": 1, "type": "expense", "category": "Food"}},
		{"empty category", map[string]any{"date": "2025-08-10", "description": "x", "amount": 1, "type": "expense", "category": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			resp := decode[map[string]string](t, rec)
			if resp["error"] == "" {
				t.Errorf("missing error body: %s", rec.Body.String())
			}
		})
	}
}

func TestTransactionListFilters(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []map[string]any{
		{"date": "2025-07-01", "description": "old", "amount": 10, "type": "expense", "category": "Food"},
		{"date": "2025-08-01", "description": "new", "amount": 20, "type": "expense", "category": "Transport"},
		{"date": "2025-08-05", "description": "pay", "amount": 5000, "type": "income", "category": "Income"},
	} {
		if rec := doJSON(t, srv, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %s", rec.Body.String())
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"?start_date=2025-08-01", 2},
		{"?end_date=2025-07-31", 1},
		{"?category=Food", 1},
		{"?type=income", 1},
	}
	for _, tt := range tests {
		rec := doJSON(t, srv, http.MethodGet, "/api/transactions"+tt.query, nil)
		list := decode[[]transactionJSON](t, rec)
		if len(list) != tt.want {
			t.Errorf("%s: len = %d, want %d", tt.query, len(list), tt.want)
		}
	}
}

func TestUpdateTransactionPartialBody(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2025-08-10", "description": "Dinner", "amount": 42, "type": "expense", "category": "Food",
	})
	created := decode[transactionJSON](t, rec)

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), map[string]any{
		"description": "Dinner out",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decode[transactionJSON](t, rec)
	if updated.Description != "Dinner out" {
		t.Errorf("description = %q", updated.Description)
	}
	if updated.Amount != -42 || updated.Category != "Food" {
		t.Errorf("unchanged fields lost: %+v", updated)
	}
}

func TestUpdateClearsOptionalFields(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2025-08-10", "description": "Lunch", "amount": -20,
		"type": "expense", "category": "Food", "notes": "Team lunch",
	})
	created := decode[transactionJSON](t, rec)

	// An absent notes key keeps the stored value.
	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), map[string]any{
		"description": "Lunch out",
	})
	if got := decode[transactionJSON](t, rec); got.Notes != "Team lunch" {
		t.Errorf("notes after unrelated update = %q, want kept", got.Notes)
	}

	// An explicit empty string clears it.
	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), map[string]any{
		"notes": "",
	})
	if got := decode[transactionJSON](t, rec); got.Notes != "" {
		t.Errorf("notes after clearing = %q, want empty", got.Notes)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/recurring-transactions", map[string]any{
		"description": "Gym",
		"amount":      45,
		"type":        "expense",
		"category":    "Health",
		"frequency":   "monthly",
		"start_date":  "2025-08-01",
		"end_date":    "2026-08-01",
	})
	rule := decode[recurringJSON](t, rec)
	if rule.EndDate == nil || *rule.EndDate != "2026-08-01" {
		t.Fatalf("end_date = %v, want 2026-08-01", rule.EndDate)
	}

	// Absent end_date keeps the stored value; "" removes it.
	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/recurring-transactions/%d", rule.ID), map[string]any{
		"category": "Fitness",
	})
	if got := decode[recurringJSON](t, rec); got.EndDate == nil || *got.EndDate != "2026-08-01" {
		t.Errorf("end_date after unrelated update = %v, want kept", got.EndDate)
	}

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/recurring-transactions/%d", rule.ID), map[string]any{
		"end_date": "",
	})
	if got := decode[recurringJSON](t, rec); got.EndDate != nil {
		t.Errorf("end_date after clearing = %v, want null", got.EndDate)
	}
}

func TestUpdateOntoExistingOccurrenceConflicts(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()

	rule := core.RecurringRule{
		Description:    "Rent",
		Amount:         core.Money{Cents: 120000},
		Type:           core.Expense,
		Category:       "Housing",
		Frequency:      core.Monthly,
		StartDate:      core.MustParseDate("2025-07-01"),
		NextOccurrence: core.MustParseDate("2025-09-01"),
		IsActive:       true,
	}
	ruleID, err := repo.InsertRule(ctx, rule)
	if err != nil {
		t.Fatalf("insert rule: %v", err)
	}
	var augustID int64
	for _, date := range []string{"2025-07-01", "2025-08-01"} {
		id, err := repo.InsertTransaction(ctx, core.Transaction{
			Date: core.MustParseDate(date), Description: "Rent",
			Amount: core.Money{Cents: 120000}, Type: core.Expense,
			Category: "Housing", RecurringID: ruleID,
		})
		if err != nil {
			t.Fatalf("insert occurrence %s: %v", date, err)
		}
		augustID = id
	}

	rec := doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", augustID), map[string]any{
		"date": "2025-07-01",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2025-08-10", "description": "x", "amount": 1, "type": "expense", "category": "Food",
	})
	created := decode[transactionJSON](t, rec)

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", rec.Code)
	}
}

func TestRecurringLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/recurring-transactions", map[string]any{
		"description": "Rent",
		"amount":      1200,
		"type":        "expense",
		"category":    "Housing",
		"frequency":   "monthly",
		"start_date":  "2025-08-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decode[recurringJSON](t, rec)
	if created.NextOccurrence != "2025-09-01" {
		t.Errorf("next_occurrence = %s, want one period after start", created.NextOccurrence)
	}
	if created.EndDate != nil || !created.IsActive {
		t.Errorf("created = %+v", created)
	}

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/recurring-transactions/%d", created.ID), map[string]any{
		"is_active": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decode[recurringJSON](t, rec)
	if updated.IsActive {
		t.Error("rule still active after deactivation")
	}
	if updated.NextOccurrence != created.NextOccurrence {
		t.Errorf("cursor moved on unrelated update: %s", updated.NextOccurrence)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/recurring-transactions/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/recurring-transactions", nil)
	if list := decode[[]recurringJSON](t, rec); len(list) != 0 {
		t.Errorf("rules after delete = %+v", list)
	}
}

func TestProcessRecurringEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)

	rule := core.RecurringRule{
		Description:    "Netflix",
		Amount:         core.Money{Cents: 1799},
		Type:           core.Expense,
		Category:       "Entertainment",
		Frequency:      core.Monthly,
		StartDate:      core.MustParseDate("2025-01-01"),
		NextOccurrence: core.MustParseDate("2025-01-01"),
		IsActive:       true,
	}
	if _, err := repo.InsertRule(context.Background(), rule); err != nil {
		t.Fatalf("insert rule: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/process-recurring", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	processed, ok := resp["processed"].(float64)
	if !ok || processed < 1 {
		t.Errorf("processed = %v", resp["processed"])
	}

	// A second trigger finds nothing due.
	rec = doJSON(t, srv, http.MethodPost, "/api/process-recurring", nil)
	resp = decode[map[string]any](t, rec)
	if resp["processed"].(float64) != 0 {
		t.Errorf("second run processed = %v, want 0", resp["processed"])
	}
}

func TestSpendingByCategoryEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)

	today := core.Today()
	for _, tx := range []core.Transaction{
		{Date: today, Description: "a", Amount: core.Money{Cents: 2000}, Type: core.Expense, Category: "Food"},
		{Date: today, Description: "b", Amount: core.Money{Cents: 3000}, Type: core.Expense, Category: "Food"},
		{Date: today, Description: "c", Amount: core.Money{Cents: 1000}, Type: core.Expense, Category: "Transport"},
	} {
		if _, err := repo.InsertTransaction(context.Background(), tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics/spending-by-category?period=month", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	type row struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
	rows := decode[[]row](t, rec)
	if len(rows) != 2 || rows[0].Category != "Food" || rows[0].Amount != 50 {
		t.Errorf("rows = %+v", rows)
	}

	// Served from cache on repeat.
	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/spending-by-category?period=month", nil)
	if again := decode[[]row](t, rec); len(again) != 2 {
		t.Errorf("cached rows = %+v", again)
	}
}

func TestFinancialOverviewEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)

	today := core.Today()
	for _, tx := range []core.Transaction{
		{Date: today, Description: "pay", Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "Income"},
		{Date: today, Description: "rent", Amount: core.Money{Cents: 120000}, Type: core.Expense, Category: "Housing"},
	} {
		if _, err := repo.InsertTransaction(context.Background(), tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics/financial-overview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	ov := decode[map[string]float64](t, rec)
	if ov["income"] != 5000 || ov["expenses"] != 1200 || ov["savings"] != 3800 {
		t.Errorf("overview = %+v", ov)
	}
}

func TestBudgetGoalsDefaultsAndRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/budget-goals", nil)
	defaults := decode[budgetGoalJSON](t, rec)
	if defaults.MonthlyIncome != 5200 || defaults.Discretionary != 2800 {
		t.Errorf("defaults = %+v", defaults)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/budget-goals", map[string]any{
		"monthly_income": 6000,
		"savings":        1500,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/budget-goals", nil)
	latest := decode[budgetGoalJSON](t, rec)
	if latest.MonthlyIncome != 6000 || latest.Savings != 1500 || latest.ID == 0 {
		t.Errorf("latest = %+v", latest)
	}
}

func TestAccountsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{
		"name":                 "TFSA",
		"type":                 "investment",
		"balance":              15000,
		"monthly_contribution": 500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{"name": "", "type": "savings"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/accounts", nil)
	accounts := decode[[]accountJSON](t, rec)
	if len(accounts) != 1 || accounts[0].Balance != 15000 {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/categories", nil)
	cats := decode[[]string](t, rec)
	if len(cats) == 0 {
		t.Fatal("expected default categories")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestListTransactionsMaterializesDueRules(t *testing.T) {
	srv, repo := newTestServer(t)

	rule := core.RecurringRule{
		Description:    "Gym",
		Amount:         core.Money{Cents: 4500},
		Type:           core.Expense,
		Category:       "Health",
		Frequency:      core.Monthly,
		StartDate:      core.Today().AddDays(-1),
		NextOccurrence: core.Today().AddDays(-1),
		IsActive:       true,
	}
	if _, err := repo.InsertRule(context.Background(), rule); err != nil {
		t.Fatalf("insert rule: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	list := decode[[]transactionJSON](t, rec)
	if len(list) != 1 || list[0].RecurringID == nil {
		t.Errorf("expected the due rule to materialize on read, got %+v", list)
	}
}
