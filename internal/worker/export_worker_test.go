package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeLedger struct {
	appended []core.Transaction
	err      error
}

func (f *fakeLedger) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, tx)
	return "Ledger!A2:F2", nil
}

func newTestWorker(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *fakeLedger) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ledger := &fakeLedger{}
	return NewExportWorker(repo, ledger), repo, ledger
}

func TestHandleSyncMessageExportsTransaction(t *testing.T) {
	ctx := context.Background()
	w, repo, ledger := newTestWorker(t)

	id, err := repo.InsertTransaction(ctx, core.Transaction{
		Date:        core.MustParseDate("2025-08-01"),
		Description: "Rent",
		Amount:      core.Money{Cents: 120000},
		Type:        core.Expense,
		Category:    "Housing",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(id, 1)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(ledger.appended) != 1 || ledger.appended[0].Description != "Rent" {
		t.Errorf("appended = %+v", ledger.appended)
	}
}

func TestHandleSyncMessageDropsDeletedTransaction(t *testing.T) {
	ctx := context.Background()
	w, _, ledger := newTestWorker(t)

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(9999, 1)); err != nil {
		t.Fatalf("expected missing transaction to be dropped, got %v", err)
	}
	if len(ledger.appended) != 0 {
		t.Errorf("appended = %+v, want none", ledger.appended)
	}
}

func TestHandleSyncMessagePropagatesLedgerError(t *testing.T) {
	ctx := context.Background()
	w, repo, ledger := newTestWorker(t)
	ledger.err = errors.New("quota exceeded")

	id, err := repo.InsertTransaction(ctx, core.Transaction{
		Date:        core.MustParseDate("2025-08-01"),
		Description: "Rent",
		Amount:      core.Money{Cents: 120000},
		Type:        core.Expense,
		Category:    "Housing",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(id, 1)); err == nil {
		t.Error("expected ledger error to propagate for requeue")
	}
}
