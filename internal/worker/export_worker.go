// Package worker consumes transaction sync messages and appends the
// referenced rows to the external ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// ExportWorker synchronizes ledger transactions to the export sink.
type ExportWorker struct {
	storage *storage.SQLiteRepository
	ledger  sheets.LedgerWriter
}

func NewExportWorker(storage *storage.SQLiteRepository, ledger sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{storage: storage, ledger: ledger}
}

// HandleSyncMessage processes one sync message: load the transaction and
// append it to the ledger. A deleted transaction is not an error; the
// message is simply dropped.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	tx, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before export, dropping message", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.ledger.AppendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("append transaction to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", msg.ID,
		"ledger_ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)
	return nil
}
