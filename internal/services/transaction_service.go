package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionService orchestrates manual ledger writes: persist to SQLite,
// then publish an export event for the worker to pick up.
type TransactionService struct {
	storage *storage.SQLiteRepository
	events  EventPublisher // optional
}

func NewTransactionService(repo *storage.SQLiteRepository, events EventPublisher) *TransactionService {
	return &TransactionService{
		storage: repo,
		events:  events,
	}
}

// CreateTransaction saves a transaction and publishes a sync message.
// Publish failures are logged, not surfaced: the local write already
// succeeded and the export queue is best effort.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	id, err := s.storage.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishTransactionSync(ctx, id, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"transaction_id", id,
				"error", err)
		}
	}

	return s.storage.GetTransaction(ctx, id)
}

// UpdateTransaction persists changes to an existing transaction and bumps
// its export version.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := s.storage.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	if s.events != nil {
		if err := s.events.PublishTransactionSync(ctx, tx.ID, 2); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"transaction_id", tx.ID,
				"error", err)
		}
	}

	return s.storage.GetTransaction(ctx, tx.ID)
}

// DeleteTransaction removes a transaction from the ledger.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	return s.storage.DeleteTransaction(ctx, id)
}
