// Package services holds the business logic that sits between the HTTP
// layer and storage: the recurring-transaction materializer and the
// transaction orchestration service.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ruleConcurrency bounds how many rules are processed in parallel.
const ruleConcurrency = 4

// RuleStore is the recurring-rule side of the persistence layer.
type RuleStore interface {
	ListDueRules(ctx context.Context, today core.Date) ([]core.RecurringRule, error)
	UpdateRuleCursor(ctx context.Context, id int64, next core.Date) error
}

// LedgerSink receives materialized transactions. InsertTransaction must
// reject a duplicate (recurring_id, date) pair with
// storage.ErrDuplicateOccurrence; that constraint is what keeps
// materialization idempotent across concurrent runs and crash retries.
type LedgerSink interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error)
}

// EventPublisher is notified of every materialized transaction, best effort.
type EventPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
}

// Materializer turns due recurring rules into ledger transactions and
// advances each rule's next-occurrence cursor.
type Materializer struct {
	rules  RuleStore
	ledger LedgerSink
	events EventPublisher // optional
}

func NewMaterializer(rules RuleStore, ledger LedgerSink, events EventPublisher) *Materializer {
	return &Materializer{
		rules:  rules,
		ledger: ledger,
		events: events,
	}
}

// MaterializeDue emits one transaction for every missed occurrence of every
// due rule, catching up rules that have been due for several periods in a
// single call. It returns the number of transactions actually inserted.
//
// Rules are processed independently: one rule failing does not stop the
// others, and its error only shows up in the logs and the reduced count.
// Occurrences already present in the ledger are skipped silently, so
// repeated or concurrent calls with the same today converge on the same
// ledger state.
func (m *Materializer) MaterializeDue(ctx context.Context, today core.Date) (int, error) {
	due, err := m.rules.ListDueRules(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list due rules: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Materializing due recurring rules",
		"due_rules", len(due),
		"today", today.String())

	var emitted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ruleConcurrency)

	for _, rule := range due {
		g.Go(func() error {
			n, err := m.materializeRule(gctx, rule, today)
			emitted.Add(int64(n))
			if err != nil {
				// Isolated per-rule failure; siblings keep going.
				slog.ErrorContext(gctx, "Failed to materialize recurring rule",
					"rule_id", rule.ID,
					"description", rule.Description,
					"emitted", n,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	count := int(emitted.Load())
	slog.InfoContext(ctx, "Materialization complete",
		"emitted", count,
		"due_rules", len(due))

	return count, nil
}

// materializeRule walks a single rule's cursor forward until it passes
// today, emitting one transaction per occurrence. The cursor is persisted
// after every emission; if the process dies between the insert and the
// cursor write, the next run hits the ledger's uniqueness constraint for
// that occurrence and re-advances the cursor without emitting twice.
func (m *Materializer) materializeRule(ctx context.Context, rule core.RecurringRule, today core.Date) (int, error) {
	emitted := 0
	cursor := rule.NextOccurrence

	for !cursor.After(today) {
		if !rule.EndDate.IsZero() && cursor.After(rule.EndDate) {
			break
		}

		id, err := m.ledger.InsertTransaction(ctx, core.Transaction{
			Date:        cursor,
			Description: rule.Description,
			Amount:      rule.Amount,
			Type:        rule.Type,
			Category:    rule.Category,
			Notes:       rule.Notes,
			RecurringID: rule.ID,
		})
		switch {
		case errors.Is(err, storage.ErrDuplicateOccurrence):
			// Lost a race or retrying after a crash: the occurrence is
			// already in the ledger. Advance past it without counting.
			slog.DebugContext(ctx, "Occurrence already materialized",
				"rule_id", rule.ID,
				"occurrence", cursor.String())
		case err != nil:
			return emitted, fmt.Errorf("insert occurrence %s: %w", cursor, err)
		default:
			emitted++
			slog.InfoContext(ctx, "Materialized transaction from recurring rule",
				"rule_id", rule.ID,
				"transaction_id", id,
				"occurrence", cursor.String(),
				"amount_cents", rule.Amount.Cents,
				"frequency", string(rule.Frequency))
			m.publishSync(ctx, id)
		}

		cursor = core.NextDate(cursor, rule.Frequency)
		if err := m.rules.UpdateRuleCursor(ctx, rule.ID, cursor); err != nil {
			return emitted, fmt.Errorf("advance cursor to %s: %w", cursor, err)
		}
	}

	return emitted, nil
}

func (m *Materializer) publishSync(ctx context.Context, id int64) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishTransactionSync(ctx, id, 1); err != nil {
		// Export is best effort; the transaction is already persisted.
		slog.WarnContext(ctx, "Failed to publish sync message",
			"transaction_id", id,
			"error", err)
	}
}
