// Package sheets defines the outbound ports for the ledger export.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// LedgerWriter appends materialized and manual transactions to an external
// ledger, returning a reference to the written row.
type LedgerWriter interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
