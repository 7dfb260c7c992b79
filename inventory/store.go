/*
store.go - Persistence interfaces between the domain and the database

PURPOSE:
  Defines what the ledger and the reporter need from storage without
  binding them to a database. Implementations:
  - store/sqlite: Production SQLite store
  - inventory/store: In-memory store for tests

ATOMICITY CONTRACT:
  ApplyStockChange is the single write entry point for the ledger.
  The implementation MUST apply the inventory delta, the transaction
  append, and the optional sale insert as one atomic unit: either all
  writes are durably committed or none are.

RACE CLOSURE:
  The quantity >= 0 invariant MUST be enforced inside the atomic unit
  (guarded conditional update or equivalent row serialization), not by
  an application-level check before the write. Two concurrent
  decrements on the same book must never jointly drive the quantity
  negative. Concurrent writes to different books must not block each
  other beyond what the storage engine requires.

SEE ALSO:
  - ledger.go: Validates and composes StockChange values
  - store/sqlite/sqlite.go: Guarded UPDATE inside one sql.Tx
*/
package inventory

import (
	"context"
	"time"
)

// StockChange describes one atomic ledger mutation: a signed quantity
// delta, the transaction record to append, and (for sales) the sale
// record to insert alongside.
type StockChange struct {
	BookID string

	// Delta is the signed quantity change. Positive for arrivals.
	Delta int

	// CreateIfMissing lazily creates the inventory row (quantity 0)
	// before applying the delta. Only arrivals set this.
	CreateIfMissing bool

	// Transaction is the history record paired with this mutation.
	// Its InventoryID is filled in by the store.
	Transaction Transaction

	// Sale, if non-nil, is written in the same atomic unit.
	Sale *Sale
}

// LedgerStore is what the ledger needs from storage.
type LedgerStore interface {
	// GetBook returns the book with the given ID, or nil if absent.
	GetBook(ctx context.Context, bookID string) (*Book, error)

	// GetInventory returns the inventory row for a book, or nil if the
	// book has never received stock.
	GetInventory(ctx context.Context, bookID string) (*Inventory, error)

	// ApplyStockChange atomically applies the change and returns the
	// resulting inventory row. Returns an InsufficientStockError if
	// the delta would drive the quantity negative, ErrNoInventory if
	// the row is missing and CreateIfMissing is false.
	ApplyStockChange(ctx context.Context, change StockChange) (*Inventory, error)

	// ListTransactions returns a book's full history, oldest first.
	ListTransactions(ctx context.Context, bookID string) ([]Transaction, error)
}

// SalesReader is what the reporter needs from storage.
type SalesReader interface {
	// TopSelling aggregates sales with sold_at >= since (no lower bound
	// when since is nil), optionally restricted to a genre, grouped by
	// book and summed. Rows are ordered by total quantity descending,
	// then book ID ascending, and truncated to limit.
	TopSelling(ctx context.Context, since *time.Time, genreID string, limit int) ([]BookSales, error)
}
