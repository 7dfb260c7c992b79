/*
ledger.go - Stock mutation rules and transaction history

PURPOSE:
  The Ledger is the sole authority for mutating stock quantity. Every
  mutation is paired with exactly one immutable Transaction record, so
  the history explains the current quantity at all times.

CRITICAL INVARIANTS:
  1. Quantity never goes negative. A decrement that exceeds current
     stock is rejected and leaves all state unchanged.
  2. Every mutation appends exactly one transaction. The signed sum of
     a book's transactions equals its current quantity.
  3. Transactions are append-only. No update, no delete.
  4. Multi-write operations (inventory update + transaction append
     [+ sale row]) are atomic: either all writes persist or none do.

FAILURE SEMANTICS:
  Validation failures (bad quantity, blank reason, insufficient stock,
  unknown book) are reported to the caller as rejected requests. They
  are not retried and not fatal; all state is left unchanged.

CONCURRENCY:
  The stock check and the decrement are performed by the store inside
  one atomic unit (guarded update). The ledger itself holds no state
  and is safe for concurrent use.

SEE ALSO:
  - store.go: StockChange and the atomicity contract
  - report.go: Read-only aggregation over sales
*/
package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ledger validates stock-changing requests and applies them through a
// LedgerStore.
type Ledger struct {
	store LedgerStore
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// RecordArrival registers incoming stock for a book. The inventory row
// is created lazily (quantity 0) on first arrival.
func (l *Ledger) RecordArrival(ctx context.Context, bookID string, quantity int) (*Inventory, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	book, err := l.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	return l.store.ApplyStockChange(ctx, StockChange{
		BookID:          book.ID,
		Delta:           quantity,
		CreateIfMissing: true,
		Transaction: Transaction{
			ID:        uuid.NewString(),
			Type:      TxArrival,
			Quantity:  quantity,
			CreatedAt: time.Now().UTC(),
		},
	})
}

// AdjustmentResult summarizes a completed loss/theft adjustment.
type AdjustmentResult struct {
	Book          *Book
	Type          TransactionType
	Quantity      int
	Reason        string
	QuantityAfter int
}

// RecordAdjustment registers a stock decrease from loss or theft.
// The reason is mandatory and must not be blank.
func (l *Ledger) RecordAdjustment(ctx context.Context, bookID string, kind TransactionType, quantity int, reason string) (*AdjustmentResult, error) {
	if !kind.IsAdjustment() {
		return nil, ErrInvalidTransactionType
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	book, err := l.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	// Existence is checked up front for a precise error; the
	// quantity guard itself lives inside ApplyStockChange.
	inv, err := l.store.GetInventory(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNoInventory
	}

	after, err := l.store.ApplyStockChange(ctx, StockChange{
		BookID: book.ID,
		Delta:  -quantity,
		Transaction: Transaction{
			ID:        uuid.NewString(),
			Type:      kind,
			Quantity:  quantity,
			Reason:    reason,
			CreatedAt: time.Now().UTC(),
		},
	})
	if err != nil {
		return nil, err
	}

	return &AdjustmentResult{
		Book:          book,
		Type:          kind,
		Quantity:      quantity,
		Reason:        reason,
		QuantityAfter: after.Quantity,
	}, nil
}

// RecordSale registers a completed sale: one Sale row capturing the
// book's current price, a stock decrement, and a SALE transaction,
// all in one atomic unit. A failure after the sale row is written is
// never observable; the whole operation rolls back.
func (l *Ledger) RecordSale(ctx context.Context, bookID string, quantity int, soldAt time.Time) (*Sale, *Inventory, error) {
	if quantity <= 0 {
		return nil, nil, ErrInvalidQuantity
	}

	book, err := l.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	if book == nil {
		return nil, nil, ErrBookNotFound
	}

	inv, err := l.store.GetInventory(ctx, book.ID)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, ErrNoInventory
	}

	sale := &Sale{
		ID:        uuid.NewString(),
		BookID:    book.ID,
		Quantity:  quantity,
		UnitPrice: book.Price, // price at the moment of sale
		SoldAt:    soldAt,
		CreatedAt: time.Now().UTC(),
	}

	after, err := l.store.ApplyStockChange(ctx, StockChange{
		BookID: book.ID,
		Delta:  -quantity,
		Transaction: Transaction{
			ID:        uuid.NewString(),
			Type:      TxSale,
			Quantity:  quantity,
			CreatedAt: time.Now().UTC(),
		},
		Sale: sale,
	})
	if err != nil {
		return nil, nil, err
	}

	return sale, after, nil
}

// Transactions returns a book's full stock history, oldest first.
func (l *Ledger) Transactions(ctx context.Context, bookID string) ([]Transaction, error) {
	book, err := l.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return l.store.ListTransactions(ctx, book.ID)
}
