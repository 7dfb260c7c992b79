/*
types.go - Core domain types for the bookstore inventory system

PURPOSE:
  Defines the records the system is built around:
  - Catalog:  Genre, Book (leaf data, no behavior)
  - Ledger:   Inventory (current stock) + Transaction (stock history)
  - Sales:    Sale (revenue-bearing record with historical price)

DESIGN DECISIONS:
  1. Typed enum: TransactionType is a closed set. Every consumer
     switches exhaustively; adding a type is a conscious code change.
  2. Precision: Money (Book.Price, Sale.UnitPrice) uses decimal.Decimal
     to avoid floating-point errors in revenue arithmetic.
  3. Signed deltas: Transaction quantities are stored positive; the
     sign comes from the type (ARRIVAL +, SALE/LOSS/THEFT -). The
     signed sum over a book's history equals its current stock.

RELATIONSHIPS:
  Genre 1—* Book
  Book  1—1 Inventory
  Inventory 1—* Transaction
  Book  1—* Sale

SEE ALSO:
  - ledger.go: Operations that mutate Inventory and append Transactions
  - report.go: Aggregation over Sale records
  - errors.go: Validation and invariant errors
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION TYPE - Closed set of stock-changing events
// =============================================================================

// TransactionType identifies a stock-changing event.
type TransactionType string

const (
	// TxArrival is a stock increase from an incoming shipment.
	TxArrival TransactionType = "ARRIVAL"
	// TxSale is a stock decrease paired with a Sale record.
	TxSale TransactionType = "SALE"
	// TxLoss is a stock decrease from misplaced or damaged stock.
	TxLoss TransactionType = "LOSS"
	// TxTheft is a stock decrease from shoplifting.
	TxTheft TransactionType = "THEFT"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxArrival, TxSale, TxLoss, TxTheft:
		return true
	}
	return false
}

// Sign returns +1 for stock increases and -1 for decreases.
func (t TransactionType) Sign() int {
	if t == TxArrival {
		return 1
	}
	return -1
}

// IsAdjustment reports whether t is a reason-bearing shrinkage event.
func (t TransactionType) IsAdjustment() bool {
	return t == TxLoss || t == TxTheft
}

// =============================================================================
// CATALOG
// =============================================================================

// Genre is a book category. Names are unique.
type Genre struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Book is an immutable catalog identity. ISBNs are unique.
// Books are created via catalog management and never mutated
// by the ledger.
type Book struct {
	ID        string
	ISBN      string
	Title     string
	Author    string
	Publisher string
	GenreID   string
	Price     decimal.Decimal // tax-inclusive list price
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// LEDGER
// =============================================================================

// Inventory holds the current stock quantity for one book.
// Exactly one row per book, created lazily on first arrival.
//
// INVARIANT: Quantity >= 0 at all times. No operation may commit
// a negative result.
type Inventory struct {
	ID        string
	BookID    string
	Quantity  int
	UpdatedAt time.Time
}

// Transaction is one immutable stock-quantity change event.
// Never updated or deleted after creation.
//
// INVARIANT: For every inventory, the signed sum of its transaction
// quantities (Type.Sign() * Quantity) equals Inventory.Quantity.
type Transaction struct {
	ID          string
	InventoryID string
	Type        TransactionType
	Quantity    int    // always positive; sign comes from Type
	Reason      string // required for LOSS/THEFT, empty otherwise
	CreatedAt   time.Time
}

// SignedQuantity returns the quantity with the type's sign applied.
func (t Transaction) SignedQuantity() int {
	return t.Type.Sign() * t.Quantity
}

// =============================================================================
// SALES
// =============================================================================

// Sale records a completed sale. UnitPrice captures the book's price
// at the moment of sale, decoupled from the catalog price so that
// historical reporting stays price-stable.
type Sale struct {
	ID        string
	BookID    string
	Quantity  int
	UnitPrice decimal.Decimal
	SoldAt    time.Time // business time of sale, not record creation
	CreatedAt time.Time
}

// Total returns the revenue for this sale.
func (s Sale) Total() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// BookSales is one row of a top-selling report.
type BookSales struct {
	BookID        string
	Title         string
	Author        string
	TotalQuantity int
}
