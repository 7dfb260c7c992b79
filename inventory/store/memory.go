// Package store provides in-memory store implementations for tests.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shelfline/bookstore/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements inventory.LedgerStore and inventory.SalesReader.
// ApplyStockChange has the same all-or-nothing semantics as the SQLite
// store: the quantity guard is evaluated under the write lock, and a
// rejected change leaves no trace.
type Memory struct {
	mu           sync.RWMutex
	books        map[string]inventory.Book
	genres       map[string]inventory.Genre
	inventories  map[string]inventory.Inventory // keyed by book ID
	transactions map[string][]inventory.Transaction
	sales        []inventory.Sale
}

func NewMemory() *Memory {
	return &Memory{
		books:        make(map[string]inventory.Book),
		genres:       make(map[string]inventory.Genre),
		inventories:  make(map[string]inventory.Inventory),
		transactions: make(map[string][]inventory.Transaction),
	}
}

// PutGenre inserts or replaces a genre. Test setup helper.
func (m *Memory) PutGenre(g inventory.Genre) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.genres[g.ID] = g
}

// PutBook inserts or replaces a book. Test setup helper.
func (m *Memory) PutBook(b inventory.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
}

// Sales returns a copy of all recorded sales. Test inspection helper.
func (m *Memory) Sales() []inventory.Sale {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.Sale, len(m.sales))
	copy(out, m.sales)
	return out
}

// =============================================================================
// LEDGER STORE
// =============================================================================

func (m *Memory) GetBook(_ context.Context, bookID string) (*inventory.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[bookID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) GetInventory(_ context.Context, bookID string) (*inventory.Inventory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.inventories[bookID]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (m *Memory) ApplyStockChange(_ context.Context, change inventory.StockChange) (*inventory.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.inventories[change.BookID]
	if !ok {
		if !change.CreateIfMissing {
			return nil, inventory.ErrNoInventory
		}
		inv = inventory.Inventory{
			ID:     uuid.NewString(),
			BookID: change.BookID,
		}
	}

	// The guard and the write happen under the same lock, matching the
	// SQLite store's guarded UPDATE.
	if inv.Quantity+change.Delta < 0 {
		return nil, &inventory.InsufficientStockError{
			BookID:    change.BookID,
			Available: inv.Quantity,
			Requested: -change.Delta,
		}
	}

	inv.Quantity += change.Delta
	inv.UpdatedAt = time.Now().UTC()
	m.inventories[change.BookID] = inv

	tx := change.Transaction
	tx.InventoryID = inv.ID
	m.transactions[change.BookID] = append(m.transactions[change.BookID], tx)

	if change.Sale != nil {
		m.sales = append(m.sales, *change.Sale)
	}

	return &inv, nil
}

func (m *Memory) ListTransactions(_ context.Context, bookID string) ([]inventory.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]inventory.Transaction, len(m.transactions[bookID]))
	copy(out, m.transactions[bookID])
	return out, nil
}

// =============================================================================
// SALES READER
// =============================================================================

func (m *Memory) TopSelling(_ context.Context, since *time.Time, genreID string, limit int) ([]inventory.BookSales, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[string]int)
	for _, s := range m.sales {
		if since != nil && s.SoldAt.Before(*since) {
			continue
		}
		if genreID != "" {
			book, ok := m.books[s.BookID]
			if !ok || book.GenreID != genreID {
				continue
			}
		}
		totals[s.BookID] += s.Quantity
	}

	rows := make([]inventory.BookSales, 0, len(totals))
	for bookID, total := range totals {
		book := m.books[bookID]
		rows = append(rows, inventory.BookSales{
			BookID:        bookID,
			Title:         book.Title,
			Author:        book.Author,
			TotalQuantity: total,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalQuantity != rows[j].TotalQuantity {
			return rows[i].TotalQuantity > rows[j].TotalQuantity
		}
		return rows[i].BookID < rows[j].BookID
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
