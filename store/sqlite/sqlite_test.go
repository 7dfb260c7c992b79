package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfline/bookstore/inventory"
	"github.com/shelfline/bookstore/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createGenre(t *testing.T, s *sqlite.Store, name string) inventory.Genre {
	t.Helper()
	g := inventory.Genre{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateGenre(context.Background(), g))
	return g
}

func createBook(t *testing.T, s *sqlite.Store, genreID, isbn, title string, price int64) inventory.Book {
	t.Helper()
	now := time.Now().UTC()
	b := inventory.Book{
		ID:        uuid.NewString(),
		ISBN:      isbn,
		Title:     title,
		Author:    "Test Author",
		Publisher: "Test Publisher",
		GenreID:   genreID,
		Price:     decimal.NewFromInt(price),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateBook(context.Background(), b))
	return b
}

func arrive(t *testing.T, s *sqlite.Store, bookID string, qty int) *inventory.Inventory {
	t.Helper()
	inv, err := s.ApplyStockChange(context.Background(), inventory.StockChange{
		BookID:          bookID,
		Delta:           qty,
		CreateIfMissing: true,
		Transaction: inventory.Transaction{
			ID:        uuid.NewString(),
			Type:      inventory.TxArrival,
			Quantity:  qty,
			CreatedAt: time.Now().UTC(),
		},
	})
	require.NoError(t, err)
	return inv
}

// =============================================================================
// CATALOG CONSTRAINTS
// =============================================================================

func TestCreateGenre_DuplicateName_Conflict(t *testing.T) {
	s := newTestStore(t)
	createGenre(t, s, "Fiction")

	err := s.CreateGenre(context.Background(), inventory.Genre{
		ID: uuid.NewString(), Name: "Fiction", CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, inventory.ErrDuplicateGenreName)
}

func TestCreateBook_DuplicateISBN_Conflict(t *testing.T) {
	s := newTestStore(t)
	g := createGenre(t, s, "Fiction")
	createBook(t, s, g.ID, "9784123456789", "First", 1500)

	now := time.Now().UTC()
	err := s.CreateBook(context.Background(), inventory.Book{
		ID: uuid.NewString(), ISBN: "9784123456789", Title: "Second",
		Author: "A", Publisher: "P", GenreID: g.ID,
		Price: decimal.NewFromInt(900), CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, inventory.ErrDuplicateISBN)
}

func TestCreateBook_UnknownGenre_Rejected(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	err := s.CreateBook(context.Background(), inventory.Book{
		ID: uuid.NewString(), ISBN: "9784000000001", Title: "Orphan",
		Author: "A", Publisher: "P", GenreID: "missing",
		Price: decimal.NewFromInt(900), CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, inventory.ErrGenreNotFound)
}

func TestDeleteGenre_WithBooks_Conflict(t *testing.T) {
	s := newTestStore(t)
	g := createGenre(t, s, "Fiction")
	createBook(t, s, g.ID, "9784123456789", "Keeper", 1500)

	err := s.DeleteGenre(context.Background(), g.ID)
	assert.ErrorIs(t, err, inventory.ErrGenreInUse)
}

func TestDeleteBook_CascadesInventory_ButNotPastSales(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := createGenre(t, s, "Fiction")

	// A book with stock but no sales deletes cleanly, cascading its
	// inventory row.
	b1 := createBook(t, s, g.ID, "9784000000001", "No Sales", 1000)
	arrive(t, s, b1.ID, 5)
	require.NoError(t, s.DeleteBook(ctx, b1.ID))
	inv, err := s.GetInventory(ctx, b1.ID)
	require.NoError(t, err)
	assert.Nil(t, inv)

	// A book with recorded sales is protected.
	b2 := createBook(t, s, g.ID, "9784000000002", "Has Sales", 1000)
	arrive(t, s, b2.ID, 5)
	ledger := inventory.NewLedger(s)
	_, _, err = ledger.RecordSale(ctx, b2.ID, 1, time.Now().UTC())
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteBook(ctx, b2.ID), inventory.ErrBookHasSales)
}

// =============================================================================
// STOCK CHANGES
// =============================================================================

func TestApplyStockChange_LazyCreation(t *testing.T) {
	s := newTestStore(t)
	g := createGenre(t, s, "Fiction")
	b := createBook(t, s, g.ID, "9784123456789", "Test Book", 1500)

	inv := arrive(t, s, b.ID, 10)
	assert.Equal(t, 10, inv.Quantity)
	assert.Equal(t, b.ID, inv.BookID)

	// Second arrival reuses the row
	inv2 := arrive(t, s, b.ID, 5)
	assert.Equal(t, inv.ID, inv2.ID)
	assert.Equal(t, 15, inv2.Quantity)
}

func TestApplyStockChange_MissingInventory(t *testing.T) {
	s := newTestStore(t)
	g := createGenre(t, s, "Fiction")
	b := createBook(t, s, g.ID, "9784123456789", "Test Book", 1500)

	_, err := s.ApplyStockChange(context.Background(), inventory.StockChange{
		BookID: b.ID,
		Delta:  -1,
		Transaction: inventory.Transaction{
			ID: uuid.NewString(), Type: inventory.TxLoss, Quantity: 1,
			Reason: "lost", CreatedAt: time.Now().UTC(),
		},
	})
	assert.ErrorIs(t, err, inventory.ErrNoInventory)
}

func TestApplyStockChange_GuardRejectsNegative_NothingCommits(t *testing.T) {
	// GIVEN: Stock 10
	s := newTestStore(t)
	ctx := context.Background()
	g := createGenre(t, s, "Fiction")
	b := createBook(t, s, g.ID, "9784123456789", "Test Book", 1500)
	arrive(t, s, b.ID, 10)

	// WHEN: A sale of 15 is applied (sale row included in the change)
	sale := &inventory.Sale{
		ID: uuid.NewString(), BookID: b.ID, Quantity: 15,
		UnitPrice: b.Price, SoldAt: time.Now().UTC(), CreatedAt: time.Now().UTC(),
	}
	_, err := s.ApplyStockChange(ctx, inventory.StockChange{
		BookID: b.ID,
		Delta:  -15,
		Transaction: inventory.Transaction{
			ID: uuid.NewString(), Type: inventory.TxSale, Quantity: 15,
			CreatedAt: time.Now().UTC(),
		},
		Sale: sale,
	})

	// THEN: Shortage error with details; quantity, history, and sales
	// are all untouched
	var shortage *inventory.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, 10, shortage.Available)
	assert.Equal(t, 15, shortage.Requested)

	inv, err := s.GetInventory(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Quantity)

	txs, err := s.ListTransactions(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1) // only the arrival

	rows, err := s.TopSelling(ctx, nil, "", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestApplyStockChange_SaleWritesAllThree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := createGenre(t, s, "Fiction")
	b := createBook(t, s, g.ID, "9784123456789", "Test Book", 1500)
	arrive(t, s, b.ID, 10)

	ledger := inventory.NewLedger(s)
	sale, inv, err := ledger.RecordSale(ctx, b.ID, 2, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 8, inv.Quantity)
	assert.True(t, sale.UnitPrice.Equal(decimal.NewFromInt(1500)))

	txs, err := s.ListTransactions(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, inventory.TxSale, txs[1].Type)

	rows, err := s.TopSelling(ctx, nil, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TotalQuantity)
}

func TestListTransactions_OldestFirstWithReasons(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := createGenre(t, s, "Fiction")
	b := createBook(t, s, g.ID, "9784123456789", "Test Book", 1500)

	ledger := inventory.NewLedger(s)
	_, err := ledger.RecordArrival(ctx, b.ID, 10)
	require.NoError(t, err)
	_, err = ledger.RecordAdjustment(ctx, b.ID, inventory.TxTheft, 1, "shoplifting")
	require.NoError(t, err)

	txs, err := s.ListTransactions(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, inventory.TxArrival, txs[0].Type)
	assert.Equal(t, inventory.TxTheft, txs[1].Type)
	assert.Equal(t, "shoplifting", txs[1].Reason)
}

// =============================================================================
// TOP SELLING QUERY
// =============================================================================

func TestTopSelling_GroupsFiltersAndTieBreaks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fiction := createGenre(t, s, "Fiction")
	mystery := createGenre(t, s, "Mystery")

	// Fixed IDs so the tie-break is observable.
	now := time.Now().UTC()
	mkBook := func(id, isbn, title, genreID string) {
		require.NoError(t, s.CreateBook(ctx, inventory.Book{
			ID: id, ISBN: isbn, Title: title, Author: "A", Publisher: "P",
			GenreID: genreID, Price: decimal.NewFromInt(1000),
			CreatedAt: now, UpdatedAt: now,
		}))
	}
	mkBook("book-a", "9784000000001", "Alpha", fiction.ID)
	mkBook("book-b", "9784000000002", "Beta", fiction.ID)
	mkBook("book-c", "9784000000003", "Gamma", mystery.ID)

	ledger := inventory.NewLedger(s)
	for _, id := range []string{"book-a", "book-b", "book-c"} {
		_, err := ledger.RecordArrival(ctx, id, 50)
		require.NoError(t, err)
	}

	sellAt := func(id string, qty int, at time.Time) {
		_, _, err := ledger.RecordSale(ctx, id, qty, at)
		require.NoError(t, err)
	}
	sellAt("book-b", 5, now.AddDate(0, 0, -1))
	sellAt("book-a", 5, now.AddDate(0, 0, -2))
	sellAt("book-c", 9, now.AddDate(0, 0, -1))
	sellAt("book-a", 1, now.AddDate(0, 0, -400)) // outside one year

	// Window filter: sales older than the cutoff are excluded
	cutoff := now.AddDate(0, 0, -365)
	rows, err := s.TopSelling(ctx, &cutoff, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "book-c", rows[0].BookID)
	assert.Equal(t, 9, rows[0].TotalQuantity)
	// Tie at 5: book-a before book-b
	assert.Equal(t, "book-a", rows[1].BookID)
	assert.Equal(t, "book-b", rows[2].BookID)

	// Genre filter
	rows, err = s.TopSelling(ctx, nil, mystery.ID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "book-c", rows[0].BookID)

	// No lower bound sums everything
	rows, err = s.TopSelling(ctx, nil, "", 10)
	require.NoError(t, err)
	assert.Equal(t, 6, rows[1].TotalQuantity) // book-a: 5 + 1
}

// =============================================================================
// INVENTORY LISTING
// =============================================================================

func TestListInventories_PagesAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := createGenre(t, s, "Fiction")

	for i := 0; i < 5; i++ {
		b := createBook(t, s, g.ID,
			"978400000000"+string(rune('0'+i)),
			"Book "+string(rune('A'+i)), 1000)
		arrive(t, s, b.ID, i+1)
	}

	items, total, err := s.ListInventories(ctx, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 3)
	assert.Equal(t, "Book A", items[0].Book.Title)
	assert.Equal(t, "Fiction", items[0].Genre.Name)

	items, total, err = s.ListInventories(ctx, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 2)
}

func TestReset_WipesEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := createGenre(t, s, "Fiction")
	b := createBook(t, s, g.ID, "9784123456789", "Test Book", 1500)
	arrive(t, s, b.ID, 10)

	require.NoError(t, s.Reset(ctx))

	genres, err := s.ListGenres(ctx)
	require.NoError(t, err)
	assert.Empty(t, genres)
	inv, err := s.GetInventory(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, inv)
}
