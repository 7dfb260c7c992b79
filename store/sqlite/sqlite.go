/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements inventory.LedgerStore, inventory.SalesReader, and the
  catalog persistence used by the API handlers. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  genres:                 Book categories (unique name)
  books:                  Catalog records (unique ISBN)
  inventories:            Current stock, one row per book
  inventory_transactions: Append-only stock history
  sales:                  Completed sales with price at sale time

APPEND-ONLY ENFORCEMENT:
  inventory_transactions and sales have no UPDATE or DELETE paths.
  The only mutation of stock state is ApplyStockChange.

ATOMIC STOCK CHANGES:
  ApplyStockChange wraps the inventory update, the transaction append,
  and the optional sale insert in one sql.Tx. The quantity >= 0
  invariant is enforced by a guarded UPDATE:

      UPDATE inventories SET quantity = quantity + ?
      WHERE book_id = ? AND quantity + ? >= 0

  A zero-row result means the change was rejected; nothing commits.
  This closes the check-then-write race: two concurrent decrements on
  the same book cannot jointly drive the quantity negative, regardless
  of what the callers observed before writing.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode. With
  PostgreSQL, row-level locking replaces the mutex.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Interface definitions and atomicity contract
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/shelfline/bookstore/inventory"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: keeps ":memory:" databases coherent across the
	// pool and serializes writers at the driver level.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Genres
	CREATE TABLE IF NOT EXISTS genres (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	-- Books
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		isbn TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		publisher TEXT NOT NULL,
		genre_id TEXT NOT NULL REFERENCES genres(id) ON DELETE RESTRICT,
		price TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_books_genre ON books(genre_id);

	-- Inventories (one row per book)
	CREATE TABLE IF NOT EXISTS inventories (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL UNIQUE REFERENCES books(id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		updated_at TEXT NOT NULL
	);

	-- Stock history (append-only)
	CREATE TABLE IF NOT EXISTS inventory_transactions (
		id TEXT PRIMARY KEY,
		inventory_id TEXT NOT NULL REFERENCES inventories(id) ON DELETE CASCADE,
		transaction_type TEXT NOT NULL
			CHECK (transaction_type IN ('ARRIVAL','SALE','LOSS','THEFT')),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_inventory
		ON inventory_transactions(inventory_id, created_at);

	-- Sales
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL REFERENCES books(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		sold_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path for the top-selling aggregation
	CREATE INDEX IF NOT EXISTS idx_sales_book_sold_at ON sales(book_id, sold_at);
	CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales(sold_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GENRES
// =============================================================================

func (s *Store) ListGenres(ctx context.Context) ([]inventory.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM genres ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	var genres []inventory.Genre
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (s *Store) GetGenre(ctx context.Context, id string) (*inventory.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM genres WHERE id = ?", id)
	g, err := scanGenre(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) CreateGenre(ctx context.Context, g inventory.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO genres (id, name, created_at) VALUES (?, ?, ?)",
		g.ID, g.Name, g.CreatedAt.UTC().Format(time.RFC3339))
	if isUniqueConstraintError(err) {
		return inventory.ErrDuplicateGenreName
	}
	return err
}

func (s *Store) UpdateGenre(ctx context.Context, g inventory.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE genres SET name = ? WHERE id = ?", g.Name, g.ID)
	if isUniqueConstraintError(err) {
		return inventory.ErrDuplicateGenreName
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrGenreNotFound
	}
	return nil
}

func (s *Store) DeleteGenre(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM genres WHERE id = ?", id)
	if isForeignKeyError(err) {
		return inventory.ErrGenreInUse
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrGenreNotFound
	}
	return nil
}

// =============================================================================
// BOOKS
// =============================================================================

const bookColumns = "id, isbn, title, author, publisher, genre_id, price, created_at, updated_at"

func (s *Store) ListBooks(ctx context.Context) ([]inventory.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+bookColumns+" FROM books ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []inventory.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// GetBook returns the book with the given ID, or nil if absent.
func (s *Store) GetBook(ctx context.Context, id string) (*inventory.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id = ?", id)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBook(ctx context.Context, b inventory.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ISBN, b.Title, b.Author, b.Publisher, b.GenreID,
		b.Price.String(),
		b.CreatedAt.UTC().Format(time.RFC3339),
		b.UpdatedAt.UTC().Format(time.RFC3339))
	if isUniqueConstraintError(err) {
		return inventory.ErrDuplicateISBN
	}
	if isForeignKeyError(err) {
		return inventory.ErrGenreNotFound
	}
	return err
}

func (s *Store) UpdateBook(ctx context.Context, b inventory.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE books
		SET isbn = ?, title = ?, author = ?, publisher = ?, genre_id = ?,
		    price = ?, updated_at = ?
		WHERE id = ?`,
		b.ISBN, b.Title, b.Author, b.Publisher, b.GenreID,
		b.Price.String(), time.Now().UTC().Format(time.RFC3339), b.ID)
	if isUniqueConstraintError(err) {
		return inventory.ErrDuplicateISBN
	}
	if isForeignKeyError(err) {
		return inventory.ErrGenreNotFound
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrBookNotFound
	}
	return nil
}

// DeleteBook removes a book and, via cascade, its inventory row and
// transactions. Refused while sales reference the book: the sales
// register is the durable, price-stable record.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var saleCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sales WHERE book_id = ?", id).Scan(&saleCount); err != nil {
		return err
	}
	if saleCount > 0 {
		return inventory.ErrBookHasSales
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrBookNotFound
	}
	return nil
}

// =============================================================================
// INVENTORY (inventory.LedgerStore)
// =============================================================================

// GetInventory returns the inventory row for a book, or nil if the
// book has never received stock.
func (s *Store) GetInventory(ctx context.Context, bookID string) (*inventory.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getInventory(ctx, s.db, bookID)
}

func (s *Store) getInventory(ctx context.Context, q queryer, bookID string) (*inventory.Inventory, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, book_id, quantity, updated_at FROM inventories WHERE book_id = ?", bookID)

	var inv inventory.Inventory
	var updatedAt string
	err := row.Scan(&inv.ID, &inv.BookID, &inv.Quantity, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory: %w", err)
	}
	inv.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &inv, nil
}

// ApplyStockChange atomically applies a ledger mutation. See the
// package comment for the guarded-update race closure.
func (s *Store) ApplyStockChange(ctx context.Context, change inventory.StockChange) (*inventory.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	if change.CreateIfMissing {
		_, err = sqlTx.ExecContext(ctx, `
			INSERT OR IGNORE INTO inventories (id, book_id, quantity, updated_at)
			VALUES (?, ?, 0, ?)`,
			uuid.NewString(), change.BookID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to create inventory: %w", err)
		}
	}

	// Guarded update: the invariant check and the write are one
	// statement, so concurrent decrements serialize correctly.
	res, err := sqlTx.ExecContext(ctx, `
		UPDATE inventories
		SET quantity = quantity + ?, updated_at = ?
		WHERE book_id = ? AND quantity + ? >= 0`,
		change.Delta, now, change.BookID, change.Delta)
	if err != nil {
		return nil, fmt.Errorf("failed to update inventory: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		inv, err := s.getInventory(ctx, sqlTx, change.BookID)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			return nil, inventory.ErrNoInventory
		}
		return nil, &inventory.InsufficientStockError{
			BookID:    change.BookID,
			Available: inv.Quantity,
			Requested: -change.Delta,
		}
	}

	inv, err := s.getInventory(ctx, sqlTx, change.BookID)
	if err != nil {
		return nil, err
	}

	tx := change.Transaction
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO inventory_transactions
			(id, inventory_id, transaction_type, quantity, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, inv.ID, string(tx.Type), tx.Quantity, tx.Reason,
		tx.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	if sale := change.Sale; sale != nil {
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO sales (id, book_id, quantity, unit_price, sold_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sale.ID, sale.BookID, sale.Quantity, sale.UnitPrice.String(),
			sale.SoldAt.UTC().Format(time.RFC3339),
			sale.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale: %w", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock change: %w", err)
	}
	return inv, nil
}

// ListTransactions returns a book's full stock history, oldest first.
func (s *Store) ListTransactions(ctx context.Context, bookID string) ([]inventory.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.inventory_id, t.transaction_type, t.quantity, t.reason, t.created_at
		FROM inventory_transactions t
		JOIN inventories i ON i.id = t.inventory_id
		WHERE i.book_id = ?
		ORDER BY t.created_at ASC, t.rowid ASC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []inventory.Transaction
	for rows.Next() {
		var tx inventory.Transaction
		var txType, createdAt string
		if err := rows.Scan(&tx.ID, &tx.InventoryID, &txType, &tx.Quantity, &tx.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = inventory.TransactionType(txType)
		tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// InventoryListItem is one row of the paginated inventory listing,
// joined with its book and genre.
type InventoryListItem struct {
	Inventory inventory.Inventory
	Book      inventory.Book
	Genre     inventory.Genre
}

// ListInventories returns a page of inventory rows ordered by book
// title, plus the total row count for pagination.
func (s *Store) ListInventories(ctx context.Context, offset, limit int) ([]InventoryListItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventories").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.book_id, i.quantity, i.updated_at,
		       b.id, b.isbn, b.title, b.author, b.publisher, b.genre_id, b.price, b.created_at, b.updated_at,
		       g.id, g.name, g.created_at
		FROM inventories i
		JOIN books b ON b.id = i.book_id
		JOIN genres g ON g.id = b.genre_id
		ORDER BY b.title ASC, b.id ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query inventories: %w", err)
	}
	defer rows.Close()

	var items []InventoryListItem
	for rows.Next() {
		var it InventoryListItem
		var invUpdated, price, bCreated, bUpdated, gCreated string
		err := rows.Scan(
			&it.Inventory.ID, &it.Inventory.BookID, &it.Inventory.Quantity, &invUpdated,
			&it.Book.ID, &it.Book.ISBN, &it.Book.Title, &it.Book.Author,
			&it.Book.Publisher, &it.Book.GenreID, &price, &bCreated, &bUpdated,
			&it.Genre.ID, &it.Genre.Name, &gCreated)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		it.Inventory.UpdatedAt, _ = time.Parse(time.RFC3339, invUpdated)
		it.Book.Price = mustParseDecimal(price)
		it.Book.CreatedAt, _ = time.Parse(time.RFC3339, bCreated)
		it.Book.UpdatedAt, _ = time.Parse(time.RFC3339, bUpdated)
		it.Genre.CreatedAt, _ = time.Parse(time.RFC3339, gCreated)
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// =============================================================================
// SALES (inventory.SalesReader)
// =============================================================================

// TopSelling aggregates sales into a ranked report. Ordering is total
// quantity descending with book ID ascending as the deterministic
// tie-break.
func (s *Store) TopSelling(ctx context.Context, since *time.Time, genreID string, limit int) ([]inventory.BookSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT s.book_id, b.title, b.author, SUM(s.quantity) AS total_quantity
		FROM sales s
		JOIN books b ON b.id = s.book_id`
	var conds []string
	var args []any

	if since != nil {
		conds = append(conds, "s.sold_at >= ?")
		args = append(args, since.UTC().Format(time.RFC3339))
	}
	if genreID != "" {
		conds = append(conds, "b.genre_id = ?")
		args = append(args, genreID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += `
		GROUP BY s.book_id, b.title, b.author
		ORDER BY total_quantity DESC, s.book_id ASC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top sales: %w", err)
	}
	defer rows.Close()

	var report []inventory.BookSales
	for rows.Next() {
		var bs inventory.BookSales
		if err := rows.Scan(&bs.BookID, &bs.Title, &bs.Author, &bs.TotalQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan top sales row: %w", err)
		}
		report = append(report, bs)
	}
	return report, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all rows from all tables. Dev/demo only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"sales", "inventory_transactions", "inventories", "books", "genres"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	log.Warn().Msg("database reset: all rows deleted")
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGenre(row rowScanner) (inventory.Genre, error) {
	var g inventory.Genre
	var createdAt string
	if err := row.Scan(&g.ID, &g.Name, &createdAt); err != nil {
		return g, err
	}
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return g, nil
}

func scanBook(row rowScanner) (inventory.Book, error) {
	var b inventory.Book
	var price, createdAt, updatedAt string
	err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Publisher,
		&b.GenreID, &price, &createdAt, &updatedAt)
	if err != nil {
		return b, err
	}
	b.Price = mustParseDecimal(price)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return b, nil
}

func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
