/*
handlers.go - HTTP API handlers for the bookstore inventory system

PURPOSE:
  Exposes the catalog, the inventory ledger, and sales reporting via
  REST. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET/POST       /api/v1/genres/            List / create genres
    GET/PUT/DELETE /api/v1/genres/{id}        Genre detail
    GET/POST       /api/v1/books/             List / create books
    GET/PUT/DELETE /api/v1/books/{id}         Book detail

  Inventory:
    GET  /api/v1/inventory/                        Paginated stock list
    GET  /api/v1/inventory/{book_id}/transactions  Stock history
    POST /api/v1/arrivals/                         Register arrival
    POST /api/v1/inventory-adjustments/            Register loss/theft

  Sales:
    POST /api/v1/sales/                Record a sale
    GET  /api/v1/sales/top/            Top sellers for a period
    GET  /api/v1/sales/top/by-genre/   Top sellers within a genre

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (ledger, reporter) or the store
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, insufficient stock, missing inventory
  - 404: Resource not found
  - 409: Conflict (duplicate ISBN/genre name, referenced records)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - inventory/ledger.go: Stock mutation rules
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shelfline/bookstore/inventory"
	"github.com/shelfline/bookstore/store/sqlite"
)

// InventoryPageSize is the fixed page size of the inventory listing.
const InventoryPageSize = 100

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Ledger   *inventory.Ledger
	Reporter *inventory.Reporter
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Ledger:   inventory.NewLedger(store),
		Reporter: inventory.NewReporter(store),
	}
}

// =============================================================================
// GENRE HANDLERS
// =============================================================================

// ListGenres returns all genres.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Store.ListGenres(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list genres", err)
		return
	}

	dtos := make([]GenreDTO, len(genres))
	for i, g := range genres {
		dtos[i] = toGenreDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGenre creates a new genre.
func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	var req CreateGenreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Genre name is required", nil)
		return
	}

	g := inventory.Genre{
		ID:        newID(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateGenre(r.Context(), g); err != nil {
		writeDomainError(w, "Failed to create genre", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGenreDTO(g))
}

// GetGenre returns a single genre.
func (h *Handler) GetGenre(w http.ResponseWriter, r *http.Request) {
	g, err := h.Store.GetGenre(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get genre", err)
		return
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "Genre not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toGenreDTO(*g))
}

// UpdateGenre renames a genre.
func (h *Handler) UpdateGenre(w http.ResponseWriter, r *http.Request) {
	var req CreateGenreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Genre name is required", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Store.UpdateGenre(r.Context(), inventory.Genre{ID: id, Name: req.Name}); err != nil {
		writeDomainError(w, "Failed to update genre", err)
		return
	}

	g, err := h.Store.GetGenre(r.Context(), id)
	if err != nil || g == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload genre", err)
		return
	}
	writeJSON(w, http.StatusOK, toGenreDTO(*g))
}

// DeleteGenre removes a genre. Refused while books reference it.
func (h *Handler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteGenre(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete genre", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BOOK HANDLERS
// =============================================================================

// ListBooks returns all books with their genres.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Store.ListBooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list books", err)
		return
	}
	genres, err := h.genresByID(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list genres", err)
		return
	}

	dtos := make([]BookDTO, len(books))
	for i, b := range books {
		dtos[i] = toBookDTO(b, genres[b.GenreID])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBook creates a new catalog record.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if msg := validateBookRequest(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg, nil)
		return
	}

	now := time.Now().UTC()
	b := inventory.Book{
		ID:        newID(),
		ISBN:      req.ISBN,
		Title:     req.Title,
		Author:    req.Author,
		Publisher: req.Publisher,
		GenreID:   req.GenreID,
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.CreateBook(r.Context(), b); err != nil {
		writeDomainError(w, "Failed to create book", err)
		return
	}

	g, err := h.Store.GetGenre(r.Context(), b.GenreID)
	if err != nil || g == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load genre", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookDTO(b, *g))
}

// GetBook returns a single book.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get book", err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "Book not found", nil)
		return
	}

	g, err := h.Store.GetGenre(r.Context(), b.GenreID)
	if err != nil || g == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load genre", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(*b, *g))
}

// UpdateBook replaces a book's catalog fields.
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if msg := validateBookRequest(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg, nil)
		return
	}

	id := chi.URLParam(r, "id")
	b := inventory.Book{
		ID:        id,
		ISBN:      req.ISBN,
		Title:     req.Title,
		Author:    req.Author,
		Publisher: req.Publisher,
		GenreID:   req.GenreID,
		Price:     req.Price,
	}
	if err := h.Store.UpdateBook(r.Context(), b); err != nil {
		writeDomainError(w, "Failed to update book", err)
		return
	}

	updated, err := h.Store.GetBook(r.Context(), id)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload book", err)
		return
	}
	g, err := h.Store.GetGenre(r.Context(), updated.GenreID)
	if err != nil || g == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load genre", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(*updated, *g))
}

// DeleteBook removes a book. Refused while sales reference it.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete book", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateBookRequest(req CreateBookRequest) string {
	switch {
	case strings.TrimSpace(req.ISBN) == "":
		return "isbn is required"
	case strings.TrimSpace(req.Title) == "":
		return "title is required"
	case strings.TrimSpace(req.Author) == "":
		return "author is required"
	case strings.TrimSpace(req.Publisher) == "":
		return "publisher is required"
	case strings.TrimSpace(req.GenreID) == "":
		return "genre_id is required"
	case req.Price.IsNegative():
		return "price must not be negative"
	}
	return ""
}

func (h *Handler) genresByID(r *http.Request) (map[string]inventory.Genre, error) {
	genres, err := h.Store.ListGenres(r.Context())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]inventory.Genre, len(genres))
	for _, g := range genres {
		byID[g.ID] = g
	}
	return byID, nil
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

// ListInventory returns a page of stock rows with their books.
// Page size is fixed at InventoryPageSize; the envelope carries a
// `next` link while more pages exist.
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid page parameter", err)
			return
		}
		page = n
	}

	offset := (page - 1) * InventoryPageSize
	items, total, err := h.Store.ListInventories(r.Context(), offset, InventoryPageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list inventory", err)
		return
	}

	results := make([]InventoryDTO, len(items))
	for i, it := range items {
		results[i] = InventoryDTO{
			ID:        it.Inventory.ID,
			Book:      toBookDTO(it.Book, it.Genre),
			Quantity:  it.Inventory.Quantity,
			UpdatedAt: it.Inventory.UpdatedAt.Format(time.RFC3339),
		}
	}

	var next *string
	if offset+len(items) < total {
		url := fmt.Sprintf("%s?page=%d", r.URL.Path, page+1)
		next = &url
	}

	writeJSON(w, http.StatusOK, InventoryPageDTO{
		Count:   total,
		Next:    next,
		Results: results,
	})
}

// ListBookTransactions returns a book's stock history, oldest first.
func (h *Handler) ListBookTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Ledger.Transactions(r.Context(), chi.URLParam(r, "book_id"))
	if err != nil {
		writeDomainError(w, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordArrival registers incoming stock for a book.
func (h *Handler) RecordArrival(w http.ResponseWriter, r *http.Request) {
	var req ArrivalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	inv, err := h.Ledger.RecordArrival(r.Context(), req.BookID, req.Quantity)
	if err != nil {
		writeDomainError(w, "Failed to record arrival", err)
		return
	}

	book, genre, err := h.bookWithGenre(r, inv.BookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load book", err)
		return
	}
	writeJSON(w, http.StatusCreated, InventoryDTO{
		ID:        inv.ID,
		Book:      toBookDTO(*book, *genre),
		Quantity:  inv.Quantity,
		UpdatedAt: inv.UpdatedAt.Format(time.RFC3339),
	})
}

// RecordAdjustment registers a loss/theft stock decrease.
func (h *Handler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind := inventory.TransactionType(req.TransactionType)
	result, err := h.Ledger.RecordAdjustment(r.Context(), req.BookID, kind, req.Quantity, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to record adjustment", err)
		return
	}

	genre, err := h.Store.GetGenre(r.Context(), result.Book.GenreID)
	if err != nil || genre == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load genre", err)
		return
	}
	writeJSON(w, http.StatusCreated, AdjustmentDTO{
		Book:            toBookDTO(*result.Book, *genre),
		TransactionType: string(result.Type),
		Quantity:        result.Quantity,
		Reason:          result.Reason,
		InventoryAfter:  result.QuantityAfter,
	})
}

// =============================================================================
// SALES HANDLERS
// =============================================================================

// RecordSale registers a completed sale.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	soldAt, err := time.Parse(time.RFC3339, req.SoldAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sold_at format (use RFC3339)", err)
		return
	}

	sale, inv, err := h.Ledger.RecordSale(r.Context(), req.BookID, req.Quantity, soldAt)
	if err != nil {
		writeDomainError(w, "Failed to record sale", err)
		return
	}

	book, genre, err := h.bookWithGenre(r, sale.BookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load book", err)
		return
	}
	writeJSON(w, http.StatusCreated, SaleDTO{
		ID:             sale.ID,
		Book:           toBookDTO(*book, *genre),
		Quantity:       sale.Quantity,
		UnitPrice:      sale.UnitPrice,
		SoldAt:         sale.SoldAt.Format(time.RFC3339),
		InventoryAfter: inv.Quantity,
	})
}

// TopSales returns the top-selling books for a period.
func (h *Handler) TopSales(w http.ResponseWriter, r *http.Request) {
	h.topSales(w, r, "")
}

// TopSalesByGenre returns the top-selling books for a period within a
// genre. Both parameters are required.
func (h *Handler) TopSalesByGenre(w http.ResponseWriter, r *http.Request) {
	genreID := r.URL.Query().Get("genre_id")
	if genreID == "" {
		writeError(w, http.StatusBadRequest, "genre_id parameter is required", nil)
		return
	}

	genre, err := h.Store.GetGenre(r.Context(), genreID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get genre", err)
		return
	}
	if genre == nil {
		writeError(w, http.StatusBadRequest, "Unknown genre_id", nil)
		return
	}

	h.topSales(w, r, genreID)
}

func (h *Handler) topSales(w http.ResponseWriter, r *http.Request, genreID string) {
	period, err := inventory.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest,
			"Valid period parameter is required (1w, 1m, 3m, 6m, 1y, 5y, all)", err)
		return
	}

	limit := inventory.DefaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = n
	}

	rows, err := h.Reporter.TopSelling(r.Context(), period, limit, genreID)
	if err != nil {
		writeDomainError(w, "Failed to compute top sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toTopSalesDTOs(rows))
}

func (h *Handler) bookWithGenre(r *http.Request, bookID string) (*inventory.Book, *inventory.Genre, error) {
	book, err := h.Store.GetBook(r.Context(), bookID)
	if err != nil {
		return nil, nil, err
	}
	if book == nil {
		return nil, nil, inventory.ErrBookNotFound
	}
	genre, err := h.Store.GetGenre(r.Context(), book.GenreID)
	if err != nil {
		return nil, nil, err
	}
	if genre == nil {
		return nil, nil, inventory.ErrGenreNotFound
	}
	return book, genre, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, msg string, err error) {
	switch {
	case inventory.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), err)
	case inventory.IsNotFound(err):
		writeError(w, http.StatusBadRequest, err.Error(), err)
	case inventory.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), err)
	default:
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError && err != nil {
		log.Error().Err(err).Msg(message)
	}

	body := map[string]any{"error": message}
	if err != nil && status < http.StatusInternalServerError {
		body["details"] = err.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func newID() string {
	return uuid.NewString()
}
