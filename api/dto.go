/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the ledger, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfline/bookstore/inventory"
)

// =============================================================================
// CATALOG
// =============================================================================

// GenreDTO represents a genre in API responses.
type GenreDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateGenreRequest is the request to create or rename a genre.
type CreateGenreRequest struct {
	Name string `json:"name"`
}

// BookDTO represents a book in API responses, with its genre embedded.
type BookDTO struct {
	ID        string          `json:"id"`
	ISBN      string          `json:"isbn"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Publisher string          `json:"publisher"`
	Genre     GenreDTO        `json:"genre"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// CreateBookRequest is the request to create or update a book.
type CreateBookRequest struct {
	ISBN      string          `json:"isbn"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Publisher string          `json:"publisher"`
	GenreID   string          `json:"genre_id"`
	Price     decimal.Decimal `json:"price"`
}

// =============================================================================
// INVENTORY
// =============================================================================

// InventoryDTO represents a stock row with its book.
type InventoryDTO struct {
	ID        string  `json:"id"`
	Book      BookDTO `json:"book"`
	Quantity  int     `json:"quantity"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// InventoryPageDTO is the paginated inventory listing envelope.
type InventoryPageDTO struct {
	Count   int            `json:"count"`
	Next    *string        `json:"next"`
	Results []InventoryDTO `json:"results"`
}

// TransactionDTO represents one stock history event.
type TransactionDTO struct {
	ID              string `json:"id"`
	InventoryID     string `json:"inventory_id"`
	TransactionType string `json:"transaction_type"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// ArrivalRequest registers incoming stock.
type ArrivalRequest struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// AdjustmentRequest registers a loss/theft stock decrease.
type AdjustmentRequest struct {
	BookID          string `json:"book_id"`
	TransactionType string `json:"transaction_type"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason"`
}

// AdjustmentDTO summarizes a completed adjustment.
type AdjustmentDTO struct {
	Book            BookDTO `json:"book"`
	TransactionType string  `json:"transaction_type"`
	Quantity        int     `json:"quantity"`
	Reason          string  `json:"reason"`
	InventoryAfter  int     `json:"inventory_after"`
}

// =============================================================================
// SALES
// =============================================================================

// SaleRequest registers a completed sale.
type SaleRequest struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
	SoldAt   string `json:"sold_at"` // RFC3339
}

// SaleDTO summarizes a recorded sale.
type SaleDTO struct {
	ID             string          `json:"id"`
	Book           BookDTO         `json:"book"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	SoldAt         string          `json:"sold_at"`
	InventoryAfter int             `json:"inventory_after"`
}

// TopSalesDTO is one row of a top-selling report.
type TopSalesDTO struct {
	BookID        string `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	TotalQuantity int    `json:"total_quantity"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toGenreDTO(g inventory.Genre) GenreDTO {
	return GenreDTO{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
	}
}

func toBookDTO(b inventory.Book, g inventory.Genre) BookDTO {
	return BookDTO{
		ID:        b.ID,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Author:    b.Author,
		Publisher: b.Publisher,
		Genre:     toGenreDTO(g),
		Price:     b.Price,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(t inventory.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:              t.ID,
		InventoryID:     t.InventoryID,
		TransactionType: string(t.Type),
		Quantity:        t.Quantity,
		Reason:          t.Reason,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
}

func toTopSalesDTOs(rows []inventory.BookSales) []TopSalesDTO {
	dtos := make([]TopSalesDTO, len(rows))
	for i, r := range rows {
		dtos[i] = TopSalesDTO{
			BookID:        r.BookID,
			Title:         r.Title,
			Author:        r.Author,
			TotalQuantity: r.TotalQuantity,
		}
	}
	return dtos
}
