/*
seed.go - Demo data loader

PURPOSE:
  Populates the database with a small demo catalog plus stock and sales
  history so the API is explorable without a frontend or fixtures.
  All stock and sales go through the real ledger paths, so the seeded
  history satisfies the same invariants as production data.

ENDPOINTS:
  POST /api/v1/admin/seed   Load the demo dataset (resets first)
  POST /api/v1/admin/reset  Wipe all tables

Dev only. Nothing here is reachable unless the routes are mounted.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfline/bookstore/inventory"
)

type seedBook struct {
	isbn      string
	title     string
	author    string
	publisher string
	genre     string
	price     string
	stock     int
	sold      int
}

var seedBooks = []seedBook{
	{"9784101010014", "Kokoro", "Natsume Soseki", "Shinchosha", "Fiction", "590", 24, 9},
	{"9784101006062", "Snow Country", "Kawabata Yasunari", "Shinchosha", "Fiction", "520", 18, 4},
	{"9784062748681", "The Devotion of Suspect X", "Higashino Keigo", "Kodansha", "Mystery", "820", 30, 14},
	{"9784167110116", "All She Was Worth", "Miyabe Miyuki", "Bungeishunju", "Mystery", "780", 12, 3},
	{"9784150117481", "The Martian", "Andy Weir", "Hayakawa", "Science Fiction", "1240", 16, 6},
	{"9784150121587", "Project Hail Mary", "Andy Weir", "Hayakawa", "Science Fiction", "1500", 20, 11},
}

// SeedDemoData wipes the database and loads the demo dataset.
func (h *Handler) SeedDemoData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	if err := h.loadSeed(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "seeded",
		"books":  len(seedBooks),
	})
}

// ResetDatabase wipes all tables.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

func (h *Handler) loadSeed(ctx context.Context) error {
	now := time.Now().UTC()

	genreIDs := make(map[string]string)
	for _, sb := range seedBooks {
		if _, ok := genreIDs[sb.genre]; ok {
			continue
		}
		g := inventory.Genre{ID: newID(), Name: sb.genre, CreatedAt: now}
		if err := h.Store.CreateGenre(ctx, g); err != nil {
			return fmt.Errorf("seed genre %q: %w", sb.genre, err)
		}
		genreIDs[sb.genre] = g.ID
	}

	for i, sb := range seedBooks {
		price, err := decimal.NewFromString(sb.price)
		if err != nil {
			return fmt.Errorf("seed price %q: %w", sb.price, err)
		}
		b := inventory.Book{
			ID:        newID(),
			ISBN:      sb.isbn,
			Title:     sb.title,
			Author:    sb.author,
			Publisher: sb.publisher,
			GenreID:   genreIDs[sb.genre],
			Price:     price,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := h.Store.CreateBook(ctx, b); err != nil {
			return fmt.Errorf("seed book %q: %w", sb.title, err)
		}

		if _, err := h.Ledger.RecordArrival(ctx, b.ID, sb.stock); err != nil {
			return fmt.Errorf("seed arrival %q: %w", sb.title, err)
		}

		// Spread sales over the past weeks so period reports have shape.
		if sb.sold > 0 {
			soldAt := now.AddDate(0, 0, -(i*3 + 1))
			if _, _, err := h.Ledger.RecordSale(ctx, b.ID, sb.sold, soldAt); err != nil {
				return fmt.Errorf("seed sale %q: %w", sb.title, err)
			}
		}
	}

	return nil
}
