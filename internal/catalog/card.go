// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package catalog holds the read-only card catalog and its seed format.
package catalog

import "context"

// Card is a catalog entry. Decks reference cards by ID.
type Card struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	PokedexNumber int    `json:"pokedexNumber"`
	Type          string `json:"type"`
	HP            int    `json:"hp"`
	Attack        int    `json:"attack"`
	Defense       int    `json:"defense"`
	ImageURL      string `json:"imageUrl"`
}

// Repository persists cards.
type Repository interface {
	// List returns every card ordered by pokedex number.
	List(ctx context.Context) ([]Card, error)

	// CountExisting returns how many of the distinct ids exist.
	CountExisting(ctx context.Context, ids []int64) (int, error)

	// Upsert inserts card or updates the card with the same pokedex number.
	// It sets card.ID and reports whether a new row was created.
	Upsert(ctx context.Context, card *Card) (bool, error)
}
