// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package deck manages user-owned decks of catalog cards.
//
// A deck always holds exactly Size distinct, existing cards. Decks are only
// visible to their owner; a deck owned by someone else is reported as not
// found.
package deck

import (
	"context"
	"time"

	"github.com/holomush/deckhub/internal/catalog"
)

// Size is the number of cards in every deck.
const Size = 10

// Deck is a named set of cards owned by one user.
type Deck struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	UserID    int64      `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Cards     []DeckCard `json:"cards"`
}

// DeckCard links a deck to a catalog card.
type DeckCard struct {
	ID     int64        `json:"id"`
	DeckID int64        `json:"deckId"`
	CardID int64        `json:"cardId"`
	Card   catalog.Card `json:"card"`
}

// Repository persists decks. Reads always include the deck's cards.
type Repository interface {
	// Create inserts a deck with the given cards and returns its ID.
	Create(ctx context.Context, userID int64, name string, cardIDs []int64) (int64, error)

	// GetOwned returns the deck with id owned by userID, or an error wrapping
	// ErrNotFound.
	GetOwned(ctx context.Context, id, userID int64) (*Deck, error)

	// ListByUser returns every deck owned by userID, oldest first.
	ListByUser(ctx context.Context, userID int64) ([]Deck, error)

	// ReplaceCards removes the deck's cards and inserts cardIDs.
	ReplaceCards(ctx context.Context, id int64, cardIDs []int64) error

	// Touch bumps updated_at and, when name is non-nil, renames the deck.
	Touch(ctx context.Context, id int64, name *string) error

	// DeleteOwned deletes the deck with id owned by userID, or returns an
	// error wrapping ErrNotFound.
	DeleteOwned(ctx context.Context, id, userID int64) error
}

// CardCounter reports how many distinct card IDs exist.
// catalog.Repository satisfies it.
type CardCounter interface {
	CountExisting(ctx context.Context, ids []int64) (int, error)
}

// Transactor runs fn in a transaction. store.Transactor satisfies it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
