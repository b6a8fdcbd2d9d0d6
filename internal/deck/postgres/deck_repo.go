// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements deck.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/deckhub/internal/deck"
	"github.com/holomush/deckhub/internal/store"
)

const deckCardsQuery = `
	SELECT dc.id, dc.deck_id, dc.card_id,
	       c.id, c.name, c.pokedex_number, c.type, c.hp, c.attack, c.defense, c.image_url
	FROM deck_cards dc
	JOIN cards c ON c.id = dc.card_id
	WHERE dc.deck_id = ANY($1)
	ORDER BY dc.deck_id, dc.id
`

// DeckRepository implements deck.Repository using PostgreSQL. All methods
// join a transaction stored in the context by store.Transactor.
type DeckRepository struct {
	db store.DBTX
}

// NewDeckRepository creates a new DeckRepository.
func NewDeckRepository(db store.DBTX) *DeckRepository {
	return &DeckRepository{db: db}
}

// Create inserts the deck row and its card links.
func (r *DeckRepository) Create(ctx context.Context, userID int64, name string, cardIDs []int64) (int64, error) {
	q := store.Querier(ctx, r.db)

	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO decks (name, user_id)
		VALUES ($1, $2)
		RETURNING id
	`, name, userID).Scan(&id)
	if err != nil {
		return 0, oops.Code("DECK_INSERT_FAILED").With("user_id", userID).Wrap(err)
	}

	if err := insertCards(ctx, q, id, cardIDs); err != nil {
		return 0, err
	}
	return id, nil
}

// GetOwned returns the deck with id owned by userID.
func (r *DeckRepository) GetOwned(ctx context.Context, id, userID int64) (*deck.Deck, error) {
	q := store.Querier(ctx, r.db)

	d := &deck.Deck{}
	err := q.QueryRow(ctx, `
		SELECT id, name, user_id, created_at, updated_at
		FROM decks
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&d.ID, &d.Name, &d.UserID, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DECK_NOT_FOUND").With("deck_id", id).Wrap(deck.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DECK_GET_FAILED").With("deck_id", id).Wrap(err)
	}

	byDeck, err := loadCards(ctx, q, []int64{d.ID})
	if err != nil {
		return nil, err
	}
	d.Cards = byDeck[d.ID]
	if d.Cards == nil {
		d.Cards = []deck.DeckCard{}
	}
	return d, nil
}

// ListByUser returns every deck owned by userID with its cards.
func (r *DeckRepository) ListByUser(ctx context.Context, userID int64) ([]deck.Deck, error) {
	q := store.Querier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, user_id, created_at, updated_at
		FROM decks
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, oops.Code("DECK_LIST_FAILED").With("user_id", userID).Wrap(err)
	}

	decks := make([]deck.Deck, 0)
	for rows.Next() {
		var d deck.Deck
		if err := rows.Scan(&d.ID, &d.Name, &d.UserID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			rows.Close()
			return nil, oops.Code("DECK_SCAN_FAILED").Wrap(err)
		}
		decks = append(decks, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DECK_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	if len(decks) == 0 {
		return decks, nil
	}

	ids := make([]int64, len(decks))
	for i := range decks {
		ids[i] = decks[i].ID
	}
	byDeck, err := loadCards(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range decks {
		decks[i].Cards = byDeck[decks[i].ID]
		if decks[i].Cards == nil {
			decks[i].Cards = []deck.DeckCard{}
		}
	}
	return decks, nil
}

// ReplaceCards removes the deck's card links and inserts cardIDs.
func (r *DeckRepository) ReplaceCards(ctx context.Context, id int64, cardIDs []int64) error {
	q := store.Querier(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM deck_cards WHERE deck_id = $1`, id); err != nil {
		return oops.Code("DECK_CARDS_DELETE_FAILED").With("deck_id", id).Wrap(err)
	}
	return insertCards(ctx, q, id, cardIDs)
}

// Touch bumps updated_at and applies name when set.
func (r *DeckRepository) Touch(ctx context.Context, id int64, name *string) error {
	tag, err := store.Querier(ctx, r.db).Exec(ctx, `
		UPDATE decks
		SET name = COALESCE($2, name), updated_at = now()
		WHERE id = $1
	`, id, name)
	if err != nil {
		return oops.Code("DECK_UPDATE_FAILED").With("deck_id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("DECK_NOT_FOUND").With("deck_id", id).Wrap(deck.ErrNotFound)
	}
	return nil
}

// DeleteOwned deletes the deck; its card links cascade.
func (r *DeckRepository) DeleteOwned(ctx context.Context, id, userID int64) error {
	tag, err := store.Querier(ctx, r.db).Exec(ctx,
		`DELETE FROM decks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return oops.Code("DECK_DELETE_FAILED").With("deck_id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("DECK_NOT_FOUND").With("deck_id", id).Wrap(deck.ErrNotFound)
	}
	return nil
}

func insertCards(ctx context.Context, q store.DBTX, deckID int64, cardIDs []int64) error {
	_, err := q.Exec(ctx, `
		INSERT INTO deck_cards (deck_id, card_id)
		SELECT $1, card_id FROM unnest($2::bigint[]) WITH ORDINALITY AS t(card_id, pos)
		ORDER BY pos
	`, deckID, cardIDs)
	if err != nil {
		return oops.Code("DECK_CARDS_INSERT_FAILED").
			With("deck_id", deckID).
			With("cards", len(cardIDs)).
			Wrap(err)
	}
	return nil
}

func loadCards(ctx context.Context, q store.DBTX, deckIDs []int64) (map[int64][]deck.DeckCard, error) {
	rows, err := q.Query(ctx, deckCardsQuery, deckIDs)
	if err != nil {
		return nil, oops.Code("DECK_CARDS_LOAD_FAILED").Wrap(err)
	}
	defer rows.Close()

	out := make(map[int64][]deck.DeckCard, len(deckIDs))
	for rows.Next() {
		var dc deck.DeckCard
		c := &dc.Card
		if err := rows.Scan(&dc.ID, &dc.DeckID, &dc.CardID,
			&c.ID, &c.Name, &c.PokedexNumber, &c.Type, &c.HP, &c.Attack, &c.Defense, &c.ImageURL); err != nil {
			return nil, oops.Code("DECK_CARDS_SCAN_FAILED").Wrap(err)
		}
		out[dc.DeckID] = append(out[dc.DeckID], dc)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DECK_CARDS_LOAD_FAILED").Wrap(err)
	}
	return out, nil
}

// Compile-time interface check.
var _ deck.Repository = (*DeckRepository)(nil)
