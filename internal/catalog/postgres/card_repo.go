// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements catalog.Repository on PostgreSQL.
package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/holomush/deckhub/internal/catalog"
	"github.com/holomush/deckhub/internal/store"
)

// CardRepository implements catalog.Repository using PostgreSQL.
type CardRepository struct {
	db store.DBTX
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(db store.DBTX) *CardRepository {
	return &CardRepository{db: db}
}

// List returns every card ordered by pokedex number.
func (r *CardRepository) List(ctx context.Context) ([]catalog.Card, error) {
	rows, err := store.Querier(ctx, r.db).Query(ctx, `
		SELECT id, name, pokedex_number, type, hp, attack, defense, image_url
		FROM cards
		ORDER BY pokedex_number ASC
	`)
	if err != nil {
		return nil, oops.Code("CARD_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	cards := make([]catalog.Card, 0)
	for rows.Next() {
		var c catalog.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.PokedexNumber, &c.Type, &c.HP, &c.Attack, &c.Defense, &c.ImageURL); err != nil {
			return nil, oops.Code("CARD_SCAN_FAILED").Wrap(err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CARD_LIST_FAILED").Wrap(err)
	}
	return cards, nil
}

// CountExisting returns how many of the distinct ids exist. Duplicates in ids
// are counted once.
func (r *CardRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := store.Querier(ctx, r.db).QueryRow(ctx,
		`SELECT count(*) FROM cards WHERE id = ANY($1)`, ids).Scan(&n)
	if err != nil {
		return 0, oops.Code("CARD_COUNT_FAILED").With("ids", len(ids)).Wrap(err)
	}
	return n, nil
}

// Upsert inserts card or updates the row with the same pokedex number.
func (r *CardRepository) Upsert(ctx context.Context, card *catalog.Card) (bool, error) {
	var created bool
	err := store.Querier(ctx, r.db).QueryRow(ctx, `
		INSERT INTO cards (name, pokedex_number, type, hp, attack, defense, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (pokedex_number) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			hp = EXCLUDED.hp,
			attack = EXCLUDED.attack,
			defense = EXCLUDED.defense,
			image_url = EXCLUDED.image_url
		RETURNING id, (xmax = 0)
	`, card.Name, card.PokedexNumber, card.Type, card.HP, card.Attack, card.Defense, card.ImageURL).
		Scan(&card.ID, &created)
	if err != nil {
		return false, oops.Code("CARD_UPSERT_FAILED").
			With("pokedex_number", card.PokedexNumber).
			Wrap(err)
	}
	return created, nil
}

// Compile-time interface check.
var _ catalog.Repository = (*CardRepository)(nil)
