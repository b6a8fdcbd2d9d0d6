// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package catalog

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML catalog document loaded by the seed command.
type SeedFile struct {
	Cards []SeedCard `json:"cards" yaml:"cards" jsonschema:"minItems=1,description=Cards to upsert keyed by pokedex number"`
}

// SeedCard is one catalog entry in a seed file.
type SeedCard struct {
	Name          string `json:"name" yaml:"name" jsonschema:"minLength=1,maxLength=64"`
	PokedexNumber int    `json:"pokedexNumber" yaml:"pokedexNumber" jsonschema:"minimum=1"`
	Type          string `json:"type" yaml:"type" jsonschema:"minLength=1,maxLength=32"`
	HP            int    `json:"hp,omitempty" yaml:"hp,omitempty" jsonschema:"minimum=0"`
	Attack        int    `json:"attack,omitempty" yaml:"attack,omitempty" jsonschema:"minimum=0"`
	Defense       int    `json:"defense,omitempty" yaml:"defense,omitempty" jsonschema:"minimum=0"`
	ImageURL      string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty" jsonschema:"format=uri"`
}

// LoadSeed validates data against the catalog schema and decodes it.
// Pokedex numbers must be unique within the file.
func LoadSeed(data []byte) ([]Card, error) {
	if err := ValidateSeed(data); err != nil {
		return nil, err
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, oops.Code("SEED_INVALID_YAML").Wrap(err)
	}

	seen := make(map[int]string, len(file.Cards))
	cards := make([]Card, 0, len(file.Cards))
	for _, sc := range file.Cards {
		if prev, ok := seen[sc.PokedexNumber]; ok {
			return nil, oops.Code("SEED_DUPLICATE_POKEDEX").
				With("pokedex_number", sc.PokedexNumber).
				With("first", prev).
				With("second", sc.Name).
				Errorf("pokedex number %d appears twice", sc.PokedexNumber)
		}
		seen[sc.PokedexNumber] = sc.Name
		cards = append(cards, Card{
			Name:          sc.Name,
			PokedexNumber: sc.PokedexNumber,
			Type:          sc.Type,
			HP:            sc.HP,
			Attack:        sc.Attack,
			Defense:       sc.Defense,
			ImageURL:      sc.ImageURL,
		})
	}
	return cards, nil
}

// SeedResult counts the outcome of Seed.
type SeedResult struct {
	Inserted int
	Updated  int
}

// Seed upserts cards in order and stops at the first failure.
func Seed(ctx context.Context, repo Repository, cards []Card, logger *slog.Logger) (SeedResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res SeedResult
	for i := range cards {
		card := cards[i]
		created, err := repo.Upsert(ctx, &card)
		if err != nil {
			return res, oops.Code("SEED_UPSERT_FAILED").
				With("pokedex_number", card.PokedexNumber).
				With("name", card.Name).
				Wrap(err)
		}
		if created {
			res.Inserted++
		} else {
			res.Updated++
		}
		logger.DebugContext(ctx, "card seeded", "id", card.ID, "name", card.Name, "created", created)
	}
	return res, nil
}
