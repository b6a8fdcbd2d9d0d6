// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package deck

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// CreateInput is the body of a deck creation.
type CreateInput struct {
	Name  string  `json:"name"`
	Cards []int64 `json:"cards"`
}

// UpdateInput is the body of a deck update. A nil Name or nil Cards leaves
// that part unchanged; an empty non-nil Cards is a card count error.
type UpdateInput struct {
	Name  *string `json:"name"`
	Cards []int64 `json:"cards"`
}

// Service implements deck operations for an authenticated user.
type Service struct {
	decks  Repository
	cards  CardCounter
	tx     Transactor
	logger *slog.Logger
}

// NewService creates a Service. logger may be nil.
func NewService(decks Repository, cards CardCounter, tx Transactor, logger *slog.Logger) (*Service, error) {
	if decks == nil {
		return nil, oops.Code("DECK_CONFIG_INVALID").Errorf("deck repository is required")
	}
	if cards == nil {
		return nil, oops.Code("DECK_CONFIG_INVALID").Errorf("card counter is required")
	}
	if tx == nil {
		return nil, oops.Code("DECK_CONFIG_INVALID").Errorf("transactor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{decks: decks, cards: cards, tx: tx, logger: logger}, nil
}

// Create validates in and stores a new deck for userID.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*Deck, error) {
	if in.Name == "" {
		return nil, oops.Code("DECK_NAME_REQUIRED").Wrap(ErrNameRequired)
	}
	if err := s.checkCards(ctx, in.Cards); err != nil {
		return nil, err
	}

	var created *Deck
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		id, err := s.decks.Create(ctx, userID, in.Name, in.Cards)
		if err != nil {
			return err
		}
		created, err = s.decks.GetOwned(ctx, id, userID)
		return err
	})
	if err != nil {
		return nil, oops.Code("DECK_CREATE_FAILED").With("user_id", userID).Wrap(err)
	}

	s.logger.InfoContext(ctx, "deck created", "deck_id", created.ID, "user_id", userID)
	return created, nil
}

// ListMine returns the decks owned by userID.
func (s *Service) ListMine(ctx context.Context, userID int64) ([]Deck, error) {
	decks, err := s.decks.ListByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("DECK_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return decks, nil
}

// Get returns deck id when userID owns it.
func (s *Service) Get(ctx context.Context, userID, id int64) (*Deck, error) {
	return s.decks.GetOwned(ctx, id, userID)
}

// Update renames the deck and/or replaces its cards. Ownership is checked
// before the input is validated, so a foreign deck is always not found.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*Deck, error) {
	if _, err := s.decks.GetOwned(ctx, id, userID); err != nil {
		return nil, err
	}
	if in.Name != nil && *in.Name == "" {
		return nil, oops.Code("DECK_NAME_REQUIRED").Wrap(ErrNameRequired)
	}
	if in.Cards != nil {
		if err := s.checkCards(ctx, in.Cards); err != nil {
			return nil, err
		}
	}

	var updated *Deck
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if in.Cards != nil {
			if err := s.decks.ReplaceCards(ctx, id, in.Cards); err != nil {
				return err
			}
		}
		if err := s.decks.Touch(ctx, id, in.Name); err != nil {
			return err
		}
		var err error
		updated, err = s.decks.GetOwned(ctx, id, userID)
		return err
	})
	if err != nil {
		return nil, oops.Code("DECK_UPDATE_FAILED").With("deck_id", id).Wrap(err)
	}

	s.logger.InfoContext(ctx, "deck updated", "deck_id", id, "user_id", userID,
		"renamed", in.Name != nil, "cards_replaced", in.Cards != nil)
	return updated, nil
}

// Delete removes deck id when userID owns it.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.decks.DeleteOwned(ctx, id, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "deck deleted", "deck_id", id, "user_id", userID)
	return nil
}

// checkCards enforces Size entries that name Size distinct existing cards.
func (s *Service) checkCards(ctx context.Context, ids []int64) error {
	if len(ids) != Size {
		return oops.Code("DECK_CARD_COUNT").With("count", len(ids)).Wrap(ErrCardCount)
	}
	n, err := s.cards.CountExisting(ctx, ids)
	if err != nil {
		return oops.Code("DECK_CARD_CHECK_FAILED").Wrap(err)
	}
	if n != Size {
		return oops.Code("DECK_INVALID_CARDS").With("valid", n).Wrap(ErrInvalidCards)
	}
	return nil
}
