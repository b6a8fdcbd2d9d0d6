// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/deckhub/internal/auth"
	authpg "github.com/holomush/deckhub/internal/auth/postgres"
	"github.com/holomush/deckhub/internal/catalog"
	catalogpg "github.com/holomush/deckhub/internal/catalog/postgres"
	"github.com/holomush/deckhub/internal/deck"
	"github.com/holomush/deckhub/internal/deck/postgres"
	"github.com/holomush/deckhub/internal/store"
)

var _ = Describe("DeckRepository", func() {
	var (
		owner, other *auth.User
		cardIDs      []int64
		svc          *deck.Service
	)

	BeforeEach(func() {
		_, err := pool.Exec(suiteCtx, `TRUNCATE users, cards, decks, deck_cards RESTART IDENTITY CASCADE`)
		Expect(err).NotTo(HaveOccurred())

		users := authpg.NewUserRepository(pool)
		owner = &auth.User{Email: "owner@x.com", Username: "owner", PasswordHash: "h"}
		other = &auth.User{Email: "other@x.com", Username: "other", PasswordHash: "h"}
		Expect(users.Create(suiteCtx, owner)).To(Succeed())
		Expect(users.Create(suiteCtx, other)).To(Succeed())

		cards := catalogpg.NewCardRepository(pool)
		cardIDs = nil
		for i := 1; i <= 12; i++ {
			c := &catalog.Card{Name: fmt.Sprintf("Card %d", i), PokedexNumber: i, Type: "normal"}
			_, err := cards.Upsert(suiteCtx, c)
			Expect(err).NotTo(HaveOccurred())
			cardIDs = append(cardIDs, c.ID)
		}

		svc, err = deck.NewService(postgres.NewDeckRepository(pool), cards, store.NewTransactor(pool), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates a deck with its cards in order", func() {
		d, err := svc.Create(suiteCtx, owner.ID, deck.CreateInput{Name: "Mine", Cards: cardIDs[:10]})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.UserID).To(Equal(owner.ID))
		Expect(d.Cards).To(HaveLen(deck.Size))
		for i, dc := range d.Cards {
			Expect(dc.CardID).To(Equal(cardIDs[i]))
			Expect(dc.Card.ID).To(Equal(cardIDs[i]))
		}
	})

	It("hides decks from other users", func() {
		d, err := svc.Create(suiteCtx, owner.ID, deck.CreateInput{Name: "Mine", Cards: cardIDs[:10]})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Get(suiteCtx, other.ID, d.ID)
		Expect(errors.Is(err, deck.ErrNotFound)).To(BeTrue())
		Expect(errors.Is(svc.Delete(suiteCtx, other.ID, d.ID), deck.ErrNotFound)).To(BeTrue())

		mine, err := svc.ListMine(suiteCtx, other.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(mine).To(BeEmpty())
	})

	It("rejects duplicate and unknown cards", func() {
		dup := append([]int64{cardIDs[0]}, cardIDs[:9]...)
		_, err := svc.Create(suiteCtx, owner.ID, deck.CreateInput{Name: "Dup", Cards: dup})
		Expect(errors.Is(err, deck.ErrInvalidCards)).To(BeTrue())

		unknown := append([]int64{9999}, cardIDs[:9]...)
		_, err = svc.Create(suiteCtx, owner.ID, deck.CreateInput{Name: "Unknown", Cards: unknown})
		Expect(errors.Is(err, deck.ErrInvalidCards)).To(BeTrue())
	})

	It("replaces cards and renames in one update", func() {
		d, err := svc.Create(suiteCtx, owner.ID, deck.CreateInput{Name: "Mine", Cards: cardIDs[:10]})
		Expect(err).NotTo(HaveOccurred())

		name := "Renamed"
		updated, err := svc.Update(suiteCtx, owner.ID, d.ID, deck.UpdateInput{Name: &name, Cards: cardIDs[2:12]})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Name).To(Equal("Renamed"))
		Expect(updated.Cards).To(HaveLen(deck.Size))
		Expect(updated.Cards[0].CardID).To(Equal(cardIDs[2]))
		Expect(updated.UpdatedAt).To(BeTemporally(">=", d.UpdatedAt))
	})

	It("rolls back a failed card replacement", func() {
		d, err := svc.Create(suiteCtx, owner.ID, deck.CreateInput{Name: "Mine", Cards: cardIDs[:10]})
		Expect(err).NotTo(HaveOccurred())

		repo := postgres.NewDeckRepository(pool)
		tx := store.NewTransactor(pool)
		boom := errors.New("boom")
		err = tx.InTransaction(suiteCtx, func(ctx context.Context) error {
			Expect(repo.ReplaceCards(ctx, d.ID, cardIDs[2:12])).To(Succeed())
			return boom
		})
		Expect(err).To(MatchError(boom))

		reloaded, err := svc.Get(suiteCtx, owner.ID, d.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.Cards[0].CardID).To(Equal(cardIDs[0]))
	})

	It("deletes a deck and its card links", func() {
		d, err := svc.Create(suiteCtx, owner.ID, deck.CreateInput{Name: "Mine", Cards: cardIDs[:10]})
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.Delete(suiteCtx, owner.ID, d.ID)).To(Succeed())

		var links int
		Expect(pool.QueryRow(suiteCtx, `SELECT count(*) FROM deck_cards WHERE deck_id = $1`, d.ID).Scan(&links)).To(Succeed())
		Expect(links).To(BeZero())
	})
})
