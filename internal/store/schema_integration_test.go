// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package store_test

import (
	"context"
	"errors"
	"net/url"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/deckhub/internal/store"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

var _ = Describe("Schema", func() {
	var userID, cardID int64

	BeforeEach(func() {
		_, err := pool.Exec(suiteCtx, `TRUNCATE users, cards, decks, deck_cards RESTART IDENTITY CASCADE`)
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.QueryRow(suiteCtx,
			`INSERT INTO users (email, username, password_hash) VALUES ('a@x.com', 'a', 'h') RETURNING id`,
		).Scan(&userID)).To(Succeed())
		Expect(pool.QueryRow(suiteCtx,
			`INSERT INTO cards (name, pokedex_number, type) VALUES ('Bulbasaur', 1, 'grass') RETURNING id`,
		).Scan(&cardID)).To(Succeed())
	})

	It("enforces unique emails", func() {
		_, err := pool.Exec(suiteCtx,
			`INSERT INTO users (email, username, password_hash) VALUES ('a@x.com', 'other', 'h2')`)
		Expect(pgCode(err)).To(Equal(pgerrcode.UniqueViolation))
	})

	It("rejects empty password hashes", func() {
		_, err := pool.Exec(suiteCtx,
			`INSERT INTO users (email, username, password_hash) VALUES ('b@x.com', 'b', '')`)
		Expect(pgCode(err)).To(Equal(pgerrcode.CheckViolation))
	})

	It("rejects a card twice in one deck", func() {
		var deckID int64
		Expect(pool.QueryRow(suiteCtx,
			`INSERT INTO decks (name, user_id) VALUES ('starter', $1) RETURNING id`, userID,
		).Scan(&deckID)).To(Succeed())

		_, err := pool.Exec(suiteCtx, `INSERT INTO deck_cards (deck_id, card_id) VALUES ($1, $2)`, deckID, cardID)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(suiteCtx, `INSERT INTO deck_cards (deck_id, card_id) VALUES ($1, $2)`, deckID, cardID)
		Expect(pgCode(err)).To(Equal(pgerrcode.UniqueViolation))
	})

	It("cascades deck deletion to deck cards", func() {
		var deckID int64
		Expect(pool.QueryRow(suiteCtx,
			`INSERT INTO decks (name, user_id) VALUES ('starter', $1) RETURNING id`, userID,
		).Scan(&deckID)).To(Succeed())
		_, err := pool.Exec(suiteCtx, `INSERT INTO deck_cards (deck_id, card_id) VALUES ($1, $2)`, deckID, cardID)
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(suiteCtx, `DELETE FROM decks WHERE id = $1`, deckID)
		Expect(err).NotTo(HaveOccurred())

		var n int
		Expect(pool.QueryRow(suiteCtx, `SELECT count(*) FROM deck_cards`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
	})

	It("rolls back a failed transaction", func() {
		tr := store.NewTransactor(pool)
		err := tr.InTransaction(suiteCtx, func(ctx context.Context) error {
			_, err := store.Querier(ctx, pool).Exec(ctx,
				`INSERT INTO decks (name, user_id) VALUES ('doomed', $1)`, userID)
			Expect(err).NotTo(HaveOccurred())
			return errors.New("abort")
		})
		Expect(err).To(MatchError("abort"))

		var n int
		Expect(pool.QueryRow(suiteCtx, `SELECT count(*) FROM decks WHERE name = 'doomed'`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
	})
})

// The migration cycle runs in its own database so the schema specs above
// keep their tables.
var _ = Describe("Migrator", Ordered, func() {
	var (
		migrator *store.Migrator
		conn     *pgx.Conn
	)

	tables := func() []string {
		rows, err := conn.Query(suiteCtx, `SELECT table_name::text FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name <> 'schema_migrations'`)
		Expect(err).NotTo(HaveOccurred())
		names, err := pgx.CollectRows(rows, pgx.RowTo[string])
		Expect(err).NotTo(HaveOccurred())
		return names
	}

	version := func() uint {
		v, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeFalse())
		return v
	}

	BeforeAll(func() {
		_, err := pool.Exec(suiteCtx, `CREATE DATABASE deckhub_migrations`)
		Expect(err).NotTo(HaveOccurred())

		u, err := url.Parse(connStr)
		Expect(err).NotTo(HaveOccurred())
		u.Path = "/deckhub_migrations"

		migrator, err = store.NewMigrator(u.String())
		Expect(err).NotTo(HaveOccurred())
		conn, err = pgx.Connect(suiteCtx, u.String())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if conn != nil {
			Expect(conn.Close(suiteCtx)).To(Succeed())
		}
		if migrator != nil {
			Expect(migrator.Close()).To(Succeed())
		}
	})

	It("starts with every migration pending", func() {
		Expect(version()).To(BeZero())
		Expect(tables()).To(BeEmpty())
		Expect(migrator.PendingMigrations()).To(Equal([]uint{1, 2, 3}))
	})

	It("creates the deckhub tables on Up", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(version()).To(Equal(uint(3)))
		Expect(tables()).To(ConsistOf("users", "cards", "decks", "deck_cards"))
		Expect(migrator.PendingMigrations()).To(BeEmpty())
	})

	It("drops only the deck tables when stepping back once", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		Expect(version()).To(Equal(uint(2)))
		Expect(tables()).To(ConsistOf("users", "cards"))
	})

	It("restores the deck tables when stepping forward once", func() {
		Expect(migrator.Steps(1)).To(Succeed())
		Expect(version()).To(Equal(uint(3)))
		Expect(tables()).To(ConsistOf("users", "cards", "decks", "deck_cards"))
	})

	It("leaves no tables after Down", func() {
		Expect(migrator.Down()).To(Succeed())
		Expect(version()).To(BeZero())
		Expect(tables()).To(BeEmpty())
	})

	It("records a forced version without running its SQL", func() {
		Expect(migrator.Force(1)).To(Succeed())
		Expect(version()).To(Equal(uint(1)))
		Expect(tables()).To(BeEmpty())
		Expect(migrator.AppliedMigrations()).To(Equal([]uint{1}))
	})
})
