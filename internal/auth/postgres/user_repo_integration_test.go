// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/holomush/deckhub/internal/auth"
	"github.com/holomush/deckhub/internal/auth/postgres"
)

var _ = Describe("UserRepository", func() {
	var users *postgres.UserRepository

	BeforeEach(func() {
		_, err := pool.Exec(suiteCtx, `TRUNCATE users RESTART IDENTITY CASCADE`)
		Expect(err).NotTo(HaveOccurred())
		users = postgres.NewUserRepository(pool)
	})

	It("assigns an id and finds the user by email", func() {
		u := &auth.User{Email: "a@x.com", Username: "a", PasswordHash: "h"}
		Expect(users.Create(suiteCtx, u)).To(Succeed())
		Expect(u.ID).To(BeNumerically(">", 0))

		found, err := users.GetByEmail(suiteCtx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal(u.ID))
		Expect(found.Username).To(Equal("a"))
		Expect(found.PasswordHash).To(Equal("h"))
		Expect(found.CreatedAt).NotTo(BeZero())
	})

	It("reports an unknown email as not found", func() {
		_, err := users.GetByEmail(suiteCtx, "nobody@x.com")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})

	It("reports a taken email as a duplicate and keeps the first user", func() {
		Expect(users.Create(suiteCtx, &auth.User{Email: "a@x.com", Username: "first", PasswordHash: "h"})).To(Succeed())

		err := users.Create(suiteCtx, &auth.User{Email: "a@x.com", Username: "again", PasswordHash: "h2"})
		Expect(errors.Is(err, auth.ErrDuplicateEmail)).To(BeTrue())
		oopsErr, ok := oops.AsOops(err)
		Expect(ok).To(BeTrue())
		Expect(oopsErr.Code()).To(Equal("USER_EMAIL_TAKEN"))

		found, err := users.GetByEmail(suiteCtx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Username).To(Equal("first"))
	})

	It("lets exactly one of several racing sign-ups win", func() {
		tokens, err := auth.NewTokenService([]byte("integration-secret"))
		Expect(err).NotTo(HaveOccurred())
		svc, err := auth.NewService(users, auth.NewBcryptHasher(4), tokens, nil)
		Expect(err).NotTo(HaveOccurred())

		const racers = 8
		kinds := make([]auth.Kind, racers)
		var wg sync.WaitGroup
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				_, err := svc.SignUp(context.Background(), auth.SignUpInput{
					Email: "race@x.com", Username: "r", Password: "secret1",
				})
				kinds[i] = auth.KindOf(err)
			}()
		}
		wg.Wait()

		Expect(kinds).To(ContainElement(auth.KindNone))
		Expect(kinds).To(HaveEach(Or(Equal(auth.KindNone), Equal(auth.KindDuplicateEmail))))

		var n int
		Expect(pool.QueryRow(suiteCtx, `SELECT count(*) FROM users WHERE email = 'race@x.com'`).Scan(&n)).To(Succeed())
		Expect(n).To(Equal(1))
	})
})
