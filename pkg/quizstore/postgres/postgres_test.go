package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
	"github.com/papercomputeco/studyrag/pkg/quizstore/postgres"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("STUDYRAG_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("STUDYRAG_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	var (
		driver *postgres.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dsn := connStr()

		var err error
		driver, err = postgres.NewDriver(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())

		// Clean all quizzes before each test for isolation.
		_, err = driver.DB.ExecContext(ctx, "DELETE FROM quizzes")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	It("saves, gets and lists quizzes by owner", func() {
		saved, err := driver.Save(ctx, &quizstore.Quiz{
			OwnerID: "1",
			Topic:   "Cells",
			Questions: []quiz.Question{{
				Question:      "Q?",
				Options:       []string{"a", "b", "c", "d"},
				CorrectAnswer: "b",
			}},
		})
		Expect(err).NotTo(HaveOccurred())

		got, err := driver.Get(ctx, "1", saved.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Questions).To(Equal(saved.Questions))

		list, err := driver.ListByOwner(ctx, "1", 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))

		list, err = driver.ListByOwner(ctx, "2", 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())
	})
})
