package inmemory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/vector"
	"github.com/papercomputeco/studyrag/pkg/vector/inmemory"
)

func chunk(id, owner, doc string, emb ...float32) vector.Document {
	return vector.Document{
		ID:        id,
		Text:      "text of " + id,
		Embedding: emb,
		Metadata: map[string]string{
			vector.MetaOwnerID:    owner,
			vector.MetaDocumentID: doc,
		},
	}
}

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	const coll = vector.DefaultCollection

	BeforeEach(func() {
		driver = inmemory.NewDriver(logger.Nop())
		ctx = context.Background()
	})

	It("implements vector.Driver", func() {
		var _ vector.Driver = (*inmemory.Driver)(nil)
	})

	Describe("Query", func() {
		It("returns nothing for a collection that does not exist", func() {
			results, err := driver.Query(ctx, "missing", []float32{1, 0}, 4, vector.Where(vector.MetaOwnerID, "1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("ranks by descending similarity", func() {
			Expect(driver.Upsert(ctx, coll, []vector.Document{
				chunk("far", "1", "7", 0, 1),
				chunk("near", "1", "7", 1, 0),
				chunk("mid", "1", "7", 1, 1),
			})).To(Succeed())

			results, err := driver.Query(ctx, coll, []float32{1, 0}, 3, vector.Where(vector.MetaOwnerID, "1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ID).To(Equal("near"))
			Expect(results[1].ID).To(Equal("mid"))
			Expect(results[2].ID).To(Equal("far"))
			Expect(results[0].Text).To(Equal("text of near"))
		})

		It("filters before ranking so other owners never leak in", func() {
			Expect(driver.Upsert(ctx, coll, []vector.Document{
				chunk("other-owner", "2", "8", 1, 0),
				chunk("mine", "1", "7", 0, 1),
			})).To(Succeed())

			results, err := driver.Query(ctx, coll, []float32{1, 0}, 1, vector.Where(vector.MetaOwnerID, "1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("mine"))
		})

		It("rejects a query with the wrong dimensionality", func() {
			Expect(driver.Upsert(ctx, coll, []vector.Document{chunk("a", "1", "7", 1, 0)})).To(Succeed())

			_, err := driver.Query(ctx, coll, []float32{1, 0, 0}, 1, vector.Filter{})
			Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
		})
	})

	Describe("Upsert", func() {
		It("replaces documents with the same ID", func() {
			Expect(driver.Upsert(ctx, coll, []vector.Document{chunk("a", "1", "7", 1, 0)})).To(Succeed())
			updated := chunk("a", "1", "7", 0, 1)
			updated.Text = "new text"
			Expect(driver.Upsert(ctx, coll, []vector.Document{updated})).To(Succeed())

			Expect(driver.Len(coll)).To(Equal(1))
			results, err := driver.Query(ctx, coll, []float32{0, 1}, 1, vector.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Text).To(Equal("new text"))
		})

		It("refuses empty embeddings", func() {
			err := driver.Upsert(ctx, coll, []vector.Document{{ID: "a"}})
			Expect(errors.Is(err, vector.ErrEmbedding)).To(BeTrue())
			Expect(driver.Len(coll)).To(BeZero())
		})

		It("does not share memory with the caller", func() {
			doc := chunk("a", "1", "7", 1, 0)
			Expect(driver.Upsert(ctx, coll, []vector.Document{doc})).To(Succeed())
			doc.Metadata[vector.MetaOwnerID] = "2"

			results, err := driver.Query(ctx, coll, []float32{1, 0}, 1, vector.Where(vector.MetaOwnerID, "1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			Expect(driver.Upsert(ctx, coll, []vector.Document{
				chunk("a", "1", "7", 1, 0),
				chunk("b", "1", "7", 0, 1),
				chunk("c", "1", "9", 1, 1),
			})).To(Succeed())
		})

		It("removes every matching document", func() {
			Expect(driver.Delete(ctx, coll, vector.Where(vector.MetaDocumentID, "7"))).To(Succeed())
			Expect(driver.Len(coll)).To(Equal(1))
		})

		It("is idempotent", func() {
			f := vector.Where(vector.MetaDocumentID, "7")
			Expect(driver.Delete(ctx, coll, f)).To(Succeed())
			Expect(driver.Delete(ctx, coll, f)).To(Succeed())
			Expect(driver.Len(coll)).To(Equal(1))
		})

		It("is a no-op for a missing collection", func() {
			Expect(driver.Delete(ctx, "missing", vector.Where(vector.MetaDocumentID, "7"))).To(Succeed())
		})

		It("refuses an empty filter", func() {
			err := driver.Delete(ctx, coll, vector.Filter{})
			Expect(errors.Is(err, vector.ErrEmptyFilter)).To(BeTrue())
			Expect(driver.Len(coll)).To(Equal(3))
		})
	})
})
