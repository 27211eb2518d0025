package vector_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/vector"
)

var _ = Describe("Filter", func() {
	md := map[string]string{
		vector.MetaOwnerID:    "1",
		vector.MetaDocumentID: "7",
		vector.MetaIngestID:   "gen-a",
	}

	It("matches on every equality condition", func() {
		Expect(vector.Where(vector.MetaOwnerID, "1").Matches(md)).To(BeTrue())
		Expect(vector.Where(vector.MetaOwnerID, "1").And(vector.MetaDocumentID, "7").Matches(md)).To(BeTrue())
		Expect(vector.Where(vector.MetaOwnerID, "2").Matches(md)).To(BeFalse())
	})

	It("treats a missing key as not equal", func() {
		Expect(vector.Where("page", "1").Matches(md)).To(BeFalse())
		Expect(vector.Filter{}.Not("page", "1").Matches(md)).To(BeTrue())
	})

	It("excludes documents holding a NotEqual value", func() {
		f := vector.Where(vector.MetaDocumentID, "7").Not(vector.MetaIngestID, "gen-a")
		Expect(f.Matches(md)).To(BeFalse())

		f = vector.Where(vector.MetaDocumentID, "7").Not(vector.MetaIngestID, "gen-b")
		Expect(f.Matches(md)).To(BeTrue())
	})

	It("does not mutate the receiver when adding conditions", func() {
		base := vector.Where(vector.MetaOwnerID, "1")
		_ = base.And(vector.MetaDocumentID, "7")
		Expect(base.Equal).To(HaveLen(1))
	})

	It("reports emptiness", func() {
		Expect(vector.Filter{}.IsEmpty()).To(BeTrue())
		Expect(vector.Filter{Equal: map[string]string{}}.IsEmpty()).To(BeTrue())
		Expect(vector.Where("a", "b").IsEmpty()).To(BeFalse())
	})

	It("rejects keys that cannot be used in queries", func() {
		Expect(vector.Where(`bad"key`, "x").Validate()).To(HaveOccurred())
		Expect(vector.Where("good_key", "x").Validate()).To(Succeed())
	})

	It("returns sorted keys", func() {
		f := vector.Where("b", "1").And("a", "2").Not("d", "3").Not("c", "4")
		Expect(f.EqualKeys()).To(Equal([]string{"a", "b"}))
		Expect(f.NotEqualKeys()).To(Equal([]string{"c", "d"}))
	})
})

var _ = Describe("ValidateDocuments", func() {
	It("rejects empty embeddings as embedding failures", func() {
		err := vector.ValidateDocuments([]vector.Document{{ID: "a"}})
		Expect(errors.Is(err, vector.ErrEmbedding)).To(BeTrue())
	})

	It("rejects mixed dimensionality", func() {
		err := vector.ValidateDocuments([]vector.Document{
			{ID: "a", Embedding: []float32{1, 0}},
			{ID: "b", Embedding: []float32{1, 0, 0}},
		})
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
	})

	It("rejects empty IDs", func() {
		Expect(vector.ValidateDocuments([]vector.Document{{Embedding: []float32{1}}})).To(HaveOccurred())
	})
})

var _ = Describe("CosineSimilarity", func() {
	It("is 1 for identical directions and 0 for orthogonal ones", func() {
		Expect(vector.CosineSimilarity([]float32{1, 0}, []float32{2, 0})).To(BeNumerically("~", 1, 1e-6))
		Expect(vector.CosineSimilarity([]float32{1, 0}, []float32{0, 1})).To(BeNumerically("~", 0, 1e-6))
	})

	It("is 0 for zero vectors and mismatched lengths", func() {
		Expect(vector.CosineSimilarity([]float32{0, 0}, []float32{1, 0})).To(BeZero())
		Expect(vector.CosineSimilarity([]float32{1}, []float32{1, 0})).To(BeZero())
	})
})
