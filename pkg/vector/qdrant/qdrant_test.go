package qdrant

import (
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/vector"
)

var _ = Describe("qdrant helpers", func() {
	Describe("parseTarget", func() {
		It("defaults to the gRPC port", func() {
			host, port, err := parseTarget("localhost")
			Expect(err).NotTo(HaveOccurred())
			Expect(host).To(Equal("localhost"))
			Expect(port).To(Equal(DefaultPort))
		})

		It("strips a scheme and reads the port", func() {
			host, port, err := parseTarget("http://qdrant.internal:7334/")
			Expect(err).NotTo(HaveOccurred())
			Expect(host).To(Equal("qdrant.internal"))
			Expect(port).To(Equal(7334))
		})

		It("rejects a bad port", func() {
			_, _, err := parseTarget("localhost:abc")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("pointID", func() {
		It("keeps UUID chunk ids", func() {
			id := uuid.NewString()
			Expect(pointID(id)).To(Equal(id))
		})

		It("derives a stable UUID for other ids", func() {
			a := pointID("doc-7_3")
			Expect(uuid.Parse(a)).Error().NotTo(HaveOccurred())
			Expect(pointID("doc-7_3")).To(Equal(a))
			Expect(pointID("doc-7_4")).NotTo(Equal(a))
		})
	})

	Describe("buildFilter", func() {
		It("returns nil for an empty filter", func() {
			Expect(buildFilter(vector.Filter{})).To(BeNil())
		})

		It("maps equality to Must and inequality to MustNot", func() {
			f := buildFilter(vector.Where(vector.MetaDocumentID, "7").Not(vector.MetaIngestID, "g2"))
			Expect(f.GetMust()).To(HaveLen(1))
			Expect(f.GetMust()[0].GetField().GetKey()).To(Equal(vector.MetaDocumentID))
			Expect(f.GetMust()[0].GetField().GetMatch().GetKeyword()).To(Equal("7"))
			Expect(f.GetMustNot()).To(HaveLen(1))
			Expect(f.GetMustNot()[0].GetField().GetKey()).To(Equal(vector.MetaIngestID))
		})
	})

	Describe("payloads", func() {
		It("round-trips text, id and metadata", func() {
			doc := vector.Document{
				ID:       "c1",
				Text:     "photosynthesis",
				Metadata: map[string]string{vector.MetaOwnerID: "1", vector.MetaSource: "bio.pdf"},
			}
			values := qdrant.NewValueMap(payloadFor(doc))

			got := documentFromPayload(values)
			Expect(got.ID).To(Equal("c1"))
			Expect(got.Text).To(Equal("photosynthesis"))
			Expect(got.Metadata).To(Equal(doc.Metadata))
		})
	})

	Describe("NewDriver", func() {
		It("requires a target", func() {
			_, err := NewDriver(Config{}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("qdrant target is required")))
		})
	})
})
