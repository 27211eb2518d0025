package embeddingutils_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/embeddings/ollama"
	embeddingutils "github.com/papercomputeco/studyrag/pkg/embeddings/utils"
)

var _ = Describe("NewEmbedder", func() {
	ctx := context.Background()

	It("builds the ollama embedder", func() {
		e, err := embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{ProviderType: "ollama"})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&ollama.Embedder{}))
	})

	It("keeps the provider type when a rate limit is configured", func() {
		e, err := embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{
			ProviderType: "ollama",
			RateLimit:    5,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&ollama.Embedder{}))
	})

	It("passes provider errors through", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		_, err := embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{ProviderType: "openai"})
		Expect(err).To(MatchError(ContainSubstring("missing API key")))
	})

	It("rejects unknown providers", func() {
		_, err := embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{ProviderType: "cohere"})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider")))
	})
})
