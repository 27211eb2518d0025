package embeddings_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/embeddings"
	"github.com/papercomputeco/studyrag/pkg/logger"
)

var _ = Describe("EmbedEach", func() {
	It("keeps successful vectors and leaves failures nil", func() {
		embed := func(_ context.Context, text string) ([]float32, error) {
			if text == "bad" {
				return nil, errors.New("boom")
			}
			return []float32{1}, nil
		}

		vecs, err := embeddings.EmbedEach(context.Background(), []string{"a", "bad", "c"}, embed, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(vecs).To(Equal([][]float32{{1}, nil, {1}}))
		Expect(embeddings.Failed(vecs)).To(Equal(1))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := embeddings.EmbedEach(ctx, []string{"a"}, func(context.Context, string) ([]float32, error) {
			return []float32{1}, nil
		}, logger.Nop())
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Limiter", func() {
	It("is disabled for a zero rate", func() {
		l := embeddings.NewLimiter(0)
		Expect(l).To(BeNil())
		Expect(l.Wait(context.Background())).To(Succeed())
	})

	It("lets the burst through without waiting", func() {
		l := embeddings.NewLimiter(100)
		for range 100 {
			Expect(l.Wait(context.Background())).To(Succeed())
		}
	})

	It("honours context deadlines while waiting for a token", func() {
		l := embeddings.NewLimiter(0.001)
		Expect(l.Wait(context.Background())).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		Expect(l.Wait(ctx)).NotTo(Succeed())
	})
})
