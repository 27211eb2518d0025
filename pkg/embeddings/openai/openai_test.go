package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/embeddings/openai"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		lastAuth string
		lastReq  map[string]any
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/embeddings" {
				http.NotFound(w, r)
				return
			}
			lastAuth = r.Header.Get("Authorization")
			lastReq = map[string]any{}
			json.NewDecoder(r.Body).Decode(&lastReq)

			inputs, _ := lastReq["input"].([]any)
			type item struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}
			// reply in reverse order to exercise index sorting
			data := []item{}
			for i := len(inputs) - 1; i >= 0; i-- {
				if inputs[i] == "bad" {
					http.Error(w, `{"error":"bad input"}`, http.StatusBadRequest)
					return
				}
				data = append(data, item{Index: i, Embedding: []float32{float32(i), 1}})
			}
			json.NewEncoder(w).Encode(map[string]any{"data": data})
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an API key", func() {
		GinkgoT().Setenv(openai.APIKeyEnv, "")
		_, err := openai.NewEmbedder(openai.Config{BaseURL: server.URL})
		Expect(err).To(MatchError(ContainSubstring("missing API key")))
	})

	It("reads the API key from the environment", func() {
		GinkgoT().Setenv(openai.APIKeyEnv, "env-key")
		e, err := openai.NewEmbedder(openai.Config{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(lastAuth).To(Equal("Bearer env-key"))
	})

	It("sends the model and dimensions and orders results by index", func() {
		e, err := openai.NewEmbedder(openai.Config{BaseURL: server.URL, APIKey: "k", Dimensions: 256})
		Expect(err).NotTo(HaveOccurred())

		vecs, err := e.EmbedMany(context.Background(), []string{"a", "b", "c"})
		Expect(err).NotTo(HaveOccurred())
		Expect(vecs).To(Equal([][]float32{{0, 1}, {1, 1}, {2, 1}}))
		Expect(lastReq["model"]).To(Equal(openai.DefaultModel))
		Expect(lastReq["dimensions"]).To(BeNumerically("==", 256))
	})

	It("falls back to per item requests when the batch fails", func() {
		e, err := openai.NewEmbedder(openai.Config{BaseURL: server.URL, APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())

		vecs, err := e.EmbedMany(context.Background(), []string{"a", "bad"})
		Expect(err).NotTo(HaveOccurred())
		Expect(vecs[0]).To(Equal([]float32{0, 1}))
		Expect(vecs[1]).To(BeNil())
	})
})
