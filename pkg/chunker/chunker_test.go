package chunker_test

import (
	"fmt"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/chunker"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	return strings.Join(words, " ")
}

var _ = Describe("Splitter", func() {
	var s *chunker.Splitter

	BeforeEach(func() {
		s = chunker.New()
	})

	Describe("New", func() {
		It("uses 1000/200 by default", func() {
			Expect(s.ChunkSize()).To(Equal(1000))
			Expect(s.Overlap()).To(Equal(200))
		})

		It("clamps an overlap that is not smaller than the chunk size", func() {
			small := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(100))
			Expect(small.Overlap()).To(Equal(25))
		})

		It("ignores non-positive sizes", func() {
			def := chunker.New(chunker.WithChunkSize(0), chunker.WithOverlap(-1))
			Expect(def.ChunkSize()).To(Equal(chunker.DefaultChunkSize))
			Expect(def.Overlap()).To(Equal(chunker.DefaultChunkOverlap))
		})
	})

	Context("with empty input", func() {
		It("returns no chunks for an empty string", func() {
			Expect(s.Split("")).To(BeEmpty())
		})

		It("returns no chunks for whitespace only", func() {
			Expect(s.SplitChunks(" \n\n \t ")).To(BeEmpty())
		})
	})

	Context("with a document shorter than the chunk size", func() {
		It("returns exactly one chunk", func() {
			chunks := s.SplitChunks("A short note about photosynthesis.\n")
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Text).To(Equal("A short note about photosynthesis."))
			Expect(chunks[0].Index).To(Equal(0))
		})
	})

	Context("with a 2500 character document", func() {
		It("produces three bounded chunks", func() {
			text := strings.Repeat("abcd ", 500)
			Expect(text).To(HaveLen(2500))

			chunks := s.SplitChunks(text)
			Expect(chunks).To(HaveLen(3))
			for i, c := range chunks {
				Expect(c.Index).To(Equal(i))
				Expect(utf8.RuneCountInString(c.Text)).To(BeNumerically("<=", 1000))
			}
		})
	})

	It("is deterministic", func() {
		text := numberedWords(900)
		Expect(s.Split(text)).To(Equal(s.Split(text)))
	})

	It("covers the whole document with overlapping chunks in order", func() {
		text := numberedWords(900)
		chunks := s.Split(text)
		Expect(len(chunks)).To(BeNumerically(">", 1))

		Expect(strings.HasPrefix(text, chunks[0])).To(BeTrue())
		Expect(strings.HasSuffix(text, chunks[len(chunks)-1])).To(BeTrue())

		seen := map[string]bool{}
		lastStart := -1
		for i, c := range chunks {
			start := strings.Index(text, c)
			Expect(start).To(BeNumerically(">", lastStart), "chunk %d out of order", i)
			lastStart = start

			for _, w := range strings.Fields(c) {
				seen[w] = true
			}

			if i > 0 {
				first := strings.Fields(c)[0]
				Expect(chunks[i-1]).To(ContainSubstring(first), "chunk %d does not overlap its predecessor", i)
			}
		}
		Expect(seen).To(HaveLen(900))
	})

	It("prefers paragraph boundaries", func() {
		p1 := strings.TrimSpace(strings.Repeat("alpha ", 100))
		p2 := strings.TrimSpace(strings.Repeat("beta ", 120))
		chunks := s.Split(p1 + "\n\n" + p2)
		Expect(chunks).To(Equal([]string{p1, p2}))
	})

	It("never cuts a multi-byte character", func() {
		text := strings.Repeat("é", 1500)
		chunks := s.Split(text)
		Expect(chunks).To(HaveLen(2))
		for _, c := range chunks {
			Expect(utf8.ValidString(c)).To(BeTrue())
			Expect(utf8.RuneCountInString(c)).To(BeNumerically("<=", 1000))
		}
		Expect(utf8.RuneCountInString(chunks[1])).To(Equal(700))
	})

	It("honors custom separators", func() {
		small := chunker.New(chunker.WithChunkSize(10), chunker.WithOverlap(0), chunker.WithSeparators("|", ""))
		Expect(small.Split("aaaa|bbbb|cccc")).To(Equal([]string{"aaaa|bbbb", "|cccc"}))
	})
})
