package quiz_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/rag"
	testutils "github.com/papercomputeco/studyrag/pkg/utils/test"
	"github.com/papercomputeco/studyrag/pkg/vector"
)

func questionsJSON(n int) string {
	qs := make([]quiz.Question, n)
	for i := range qs {
		qs[i] = quiz.Question{
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "B",
		}
	}
	b, err := json.Marshal(qs)
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

var _ = Describe("Generator", func() {
	var (
		mock *testutils.MockLLM
		ctx  context.Context
	)

	BeforeEach(func() {
		mock = testutils.NewMockLLM()
		ctx = context.Background()
	})

	It("returns exactly the requested number of questions", func() {
		mock.Responses = []string{questionsJSON(5)}
		g := quiz.NewGenerator(mock.Call, nil, logger.Nop())

		qs, err := g.Generate(ctx, quiz.Request{Topic: "Photosynthesis", NumQuestions: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(qs).To(HaveLen(5))
		for _, q := range qs {
			Expect(q.Options).To(HaveLen(4))
			Expect(q.Options).To(ContainElement(q.CorrectAnswer))
		}

		Expect(mock.LastPrompt()).To(ContainSubstring(`5 multiple choice questions about "Photosynthesis"`))
		Expect(mock.LastPrompt()).NotTo(ContainSubstring("study material"))
	})

	It("asks for a questions object in JSON mode and accepts the model's wrapper", func() {
		mock.Responses = []string{`{"quiz":` + questionsJSON(3) + `}`}
		g := quiz.NewGenerator(mock.Call, nil, logger.Nop(), quiz.WithObjectReply(true))

		qs, err := g.Generate(ctx, quiz.Request{Topic: "Enzymes", NumQuestions: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(qs).To(HaveLen(3))
		Expect(mock.LastPrompt()).To(ContainSubstring(`an object with a single key "questions"`))
		Expect(mock.LastPrompt()).NotTo(ContainSubstring("a list of objects, where"))
	})

	It("fails when the model returns the wrong count", func() {
		mock.Responses = []string{questionsJSON(4)}
		g := quiz.NewGenerator(mock.Call, nil, logger.Nop())

		qs, err := g.Generate(ctx, quiz.Request{Topic: "Cells", NumQuestions: 5})
		Expect(errors.Is(err, quiz.ErrInvalidQuiz)).To(BeTrue())
		Expect(qs).To(BeNil())
	})

	DescribeTable("rejects out of range counts",
		func(n int) {
			g := quiz.NewGenerator(mock.Call, nil, logger.Nop())
			_, err := g.Generate(ctx, quiz.Request{Topic: "Cells", NumQuestions: n})
			Expect(errors.Is(err, quiz.ErrInvalidRequest)).To(BeTrue())
			Expect(mock.Prompts).To(BeEmpty())
		},
		Entry("zero", 0),
		Entry("negative", -1),
		Entry("too many", quiz.MaxQuestions+1),
	)

	It("requires a topic", func() {
		g := quiz.NewGenerator(mock.Call, nil, logger.Nop())
		_, err := g.Generate(ctx, quiz.Request{Topic: "  ", NumQuestions: 1})
		Expect(errors.Is(err, quiz.ErrInvalidRequest)).To(BeTrue())
	})

	It("propagates model failures", func() {
		mock.Err = errors.New("upstream 500")
		g := quiz.NewGenerator(mock.Call, nil, logger.Nop())
		_, err := g.Generate(ctx, quiz.Request{Topic: "Cells", NumQuestions: 1})
		Expect(err).To(MatchError(ContainSubstring("upstream 500")))
	})

	Context("with a document", func() {
		var (
			driver    *testutils.MockVectorDriver
			retriever *rag.Retriever
		)

		BeforeEach(func() {
			driver = testutils.NewMockVectorDriver()
			embedder := testutils.NewMockEmbedder()
			retriever = rag.NewRetriever(embedder, driver, "", logger.Nop())

			text := "The Krebs cycle takes place in the mitochondrial matrix."
			Expect(driver.Upsert(ctx, vector.DefaultCollection, []vector.Document{{
				ID:        "c1",
				Text:      text,
				Embedding: testutils.HashEmbedding(text, testutils.DefaultMockDims),
				Metadata: map[string]string{
					vector.MetaOwnerID:    "1",
					vector.MetaDocumentID: "7",
				},
			}})).To(Succeed())
		})

		It("grounds the prompt in the document's chunks", func() {
			mock.Responses = []string{questionsJSON(2)}
			g := quiz.NewGenerator(mock.Call, retriever, logger.Nop())

			_, err := g.Generate(ctx, quiz.Request{Topic: "Krebs cycle", NumQuestions: 2, DocumentID: "7", OwnerID: "1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(mock.LastPrompt()).To(ContainSubstring("answerable from the following study material"))
			Expect(mock.LastPrompt()).To(ContainSubstring("mitochondrial matrix"))

			Expect(driver.Queries[0].Equal).To(HaveKeyWithValue(vector.MetaDocumentID, "7"))
			Expect(driver.Queries[0].Equal).To(HaveKeyWithValue(vector.MetaOwnerID, "1"))
		})

		It("falls back to the topic when the document has no chunks for the owner", func() {
			mock.Responses = []string{questionsJSON(1)}
			g := quiz.NewGenerator(mock.Call, retriever, logger.Nop())

			_, err := g.Generate(ctx, quiz.Request{Topic: "Krebs cycle", NumQuestions: 1, DocumentID: "7", OwnerID: "2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(mock.LastPrompt()).NotTo(ContainSubstring("study material"))
		})

		It("requires an owner to read the document", func() {
			g := quiz.NewGenerator(mock.Call, retriever, logger.Nop())
			_, err := g.Generate(ctx, quiz.Request{Topic: "Krebs cycle", NumQuestions: 1, DocumentID: "7"})
			Expect(errors.Is(err, rag.ErrMissingOwner)).To(BeTrue())
		})
	})
})

var _ = Describe("Parse", func() {
	valid := `{"question":"Q?","options":["a","b","c","d"],"correct_answer":"c"}`

	It("accepts fenced JSON with surrounding prose", func() {
		qs, err := quiz.Parse("Here you go:\n```json\n["+valid+"]\n```\nGood luck!", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs[0].CorrectAnswer).To(Equal("c"))
	})

	It("accepts a questions wrapper object", func() {
		qs, err := quiz.Parse(`{"questions":[`+valid+`,`+valid+`]}`, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs).To(HaveLen(2))
	})

	It("accepts an object whose list sits under another key", func() {
		qs, err := quiz.Parse(`{"quiz":[`+valid+`,`+valid+`]}`, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs).To(HaveLen(2))
	})

	It("accepts a lone question object as a one question quiz", func() {
		qs, err := quiz.Parse(valid, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs[0].Question).To(Equal("Q?"))
	})

	It("trims whitespace around options and the answer", func() {
		qs, err := quiz.Parse(`[{"question":" Q? ","options":[" a","b ","c","d"],"correct_answer":" a "}]`, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs[0].Question).To(Equal("Q?"))
		Expect(qs[0].Options).To(Equal([]string{"a", "b", "c", "d"}))
	})

	DescribeTable("rejects malformed quizzes",
		func(reply string) {
			qs, err := quiz.Parse(reply, 1)
			Expect(errors.Is(err, quiz.ErrInvalidQuiz)).To(BeTrue())
			Expect(qs).To(BeNil())
		},
		Entry("not JSON", "Sorry, I cannot do that."),
		Entry("truncated", `[{"question":"Q?","options":["a","b"`),
		Entry("three options", `[{"question":"Q?","options":["a","b","c"],"correct_answer":"a"}]`),
		Entry("five options", `[{"question":"Q?","options":["a","b","c","d","e"],"correct_answer":"a"}]`),
		Entry("duplicate options", `[{"question":"Q?","options":["a","a","c","d"],"correct_answer":"a"}]`),
		Entry("empty option", `[{"question":"Q?","options":["a","","c","d"],"correct_answer":"a"}]`),
		Entry("answer not an option", `[{"question":"Q?","options":["a","b","c","d"],"correct_answer":"e"}]`),
		Entry("empty question", `[{"question":"","options":["a","b","c","d"],"correct_answer":"a"}]`),
		Entry("wrong count", `[]`),
		Entry("object with two lists", `{"a":[`+valid+`],"b":[`+valid+`]}`),
		Entry("object without a list", `{"title":"Quiz"}`),
	)
})
