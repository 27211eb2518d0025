package mcp_test

import (
	"context"
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/api/mcp"
	studylogger "github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore/inmemory"
	"github.com/papercomputeco/studyrag/pkg/rag"
	testutils "github.com/papercomputeco/studyrag/pkg/utils/test"
	"github.com/papercomputeco/studyrag/pkg/vector"
)

const quizReply = `[{"question":"What do plants absorb?","options":["Light","Sound","Heat","Wind"],"correct_answer":"Light"}]`

var _ = Describe("MCP Server", func() {
	var (
		server       *mcp.Server
		vectorDriver *testutils.MockVectorDriver
		embedder     *testutils.MockEmbedder
		llm          *testutils.MockLLM
		store        *inmemory.Driver
		answerer     *rag.Answerer
		generator    *quiz.Generator
	)

	BeforeEach(func() {
		logger := studylogger.Nop()
		vectorDriver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		llm = testutils.NewMockLLM()
		store = inmemory.NewDriver()

		retriever := rag.NewRetriever(embedder, vectorDriver, "", logger)
		answerer = rag.NewAnswerer(retriever, llm.Call, logger)
		generator = quiz.NewGenerator(llm.Call, retriever, logger)

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Answerer:  answerer,
			Quizzes:   generator,
			QuizStore: store,
			Logger:    logger,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the answerer is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Quizzes: generator, Logger: studylogger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("answerer is required")))
		})

		It("returns an error when the quiz generator is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Answerer: answerer, Logger: studylogger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("quiz generator is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Answerer: answerer, Quizzes: generator})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates a noop server without dependencies", func() {
			s, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("tools", func() {
		var session *sdk.ClientSession

		BeforeEach(func() {
			ctx := context.Background()
			clientTransport, serverTransport := sdk.NewInMemoryTransports()

			_, err := server.MCPServer().Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())

			client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0"}, nil)
			session, err = client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(session.Close)
		})

		It("lists both tools", func() {
			res, err := session.ListTools(context.Background(), &sdk.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf("ask_documents", "generate_quiz"))
		})

		It("answers from the owner's documents", func() {
			text := "chlorophyll absorbs light"
			Expect(vectorDriver.Upsert(context.Background(), vector.DefaultCollection, []vector.Document{{
				ID:        "c1",
				Text:      text,
				Embedding: testutils.HashEmbedding(text, testutils.DefaultMockDims),
				Metadata:  map[string]string{vector.MetaOwnerID: "1", vector.MetaSource: "bio.txt"},
			}})).To(Succeed())
			llm.Responses = []string{"Chlorophyll absorbs light."}

			res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
				Name:      "ask_documents",
				Arguments: map[string]any{"question": "what absorbs light?", "owner_id": "1"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			var answer rag.Answer
			Expect(json.Unmarshal([]byte(res.Content[0].(*sdk.TextContent).Text), &answer)).To(Succeed())
			Expect(answer.Answer).To(Equal("Chlorophyll absorbs light."))
			Expect(answer.Sources).To(HaveLen(1))
			Expect(answer.Sources[0].Source).To(Equal("bio.txt"))
		})

		It("reports a missing owner as a tool error", func() {
			res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
				Name:      "ask_documents",
				Arguments: map[string]any{"question": "anything"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("generates and stores a quiz", func() {
			llm.Responses = []string{quizReply}

			res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
				Name:      "generate_quiz",
				Arguments: map[string]any{"topic": "Photosynthesis", "owner_id": "1", "num_questions": 1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			var out mcp.QuizOutput
			Expect(json.Unmarshal([]byte(res.Content[0].(*sdk.TextContent).Text), &out)).To(Succeed())
			Expect(out.Questions).To(HaveLen(1))
			Expect(out.ID).NotTo(BeEmpty())

			stored, err := store.ListByOwner(context.Background(), "1", 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(HaveLen(1))
		})

		It("reports an invalid quiz as a tool error", func() {
			llm.Responses = []string{"not json"}

			res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
				Name:      "generate_quiz",
				Arguments: map[string]any{"topic": "Photosynthesis", "owner_id": "1", "num_questions": 1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})
