package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/studyrag/cmd/studyrag/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("takes no arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("registers the listen, provider and chunking flags", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{
			"listen", "vector-store-provider", "sqlite", "embedding-model",
			"embedding-dimensions", "llm-provider", "chunk-size", "chunk-overlap",
			"quiz-store-dsn", "pretty", "no-mcp", "log-file",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("defaults flags from the default config", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8081"))
		Expect(cmd.Flags().Lookup("chunk-size").DefValue).To(Equal("1000"))
		Expect(cmd.Flags().Lookup("chunk-overlap").DefValue).To(Equal("200"))
	})
})
