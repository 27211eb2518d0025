package studyragcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	studyragcmder "github.com/papercomputeco/studyrag/cmd/studyrag"
)

var _ = Describe("NewStudyragCmd", func() {
	It("wires every subcommand", func() {
		cmd := studyragcmder.NewStudyragCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"init", "serve", "ingest", "delete", "ask", "quiz", "watch", "config", "version",
		))
	})

	It("has the global flags", func() {
		cmd := studyragcmder.NewStudyragCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
