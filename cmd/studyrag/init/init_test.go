package initcmder_test

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/studyrag/cmd/studyrag/init"
	"github.com/papercomputeco/studyrag/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "studyrag-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates the .studyrag directory", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".studyrag"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("is idempotent", func() {
		for range 2 {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{})
			Expect(cmd.Execute()).To(Succeed())
		}
	})

	It("writes the gemini preset", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "gemini"})
		Expect(cmd.Execute()).To(Succeed())

		var cfg config.Config
		_, err := toml.DecodeFile(filepath.Join(tmpDir, ".studyrag", "config.toml"), &cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Embedding.Provider).To(Equal("gemini"))
		Expect(cfg.LLM.Provider).To(Equal("groq"))
		Expect(cfg.LLM.QuizModel).To(Equal("llama-3.3-70b-versatile"))
	})

	It("rejects unknown presets", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "mystery"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
