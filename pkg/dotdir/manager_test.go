package dotdir_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir even when a local .studyrag dir exists", func() {
			local := filepath.Join(tmpDir, ".studyrag")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .studyrag dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".studyrag")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to the home directory", func() {
			emptyDir := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(emptyDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			origHome := os.Getenv("HOME")
			Expect(os.Setenv("HOME", tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Setenv("HOME", origHome) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, ".studyrag")))
		})
	})

	Describe("SaveUpload", func() {
		It("writes the file as {owner}_{filename} under uploads/", func() {
			path, err := m.SaveUpload(tmpDir, "42", "notes.txt", strings.NewReader("hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "uploads", "42_notes.txt")))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("hello"))
		})

		It("strips directory components from the client filename", func() {
			path, err := m.SaveUpload(tmpDir, "1", "../../etc/passwd.txt", strings.NewReader("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "uploads", "1_passwd.txt")))

			path, err = m.SaveUpload(tmpDir, "1", `C:\docs\win.txt`, strings.NewReader("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Base(path)).To(Equal("1_win.txt"))
		})

		It("rejects an empty filename", func() {
			_, err := m.SaveUpload(tmpDir, "1", "", strings.NewReader("x"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RemoveUpload", func() {
		It("is a no-op for a missing file", func() {
			Expect(m.RemoveUpload(filepath.Join(tmpDir, "missing.txt"))).To(Succeed())
		})

		It("removes a saved upload", func() {
			path, err := m.SaveUpload(tmpDir, "7", "a.txt", strings.NewReader("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.RemoveUpload(path)).To(Succeed())
			_, err = os.Stat(path)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})
