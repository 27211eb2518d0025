package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/loader"
)

var _ = Describe("Registry", func() {
	var (
		r      *loader.Registry
		tmpDir string
		ctx    context.Context
	)

	BeforeEach(func() {
		r = loader.New()
		tmpDir = GinkgoT().TempDir()
		ctx = context.Background()
	})

	Describe("CheckSupported", func() {
		It("accepts pdf, txt and md regardless of case", func() {
			Expect(r.CheckSupported("notes.txt")).To(Succeed())
			Expect(r.CheckSupported("NOTES.TXT")).To(Succeed())
			Expect(r.CheckSupported("slides.pdf")).To(Succeed())
			Expect(r.CheckSupported("readme.md")).To(Succeed())
		})

		It("rejects other extensions", func() {
			err := r.CheckSupported("essay.docx")
			Expect(errors.Is(err, loader.ErrUnsupportedFormat)).To(BeTrue())

			err = r.CheckSupported("no-extension")
			Expect(errors.Is(err, loader.ErrUnsupportedFormat)).To(BeTrue())
		})
	})

	Describe("Load", func() {
		It("loads a text file as a single page", func() {
			path := filepath.Join(tmpDir, "bio.txt")
			Expect(os.WriteFile(path, []byte("Cells are the unit of life."), 0o600)).To(Succeed())

			doc, err := r.Load(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Path).To(Equal(path))
			Expect(doc.Pages).To(HaveLen(1))
			Expect(doc.Pages[0].Number).To(Equal(0))
			Expect(doc.Text()).To(Equal("Cells are the unit of life."))
		})

		It("replaces invalid UTF-8", func() {
			path := filepath.Join(tmpDir, "bad.txt")
			Expect(os.WriteFile(path, []byte{'a', 0xff, 'b'}, 0o600)).To(Succeed())

			doc, err := r.Load(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Text()).To(Equal("a�b"))
		})

		It("rejects unsupported formats before touching the file", func() {
			_, err := r.Load(ctx, filepath.Join(tmpDir, "missing.exe"))
			Expect(errors.Is(err, loader.ErrUnsupportedFormat)).To(BeTrue())
		})

		It("returns an error for a missing file", func() {
			_, err := r.Load(ctx, filepath.Join(tmpDir, "missing.txt"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("returns an error for a file that is not a PDF", func() {
			path := filepath.Join(tmpDir, "fake.pdf")
			Expect(os.WriteFile(path, []byte("plain text pretending"), 0o600)).To(Succeed())

			_, err := r.Load(ctx, path)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, loader.ErrUnsupportedFormat)).To(BeFalse())
		})

		It("honors a cancelled context", func() {
			path := filepath.Join(tmpDir, "bio.txt")
			Expect(os.WriteFile(path, []byte("x"), 0o600)).To(Succeed())

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := r.Load(cctx, path)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})
})
