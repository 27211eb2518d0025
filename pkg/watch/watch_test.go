package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/watch"
	"github.com/papercomputeco/studyrag/pkg/worker"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []worker.Job
	full bool
}

func (q *recordingQueue) Enqueue(job worker.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

func (q *recordingQueue) setFull(full bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.full = full
}

func (q *recordingQueue) paths() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.FilePath)
	}
	return out
}

func (q *recordingQueue) first() worker.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs[0]
}

type recordingDeleter struct {
	mu       sync.Mutex
	requests []ingest.DeleteRequest
}

func (d *recordingDeleter) DeleteDocumentChunks(_ context.Context, req ingest.DeleteRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	return nil
}

func (d *recordingDeleter) all() []ingest.DeleteRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ingest.DeleteRequest(nil), d.requests...)
}

var _ = Describe("Watcher", func() {
	var (
		dir     string
		queue   *recordingQueue
		deleter *recordingDeleter
		cancel  context.CancelFunc
		done    chan error
	)

	start := func(scan bool) {
		w, err := watch.New(watch.Config{
			Dir:      dir,
			OwnerID:  "1",
			Queue:    queue,
			Deleter:  deleter,
			Debounce: 20 * time.Millisecond,
			Scan:     scan,
		})
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
	}

	BeforeEach(func() {
		var err error
		dir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		queue = &recordingQueue{}
		deleter = &recordingDeleter{}
	})

	AfterEach(func() {
		if cancel != nil {
			cancel()
			Eventually(done).Should(Receive(BeNil()))
			cancel = nil
		}
	})

	It("queues new supported files for the owner", func() {
		start(false)
		path := filepath.Join(dir, "notes.txt")
		Expect(os.WriteFile(path, []byte("Osmosis moves water."), 0o600)).To(Succeed())

		Eventually(queue.paths).Should(ConsistOf(path))
		job := queue.first()
		Expect(job.OwnerID).To(Equal("1"))
		Expect(job.DocumentID).To(Equal(watch.DocumentID(path)))
	})

	It("collapses repeated writes into one job", func() {
		start(false)
		path := filepath.Join(dir, "notes.txt")
		f, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())
		for range 5 {
			_, err = f.WriteString("line\n")
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(f.Close()).To(Succeed())

		Eventually(queue.paths).Should(HaveLen(1))
		Consistently(queue.paths, 100*time.Millisecond).Should(HaveLen(1))
	})

	It("ignores unsupported and hidden files", func() {
		start(false)
		Expect(os.WriteFile(filepath.Join(dir, "essay.docx"), []byte("x"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, ".draft.txt"), []byte("x"), 0o600)).To(Succeed())

		Consistently(queue.paths, 150*time.Millisecond).Should(BeEmpty())
	})

	It("deletes the chunks of removed files", func() {
		path := filepath.Join(dir, "notes.txt")
		Expect(os.WriteFile(path, []byte("x"), 0o600)).To(Succeed())
		start(false)

		Expect(os.Remove(path)).To(Succeed())

		Eventually(deleter.all).Should(HaveLen(1))
		req := deleter.all()[0]
		Expect(req.DocumentID).To(Equal(watch.DocumentID(path)))
		Expect(req.FilePath).To(Equal(path))
		Expect(req.OwnerID).To(Equal("1"))
	})

	It("queues existing files when scanning", func() {
		existing := filepath.Join(dir, "existing.md")
		Expect(os.WriteFile(existing, []byte("# Notes"), 0o600)).To(Succeed())

		start(true)

		Eventually(queue.paths).Should(ConsistOf(existing))
	})

	It("retries when the queue is full", func() {
		queue.setFull(true)
		start(false)
		path := filepath.Join(dir, "notes.txt")
		Expect(os.WriteFile(path, []byte("x"), 0o600)).To(Succeed())

		Consistently(queue.paths, 100*time.Millisecond).Should(BeEmpty())
		queue.setFull(false)
		Eventually(queue.paths).Should(ConsistOf(path))
	})

	It("derives stable document ids", func() {
		Expect(watch.DocumentID("/tmp/a.txt")).To(Equal(watch.DocumentID("/tmp/a.txt")))
		Expect(watch.DocumentID("/tmp/a.txt")).NotTo(Equal(watch.DocumentID("/tmp/b.txt")))
	})

	It("requires a directory", func() {
		_, err := watch.New(watch.Config{
			Dir:     filepath.Join(dir, "missing"),
			OwnerID: "1",
			Queue:   queue,
			Deleter: deleter,
		})
		Expect(err).To(HaveOccurred())
	})
})
