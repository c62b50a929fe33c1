package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/docrank/internal/digest"
)

// Digester runs one digest over a directory of documents.
type Digester interface {
	Digest(ctx context.Context, req digest.Request) (*digest.Output, error)
}

// Worker processes a single rank job.
type Worker struct {
	digester Digester
	log      *slog.Logger
	tmpDir   string
}

// NewWorker returns a worker that stages uploads under tmpDir ("" means
// the OS temp dir).
func NewWorker(d Digester, log *slog.Logger, tmpDir string) *Worker {
	return &Worker{digester: d, log: log, tmpDir: tmpDir}
}

// Process stages the job's uploads on disk and runs the digest over them.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	job.SetStatus(StatusCollecting, "collecting")
	dir, err := os.MkdirTemp(w.tmpDir, "docrank-job-*")
	if err != nil {
		w.fail(log, job, "collecting", fmt.Errorf("create staging dir: %w", err))
		return
	}
	defer os.RemoveAll(dir)

	uploads := job.Uploads()
	docs := make([]digest.InputDocument, 0, len(uploads))
	for _, u := range uploads {
		if err := os.WriteFile(filepath.Join(dir, u.Filename), u.Data, 0o600); err != nil {
			w.fail(log, job, "collecting", fmt.Errorf("stage %s: %w", u.Filename, err))
			return
		}
		docs = append(docs, digest.InputDocument{Filename: u.Filename})
	}

	req := digest.Request{
		Input: digest.Input{
			Documents:   docs,
			Persona:     digest.Persona{Role: job.Persona},
			JobToBeDone: digest.Job{Task: job.Task},
		},
		PDFDir: dir,
		Mode:   job.Mode,
		TopN:   job.TopN,
		OnSkip: job.SkipDocument,
		OnRank: job.StartRanking,
	}

	out, err := w.digester.Digest(ctx, req)
	if err != nil {
		phase := "ranking"
		if errors.Is(err, digest.ErrEmptyCorpus) {
			phase = "collecting"
		}
		w.fail(log, job, phase, err)
		return
	}

	job.Complete(out)
	log.Info("rank job complete", "results", len(out.ExtractedSections))
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("rank job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
