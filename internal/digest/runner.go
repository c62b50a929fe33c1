package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docrank/internal/chunker"
	"github.com/dgallion1/docrank/internal/outline"
	"github.com/dgallion1/docrank/internal/profile"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/section"
	"github.com/dgallion1/docrank/internal/spans"
)

// Mode selects how documents are cut into rankable units.
type Mode string

const (
	ModeSections Mode = "sections" // header-anchored sections
	ModeChunks   Mode = "chunks"   // overlapping per-page word windows
)

// ParseMode accepts "" as ModeSections.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSections:
		return ModeSections, nil
	case ModeChunks:
		return ModeChunks, nil
	}
	return "", fmt.Errorf("unknown mode %q (want sections or chunks)", s)
}

const (
	refinedTextLimit = 1000
	timestampLayout  = "2006-01-02T15:04:05"
)

// Runner holds everything one digest run needs. A single Runner is safe to
// reuse across runs.
type Runner struct {
	Ranker    *rank.RankerContext
	Profile   *profile.Profile
	Segmenter *section.Segmenter
	Chunks    chunker.Config
	Pool      chunker.Pool
	Collect   spans.Options
	Model     string
	Log       *slog.Logger

	now func() time.Time
}

// NewRunner wires a Runner from a profile and a ranker.
func NewRunner(ranker *rank.RankerContext, prof *profile.Profile, model string, log *slog.Logger) *Runner {
	if prof == nil {
		prof = profile.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		Ranker:    ranker,
		Profile:   prof,
		Segmenter: section.NewSegmenter(section.NewRuleDetector(prof.Headers)),
		Chunks:    chunker.DefaultConfig(),
		Pool:      chunker.DefaultPool(),
		Model:     model,
		Log:       log,
		now:       time.Now,
	}
}

// Request is one digest over documents stored in PDFDir.
type Request struct {
	Input  Input
	PDFDir string
	Mode   Mode
	TopN   int

	// Optional progress hooks, called from the goroutine running Digest.
	OnSkip func(filename string, err error)
	OnRank func(candidates int)
}

func (req Request) skip(log *slog.Logger, filename string, err error) {
	log.Warn("skipping document", "document", filename, "error", err)
	if req.OnSkip != nil {
		req.OnSkip(filename, err)
	}
}

// RunDir reads dataDir/input.json, ranks the documents in dataDir/pdfs and
// writes outputDir/summary.json. Nothing is written when the run fails.
func (r *Runner) RunDir(ctx context.Context, dataDir, outputDir string, mode Mode, topN int) (*Output, error) {
	if err := requireDir(dataDir); err != nil {
		return nil, err
	}
	in, err := LoadInput(filepath.Join(dataDir, "input.json"))
	if err != nil {
		return nil, err
	}
	pdfDir := filepath.Join(dataDir, "pdfs")
	if err := requireDir(pdfDir); err != nil {
		return nil, err
	}

	out, err := r.Digest(ctx, Request{Input: *in, PDFDir: pdfDir, Mode: mode, TopN: topN})
	if err != nil {
		return nil, err
	}
	if err := WriteJSON(filepath.Join(outputDir, "summary.json"), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Digest collects, segments and ranks the request's documents.
func (r *Runner) Digest(ctx context.Context, req Request) (*Output, error) {
	start := r.clock()
	log := r.Log.With("run_id", uuid.NewString(), "mode", req.Mode)

	persona := req.Input.Persona.Role
	task := req.Input.JobToBeDone.Task

	var (
		cands []rank.Candidate
		query string
	)
	switch req.Mode {
	case ModeSections, "":
		cands = r.sectionCandidates(req, log)
		query = r.Profile.Query(persona, task)
	case ModeChunks:
		cands = r.chunkCandidates(ctx, req, log)
		query = profile.FillQuery("{persona}. {task}", persona, task)
	default:
		return nil, fmt.Errorf("unknown mode %q", req.Mode)
	}

	if len(cands) == 0 {
		return nil, ErrEmptyCorpus
	}
	log.Info("ranking candidates", "candidates", len(cands), "documents", len(req.Input.Documents))
	if req.OnRank != nil {
		req.OnRank(len(cands))
	}

	results, err := r.Ranker.Rank(ctx, cands, query, req.TopN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	out := r.buildOutput(req.Input, results, start)
	log.Info("digest complete", "results", len(results), "seconds", out.Metadata.ProcessingTimeSeconds)
	return out, nil
}

func (r *Runner) sectionCandidates(req Request, log *slog.Logger) []rank.Candidate {
	var cands []rank.Candidate
	for _, d := range req.Input.Documents {
		doc, err := r.collect(req.PDFDir, d)
		if err != nil {
			req.skip(log, d.Filename, err)
			continue
		}
		secs := r.Segmenter.Segment(doc)
		log.Debug("segmented document", "document", d.Filename, "sections", len(secs))
		for _, s := range secs {
			cands = append(cands, rank.Candidate{
				Document:      s.Document,
				DocumentTitle: documentTitle(d),
				PageNumber:    s.PageNumber,
				Title:         s.Title,
				Text:          s.Text,
				Kind:          string(s.Kind),
			})
		}
	}
	return cands
}

func (r *Runner) chunkCandidates(ctx context.Context, req Request, log *slog.Logger) []rank.Candidate {
	paths := make([]string, len(req.Input.Documents))
	for i, d := range req.Input.Documents {
		paths[i] = filepath.Join(req.PDFDir, d.Filename)
	}

	results := r.Pool.Run(ctx, paths, func(_ context.Context, path string) ([]chunker.Chunk, error) {
		doc, err := spans.CollectFile(path, r.Collect)
		if err != nil {
			return nil, &DocumentError{Filename: filepath.Base(path), Err: err}
		}
		return chunker.PageChunks(doc, r.Chunks), nil
	})

	var cands []rank.Candidate
	for i, res := range results {
		d := req.Input.Documents[i]
		if res.Err != nil {
			req.skip(log, d.Filename, res.Err)
			continue
		}
		for _, c := range res.Chunks {
			cands = append(cands, rank.Candidate{
				Document:      c.Document,
				DocumentTitle: documentTitle(d),
				PageNumber:    c.PageNumber,
				Title:         fmt.Sprintf("Page %d", c.PageNumber),
				Text:          c.Text,
				Kind:          "chunk",
			})
		}
	}
	return cands
}

// collect opens one listed document. Every failure is a *DocumentError.
func (r *Runner) collect(dir string, d InputDocument) (*spans.Document, error) {
	doc, err := spans.CollectFile(filepath.Join(dir, d.Filename), r.Collect)
	if err != nil {
		return nil, &DocumentError{Filename: d.Filename, Err: err}
	}
	return doc, nil
}

func (r *Runner) buildOutput(in Input, results []rank.Result, start time.Time) *Output {
	challenge := in.ChallengeInfo
	if len(challenge) == 0 {
		challenge = json.RawMessage("{}")
	}

	names := make([]string, len(in.Documents))
	for i, d := range in.Documents {
		names[i] = filepath.Base(d.Filename)
	}

	now := r.clock()
	out := &Output{
		ChallengeInfo: challenge,
		Metadata: Metadata{
			InputDocuments:        names,
			Persona:               in.Persona.Role,
			JobToBeDone:           in.JobToBeDone.Task,
			ProcessingTimestamp:   now.Format(timestampLayout),
			ModelUsed:             r.Model,
			ProcessingTimeSeconds: rank.Round(now.Sub(start).Seconds(), 2),
		},
		ExtractedSections:  make([]Extracted, 0, len(results)),
		SubsectionAnalysis: make([]Subsection, 0, len(results)),
	}
	for i, res := range results {
		out.ExtractedSections = append(out.ExtractedSections, Extracted{
			Document:       res.Document,
			DocumentTitle:  res.DocumentTitle,
			PageNumber:     res.PageNumber,
			SectionTitle:   res.Title,
			ImportanceRank: i + 1,
			RelevanceScore: res.RelevanceScore,
		})
		out.SubsectionAnalysis = append(out.SubsectionAnalysis, Subsection{
			Document:       res.Document,
			DocumentTitle:  res.DocumentTitle,
			RefinedText:    rank.Snippet(res.Text, refinedTextLimit),
			PageNumber:     res.PageNumber,
			RelevanceScore: res.RelevanceScore,
		})
	}
	return out
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

func documentTitle(d InputDocument) string {
	if d.Title != "" {
		return d.Title
	}
	return spans.Stem(d.Filename)
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInputNotFound, path)
	}
	return nil
}

// OutlineFile extracts the heading outline of one document.
func OutlineFile(path string, opts spans.Options) (outline.Outline, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return outline.Outline{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	doc, err := spans.CollectFile(path, opts)
	if err != nil {
		return outline.Outline{}, &DocumentError{Filename: filepath.Base(path), Err: err}
	}
	return outline.Extract(doc), nil
}
