package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docrank/internal/digest"
)

// JobStatus represents the state of a rank job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusCollecting JobStatus = "collecting"
	StatusRanking    JobStatus = "ranking"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Upload is one document submitted with a job.
type Upload struct {
	Filename string
	Data     []byte
}

// Job tracks the state of a single rank request.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Persona string      `json:"persona"`
	Task    string      `json:"task"`
	Mode    digest.Mode `json:"mode"`
	TopN    int         `json:"top_n"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	uploads []Upload
	files   []FileInfo
	result  *digest.Output
	errors  []string
}

// NewJob returns a queued job with a fresh ID.
func NewJob(persona, task string, mode digest.Mode, topN int) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Persona:   persona,
		Task:      task,
		Mode:      mode,
		TopN:      topN,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Progress tracks processing progress.
type Progress struct {
	Documents        int      `json:"documents"`
	DocumentsSkipped int      `json:"documents_skipped"`
	Candidates       int      `json:"candidates"`
	Errors           []string `json:"errors"`
}

// FileInfo describes an upload without its bytes.
type FileInfo struct {
	Filename    string `json:"filename"`
	Bytes       int    `json:"bytes"`
	ContentHash string `json:"content_hash"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SkipDocument records a document the run could not use.
func (j *Job) SkipDocument(filename string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocumentsSkipped++
	j.errors = append(j.errors, fmt.Sprintf("%s: %s", filename, err))
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// StartRanking moves the job into the ranking phase.
func (j *Job) StartRanking(candidates int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusRanking
	j.Phase = "ranking"
	j.Progress.Candidates = candidates
	j.UpdatedAt = time.Now()
}

// SetUploads sets the documents to rank.
func (j *Job) SetUploads(files []Upload) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.uploads = files
	j.files = make([]FileInfo, 0, len(files))
	for _, u := range files {
		j.files = append(j.files, FileInfo{
			Filename:    u.Filename,
			Bytes:       len(u.Data),
			ContentHash: ContentHashHex(u.Data),
		})
	}
	j.Progress.Documents = len(files)
}

// Uploads returns the documents to rank.
func (j *Job) Uploads() []Upload {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.uploads
}

// Complete stores the result and releases the upload bytes.
func (j *Job) Complete(out *digest.Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = out
	j.uploads = nil
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Result returns the digest once the job has completed.
func (j *Job) Result() (*digest.Output, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.Status == StatusCompleted
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string      `json:"job_id"`
	Status   JobStatus   `json:"status"`
	Phase    string      `json:"phase"`
	Persona  string      `json:"persona"`
	Task     string      `json:"task"`
	Mode     digest.Mode `json:"mode"`
	TopN     int         `json:"top_n"`
	Files    []FileInfo  `json:"files"`
	Progress Progress    `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	files := j.files
	if files == nil {
		files = []FileInfo{}
	}
	return JobSnapshot{
		ID:      j.ID,
		Status:  j.Status,
		Phase:   j.Phase,
		Persona: j.Persona,
		Task:    j.Task,
		Mode:    j.Mode,
		TopN:    j.TopN,
		Files:   files,
		Progress: Progress{
			Documents:        j.Progress.Documents,
			DocumentsSkipped: j.Progress.DocumentsSkipped,
			Candidates:       j.Progress.Candidates,
			Errors:           append([]string{}, errs...),
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
