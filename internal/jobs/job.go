package jobs

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/sink"
)

// JobStatus represents the state of an asynchronous import job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusRejected   JobStatus = "rejected"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single asynchronous document import.
type Job struct {
	mu sync.Mutex

	ID        string `json:"job_id"`
	Reference string `json:"reference"`
	Filename  string `json:"filename"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData    []byte
	contentType string
	metadata    *document.Metadata
	result      *sink.Record
	errors      []string
}

// Progress counts documents in the finished result tree, including
// children produced by splitting.
type Progress struct {
	Documents int      `json:"documents"`
	Succeeded int      `json:"succeeded"`
	Rejected  int      `json:"rejected"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

var entropyMu sync.Mutex

// NewID returns a fresh ULID job identifier.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// NewJob creates a queued job holding the raw upload bytes.
func NewJob(reference, filename, contentType string, data []byte, metadata *document.Metadata) *Job {
	now := time.Now()
	return &Job{
		ID:          NewID(),
		Reference:   reference,
		Filename:    filename,
		Status:      StatusQueued,
		Phase:       "queued",
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
		contentType: contentType,
		metadata:    metadata,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error message.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult stores the finished import result and its counts.
func (j *Job) SetResult(rec *sink.Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = rec
	j.Progress.Documents, j.Progress.Succeeded, j.Progress.Rejected, j.Progress.Failed = countRecords(rec)
	j.UpdatedAt = time.Now()
}

// Result returns the stored import result, nil until the job finishes.
func (j *Job) Result() *sink.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// ReleaseFileData drops the upload bytes once processing is done.
func (j *Job) ReleaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string       `json:"job_id"`
	Reference string       `json:"reference"`
	Filename  string       `json:"filename"`
	Status    JobStatus    `json:"status"`
	Phase     string       `json:"phase"`
	Progress  Progress     `json:"progress"`
	Result    *sink.Record `json:"result,omitempty"`
}

// touchedAt reads the last update time under the job's own lock.
func (j *Job) touchedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		Reference: j.Reference,
		Filename:  j.Filename,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress: Progress{
			Documents: j.Progress.Documents,
			Succeeded: j.Progress.Succeeded,
			Rejected:  j.Progress.Rejected,
			Failed:    j.Progress.Failed,
			Errors:    errs,
		},
		Result: j.result,
	}
}

func countRecords(rec *sink.Record) (total, succeeded, rejected, failed int) {
	if rec == nil {
		return 0, 0, 0, 0
	}
	total = 1
	switch rec.Status {
	case "success":
		succeeded = 1
	case "rejected":
		rejected = 1
	default:
		failed = 1
	}
	for i := range rec.Children {
		t, s, r, f := countRecords(&rec.Children[i])
		total += t
		succeeded += s
		rejected += r
		failed += f
	}
	return total, succeeded, rejected, failed
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.touchedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
