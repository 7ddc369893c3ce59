package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/roomroster/internal/roster"
)

// JobStatus represents the state of a roster import job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusDecoding   JobStatus = "decoding"
	StatusParsing    JobStatus = "parsing"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// HasRooms reports whether a job in this status carries a parsed room map.
func (s JobStatus) HasRooms() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single roster import.
type Job struct {
	mu sync.Mutex

	ID           string `json:"job_id"`
	Filename     string `json:"filename"`
	DeclaredType string `json:"declared_type,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	rooms    roster.RoomMap
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Sections       int      `json:"sections"`
	Rooms          int      `json:"rooms"`
	Residents      int      `json:"residents"`
	RoomsPublished int      `json:"rooms_published"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for an accepted upload.
func NewJob(filename, declaredType string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.NewString(),
		Filename:     filename,
		DeclaredType: declaredType,
		Status:       StatusQueued,
		Phase:        "queued",
		CreatedAt:    now,
		UpdatedAt:    now,
		fileData:     data,
	}
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
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
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

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrRoomsPublished atomically increments the published room count.
func (j *Job) IncrRoomsPublished() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.RoomsPublished++
	j.UpdatedAt = time.Now()
}

// SetRooms stores the parsed room map and updates the counters derived from it.
func (j *Job) SetRooms(sections int, rooms roster.RoomMap) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rooms = rooms
	j.Progress.Sections = sections
	j.Progress.Rooms = len(rooms)
	residents := 0
	for _, rec := range rooms {
		residents += len(rec.Residents)
	}
	j.Progress.Residents = residents
	j.UpdatedAt = time.Now()
}

// Rooms returns the parsed room map, or nil before parsing finished.
func (j *Job) Rooms() roster.RoomMap {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rooms
}

// SetContentHash records the dedup hash of the parsed roster.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
