// Package queue holds mastering jobs and runs them on a bounded worker pool.
//
// Jobs move pending -> processing -> completed or failed. The queue never
// retries a failed job; callers enqueue it again if they want another attempt.
package queue

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	mastering "github.com/tphakala/go-audio-mastering"
	"github.com/tphakala/go-audio-mastering/internal/fault"
	"github.com/tphakala/go-audio-mastering/internal/logging"
)

// Status is the lifecycle state of a job.
type Status string

// Job states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Finished reports whether s is a terminal state.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of one queued file.
type Job struct {
	ID       string             `json:"id"`
	FileName string             `json:"file_name"`
	FileSize int64              `json:"file_size"`
	Settings mastering.Settings `json:"settings"`
	Status   Status             `json:"status"`

	Results *mastering.Results `json:"results,omitempty"`
	Error   string             `json:"error,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Queue is an in-memory job store. It is safe for concurrent use.
type Queue struct {
	log logrus.FieldLogger
	now func() time.Time

	mu       sync.Mutex
	jobs     map[string]*Job
	arrivals []string
	pending  []string
	done     []string
	wake     chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger for job transitions.
func WithLogger(l logrus.FieldLogger) Option {
	return func(q *Queue) {
		q.log = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		log:  logging.Discard(),
		now:  time.Now,
		jobs: make(map[string]*Job),
		wake: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a pending job and returns its ID.
func (q *Queue) Enqueue(fileName string, fileSize int64, settings mastering.Settings) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("%w: empty file name", fault.ErrInvalidSettings)
	}
	if fileSize < 0 {
		return "", fmt.Errorf("%w: negative file size %d", fault.ErrInvalidSettings, fileSize)
	}
	if err := settings.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	q.mu.Lock()
	q.jobs[id] = &Job{
		ID:        id,
		FileName:  fileName,
		FileSize:  fileSize,
		Settings:  settings,
		Status:    StatusPending,
		CreatedAt: q.now(),
	}
	q.arrivals = append(q.arrivals, id)
	q.pending = append(q.pending, id)
	close(q.wake)
	q.wake = make(chan struct{})
	q.mu.Unlock()

	q.log.WithFields(logrus.Fields{"job_id": id, "file": fileName}).Info("job queued")
	return id, nil
}

// ListQueued returns pending and processing jobs in arrival order.
func (q *Queue) ListQueued() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, 0, len(q.jobs)-len(q.done))
	for _, id := range q.arrivals {
		if j := q.jobs[id]; !j.Status.Finished() {
			out = append(out, *j)
		}
	}
	return out
}

// ListCompleted returns finished jobs, most recently finished first.
// limit <= 0 returns all of them.
func (q *Queue) ListCompleted(limit int) []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.done)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Job, 0, n)
	for i := len(q.done) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *q.jobs[q.done[i]])
	}
	return out
}

// Get returns the job with id. The error matches fault.ErrJobNotFound.
func (q *Queue) Get(id string) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", fault.ErrJobNotFound, id)
	}
	return *j, nil
}

// Claim moves the oldest pending job to processing and returns it.
func (q *Queue) Claim() (Job, bool) {
	j, ok, _ := q.claim()
	return j, ok
}

// claim also returns a channel closed by the next Enqueue, read under the
// same lock so a worker that finds nothing cannot miss a new job.
func (q *Queue) claim() (Job, bool, <-chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) > 0 {
		id := q.pending[0]
		q.pending = q.pending[1:]
		j := q.jobs[id]
		if j.Status != StatusPending {
			continue
		}
		j.Status = StatusProcessing
		j.StartedAt = q.now()
		q.log.WithFields(logrus.Fields{"job_id": id, "file": j.FileName}).Debug("job started")
		return *j, true, q.wake
	}
	return Job{}, false, q.wake
}

// Complete records results for a pending or processing job.
func (q *Queue) Complete(id string, results mastering.Results) error {
	err := q.finish(id, StatusCompleted, func(j *Job) {
		r := results
		j.Results = &r
	})
	if err == nil {
		q.log.WithFields(logrus.Fields{
			"job_id":      id,
			"output_lufs": results.OutputLUFS,
			"output_peak": results.OutputPeak,
			"wet_peak":    results.WetPeak,
		}).Info("job completed")
	}
	return err
}

// Fail records cause for a pending or processing job.
func (q *Queue) Fail(id string, cause error) error {
	if cause == nil {
		cause = errors.New("unknown error")
	}
	err := q.finish(id, StatusFailed, func(j *Job) {
		j.Error = cause.Error()
	})
	if err == nil {
		q.log.WithFields(logrus.Fields{"job_id": id}).WithError(cause).Warn("job failed")
	}
	return err
}

func (q *Queue) finish(id string, status Status, apply func(*Job)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", fault.ErrJobNotFound, id)
	}
	if j.Status.Finished() {
		return fmt.Errorf("%w: job %s is already %s", fault.ErrInvalidState, id, j.Status)
	}
	if j.Status == StatusPending {
		q.pending = slices.DeleteFunc(q.pending, func(p string) bool { return p == id })
	}
	apply(j)
	j.Status = status
	j.FinishedAt = q.now()
	q.done = append(q.done, id)
	return nil
}
