package models

import (
	"time"

	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/internal/enum"
)

// Job binds one EmailMessage to its processing outcome. Exactly one job is in
// flight at any instant; the daemon loop enforces that, not this type.
type Job struct {
	Message     *EmailMessage
	Attachments []*PDFAttachment
	Pages       []*RasterPage

	Status enum.JobStatus

	// FailureKind and FailureDetail are captured when the job fails.
	FailureKind   enum.FailureKind
	FailureDetail string

	StartedAt   time.Time
	CompletedAt *time.Time
}

var statusRank = map[enum.JobStatus]int{
	enum.JobStatusPending:     0,
	enum.JobStatusAuthorizing: 1,
	enum.JobStatusConverting:  2,
	enum.JobStatusReplying:    3,
	enum.JobStatusCompleted:   4,
	enum.JobStatusFailed:      4,
	enum.JobStatusIgnored:     4,
}

func NewJob(message *EmailMessage) *Job {
	return &Job{
		Message:   message,
		Status:    enum.JobStatusPending,
		StartedAt: time.Now().UTC(),
	}
}

// transition enforces the one-directional status machine: no skipping back,
// no leaving a terminal state.
func (j *Job) transition(to enum.JobStatus) error {
	if j.Status.IsTerminal() {
		return errors.Errorf("job is already %s, cannot move to %s", j.Status, to)
	}
	if statusRank[to] <= statusRank[j.Status] {
		return errors.Errorf("invalid transition %s -> %s", j.Status, to)
	}
	j.Status = to
	if to.IsTerminal() {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
	return nil
}

func (j *Job) MarkAuthorizing() error {
	return j.transition(enum.JobStatusAuthorizing)
}

func (j *Job) MarkConverting() error {
	return j.transition(enum.JobStatusConverting)
}

func (j *Job) MarkReplying() error {
	return j.transition(enum.JobStatusReplying)
}

func (j *Job) MarkCompleted() error {
	return j.transition(enum.JobStatusCompleted)
}

func (j *Job) MarkIgnored() error {
	return j.transition(enum.JobStatusIgnored)
}

func (j *Job) MarkFailed(kind enum.FailureKind, detail string) error {
	if err := j.transition(enum.JobStatusFailed); err != nil {
		return err
	}
	j.FailureKind = kind
	j.FailureDetail = detail
	return nil
}

func (j *Job) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.StartedAt)
}
