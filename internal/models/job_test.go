package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterpost/rasterpost/internal/enum"
)

func newTestJob() *Job {
	return NewJob(&EmailMessage{
		UID:    42,
		Sender: "a@x.com",
	})
}

func TestJobHappyPath(t *testing.T) {
	job := newTestJob()
	assert.Equal(t, enum.JobStatusPending, job.Status)

	require.NoError(t, job.MarkAuthorizing())
	require.NoError(t, job.MarkConverting())
	require.NoError(t, job.MarkReplying())
	require.NoError(t, job.MarkCompleted())

	assert.Equal(t, enum.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestJobCannotMoveBackward(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.MarkAuthorizing())
	require.NoError(t, job.MarkConverting())

	err := job.MarkAuthorizing()

	assert.Error(t, err)
	assert.Equal(t, enum.JobStatusConverting, job.Status)
}

func TestJobTerminalStatesAreFinal(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.MarkAuthorizing())
	require.NoError(t, job.MarkIgnored())

	assert.Error(t, job.MarkConverting())
	assert.Error(t, job.MarkCompleted())
	assert.Error(t, job.MarkFailed(enum.FailureGeneric, "late failure"))
	assert.Equal(t, enum.JobStatusIgnored, job.Status)
}

func TestJobMarkFailedCapturesKindAndDetail(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.MarkAuthorizing())
	require.NoError(t, job.MarkConverting())

	require.NoError(t, job.MarkFailed(enum.FailurePasswordProtected, "document is encrypted"))

	assert.Equal(t, enum.JobStatusFailed, job.Status)
	assert.Equal(t, enum.FailurePasswordProtected, job.FailureKind)
	assert.Equal(t, "document is encrypted", job.FailureDetail)
	assert.NotNil(t, job.CompletedAt)
}

func TestJobCanFailFromAnyActiveState(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.MarkAuthorizing())

	assert.NoError(t, job.MarkFailed(enum.FailureGeneric, "early failure"))
}

func TestJobDuration(t *testing.T) {
	job := newTestJob()
	assert.Zero(t, job.Duration())

	require.NoError(t, job.MarkAuthorizing())
	require.NoError(t, job.MarkIgnored())

	assert.GreaterOrEqual(t, job.Duration().Nanoseconds(), int64(0))
}
