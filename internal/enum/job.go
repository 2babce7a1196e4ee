package enum

type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusAuthorizing JobStatus = "authorizing"
	JobStatusConverting  JobStatus = "converting"
	JobStatusReplying    JobStatus = "replying"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
	JobStatusIgnored     JobStatus = "ignored"
)

func (t JobStatus) String() string {
	return string(t)
}

// IsTerminal reports whether a job in this status never transitions again.
func (t JobStatus) IsTerminal() bool {
	switch t {
	case JobStatusCompleted, JobStatusFailed, JobStatusIgnored:
		return true
	}
	return false
}
