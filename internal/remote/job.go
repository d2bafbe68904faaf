// Package remote resolves variant scores through a remote scoring
// service: it uploads a variant batch, polls until the service finishes
// the job, and joins the returned scores back onto the batch.
package remote

import (
	"errors"
	"fmt"
)

// State tracks a remote job through its lifecycle.
type State string

const (
	StateSubmitted State = "submitted"
	StatePending   State = "pending"
	StateFinished  State = "finished"
	StateFailed    State = "failed"
)

// Job identifies a submitted batch on the scoring service. Small batches
// may finish during submission, in which case ResultURL is already set
// and no polling is needed.
type Job struct {
	ID        string
	CheckURL  string
	ResultURL string
}

// ErrNotReady is returned by Service.Result while the job is still
// being processed.
var ErrNotReady = errors.New("job result not ready")

// ErrUnresolvable marks a job that exhausted its polling budget without
// producing a result.
var ErrUnresolvable = errors.New("remote job unresolvable")

// JobError wraps a failure with the job and lifecycle stage it occurred in.
type JobError struct {
	JobID string
	Stage string
	Err   error
}

func (e *JobError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("remote job: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("remote job %s: %s: %v", e.JobID, e.Stage, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
