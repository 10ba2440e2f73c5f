package sim

import (
	"errors"
	"fmt"
)

// ErrDistributedFailure marks a run aborted because a worker failed. The
// whole job stops on the first error; partial results are discarded.
var ErrDistributedFailure = errors.New("distributed run failed")

// WorkerError wraps the first error raised by a worker, tagged with its
// rank. It matches ErrDistributedFailure under errors.Is.
type WorkerError struct {
	Rank int
	Err  error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker rank %d: %v", e.Rank, e.Err)
}

func (e *WorkerError) Unwrap() []error {
	return []error{ErrDistributedFailure, e.Err}
}
