package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStage         = errors.New("unknown stage")
	ErrInvalidIdea          = errors.New("idea must not be empty")
	ErrStageOutOfOrder      = errors.New("stage out of order")
	ErrPipelineComplete     = fmt.Errorf("%w: pipeline already complete", ErrStageOutOfOrder)
	ErrPipelineStageFailure = errors.New("pipeline stage failed")
)

// StageError reports a stage that could not complete. The version is left
// at the same stage so the call can be retried.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrPipelineStageFailure, e.Err}
}
