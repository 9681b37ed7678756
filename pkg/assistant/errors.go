package assistant

import (
	"errors"
	"fmt"

	"github.com/go-go-golems/muse/pkg/pricing"
)

var (
	// ErrInvalidModel is returned for models missing from the pricing table.
	ErrInvalidModel = pricing.ErrInvalidModel

	ErrMissingModel         = errors.New("model is required")
	ErrMissingAssistant     = errors.New("assistant id is required")
	ErrMissingPromptOrModel = errors.New("model and prompt are required")
	ErrRunFailed            = errors.New("run failed")
	ErrPollTimeout          = errors.New("run did not complete in time")
	ErrEmptyReply           = errors.New("thread has no text reply")
)

// RunFailedError reports a run that reached a terminal state other than
// completed.
type RunFailedError struct {
	RunID   string
	Status  RunStatus
	Message string
}

func (e *RunFailedError) Error() string {
	if e == nil {
		return ErrRunFailed.Error()
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: run %s ended with status %s", ErrRunFailed, e.RunID, e.Status)
	}
	return fmt.Sprintf("%s: run %s ended with status %s: %s", ErrRunFailed, e.RunID, e.Status, e.Message)
}

func (e *RunFailedError) Is(target error) bool { return target == ErrRunFailed }
