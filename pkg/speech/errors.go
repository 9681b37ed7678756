package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrServerBusyTimeout is returned once the next rate-limit wait would
	// exceed the configured ceiling. No further request is sent.
	ErrServerBusyTimeout  = errors.New("speech server busy: backoff ceiling reached")
	ErrEncodingFailed     = errors.New("audio encoding failed")
	ErrEncoderUnavailable = errors.New("audio encoder unavailable")
	ErrMissingText        = errors.New("text is required")
)

// EncodingFailedError reports an encoder process that ran and exited non-zero.
type EncodingFailedError struct {
	ExitCode int
	Stderr   string
}

func (e *EncodingFailedError) Error() string {
	if e == nil {
		return ErrEncodingFailed.Error()
	}
	if e.Stderr == "" {
		return fmt.Sprintf("%s: exit code %d", ErrEncodingFailed, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit code %d: %s", ErrEncodingFailed, e.ExitCode, e.Stderr)
}

func (e *EncodingFailedError) Is(target error) bool { return target == ErrEncodingFailed }
