package helpers

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done, whichever comes first.
// Clients take one as an option so tests can record waits instead of
// actually sleeping.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
