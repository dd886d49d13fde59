package bootloader

import (
	"errors"
	"time"
)

// DefaultRetryWindow bounds how long a failing invocation is repeated while
// a device enumerates after reset.
const DefaultRetryWindow = 3 * time.Second

// Executor runs one invocation attempt function to completion.
type Executor interface {
	Execute(attempt func() error) error
}

// SingleShot runs the attempt exactly once.
type SingleShot struct{}

func (SingleShot) Execute(attempt func() error) error {
	return attempt()
}

// RetryWindow repeats a failing attempt with no delay until it succeeds or
// the window, started when Execute is entered, has elapsed. The failure of
// the last attempt is returned unchanged.
type RetryWindow struct {
	Window time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// OnRetry is called before each repeated attempt.
	OnRetry func(attempt int, err error)
}

func (r RetryWindow) Execute(attempt func() error) error {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	window := r.Window
	if window <= 0 {
		window = DefaultRetryWindow
	}
	deadline := now().Add(window)

	for n := 1; ; n++ {
		err := attempt()
		if err == nil {
			return nil
		}
		var lf *LoadFailedError
		if !errors.As(err, &lf) || !lf.transient() {
			return err
		}
		if !now().Before(deadline) {
			lf.Attempts = n
			return err
		}
		if r.OnRetry != nil {
			r.OnRetry(n, err)
		}
	}
}
