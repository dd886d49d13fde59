package bootloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/usbboot/internal/staging"
	"github.com/danmuck/usbboot/internal/tools"
)

var (
	ErrConfiguration   = errors.New("bootloader: configuration error")
	ErrNotActive       = errors.New("bootloader: driver not active")
	ErrLoadFailed      = errors.New("bootloader: load failed")
	ErrBindingRejected = fmt.Errorf("%w: resource not accepted by driver", ErrConfiguration)

	// ErrStaging matches any failure to make an image readable by the tool.
	ErrStaging = staging.ErrStaging
)

// LoadFailedError reports the final failed invocation of a loader tool.
type LoadFailedError struct {
	Argv     []string
	ExitCode int32
	Stderr   string
	Attempts int
	Err      error
}

func (e *LoadFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bootloader: load failed cmd=%q exit=%d", tools.FormatArgv(e.Argv), e.ExitCode)
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " attempts=%d", e.Attempts)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " stderr=%q", e.Stderr)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoadFailed}
	}
	return []error{ErrLoadFailed, e.Err}
}

// transient reports whether the failure may clear once the device enumerates.
// A tool that could not be started never qualifies.
func (e *LoadFailedError) transient() bool {
	return e.ExitCode != 0 && !tools.IsStartFailure(e.Err)
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
