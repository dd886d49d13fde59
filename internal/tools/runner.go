package tools

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
)

// ExitNotFound is reported when the executable could not be started.
const ExitNotFound int32 = 127

// CommandRunner abstracts process execution for loader drivers.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, []byte, int32, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// Run executes name synchronously and reports its output and exit status.
func (r ExecRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.Command(name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = ExitNotFound
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// RunArgv runs argv[0] with the remaining elements as arguments.
func RunArgv(r CommandRunner, argv []string) ([]byte, []byte, int32, error) {
	if len(argv) == 0 {
		return nil, nil, 1, errors.New("tools: empty argv")
	}
	return r.Run(argv[0], argv[1:]...)
}

// IsStartFailure reports whether err means the executable never ran.
func IsStartFailure(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

// FormatArgv renders argv as a single shell-quoted line.
func FormatArgv(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, a := range argv {
		parts = append(parts, ShellEscape(a))
	}
	return strings.Join(parts, " ")
}

// ShellEscape single-quotes value for POSIX shells.
func ShellEscape(value string) string {
	if value == "" {
		return "''"
	}
	if strings.IndexFunc(value, needsQuote) < 0 {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=@,+", r):
		return false
	}
	return true
}
