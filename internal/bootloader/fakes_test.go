package bootloader

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/danmuck/usbboot/internal/resource"
)

type runResult struct {
	exitCode int32
	stderr   string
	err      error
}

type fakeRunner struct {
	commands [][]string
	results  []runResult
	// fallback is returned once results are exhausted.
	fallback runResult
}

func (r *fakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := append([]string{name}, args...)
	r.commands = append(r.commands, cmd)
	next := r.fallback
	if len(r.results) > 0 {
		next = r.results[0]
		r.results = r.results[1:]
	}
	return nil, []byte(next.stderr), next.exitCode, next.err
}

func failing(code int32) runResult {
	return runResult{exitCode: code, stderr: "no device", err: fmt.Errorf("exit status %d", code)}
}

func notFound() runResult {
	return runResult{exitCode: 127, err: &exec.Error{Name: "rk-usb-loader", Err: exec.ErrNotFound}}
}

type fakeStager struct {
	staged []string
	prefix string
	err    error
}

func (s *fakeStager) Stage(local string, res resource.LoaderResource) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.staged = append(s.staged, local)
	return s.prefix + local, nil
}

type fakeEnv struct {
	tools     map[string]string
	images    map[string]string
	toolCalls int
}

func (e *fakeEnv) GetTool(name string) (string, bool) {
	e.toolCalls++
	v, ok := e.tools[name]
	return v, ok
}

func (e *fakeEnv) GetImagePath(id string) (string, error) {
	p, ok := e.images[id]
	if !ok {
		return "", errors.New("unknown image")
	}
	return p, nil
}

// steppingClock advances by step on every read.
type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func localLoader(k resource.Kind) resource.LoaderResource {
	r, err := resource.NewUSBLoader(k, 1, 2, "")
	if err != nil {
		panic(err)
	}
	return r
}

func networkLoader(k resource.Kind) resource.LoaderResource {
	r, err := resource.NewNetworkUSBLoader(k, "exporter-1", 1, 2, "")
	if err != nil {
		panic(err)
	}
	return r
}
