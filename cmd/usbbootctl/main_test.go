package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/usbboot/internal/bootloader"
	"github.com/danmuck/usbboot/internal/config"
	"github.com/danmuck/usbboot/internal/staging"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitValidateAndTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usbboot.toml")

	if _, err := run(t, "config", "init", "--kind", "network", "-c", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	out, err := run(t, "config", "validate", "-c", path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Validated 1 targets") {
		t.Fatalf("unexpected validate output: %q", out)
	}

	out, err = run(t, "targets", "-c", path)
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	if !strings.Contains(out, "rk3568-board") || !strings.Contains(out, "NetworkRKUSBLoader") {
		t.Fatalf("unexpected targets output: %q", out)
	}
}

func TestLoadUnknownTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usbboot.toml")
	if _, err := run(t, "config", "init", "-c", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	_, err := run(t, "load", "missing", "-c", path)
	if !errors.Is(err, config.ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
	if exitCode(err) != 2 {
		t.Fatalf("unexpected exit code: %d", exitCode(err))
	}
}

func TestExitCodes(t *testing.T) {
	if exitCode(&bootloader.LoadFailedError{ExitCode: 1}) != 3 {
		t.Fatalf("load failure must map to 3")
	}
	if exitCode(staging.ErrStaging) != 4 {
		t.Fatalf("staging failure must map to 4")
	}
	if exitCode(bootloader.ErrNotActive) != 1 {
		t.Fatalf("other errors must map to 1")
	}
}

func TestRouterHealthAndTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usbboot.toml")
	if err := config.WriteTemplate(path, "local", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	r := newRouter(&rootOptions{configPath: path})

	for _, p := range []string{"/health", "/targets", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", p, rec.Code)
		}
		if p == "/targets" && !strings.Contains(rec.Body.String(), "imx6-board") {
			t.Fatalf("unexpected targets body: %s", rec.Body.String())
		}
	}
}
