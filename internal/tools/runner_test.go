package tools

import (
	"errors"
	"testing"
)

func TestFormatArgvQuotesOnlyWhenNeeded(t *testing.T) {
	got := FormatArgv([]string{"ssh", "exporter-1", "--", "imx-usb-loader", "-c", "/tmp/a b.img", "it's"})
	want := `ssh exporter-1 -- imx-usb-loader -c '/tmp/a b.img' 'it'"'"'s'`
	if got != want {
		t.Fatalf("unexpected argv rendering\nwant: %s\ngot:  %s", want, got)
	}
	if ShellEscape("") != "''" {
		t.Fatalf("empty value must render as empty quotes")
	}
}

func TestRunArgvRejectsEmpty(t *testing.T) {
	if _, _, _, err := RunArgv(ExecRunner{}, nil); err == nil {
		t.Fatalf("expected empty argv error")
	}
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	_, _, code, err := ExecRunner{}.Run("usbboot-definitely-missing-tool")
	if err == nil {
		t.Fatalf("expected start failure")
	}
	if code != ExitNotFound {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if !IsStartFailure(err) {
		t.Fatalf("expected start failure classification, got %v", err)
	}
	if IsStartFailure(errors.New("exit status 1")) {
		t.Fatalf("plain error must not classify as start failure")
	}
}
