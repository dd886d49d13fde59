package bootloader

import (
	"errors"
	"slices"
	"testing"

	"github.com/danmuck/usbboot/internal/resource"
)

func TestMXSCommandLocal(t *testing.T) {
	got := MXSCommand("mxs-usb-loader", localLoader(resource.KindMXSUSBLoader), "/tmp/img.bin")
	want := []string{"mxs-usb-loader", "0", "/tmp/img.bin"}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected argv\nwant: %q\ngot:  %q", want, got)
	}
}

func TestIMXCommandLocal(t *testing.T) {
	got, err := IMXCommand("imx-usb-loader", localLoader(resource.KindIMXUSBLoader), "/tmp/img.bin")
	if err != nil {
		t.Fatalf("imx command: %v", err)
	}
	want := []string{"imx-usb-loader", "-p", "/dev/bus/usb/001/002", "-c", "/tmp/img.bin"}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected argv\nwant: %q\ngot:  %q", want, got)
	}
}

func TestIMXCommandRequiresDevicePath(t *testing.T) {
	res, err := resource.NewUSBLoader(resource.KindIMXUSBLoader, 0, 0, "")
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	if _, err := IMXCommand("imx-usb-loader", res, "/tmp/img.bin"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRKCommands(t *testing.T) {
	res := localLoader(resource.KindRKUSBLoader)
	if got := RKDownloadBootCommand("rk-usb-loader", res, "/tmp/spl.bin"); !slices.Equal(got, []string{"rk-usb-loader", "db", "/tmp/spl.bin"}) {
		t.Fatalf("unexpected db argv: %q", got)
	}
	if got := RKWriteCommand("rk-usb-loader", res, "/tmp/main.img"); !slices.Equal(got, []string{"rk-usb-loader", "wl", "0x40", "/tmp/main.img"}) {
		t.Fatalf("unexpected wl argv: %q", got)
	}
}

func TestCommandsArePrefixedAndPure(t *testing.T) {
	res := networkLoader(resource.KindNetworkMXSUSBLoader)
	prefix := res.CommandPrefix()

	first := MXSCommand("mxs-usb-loader", res, "/var/cache/usbboot/abc/img.bin")
	second := MXSCommand("mxs-usb-loader", res, "/var/cache/usbboot/abc/img.bin")
	if !slices.Equal(first, second) {
		t.Fatalf("command construction must be deterministic: %q vs %q", first, second)
	}
	if !slices.Equal(first[:len(prefix)], prefix) {
		t.Fatalf("argv must start with resource prefix: %q", first)
	}
	if !slices.Equal(first[len(prefix):], []string{"mxs-usb-loader", "0", "/var/cache/usbboot/abc/img.bin"}) {
		t.Fatalf("unexpected tool argv after prefix: %q", first)
	}

	first[0] = "mutated"
	if res.CommandPrefix()[0] != "ssh" {
		t.Fatalf("argv must not alias the resource prefix")
	}
}
