package bootloader

import (
	"github.com/danmuck/usbboot/internal/resource"
)

// Default executable names when the environment does not override them.
const (
	DefaultMXSTool = "mxs-usb-loader"
	DefaultIMXTool = "imx-usb-loader"
	DefaultRKTool  = "rk-usb-loader"
)

// rkLoaderOffset is the LBA the main image is written to.
const rkLoaderOffset = "0x40"

// MXSCommand builds the argv loading path into an MXS boot-mode device.
func MXSCommand(tool string, res resource.LoaderResource, path string) []string {
	return withPrefix(res, tool, "0", path)
}

// IMXCommand builds the argv loading path into an IMX boot-mode device.
// The tool addresses the device by its node, so a resource without a
// device path is a configuration error.
func IMXCommand(tool string, res resource.LoaderResource, path string) ([]string, error) {
	dev := res.DevicePath()
	if dev == "" {
		return nil, configError("%s at %s has no device path", res.Kind(), res.Address())
	}
	return withPrefix(res, tool, "-p", dev, "-c", path), nil
}

// RKDownloadBootCommand builds the argv pushing the secondary loader into RAM.
func RKDownloadBootCommand(tool string, res resource.LoaderResource, path string) []string {
	return withPrefix(res, tool, "db", path)
}

// RKWriteCommand builds the argv writing the main image to storage.
func RKWriteCommand(tool string, res resource.LoaderResource, path string) []string {
	return withPrefix(res, tool, "wl", rkLoaderOffset, path)
}

func withPrefix(res resource.LoaderResource, argv ...string) []string {
	prefix := res.CommandPrefix()
	out := make([]string, 0, len(prefix)+len(argv))
	out = append(out, prefix...)
	return append(out, argv...)
}
