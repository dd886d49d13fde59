package bootloader

import (
	"strings"
	"time"

	"github.com/danmuck/usbboot/internal/observability"
	"github.com/danmuck/usbboot/internal/resource"
	"github.com/rs/zerolog/log"
)

// RKOptions extends Options with the two-phase bootstrap settings.
type RKOptions struct {
	Options
	// USBLoader identifies the secondary loader image pushed before the main
	// image. Empty means the loader firmware is already resident.
	USBLoader string
	// RetryWindow defaults to DefaultRetryWindow.
	RetryWindow time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// RKUSBDriver performs the Rockchip two-phase bootstrap: download the
// secondary loader, then write the main image.
type RKUSBDriver struct {
	*driver
	usbLoader string
	window    time.Duration
	now       func() time.Time
}

var _ Driver = (*RKUSBDriver)(nil)

func NewRKUSBDriver(res resource.LoaderResource, opts RKOptions) (*RKUSBDriver, error) {
	d, err := newDriver("rk", RKBindings, DefaultRKTool, res, opts.Options)
	if err != nil {
		return nil, err
	}
	window := opts.RetryWindow
	if window <= 0 {
		window = DefaultRetryWindow
	}
	return &RKUSBDriver{
		driver:    d,
		usbLoader: strings.TrimSpace(opts.USBLoader),
		window:    window,
		now:       opts.Now,
	}, nil
}

func (d *RKUSBDriver) Load(filename string) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	return d.trace(filename, func() error {
		// Resolve everything up front so a configuration error cannot leave
		// the device with only the secondary loader running.
		mainImage, err := d.resolveImage(filename)
		if err != nil {
			return err
		}
		var loaderImage string
		if d.usbLoader != "" {
			loaderImage, err = d.imagePath(d.usbLoader)
			if err != nil {
				return err
			}
		}

		if loaderImage != "" {
			if err := d.phase("loader", loaderImage, RKDownloadBootCommand); err != nil {
				return err
			}
		} else {
			log.Debug().Str("driver", d.name).Msg("no secondary loader configured, skipping download")
		}
		return d.phase("main", mainImage, RKWriteCommand)
	})
}

func (d *RKUSBDriver) phase(name, local string, build func(string, resource.LoaderResource, string) []string) error {
	staged, err := d.stager.Stage(local, d.res)
	if err != nil {
		return err
	}
	argv := build(d.tool, d.res, staged)
	exec := RetryWindow{
		Window: d.window,
		Now:    d.now,
		OnRetry: func(attempt int, err error) {
			observability.RecordRetry(string(resource.FamilyRK), name)
			log.Debug().Str("phase", name).Int("attempt", attempt).Err(err).Msg("device not ready, retrying")
		},
	}
	return exec.Execute(func() error {
		return d.invoke(name, argv)
	})
}
