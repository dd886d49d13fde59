package bootloader

import (
	"github.com/danmuck/usbboot/internal/resource"
)

// IMXUSBDriver loads images through imx-usb-loader. It also accepts MXS
// loader resources since those devices can be driven in IMX boot mode.
type IMXUSBDriver struct {
	*driver
}

var _ Driver = (*IMXUSBDriver)(nil)

func NewIMXUSBDriver(res resource.LoaderResource, opts Options) (*IMXUSBDriver, error) {
	d, err := newDriver("imx", IMXBindings, DefaultIMXTool, res, opts)
	if err != nil {
		return nil, err
	}
	return &IMXUSBDriver{driver: d}, nil
}

func (d *IMXUSBDriver) Load(filename string) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	return d.trace(filename, func() error {
		local, err := d.resolveImage(filename)
		if err != nil {
			return err
		}
		// Fail on a missing device path before anything is copied.
		if _, err := IMXCommand(d.tool, d.res, local); err != nil {
			return err
		}
		staged, err := d.stager.Stage(local, d.res)
		if err != nil {
			return err
		}
		argv, err := IMXCommand(d.tool, d.res, staged)
		if err != nil {
			return err
		}
		return SingleShot{}.Execute(func() error {
			return d.invoke("load", argv)
		})
	})
}
