package bootloader

import (
	"github.com/danmuck/usbboot/internal/resource"
)

// MXSUSBDriver loads images through mxs-usb-loader.
type MXSUSBDriver struct {
	*driver
}

var _ Driver = (*MXSUSBDriver)(nil)

// NewMXSUSBDriver binds res, which must be a local or network MXS loader.
func NewMXSUSBDriver(res resource.LoaderResource, opts Options) (*MXSUSBDriver, error) {
	d, err := newDriver("mxs", MXSBindings, DefaultMXSTool, res, opts)
	if err != nil {
		return nil, err
	}
	return &MXSUSBDriver{driver: d}, nil
}

func (d *MXSUSBDriver) Load(filename string) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	return d.trace(filename, func() error {
		local, err := d.resolveImage(filename)
		if err != nil {
			return err
		}
		staged, err := d.stager.Stage(local, d.res)
		if err != nil {
			return err
		}
		argv := MXSCommand(d.tool, d.res, staged)
		return SingleShot{}.Execute(func() error {
			return d.invoke("load", argv)
		})
	})
}
