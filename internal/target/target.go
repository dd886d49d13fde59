// Package target binds configured loader resources to their drivers.
package target

import (
	"fmt"
	"time"

	"github.com/danmuck/usbboot/internal/bootloader"
	"github.com/danmuck/usbboot/internal/config"
	"github.com/danmuck/usbboot/internal/resource"
	"github.com/danmuck/usbboot/internal/staging"
	"github.com/danmuck/usbboot/internal/tools"
)

// Target is one configured board with its bound bootstrap driver.
type Target struct {
	Name     string
	Resource resource.LoaderResource
	Driver   bootloader.Driver
}

// Deps overrides collaborators; zero values use the real implementations.
type Deps struct {
	Stager staging.Stager
	Runner tools.CommandRunner
	Now    func() time.Time
}

// Build constructs the named target from env.
func Build(env *config.Environment, name string, deps Deps) (*Target, error) {
	tc, err := env.Target(name)
	if err != nil {
		return nil, err
	}
	return FromConfig(env, tc, deps)
}

// FromConfig constructs a target from one entry of env.
func FromConfig(env *config.Environment, tc config.TargetConfig, deps Deps) (*Target, error) {
	res, err := NewResource(tc.Resource)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", tc.Name, err)
	}

	stager := deps.Stager
	if stager == nil {
		stager = staging.FileStager{Options: env.StagingOptions()}
	}
	opts := bootloader.Options{
		Env:    env,
		Image:  tc.Driver.Image,
		Stager: stager,
		Runner: deps.Runner,
	}

	var d bootloader.Driver
	switch tc.Driver.Kind {
	case config.DriverMXS:
		d, err = bootloader.NewMXSUSBDriver(res, opts)
	case config.DriverIMX:
		d, err = bootloader.NewIMXUSBDriver(res, opts)
	case config.DriverRK:
		d, err = bootloader.NewRKUSBDriver(res, bootloader.RKOptions{
			Options:     opts,
			USBLoader:   tc.Driver.USBLoader,
			RetryWindow: env.RetryWindow,
			Now:         deps.Now,
		})
	default:
		err = fmt.Errorf("%w: unknown driver kind %q", bootloader.ErrConfiguration, tc.Driver.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", tc.Name, err)
	}
	return &Target{Name: tc.Name, Resource: res, Driver: d}, nil
}

// NewResource builds the loader resource described by rc.
func NewResource(rc config.ResourceConfig) (resource.LoaderResource, error) {
	if rc.Kind.Network() {
		return resource.NewNetworkUSBLoader(rc.Kind, rc.Host, rc.BusNum, rc.DevNum, rc.Path)
	}
	return resource.NewUSBLoader(rc.Kind, rc.BusNum, rc.DevNum, rc.Path)
}

// Bootstrap activates the driver, loads filename and deactivates again.
func (t *Target) Bootstrap(filename string) (err error) {
	if err := t.Driver.Activate(); err != nil {
		return err
	}
	defer func() {
		if derr := t.Driver.Deactivate(); err == nil {
			err = derr
		}
	}()
	return t.Driver.Load(filename)
}
