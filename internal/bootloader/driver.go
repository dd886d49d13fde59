package bootloader

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/usbboot/internal/logging"
	"github.com/danmuck/usbboot/internal/observability"
	"github.com/danmuck/usbboot/internal/resource"
	"github.com/danmuck/usbboot/internal/staging"
	"github.com/danmuck/usbboot/internal/tools"
	"github.com/rs/zerolog/log"
)

// ToolResolver maps a tool name to a configured executable.
type ToolResolver interface {
	GetTool(name string) (string, bool)
}

// ImageResolver maps an image identifier to a local path.
type ImageResolver interface {
	GetImagePath(id string) (string, error)
}

// Environment is the configuration a driver consults.
type Environment interface {
	ToolResolver
	ImageResolver
}

// BootstrapProtocol loads a bootstrap image into a target.
// An empty filename selects the driver's configured default image.
type BootstrapProtocol interface {
	Load(filename string) error
}

// Driver is the lifecycle surface shared by every loader driver.
type Driver interface {
	BootstrapProtocol
	Activate() error
	Deactivate() error
	State() State
	Resource() resource.LoaderResource
}

type State int

const (
	StateInactive State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// Options carries the collaborators common to every driver.
type Options struct {
	// Env may be nil; tools then use their default names and only explicit
	// filenames can be loaded.
	Env Environment
	// Image is the default image identifier resolved through Env.
	Image  string
	Stager staging.Stager
	Runner tools.CommandRunner
}

// Accepted resource kinds per driver family.
var (
	MXSBindings = resource.KindSet{resource.KindMXSUSBLoader, resource.KindNetworkMXSUSBLoader}
	// IMX boot mode can also drive MXS-mode devices.
	IMXBindings = resource.KindSet{
		resource.KindIMXUSBLoader,
		resource.KindNetworkIMXUSBLoader,
		resource.KindMXSUSBLoader,
		resource.KindNetworkMXSUSBLoader,
	}
	RKBindings = resource.KindSet{resource.KindRKUSBLoader, resource.KindNetworkRKUSBLoader}
)

type driver struct {
	name   string
	res    resource.LoaderResource
	tool   string
	image  string
	env    Environment
	stager staging.Stager
	runner tools.CommandRunner
	state  State
}

func newDriver(name string, accepted resource.KindSet, defaultTool string, res resource.LoaderResource, opts Options) (*driver, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: %s requires a loader resource", ErrBindingRejected, name)
	}
	if !accepted.Contains(res.Kind()) {
		return nil, fmt.Errorf("%w: %s cannot bind %s (accepts %s)", ErrBindingRejected, name, res.Kind(), accepted)
	}

	tool := defaultTool
	if opts.Env != nil {
		if v, ok := opts.Env.GetTool(defaultTool); ok && strings.TrimSpace(v) != "" {
			tool = v
		}
	}

	stager := opts.Stager
	if stager == nil {
		stager = staging.FileStager{}
	}
	runner := opts.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}

	return &driver{
		name:   name,
		res:    res,
		tool:   tool,
		image:  strings.TrimSpace(opts.Image),
		env:    opts.Env,
		stager: stager,
		runner: runner,
	}, nil
}

// Activate marks the driver usable. Resource acquisition is the resource's concern.
func (d *driver) Activate() error {
	d.state = StateActive
	return nil
}

func (d *driver) Deactivate() error {
	d.state = StateInactive
	return nil
}

func (d *driver) State() State {
	return d.state
}

func (d *driver) Resource() resource.LoaderResource {
	return d.res
}

// Tool is the executable resolved at construction.
func (d *driver) Tool() string {
	return d.tool
}

func (d *driver) checkActive() error {
	if d.state != StateActive {
		return fmt.Errorf("%w: %s on %s", ErrNotActive, d.name, d.res.Kind())
	}
	return nil
}

// resolveImage picks the explicit filename, else the default image.
func (d *driver) resolveImage(filename string) (string, error) {
	if filename != "" {
		return filename, nil
	}
	if d.image == "" {
		return "", configError("%s: no filename given and no default image configured", d.name)
	}
	return d.imagePath(d.image)
}

func (d *driver) imagePath(id string) (string, error) {
	if d.env == nil {
		return "", configError("%s: no environment to resolve image %q", d.name, id)
	}
	p, err := d.env.GetImagePath(id)
	if err != nil {
		return "", fmt.Errorf("%w: image %q: %w", ErrConfiguration, id, err)
	}
	return p, nil
}

// trace wraps one load in a step log and the load duration metric.
func (d *driver) trace(filename string, body func() error) error {
	start := time.Now()
	done := logging.Step(d.name+".load", logging.StepFields{
		"filename": filename,
		"resource": d.res.Address(),
	})
	err := body()
	done(err)
	observability.RecordLoad(string(d.res.Kind().Family()), time.Since(start), err == nil)
	return err
}

// invoke runs argv once and converts any failure into a *LoadFailedError.
func (d *driver) invoke(phase string, argv []string) error {
	family := string(d.res.Kind().Family())
	log.Debug().Str("driver", d.name).Str("phase", phase).Str("cmd", tools.FormatArgv(argv)).Msg("invoke")

	_, stderr, exitCode, err := tools.RunArgv(d.runner, argv)
	if err == nil && exitCode == 0 {
		observability.RecordInvocation(family, phase, true)
		return nil
	}
	observability.RecordInvocation(family, phase, false)
	if exitCode == 0 {
		exitCode = 1
	}
	return &LoadFailedError{
		Argv:     argv,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(string(stderr)),
		Attempts: 1,
		Err:      err,
	}
}
