package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/usbboot/internal/resource"
	"github.com/danmuck/usbboot/internal/staging"
)

var (
	ErrInvalidConfig = errors.New("config: invalid")
	ErrUnknownImage  = errors.New("config: unknown image")
	ErrUnknownTarget = errors.New("config: unknown target")
)

// Driver kinds accepted in target entries.
const (
	DriverMXS = "MXSUSBDriver"
	DriverIMX = "IMXUSBDriver"
	DriverRK  = "RKUSBDriver"
)

// Environment is the resolved contents of one environment file.
type Environment struct {
	Path        string
	Tools       map[string]string
	Images      map[string]string
	ImagesDir   string
	SSH         staging.SSHConfig
	CacheDir    string
	RetryWindow time.Duration
	Targets     []TargetConfig
}

type TargetConfig struct {
	Name     string
	Resource ResourceConfig
	Driver   DriverConfig
}

type ResourceConfig struct {
	Kind   resource.Kind
	Host   string
	BusNum int
	DevNum int
	Path   string
}

type DriverConfig struct {
	Kind      string
	Image     string
	USBLoader string
}

type fileConfig struct {
	Paths   filePaths         `toml:"paths"`
	Tools   map[string]string `toml:"tools"`
	Images  map[string]string `toml:"images"`
	SSH     fileSSH           `toml:"ssh"`
	Retry   fileRetry         `toml:"retry"`
	Targets []fileTarget      `toml:"targets"`
}

type filePaths struct {
	Images string `toml:"images"`
}

type fileSSH struct {
	User                        string `toml:"user"`
	Port                        string `toml:"port"`
	KeyPath                     string `toml:"key_path"`
	KnownHosts                  string `toml:"known_hosts"`
	InsecureSkipHostKeyChecking bool   `toml:"insecure_skip_host_key_checking"`
	Timeout                     string `toml:"timeout"`
	CacheDir                    string `toml:"cache_dir"`
}

type fileRetry struct {
	Window string `toml:"window"`
}

type fileTarget struct {
	Name     string       `toml:"name"`
	Resource fileResource `toml:"resource"`
	Driver   fileDriver   `toml:"driver"`
}

type fileResource struct {
	Kind   string `toml:"kind"`
	Host   string `toml:"host"`
	BusNum int    `toml:"busnum"`
	DevNum int    `toml:"devnum"`
	Path   string `toml:"path"`
}

type fileDriver struct {
	Kind      string `toml:"kind"`
	Image     string `toml:"image"`
	USBLoader string `toml:"usb_loader"`
}

// Load reads and validates the environment file at path.
func Load(path string) (*Environment, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalidConfig, path, undecoded)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(abs)

	env := &Environment{
		Path:     abs,
		Tools:    trimMap(raw.Tools),
		Images:   trimMap(raw.Images),
		CacheDir: staging.DefaultCacheDir,
	}

	env.ImagesDir = base
	if meta.IsDefined("paths", "images") {
		env.ImagesDir = resolvePath(base, raw.Paths.Images)
	}

	env.SSH = staging.SSHConfig{
		User:                        strings.TrimSpace(raw.SSH.User),
		Port:                        strings.TrimSpace(raw.SSH.Port),
		InsecureSkipHostKeyChecking: raw.SSH.InsecureSkipHostKeyChecking,
		Timeout:                     10 * time.Second,
	}
	if env.SSH.User == "" {
		env.SSH.User = os.Getenv("USER")
	}
	if meta.IsDefined("ssh", "key_path") {
		env.SSH.KeyPath = resolvePath(base, raw.SSH.KeyPath)
	}
	if meta.IsDefined("ssh", "known_hosts") {
		env.SSH.KnownHostsPath = resolvePath(base, raw.SSH.KnownHosts)
	}
	if meta.IsDefined("ssh", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SSH.Timeout))
		if err != nil {
			return nil, fmt.Errorf("parse ssh.timeout: %w", err)
		}
		env.SSH.Timeout = d
	}
	if meta.IsDefined("ssh", "cache_dir") {
		env.CacheDir = strings.TrimSpace(raw.SSH.CacheDir)
	}

	if meta.IsDefined("retry", "window") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Retry.Window))
		if err != nil {
			return nil, fmt.Errorf("parse retry.window: %w", err)
		}
		env.RetryWindow = d
	}

	for i, t := range raw.Targets {
		target, err := parseTarget(t)
		if err != nil {
			return nil, fmt.Errorf("%w: targets[%d]: %w", ErrInvalidConfig, i, err)
		}
		env.Targets = append(env.Targets, target)
	}

	if err := Validate(env); err != nil {
		return nil, err
	}
	return env, nil
}

func parseTarget(t fileTarget) (TargetConfig, error) {
	kind, err := resource.ParseKind(t.Resource.Kind)
	if err != nil {
		return TargetConfig{}, err
	}
	return TargetConfig{
		Name: strings.TrimSpace(t.Name),
		Resource: ResourceConfig{
			Kind:   kind,
			Host:   strings.TrimSpace(t.Resource.Host),
			BusNum: t.Resource.BusNum,
			DevNum: t.Resource.DevNum,
			Path:   strings.TrimSpace(t.Resource.Path),
		},
		Driver: DriverConfig{
			Kind:      strings.TrimSpace(t.Driver.Kind),
			Image:     strings.TrimSpace(t.Driver.Image),
			USBLoader: strings.TrimSpace(t.Driver.USBLoader),
		},
	}, nil
}

// Validate checks cross-field rules that decoding cannot express.
func Validate(env *Environment) error {
	if env.RetryWindow < 0 {
		return fmt.Errorf("%w: retry.window must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(env.CacheDir) == "" {
		return fmt.Errorf("%w: ssh.cache_dir must not be empty", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(env.Targets))
	for i, t := range env.Targets {
		if t.Name == "" {
			return fmt.Errorf("%w: targets[%d]: name is required", ErrInvalidConfig, i)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("%w: duplicate target %q", ErrInvalidConfig, t.Name)
		}
		seen[t.Name] = struct{}{}

		if t.Resource.Kind.Network() && t.Resource.Host == "" {
			return fmt.Errorf("%w: target %q: host required for %s", ErrInvalidConfig, t.Name, t.Resource.Kind)
		}
		switch t.Driver.Kind {
		case DriverMXS, DriverIMX:
			if t.Driver.USBLoader != "" {
				return fmt.Errorf("%w: target %q: usb_loader only applies to %s", ErrInvalidConfig, t.Name, DriverRK)
			}
		case DriverRK:
		default:
			return fmt.Errorf("%w: target %q: unknown driver kind %q", ErrInvalidConfig, t.Name, t.Driver.Kind)
		}
		for _, id := range []string{t.Driver.Image, t.Driver.USBLoader} {
			if id == "" {
				continue
			}
			if _, ok := env.Images[id]; !ok {
				return fmt.Errorf("%w: target %q: %w %q", ErrInvalidConfig, t.Name, ErrUnknownImage, id)
			}
		}
	}
	return nil
}

// GetTool returns the configured executable for name.
func (e *Environment) GetTool(name string) (string, bool) {
	v, ok := e.Tools[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// GetImagePath resolves an image identifier to a local path.
func (e *Environment) GetImagePath(id string) (string, error) {
	p, ok := e.Images[strings.TrimSpace(id)]
	if !ok || p == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownImage, id)
	}
	return resolvePath(e.ImagesDir, p), nil
}

// Target returns the named target entry.
func (e *Environment) Target(name string) (TargetConfig, error) {
	for _, t := range e.Targets {
		if t.Name == name {
			return t, nil
		}
	}
	return TargetConfig{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}

// StagingOptions builds the stager settings for network resources.
func (e *Environment) StagingOptions() staging.Options {
	return staging.Options{
		Dial:     staging.SSHDialer(e.SSH),
		CacheDir: e.CacheDir,
	}
}

func resolvePath(base, p string) string {
	p = strings.TrimSpace(p)
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func trimMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}
