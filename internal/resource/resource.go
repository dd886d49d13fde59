package resource

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnknownKind     = errors.New("resource: unknown loader kind")
	ErrInvalidResource = errors.New("resource: invalid loader resource")
)

// Family is the vendor boot-loader protocol a device speaks.
type Family string

const (
	FamilyMXS Family = "mxs"
	FamilyIMX Family = "imx"
	FamilyRK  Family = "rk"
)

// Kind names one concrete loader resource variant.
type Kind string

const (
	KindMXSUSBLoader        Kind = "MXSUSBLoader"
	KindNetworkMXSUSBLoader Kind = "NetworkMXSUSBLoader"
	KindIMXUSBLoader        Kind = "IMXUSBLoader"
	KindNetworkIMXUSBLoader Kind = "NetworkIMXUSBLoader"
	KindRKUSBLoader         Kind = "RKUSBLoader"
	KindNetworkRKUSBLoader  Kind = "NetworkRKUSBLoader"
)

var kinds = map[Kind]struct {
	family  Family
	network bool
}{
	KindMXSUSBLoader:        {FamilyMXS, false},
	KindNetworkMXSUSBLoader: {FamilyMXS, true},
	KindIMXUSBLoader:        {FamilyIMX, false},
	KindNetworkIMXUSBLoader: {FamilyIMX, true},
	KindRKUSBLoader:         {FamilyRK, false},
	KindNetworkRKUSBLoader:  {FamilyRK, true},
}

// ParseKind validates a kind name from configuration.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.TrimSpace(raw))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return k, nil
}

// Family returns the protocol family of k.
func (k Kind) Family() Family {
	return kinds[k].family
}

// Network reports whether k is exported by a remote host.
func (k Kind) Network() bool {
	return kinds[k].network
}

// LoaderResource is an attached or network-exported USB loader slot.
//
// The set of implementations is closed: *USBLoader and *NetworkUSBLoader.
type LoaderResource interface {
	Kind() Kind
	// Address identifies the device on its bus ("BBB:DDD") or exporter.
	Address() string
	// DevicePath is the device node the loader tool opens, if known.
	DevicePath() string
	// CommandPrefix is prepended to every invocation; empty for local devices.
	CommandPrefix() []string
	// Host is the exporter host; empty for local devices.
	Host() string

	sealed()
}

// USBLoader is a loader device attached to this host.
type USBLoader struct {
	kind   Kind
	BusNum int
	DevNum int
	Path   string
}

// NewUSBLoader builds a local loader resource of kind k.
func NewUSBLoader(k Kind, busnum, devnum int, path string) (*USBLoader, error) {
	info, ok := kinds[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if info.network {
		return nil, fmt.Errorf("%w: %s is a network kind", ErrInvalidResource, k)
	}
	if busnum < 0 || devnum < 0 {
		return nil, fmt.Errorf("%w: negative bus/device number", ErrInvalidResource)
	}
	return &USBLoader{kind: k, BusNum: busnum, DevNum: devnum, Path: strings.TrimSpace(path)}, nil
}

func (r *USBLoader) Kind() Kind { return r.kind }

func (r *USBLoader) Address() string {
	return fmt.Sprintf("%03d:%03d", r.BusNum, r.DevNum)
}

// DevicePath falls back to the usbfs node when no explicit path is set.
func (r *USBLoader) DevicePath() string {
	return devicePath(r.Path, r.BusNum, r.DevNum)
}

func (r *USBLoader) CommandPrefix() []string { return nil }

func (r *USBLoader) Host() string { return "" }

func (r *USBLoader) sealed() {}

func (r *USBLoader) String() string {
	return fmt.Sprintf("%s(%s)", r.kind, r.Address())
}

// NetworkUSBLoader is a loader device exported by a remote host.
type NetworkUSBLoader struct {
	kind     Kind
	Exporter string
	BusNum   int
	DevNum   int
	Path     string
}

// NewNetworkUSBLoader builds a network loader resource of kind k exported by host.
func NewNetworkUSBLoader(k Kind, host string, busnum, devnum int, path string) (*NetworkUSBLoader, error) {
	info, ok := kinds[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if !info.network {
		return nil, fmt.Errorf("%w: %s is a local kind", ErrInvalidResource, k)
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("%w: network loader requires host", ErrInvalidResource)
	}
	if busnum < 0 || devnum < 0 {
		return nil, fmt.Errorf("%w: negative bus/device number", ErrInvalidResource)
	}
	return &NetworkUSBLoader{
		kind:     k,
		Exporter: host,
		BusNum:   busnum,
		DevNum:   devnum,
		Path:     strings.TrimSpace(path),
	}, nil
}

func (r *NetworkUSBLoader) Kind() Kind { return r.kind }

func (r *NetworkUSBLoader) Address() string {
	return fmt.Sprintf("%s/%03d:%03d", r.Exporter, r.BusNum, r.DevNum)
}

func (r *NetworkUSBLoader) DevicePath() string {
	return devicePath(r.Path, r.BusNum, r.DevNum)
}

// CommandPrefix routes the invocation through ssh to the exporter.
func (r *NetworkUSBLoader) CommandPrefix() []string {
	return []string{"ssh", "-x", "-o", "LogLevel=ERROR", "-o", "BatchMode=yes", r.Exporter, "--"}
}

func (r *NetworkUSBLoader) Host() string { return r.Exporter }

func (r *NetworkUSBLoader) sealed() {}

func (r *NetworkUSBLoader) String() string {
	return fmt.Sprintf("%s(%s)", r.kind, r.Address())
}

func devicePath(explicit string, busnum, devnum int) string {
	if explicit != "" {
		return explicit
	}
	if busnum == 0 || devnum == 0 {
		return ""
	}
	return fmt.Sprintf("/dev/bus/usb/%03d/%03d", busnum, devnum)
}

// KindSet is a set of accepted resource kinds.
type KindSet []Kind

// Contains reports whether k is a member of s.
func (s KindSet) Contains(k Kind) bool {
	return slices.Contains(s, k)
}

func (s KindSet) String() string {
	names := make([]string, 0, len(s))
	for _, k := range s {
		names = append(names, string(k))
	}
	return strings.Join(names, ",")
}
