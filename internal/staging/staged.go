package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/danmuck/usbboot/internal/resource"
	"github.com/rs/zerolog/log"
)

var (
	ErrStaging       = errors.New("staging: failed")
	ErrSourceMissing = errors.New("staging: source file missing")
	ErrNoTransport   = errors.New("staging: no transport for network resource")
)

// DefaultCacheDir is the exporter-side directory holding staged images.
const DefaultCacheDir = "/var/cache/usbboot"

// Options configures how a StagedFile reaches a network resource.
type Options struct {
	Dial     Dialer
	CacheDir string
}

// StagedFile is one local path staged against one resource.
type StagedFile struct {
	local  string
	res    resource.LoaderResource
	opts   Options
	hash   string
	synced bool
}

// NewStagedFile prepares local for res. Nothing is touched until SyncToResource.
func NewStagedFile(local string, res resource.LoaderResource, opts Options) *StagedFile {
	if strings.TrimSpace(opts.CacheDir) == "" {
		opts.CacheDir = DefaultCacheDir
	}
	return &StagedFile{local: local, res: res, opts: opts}
}

// SyncToResource makes the file readable from res's execution context.
func (f *StagedFile) SyncToResource() error {
	info, err := os.Stat(f.local)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %w: %s", ErrStaging, ErrSourceMissing, f.local)
		}
		return fmt.Errorf("%w: stat %s: %w", ErrStaging, f.local, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrStaging, f.local)
	}

	host := f.res.Host()
	if host == "" {
		f.synced = true
		return nil
	}

	if f.opts.Dial == nil {
		return fmt.Errorf("%w: %w: %s", ErrStaging, ErrNoTransport, f.res.Kind())
	}

	hash, err := fileHash(f.local)
	if err != nil {
		return fmt.Errorf("%w: hash %s: %w", ErrStaging, f.local, err)
	}
	f.hash = hash

	t, err := f.opts.Dial(host)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %w", ErrStaging, host, err)
	}
	defer t.Close()

	remote := f.RemotePath()
	exists, err := t.Exists(remote)
	if err != nil {
		return fmt.Errorf("%w: probe %s:%s: %w", ErrStaging, host, remote, err)
	}
	if exists {
		log.Debug().Str("host", host).Str("path", remote).Msg("staging: already present")
		f.synced = true
		return nil
	}

	in, err := os.Open(f.local)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrStaging, f.local, err)
	}
	defer in.Close()

	log.Info().Str("host", host).Str("src", f.local).Str("dst", remote).Msg("staging: upload")
	if err := t.Upload(in, remote); err != nil {
		return fmt.Errorf("%w: upload to %s: %w", ErrStaging, host, err)
	}
	f.synced = true
	return nil
}

// RemotePath is the path the loader tool should be given.
// For network resources it is only meaningful after SyncToResource.
func (f *StagedFile) RemotePath() string {
	if f.res.Host() == "" {
		return f.local
	}
	return path.Join(f.opts.CacheDir, f.hash, filepath.Base(f.local))
}

// Synced reports whether SyncToResource completed.
func (f *StagedFile) Synced() bool {
	return f.synced
}

func fileHash(p string) (string, error) {
	in, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer in.Close()

	h := sha256.New()
	if _, err := io.Copy(h, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Stager stages files for loader invocations.
type Stager interface {
	Stage(local string, res resource.LoaderResource) (string, error)
}

// FileStager is the default Stager backed by StagedFile.
type FileStager struct {
	Options Options
}

// Stage syncs local to res and returns the path usable by the loader tool.
func (s FileStager) Stage(local string, res resource.LoaderResource) (string, error) {
	f := NewStagedFile(local, res, s.Options)
	if err := f.SyncToResource(); err != nil {
		return "", err
	}
	return f.RemotePath(), nil
}
