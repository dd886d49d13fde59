package staging

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/usbboot/internal/resource"
	"github.com/danmuck/usbboot/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	present  map[string]bool
	uploads  map[string]string
	probeErr error
	closed   bool
}

func (t *fakeTransport) Exists(remotePath string) (bool, error) {
	if t.probeErr != nil {
		return false, t.probeErr
	}
	return t.present[remotePath], nil
}

func (t *fakeTransport) Upload(src io.Reader, remotePath string) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	if t.uploads == nil {
		t.uploads = map[string]string{}
	}
	t.uploads[remotePath] = string(data)
	return nil
}

func (t *fakeTransport) Close() error {
	t.closed = true
	return nil
}

func writeImage(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "img.bin")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func networkLoader(t *testing.T) resource.LoaderResource {
	t.Helper()
	r, err := resource.NewNetworkUSBLoader(resource.KindNetworkIMXUSBLoader, "exporter-1", 1, 4, "")
	require.NoError(t, err)
	return r
}

func TestStageLocalReturnsSourcePath(t *testing.T) {
	testlog.Start(t)
	img := writeImage(t, "payload")
	res, err := resource.NewUSBLoader(resource.KindMXSUSBLoader, 1, 2, "")
	require.NoError(t, err)

	got, err := FileStager{}.Stage(img, res)
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestStageLocalMissingSource(t *testing.T) {
	testlog.Start(t)
	res, err := resource.NewUSBLoader(resource.KindMXSUSBLoader, 1, 2, "")
	require.NoError(t, err)

	_, err = FileStager{}.Stage(filepath.Join(t.TempDir(), "absent.bin"), res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaging))
	assert.True(t, errors.Is(err, ErrSourceMissing))
}

func TestStageLocalRejectsDirectory(t *testing.T) {
	testlog.Start(t)
	res, err := resource.NewUSBLoader(resource.KindMXSUSBLoader, 1, 2, "")
	require.NoError(t, err)

	_, err = FileStager{}.Stage(t.TempDir(), res)
	assert.ErrorIs(t, err, ErrStaging)
}

func TestStageNetworkUploadsToContentAddressedPath(t *testing.T) {
	testlog.Start(t)
	img := writeImage(t, "payload")
	transport := &fakeTransport{}
	var dialed []string
	stager := FileStager{Options: Options{
		CacheDir: "/srv/cache",
		Dial: func(host string) (Transport, error) {
			dialed = append(dialed, host)
			return transport, nil
		},
	}}

	got, err := stager.Stage(img, networkLoader(t))
	require.NoError(t, err)

	// sha256("payload")
	want := "/srv/cache/239f59ed55e737c77147cf55ad0c1b030b6d7ee748a7426952f9b852d5a935e5/img.bin"
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"exporter-1"}, dialed)
	assert.Equal(t, "payload", transport.uploads[want])
	assert.True(t, transport.closed)
}

func TestStageNetworkSkipsUploadWhenPresent(t *testing.T) {
	testlog.Start(t)
	img := writeImage(t, "payload")
	want := DefaultCacheDir + "/239f59ed55e737c77147cf55ad0c1b030b6d7ee748a7426952f9b852d5a935e5/img.bin"
	transport := &fakeTransport{present: map[string]bool{want: true}}
	stager := FileStager{Options: Options{
		Dial: func(string) (Transport, error) { return transport, nil },
	}}

	got, err := stager.Stage(img, networkLoader(t))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Empty(t, transport.uploads)
}

func TestStageNetworkFailures(t *testing.T) {
	testlog.Start(t)
	img := writeImage(t, "payload")

	_, err := FileStager{}.Stage(img, networkLoader(t))
	assert.ErrorIs(t, err, ErrNoTransport)
	assert.ErrorIs(t, err, ErrStaging)

	dialErr := errors.New("connection refused")
	_, err = FileStager{Options: Options{
		Dial: func(string) (Transport, error) { return nil, dialErr },
	}}.Stage(img, networkLoader(t))
	assert.ErrorIs(t, err, ErrStaging)
	assert.ErrorIs(t, err, dialErr)

	probeErr := errors.New("session refused")
	_, err = FileStager{Options: Options{
		Dial: func(string) (Transport, error) { return &fakeTransport{probeErr: probeErr}, nil },
	}}.Stage(img, networkLoader(t))
	assert.ErrorIs(t, err, ErrStaging)
	assert.ErrorIs(t, err, probeErr)
}

func TestStagedFileIsNotSyncedUntilRequested(t *testing.T) {
	testlog.Start(t)
	img := writeImage(t, "payload")
	res, err := resource.NewUSBLoader(resource.KindRKUSBLoader, 1, 2, "")
	require.NoError(t, err)

	f := NewStagedFile(img, res, Options{})
	assert.False(t, f.Synced())
	require.NoError(t, f.SyncToResource())
	assert.True(t, f.Synced())
	assert.Equal(t, img, f.RemotePath())
}

func TestSSHConfigValidation(t *testing.T) {
	c := SSHConfig{}
	_, err := c.address("")
	require.Error(t, err)

	addr, err := c.address("exporter-1")
	require.NoError(t, err)
	assert.Equal(t, "exporter-1:22", addr)

	c.Port = "2222"
	addr, err = c.address("exporter-1")
	require.NoError(t, err)
	assert.Equal(t, "exporter-1:2222", addr)

	_, err = SSHConfig{}.clientConfig()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "user"))

	_, err = SSHConfig{User: "lab"}.clientConfig()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "key path"))
}
