package staging

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/usbboot/internal/tools"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Transport moves files onto one remote host.
type Transport interface {
	Exists(remotePath string) (bool, error)
	Upload(src io.Reader, remotePath string) error
	Close() error
}

// Dialer opens a Transport to host.
type Dialer func(host string) (Transport, error)

// SSHConfig holds client settings shared by every exporter connection.
type SSHConfig struct {
	Port                        string
	User                        string
	KeyPath                     string
	Passphrase                  []byte
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration
}

// SSHDialer returns a Dialer connecting with cfg. A "user@host" form
// overrides cfg.User for that host.
func SSHDialer(cfg SSHConfig) Dialer {
	return func(host string) (Transport, error) {
		c := cfg
		if at := strings.LastIndex(host, "@"); at >= 0 {
			c.User = host[:at]
			host = host[at+1:]
		}
		client, err := c.dial(host)
		if err != nil {
			return nil, err
		}
		return &sshTransport{client: client}, nil
	}
}

func (c SSHConfig) dial(host string) (*ssh.Client, error) {
	address, err := c.address(host)
	if err != nil {
		return nil, err
	}

	config, err := c.clientConfig()
	if err != nil {
		return nil, err
	}

	if c.Timeout <= 0 {
		return ssh.Dial("tcp", address, config)
	}

	conn, err := net.DialTimeout("tcp", address, c.Timeout)
	if err != nil {
		return nil, err
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return ssh.NewClient(clientConn, chans, reqs), nil
}

func (c SSHConfig) address(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("ssh host is required")
	}

	if c.Port != "" {
		return net.JoinHostPort(host, c.Port), nil
	}

	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}

	return net.JoinHostPort(host, "22"), nil
}

func (c SSHConfig) clientConfig() (*ssh.ClientConfig, error) {
	if c.User == "" {
		return nil, fmt.Errorf("ssh user is required")
	}

	signer, err := c.signer()
	if err != nil {
		return nil, err
	}

	var hostKeyCallback ssh.HostKeyCallback
	if c.InsecureSkipHostKeyChecking {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		callback, err := c.knownHostsCallback()
		if err != nil {
			return nil, err
		}
		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.Timeout,
	}, nil
}

func (c SSHConfig) signer() (ssh.Signer, error) {
	if c.KeyPath == "" {
		return nil, fmt.Errorf("ssh key path is required")
	}

	privateKey, err := os.ReadFile(c.KeyPath)
	if err != nil {
		return nil, err
	}

	if len(c.Passphrase) > 0 {
		return ssh.ParsePrivateKeyWithPassphrase(privateKey, c.Passphrase)
	}

	return ssh.ParsePrivateKey(privateKey)
}

func (c SSHConfig) knownHostsCallback() (ssh.HostKeyCallback, error) {
	p := strings.TrimSpace(c.KnownHostsPath)
	if p == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("known hosts path not set and home dir unavailable")
		}
		p = filepath.Join(home, ".ssh", "known_hosts")
	}

	return knownhosts.New(p)
}

type sshTransport struct {
	client *ssh.Client
}

func (t *sshTransport) Exists(remotePath string) (bool, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return false, err
	}
	defer session.Close()

	err = session.Run("test -r " + tools.ShellEscape(remotePath))
	if err == nil {
		return true, nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitStatus() == 1 {
		return false, nil
	}
	return false, err
}

// Upload writes src to a temporary name next to remotePath and renames it
// into place, so a partially transferred file is never visible.
func (t *sshTransport) Upload(src io.Reader, remotePath string) error {
	session, err := t.client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	session.Stdin = src
	var stderr strings.Builder
	session.Stderr = &stderr

	tmp := remotePath + ".part"
	script := fmt.Sprintf(
		"mkdir -p %s && cat > %s && mv -f %s %s",
		tools.ShellEscape(path.Dir(remotePath)),
		tools.ShellEscape(tmp),
		tools.ShellEscape(tmp),
		tools.ShellEscape(remotePath),
	)
	if err := session.Run(script); err != nil {
		return fmt.Errorf("remote write %s: %w (stderr=%q)", remotePath, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (t *sshTransport) Close() error {
	return t.client.Close()
}
