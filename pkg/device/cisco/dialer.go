// Package cisco drives Cisco IOS, IOS-XR, NX-OS and ASA command lines over
// an interactive SSH shell.
package cisco

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/newtron-network/commander/pkg/device"
	"github.com/newtron-network/commander/pkg/util"
)

const (
	DefaultPort           = 22
	DefaultDialTimeout    = 10 * time.Second
	DefaultCommandTimeout = 60 * time.Second
)

// Options configure how sessions are opened.
type Options struct {
	Port           int
	DialTimeout    time.Duration
	CommandTimeout time.Duration

	// LegacyCrypto enables the SHA-1 key exchanges and CBC ciphers still
	// required by older IOS images.
	LegacyCrypto bool

	// KnownHostsFile verifies host keys when set; otherwise any key is accepted.
	KnownHostsFile string

	// Strict turns output carrying a profile error marker into a failure.
	Strict bool

	Profiles Profiles
}

// Dialer opens interactive CLI sessions. It is safe for concurrent use.
type Dialer struct {
	opts Options
}

var _ device.Dialer = (*Dialer)(nil)

// NewDialer creates a Dialer, filling unset options with defaults.
func NewDialer(opts Options) (*Dialer, error) {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.CommandTimeout == 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.Profiles == nil {
		p, err := DefaultProfiles()
		if err != nil {
			return nil, err
		}
		opts.Profiles = p
	}
	return &Dialer{opts: opts}, nil
}

// Dial connects, authenticates, waits for the first prompt, escalates to
// privileged exec when needed and disables paging.
func (d *Dialer) Dial(ctx context.Context, kind device.Kind, address string, creds device.Credentials) (device.Session, error) {
	profile, err := d.opts.Profiles.Lookup(kind)
	if err != nil {
		return nil, util.NewConnectError(address, err)
	}

	config, err := d.clientConfig(creds)
	if err != nil {
		return nil, util.NewConnectError(address, err)
	}

	client, err := d.dial(ctx, address, config)
	if err != nil {
		return nil, util.NewConnectError(address, err)
	}

	s, err := openShell(client, address, kind, profile, d.opts)
	if err != nil {
		client.Close()
		return nil, util.NewConnectError(address, err)
	}

	if err := s.login(ctx, creds.Enable); err != nil {
		s.Close()
		return nil, util.NewConnectError(address, err)
	}
	return s, nil
}

func (d *Dialer) clientConfig(creds device.Credentials) (*ssh.ClientConfig, error) {
	password := creds.Password.Reveal()
	config := &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// Many IOS/AAA setups only offer keyboard-interactive.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.opts.DialTimeout,
	}

	if d.opts.KnownHostsFile != "" {
		cb, err := knownhosts.New(d.opts.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("known hosts: %w", err)
		}
		config.HostKeyCallback = cb
	}

	if d.opts.LegacyCrypto {
		supported := ssh.SupportedAlgorithms()
		insecure := ssh.InsecureAlgorithms()
		config.KeyExchanges = append(supported.KeyExchanges, insecure.KeyExchanges...)
		config.Ciphers = append(supported.Ciphers, insecure.Ciphers...)
		config.MACs = append(supported.MACs, insecure.MACs...)
		config.HostKeyAlgorithms = append(supported.HostKeys, insecure.HostKeys...)
	}
	return config, nil
}

// dial honors ctx for the TCP connect and bounds the SSH handshake by DialTimeout.
func (d *Dialer) dial(ctx context.Context, address string, config *ssh.ClientConfig) (*ssh.Client, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(d.opts.Port))

	nd := net.Dialer{Timeout: d.opts.DialTimeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", addr, err)
	}

	conn.SetDeadline(time.Now().Add(d.opts.DialTimeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SSH handshake %s: %w", addr, err)
	}
	conn.SetDeadline(time.Time{})
	util.WithDevice(address).Debugf("SSH session to %s, server %s", addr, c.ServerVersion())

	return ssh.NewClient(c, chans, reqs), nil
}
