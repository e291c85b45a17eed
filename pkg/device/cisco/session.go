package cisco

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/commander/pkg/device"
	"github.com/newtron-network/commander/pkg/util"
)

var passwordPrompt = regexp.MustCompile(`(?i)password:\s*$`)

// Session is one interactive shell on a device. It is owned by a single
// task and is not safe for concurrent use.
type Session struct {
	address string
	kind    device.Kind
	profile *Profile
	timeout time.Duration
	strict  bool

	client *ssh.Client
	shell  *ssh.Session
	stdin  io.WriteCloser

	chunks  chan []byte
	done    chan struct{}
	readErr error // valid once chunks is closed

	pending    bytes.Buffer
	hostname   string // prompt hostname learned at login
	promptLine string // last line accepted by readUntil
	closed     bool
}

var _ device.Session = (*Session)(nil)

func openShell(client *ssh.Client, address string, kind device.Kind, profile *Profile, opts Options) (*Session, error) {
	shell, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("SSH session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := shell.RequestPty("vt100", 200, 511, modes); err != nil {
		shell.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}

	stdin, err := shell.StdinPipe()
	if err != nil {
		shell.Close()
		return nil, fmt.Errorf("stdin: %w", err)
	}
	stdout, err := shell.StdoutPipe()
	if err != nil {
		shell.Close()
		return nil, fmt.Errorf("stdout: %w", err)
	}
	if err := shell.Shell(); err != nil {
		shell.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	s := &Session{
		address: address,
		kind:    kind,
		profile: profile,
		timeout: opts.CommandTimeout,
		strict:  opts.Strict,
		client:  client,
		shell:   shell,
		stdin:   stdin,
		chunks:  make(chan []byte),
		done:    make(chan struct{}),
	}
	go s.readLoop(stdout)
	return s, nil
}

func (s *Session) readLoop(r io.Reader) {
	defer close(s.chunks)
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
	}
}

// login consumes the banner up to the first prompt, escalates with the
// enable secret when the device lands in user exec, then disables paging.
func (s *Session) login(ctx context.Context, enable device.Secret) error {
	if _, err := s.readUntil(ctx, s.profile.matchesPrompt); err != nil {
		return fmt.Errorf("waiting for prompt: %w", err)
	}
	s.hostname = promptHostname(s.promptLine)
	util.WithTarget(s.address, string(s.kind)).Debugf("prompt hostname %q", s.hostname)

	if s.userExec() && enable != "" {
		if err := s.enable(ctx, enable); err != nil {
			return err
		}
	}

	for _, cmd := range s.profile.Paging {
		if _, err := s.send(ctx, cmd); err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
	}
	return nil
}

func (s *Session) enable(ctx context.Context, secret device.Secret) error {
	if err := s.write("enable"); err != nil {
		return err
	}
	if _, err := s.readUntil(ctx, func(line string) bool {
		return passwordPrompt.MatchString(line) || s.atPrompt(line)
	}); err != nil {
		return fmt.Errorf("enable: %w", err)
	}
	if passwordPrompt.MatchString(s.promptLine) {
		if err := s.write(secret.Reveal()); err != nil {
			return err
		}
		if _, err := s.readUntil(ctx, s.atPrompt); err != nil {
			return fmt.Errorf("enable: %w", err)
		}
	}
	if s.userExec() {
		return errors.New("enable: privileged exec rejected")
	}
	return nil
}

// RunCommand sends one command and returns its output without the echoed
// command and trailing prompt.
func (s *Session) RunCommand(ctx context.Context, command string) (string, error) {
	if s.closed {
		return "", util.NewCommandError(command, "", util.ErrNotConnected)
	}
	out, err := s.send(ctx, command)
	if err != nil {
		return out, util.NewCommandError(command, out, err)
	}
	if s.strict {
		if marker := s.profile.rejected(out); marker != "" {
			return out, util.NewCommandError(command, out, nil)
		}
	}
	return out, nil
}

// ApplyConfig enters configuration mode, sends every line, commits where the
// platform requires it and returns to exec mode. The returned transcript
// includes echoed lines and prompts, as an operator would see them.
func (s *Session) ApplyConfig(ctx context.Context, lines []string) (string, error) {
	if s.closed {
		return "", util.NewConfigError("", "", util.ErrNotConnected)
	}

	var transcript strings.Builder
	step := func(line string) error {
		if err := s.write(line); err != nil {
			return util.NewConfigError(line, transcript.String(), err)
		}
		out, err := s.readUntil(ctx, s.atPrompt)
		transcript.WriteString(normalize(out))
		if err != nil {
			return util.NewConfigError(line, transcript.String(), err)
		}
		if s.strict && s.profile.rejected(out) != "" {
			return util.NewConfigError(line, out, nil)
		}
		return nil
	}

	if err := step(s.profile.ConfigEnter); err != nil {
		return transcript.String(), err
	}
	for _, line := range lines {
		if err := step(line); err != nil {
			// Leave config mode so the device is not left mid-edit.
			s.write(s.profile.ConfigExit)
			return transcript.String(), err
		}
	}
	if s.profile.ConfigCommit != "" {
		if err := step(s.profile.ConfigCommit); err != nil {
			s.write(s.profile.ConfigExit)
			return transcript.String(), err
		}
	}
	if err := step(s.profile.ConfigExit); err != nil {
		return transcript.String(), err
	}
	return transcript.String(), nil
}

// Close logs out and releases the SSH connection.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.write("exit")
	close(s.done)

	s.shell.Close()
	if err := s.client.Close(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		return &util.DisconnectError{Address: s.address, Err: err}
	}
	return nil
}

// send writes one line and returns the cleaned output up to the next prompt.
func (s *Session) send(ctx context.Context, line string) (string, error) {
	if err := s.write(line); err != nil {
		return "", err
	}
	out, err := s.readUntil(ctx, s.atPrompt)
	if err != nil {
		return normalize(out), err
	}
	return clean(out, line), nil
}

func (s *Session) write(line string) error {
	if _, err := io.WriteString(s.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// readUntil buffers shell output until match accepts its last line, the
// command timeout elapses or ctx is done.
func (s *Session) readUntil(ctx context.Context, match func(line string) bool) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		if last := lastLine(normalize(s.pending.String())); match(last) {
			s.promptLine = last
			out := s.pending.String()
			s.pending.Reset()
			return out, nil
		}

		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				out := s.pending.String()
				s.pending.Reset()
				err := s.readErr
				if err == nil || errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				return out, fmt.Errorf("session closed by device: %w", err)
			}
			s.pending.Write(chunk)
		case <-timer.C:
			out := s.pending.String()
			s.pending.Reset()
			return out, fmt.Errorf("no prompt after %s", s.timeout)
		case <-ctx.Done():
			out := s.pending.String()
			s.pending.Reset()
			return out, ctx.Err()
		}
	}
}

// atPrompt anchors prompt detection to the hostname seen at login so that
// output lines ending in '#' or '>' are not mistaken for a prompt.
func (s *Session) atPrompt(line string) bool {
	if !s.profile.matchesPrompt(line) {
		return false
	}
	return s.hostname == "" || strings.HasPrefix(strings.TrimSpace(line), s.hostname)
}

func (s *Session) userExec() bool {
	return s.kind != device.KindXR && s.kind != device.KindNXOS &&
		strings.HasSuffix(strings.TrimSpace(s.promptLine), ">")
}
