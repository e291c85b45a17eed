package cisco

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// fakeDevice is an in-process SSH server that behaves like a small Cisco CLI:
// it echoes input, tracks exec/config mode, and answers show commands from
// a canned table.
type fakeDevice struct {
	hostname string
	user     string
	password string
	enable   string // when set, sessions start in user exec
	replies  map[string]string

	listener net.Listener
	port     int

	mu       sync.Mutex
	received []string
}

type fakeOption func(*fakeDevice)

func withReplies(replies map[string]string) fakeOption {
	return func(d *fakeDevice) { d.replies = replies }
}

func withEnable(secret string) fakeOption {
	return func(d *fakeDevice) { d.enable = secret }
}

func newFakeDevice(t *testing.T, hostname string, opts ...fakeOption) *fakeDevice {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}

	d := &fakeDevice{
		hostname: hostname,
		user:     "netops",
		password: "cisco123",
		replies:  map[string]string{},
	}
	for _, opt := range opts {
		opt(d)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == d.user && string(pass) == d.password {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	d.listener = ln
	d.port = ln.Addr().(*net.TCPAddr).Port
	t.Cleanup(func() { ln.Close() })

	go d.serve(config)
	return d
}

func (d *fakeDevice) serve(config *ssh.ServerConfig) {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}
		go d.handleConn(conn, config)
	}
}

func (d *fakeDevice) handleConn(conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()
	sconn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "only sessions")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go func() {
			for req := range requests {
				switch req.Type {
				case "pty-req":
					req.Reply(true, nil)
				case "shell":
					req.Reply(true, nil)
					go d.runShell(ch)
				default:
					req.Reply(false, nil)
				}
			}
		}()
	}
}

func (d *fakeDevice) runShell(ch ssh.Channel) {
	defer ch.Close()

	privileged := d.enable == ""
	configMode := false
	prompt := func() string {
		switch {
		case configMode:
			return d.hostname + "(config)#"
		case privileged:
			return d.hostname + "#"
		}
		return d.hostname + ">"
	}

	fmt.Fprintf(ch, "\r\nUser Access Verification\r\n\r\n%s", prompt())

	r := bufio.NewReader(ch)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		d.record(cmd)
		fmt.Fprintf(ch, "%s\r\n", cmd)

		switch {
		case cmd == "exit" && !configMode:
			ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
			return
		case cmd == "enable" && !privileged:
			fmt.Fprint(ch, "Password: ")
			secret, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if strings.TrimRight(secret, "\r\n") == d.enable {
				privileged = true
			} else {
				fmt.Fprint(ch, "% Access denied\r\n\r\n")
			}
		case cmd == "configure terminal" && privileged:
			configMode = true
			fmt.Fprint(ch, "Enter configuration commands, one per line.  End with CNTL/Z.\r\n")
		case cmd == "end" && configMode:
			configMode = false
		case cmd == "hang":
			continue
		case strings.HasPrefix(cmd, "terminal "):
		case configMode:
			if strings.HasPrefix(cmd, "bogus") {
				fmt.Fprint(ch, "                  ^\r\n% Invalid input detected at '^' marker.\r\n\r\n")
			}
		default:
			if reply, ok := d.replies[cmd]; ok {
				fmt.Fprint(ch, strings.ReplaceAll(reply, "\n", "\r\n")+"\r\n")
			} else {
				fmt.Fprint(ch, "                  ^\r\n% Invalid input detected at '^' marker.\r\n\r\n")
			}
		}
		fmt.Fprint(ch, prompt())
	}
}

func (d *fakeDevice) record(cmd string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append(d.received, cmd)
}

func (d *fakeDevice) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.received...)
}
