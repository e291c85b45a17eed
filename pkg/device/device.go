// Package device defines the device kinds commander can drive and the
// session contract every CLI adapter implements.
//
// A Dialer opens a Session against one device; a Session runs show
// commands one round-trip at a time, applies a configuration batch, and is
// closed when the target's work is finished. All four operations may fail.
package device

import (
	"context"
	"fmt"
	"strings"
)

// Kind identifies the CLI dialect spoken by a device.
type Kind string

const (
	KindIOS  Kind = "cisco_ios"
	KindXR   Kind = "cisco_xr"
	KindNXOS Kind = "cisco_nxos"
	KindASA  Kind = "cisco_asa"
)

// Kinds lists every supported kind in host-file order.
var Kinds = []Kind{KindIOS, KindXR, KindNXOS, KindASA}

// ParseKind maps a host-file token (e.g. "cisco_nxos") to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown device kind %q (valid: %s)", s, kindList())
}

// Platform returns the vendor platform name for display.
func (k Kind) Platform() string {
	switch k {
	case KindIOS:
		return "IOS"
	case KindXR:
		return "IOS-XR"
	case KindNXOS:
		return "NX-OS"
	case KindASA:
		return "ASA"
	}
	return "unknown"
}

func (k Kind) String() string { return string(k) }

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Secret is a string that never prints its value through fmt.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "******"
}

// GoString keeps %#v from leaking the value.
func (s Secret) GoString() string { return s.String() }

// Reveal returns the raw value for handing to the transport.
func (s Secret) Reveal() string { return string(s) }

// Credentials are captured once per run and shared read-only by all tasks.
type Credentials struct {
	Username string
	Password Secret
	Enable   Secret // optional privileged-exec secret
}

// Session is an authenticated interactive connection to one device.
type Session interface {
	// RunCommand sends one command and returns its output.
	RunCommand(ctx context.Context, command string) (string, error)
	// ApplyConfig sends lines as a single configuration batch and returns
	// the device transcript.
	ApplyConfig(ctx context.Context, lines []string) (string, error)
	// Close tears the session down. Callers treat errors as best-effort.
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context, kind Kind, address string, creds Credentials) (Session, error)
}

// DialerFunc adapts an ordinary function to the Dialer interface.
type DialerFunc func(ctx context.Context, kind Kind, address string, creds Credentials) (Session, error)

func (f DialerFunc) Dial(ctx context.Context, kind Kind, address string, creds Credentials) (Session, error) {
	return f(ctx, kind, address, creds)
}
