// Package hostfile parses host directory files: one "<address>:<device_kind>"
// entry per line, e.g. "core1.smq:cisco_ios".
//
// Lines that do not match are reported as skips and never stop the parse.
package hostfile

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/newtron-network/commander/pkg/device"
	"github.com/newtron-network/commander/pkg/util"
)

// The address is greedy so IPv6 literals keep their colons.
var entryPattern = regexp.MustCompile(`^(.+):(cisco_ios|cisco_xr|cisco_nxos|cisco_asa)$`)

// Target is one device to operate on.
type Target struct {
	Address string
	Kind    device.Kind
	Line    int
}

func (t Target) String() string {
	return t.Address + ":" + string(t.Kind)
}

// Skip describes a line that was excluded from the target sequence.
type Skip struct {
	Line   int
	Raw    string
	Reason string
	Time   time.Time
}

// Err returns the skip as a *util.SkipError.
func (s *Skip) Err() error {
	return &util.SkipError{Line: s.Line, Raw: s.Raw, Reason: s.Reason}
}

// Entry is the result of parsing one line: exactly one of Target or Skip is set.
type Entry struct {
	Target *Target
	Skip   *Skip
}

// MaxLineLength is the longest host line kept; longer lines are skipped.
const MaxLineLength = 64 * 1024

// rawPreview bounds the Raw text stored for an overlong line.
const rawPreview = 80

// Scanner reads entries from a host directory.
type Scanner struct {
	r     *bufio.Reader
	line  int
	entry Entry
	err   error
	now   func() time.Time
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		r:   bufio.NewReader(r),
		now: time.Now,
	}
}

// Scan advances to the next line. It returns false at end of input or on a
// read error, which Err then reports.
func (s *Scanner) Scan() bool {
	raw, tooLong, err := s.readLine()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return false
	}
	s.line++
	if tooLong {
		s.entry = Entry{Skip: &Skip{
			Line:   s.line,
			Raw:    raw[:min(len(raw), rawPreview)] + "...",
			Reason: fmt.Sprintf("line longer than %d bytes", MaxLineLength),
			Time:   s.now(),
		}}
		return true
	}
	s.entry = s.parse(raw)
	return true
}

// readLine returns the next line without its terminator. Bytes past
// MaxLineLength are discarded and reported through tooLong.
func (s *Scanner) readLine() (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := s.r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if len(buf)+len(chunk) <= MaxLineLength {
			buf = append(buf, chunk...)
		} else {
			tooLong = true
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// Entry returns the entry produced by the last call to Scan.
func (s *Scanner) Entry() Entry {
	return s.entry
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) parse(raw string) Entry {
	line := strings.TrimSpace(raw)
	skip := func(reason string) Entry {
		return Entry{Skip: &Skip{Line: s.line, Raw: raw, Reason: reason, Time: s.now()}}
	}

	switch {
	case line == "":
		return skip("blank line")
	case strings.HasPrefix(line, "#"):
		return skip("comment")
	}

	m := entryPattern.FindStringSubmatch(line)
	if m == nil {
		return skip("expected <address>:<device_kind> with kind one of cisco_ios, cisco_xr, cisco_nxos, cisco_asa")
	}
	kind, err := device.ParseKind(m[2])
	if err != nil {
		return skip(err.Error())
	}
	return Entry{Target: &Target{Address: m[1], Kind: kind, Line: s.line}}
}

// Targets yields the valid targets from the scanner in file order, handing
// each skip to onSkip when it is non-nil.
func (s *Scanner) Targets(onSkip func(*Skip)) iter.Seq[Target] {
	return func(yield func(Target) bool) {
		for s.Scan() {
			e := s.Entry()
			if e.Skip != nil {
				if onSkip != nil {
					onSkip(e.Skip)
				}
				continue
			}
			if !yield(*e.Target) {
				return
			}
		}
	}
}

// Open opens a host directory file for scanning. The caller closes the
// returned file when done.
func Open(path string) (*Scanner, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening host file: %w", err)
	}
	return NewScanner(f), f, nil
}
