package commander

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/newtron-network/commander/pkg/device"
)

// fakeBehavior scripts one address for fakeDialer.
type fakeBehavior struct {
	dialErr   error
	replies   map[string]string
	fail      map[string]error
	panicOn   string
	configOut string
	configErr error
	closeErr  error
	delay     time.Duration
}

// fakeDialer hands out scripted sessions and records what they were asked to do.
type fakeDialer struct {
	mu      sync.Mutex
	devices map[string]*fakeBehavior
	ran     map[string][]string
	configs map[string][][]string
	closed  map[string]int
}

func newFakeDialer(devices map[string]*fakeBehavior) *fakeDialer {
	return &fakeDialer{
		devices: devices,
		ran:     map[string][]string{},
		configs: map[string][][]string{},
		closed:  map[string]int{},
	}
}

func (d *fakeDialer) Dial(_ context.Context, _ device.Kind, address string, _ device.Credentials) (device.Session, error) {
	b, ok := d.devices[address]
	if !ok {
		return nil, errors.New("dial tcp: no route to host")
	}
	if b.dialErr != nil {
		return nil, b.dialErr
	}
	return &fakeSession{d: d, address: address, b: b}, nil
}

func (d *fakeDialer) commands(address string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ran[address]...)
}

func (d *fakeDialer) closes(address string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed[address]
}

type fakeSession struct {
	d       *fakeDialer
	address string
	b       *fakeBehavior
}

func (s *fakeSession) RunCommand(_ context.Context, cmd string) (string, error) {
	s.d.mu.Lock()
	s.d.ran[s.address] = append(s.d.ran[s.address], cmd)
	s.d.mu.Unlock()

	if s.b.delay > 0 {
		time.Sleep(s.b.delay)
	}
	if cmd == s.b.panicOn {
		panic("driver bug")
	}
	if err := s.b.fail[cmd]; err != nil {
		return "", err
	}
	return s.b.replies[cmd], nil
}

func (s *fakeSession) ApplyConfig(_ context.Context, lines []string) (string, error) {
	s.d.mu.Lock()
	s.d.configs[s.address] = append(s.d.configs[s.address], lines)
	s.d.mu.Unlock()
	return s.b.configOut, s.b.configErr
}

func (s *fakeSession) Close() error {
	s.d.mu.Lock()
	s.d.closed[s.address]++
	s.d.mu.Unlock()
	return s.b.closeErr
}

// syncBuffer lets a ConsoleReporter and the test share a buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
