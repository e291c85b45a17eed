package commander

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/newtron-network/commander/pkg/cli"
	"github.com/newtron-network/commander/pkg/hostfile"
	"github.com/newtron-network/commander/pkg/util"
)

// Reporter receives the operator-visible notices of a run. Implementations
// must be safe for concurrent use; notices from different targets may
// arrive in any order.
type Reporter interface {
	Skipped(skip *hostfile.Skip)
	Connected(address string, at time.Time)
	Output(address, block string)
	Disconnected(address string, at time.Time)
	Failed(address string, err error, at time.Time)
}

// ConsoleReporter writes notices to a terminal or pipe. Each notice is
// written as one block so parallel workers never split each other's output.
type ConsoleReporter struct {
	W io.Writer

	mu sync.Mutex
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{W: os.Stdout}
}

// Skipped prints the skip notice; the reason goes to the diagnostic log.
func (r *ConsoleReporter) Skipped(skip *hostfile.Skip) {
	util.Logger.WithField("line", skip.Line).Debugf("host file: %v", skip.Err())
	r.write(fmt.Sprintf("\n%s\n\n", cli.Yellow(fmt.Sprintf(
		"----- Skipping blank or malformed Host File entry %q %s -----",
		skip.Raw, skip.Time.Format(TimeFormat)))))
}

func (r *ConsoleReporter) Connected(address string, at time.Time) {
	r.write(fmt.Sprintf("\n%s\n\n", cli.Green(fmt.Sprintf(
		"----- Connected to %s %s -----", address, at.Format(TimeFormat)))))
}

func (r *ConsoleReporter) Output(_ string, block string) {
	r.write(block)
}

func (r *ConsoleReporter) Disconnected(address string, at time.Time) {
	r.write(fmt.Sprintf("----- Disconnected From %s %s -----\n\n", address, at.Format(TimeFormat)))
}

func (r *ConsoleReporter) Failed(address string, err error, at time.Time) {
	r.write(fmt.Sprintf("%s\n%v\n\n", cli.Red(fmt.Sprintf(
		"----- Error connecting to %s %s -----", address, at.Format(TimeFormat))), err))
}

func (r *ConsoleReporter) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.W, s)
}
