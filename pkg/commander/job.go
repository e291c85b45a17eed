// Package commander runs show or configuration commands across a fleet of
// devices: a bounded pool of tasks, one per target, each owning its own
// session and per-host log, with every failure contained to its target.
package commander

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/newtron-network/commander/pkg/device"
)

// TimeFormat is the clock format used in notices and the error log.
const TimeFormat = "15:04:05.000000"

// Mode selects the execution path for every target in a run.
type Mode string

const (
	ModeShow   Mode = "show"
	ModeConfig Mode = "config"
)

// ParseMode validates a -m flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeShow, ModeConfig:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (valid: show, config)", s)
}

// CommandSource holds the commands loaded once per run. In show mode each
// line is one command; in config mode Lines is sent as one batch.
type CommandSource struct {
	Lines []string
}

// MaxCommandLine is the longest command or config line accepted.
const MaxCommandLine = 1 << 20

// ReadCommands loads a command source for mode. Whitespace-only lines are
// dropped; config lines keep their indentation.
func ReadCommands(r io.Reader, mode Mode) (CommandSource, error) {
	var src CommandSource
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxCommandLine)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if mode == ModeShow {
			line = strings.TrimSpace(line)
		}
		src.Lines = append(src.Lines, line)
	}
	if err := scanner.Err(); err != nil {
		return CommandSource{}, fmt.Errorf("reading commands: %w", err)
	}
	if len(src.Lines) == 0 {
		return CommandSource{}, fmt.Errorf("command file has no commands")
	}
	return src, nil
}

// LoadCommandFile reads the command source at path.
func LoadCommandFile(path string, mode Mode) (CommandSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return CommandSource{}, fmt.Errorf("opening command file: %w", err)
	}
	defer f.Close()

	src, err := ReadCommands(f, mode)
	if err != nil {
		return CommandSource{}, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// Output controls where per-target results go.
type Output struct {
	WriteToFile   bool
	PrintToScreen bool
	Dir           string // directory for <address>.txt; "" is the working directory
}

// Job is the immutable configuration shared read-only by every task of a run.
type Job struct {
	Mode        Mode
	Commands    CommandSource
	Output      Output
	Credentials device.Credentials
}
