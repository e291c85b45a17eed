// Package cli provides shared formatting helpers for the commander CLI.
package cli

import (
	"os"
	"sync/atomic"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled atomic.Bool

func init() {
	colorEnabled.Store(os.Getenv("NO_COLOR") == "")
}

// SetColor turns ANSI colors on or off, e.g. when stdout is not a terminal.
func SetColor(on bool) {
	colorEnabled.Store(on && os.Getenv("NO_COLOR") == "")
}

func paint(code, s string) string {
	if !colorEnabled.Load() {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("32", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("33", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("31", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("1", s) }
