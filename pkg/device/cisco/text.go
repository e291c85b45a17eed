package cisco

import (
	"regexp"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// normalize converts PTY output to plain '\n'-separated text.
func normalize(s string) string {
	s = ansiEscape.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "")
}

func lastLine(s string) string {
	return s[strings.LastIndexByte(s, '\n')+1:]
}

// clean strips the echoed command from the head of out and the prompt
// from its tail.
func clean(out, command string) string {
	lines := strings.Split(normalize(out), "\n")
	if len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.HasSuffix(strings.TrimSpace(lines[0]), strings.TrimSpace(command)) {
		lines = lines[1:]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// promptHostname reduces a prompt such as "r1(config-if)#" or
// "RP/0/RSP0/CPU0:pe1#" to the part that stays stable across modes.
func promptHostname(prompt string) string {
	h := strings.TrimSpace(prompt)
	h = strings.TrimRight(h, "#>")
	if i := strings.IndexByte(h, '('); i > 0 {
		h = h[:i]
	}
	return h
}
