package commander

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HostLogPath returns the per-host log path for address.
func HostLogPath(dir, address string) string {
	name := strings.ReplaceAll(address, string(os.PathSeparator), "_") + ".txt"
	return filepath.Join(dir, name)
}

// appendHostLog appends block to the per-host log, creating it if absent.
// The block goes out in a single write so entries never interleave.
func appendHostLog(dir, address, block string) error {
	path := HostLogPath(dir, address)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening host log: %w", err)
	}
	if _, err := f.WriteString(block); err != nil {
		f.Close()
		return fmt.Errorf("writing host log %s: %w", path, err)
	}
	return f.Close()
}

func showBlock(command, output string) string {
	return fmt.Sprintf("Command: %s\n\n%s\n\n", command, output)
}

func configBlock(output string) string {
	return "Configuration Changes:\n\n" + output
}
