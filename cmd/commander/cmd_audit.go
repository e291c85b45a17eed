package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/commander/pkg/audit"
	"github.com/newtron-network/commander/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the per-device audit log written when --audit-log (or the
audit_log setting) is set.

Every device of every run is logged with:
  - Timestamp and run ID
  - User and device
  - Mode and number of commands
  - Success/failure and duration

Examples:
  commander audit list --device core1.smq
  commander audit list --last 24h --failures
  commander audit list --run 3f2a... --json`,
}

var (
	auditDevice   string
	auditRun      string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditJSON     bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditLog == "" {
			return errors.New("no audit log configured: use --audit-log or 'commander settings set audit_log <path>'")
		}

		filter := audit.Filter{
			Device:      auditDevice,
			RunID:       auditRun,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}
		if auditLast != "" {
			d, err := parseSince(auditLast)
			if err != nil {
				return err
			}
			filter.StartTime = time.Now().Add(-d)
		}

		events, err := audit.ReadEvents(auditLog, filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(events)
		}
		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable(os.Stdout, "TIMESTAMP", "USER", "DEVICE", "MODE", "COMMANDS", "DURATION", "STATUS")
		failed := 0
		for _, e := range events {
			if !e.Success {
				failed++
			}
			t.StatusRow(e.Success,
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.User,
				e.Device,
				e.Mode,
				strconv.Itoa(e.Commands),
				e.Duration.Round(time.Millisecond).String(),
			)
		}
		if err := t.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d events, %d failed\n", t.Len(), failed)
		return nil
	},
}

// parseSince accepts Go durations plus a whole-day suffix ("7d").
func parseSince(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

func init() {
	auditListCmd.Flags().StringVar(&auditDevice, "device", "", "Filter by device")
	auditListCmd.Flags().StringVar(&auditRun, "run", "", "Filter by run ID")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h, 7d)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed devices")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditListCmd)
}
