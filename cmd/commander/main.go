// Commander - bulk CLI runner for Cisco network devices
//
// commander reads a host directory of "<address>:<device_kind>" lines and a
// command file, opens an SSH session to every device (at most -p at a time)
// and either runs each line as a show command or pushes the whole file as
// one configuration batch.
//
// Usage:
//
//	commander -m show   --hf hosts.txt --cf show.txt -w        One <address>.txt per device
//	commander -m config --hf hosts.txt --cf change.txt -o -p 20
//	commander settings set workers 25                   Persist a default
//	commander audit list --failures --last 24h          Review past runs
//
// Per-device failures are printed, appended to error.txt and never stop the
// rest of the batch; the exit status only reflects invalid input.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/newtron-network/commander/pkg/audit"
	"github.com/newtron-network/commander/pkg/cli"
	"github.com/newtron-network/commander/pkg/commander"
	"github.com/newtron-network/commander/pkg/device/cisco"
	"github.com/newtron-network/commander/pkg/hostfile"
	"github.com/newtron-network/commander/pkg/settings"
	"github.com/newtron-network/commander/pkg/util"
)

// runFlags are the flags of the root (batch) command.
type runFlags struct {
	mode     string
	hostFile string
	cmdFile  string
	workers  int
	write    bool
	screen   bool

	port           int
	timeout        time.Duration
	commandTimeout time.Duration
	outputDir      string
	connectRate    float64
	profiles       string
	knownHosts     string
	user           string
	enable         bool
	legacyCrypto   bool
	strict         bool
}

var (
	flags runFlags

	// Global option flags
	auditLog string
	verbose  bool
	jsonLogs bool

	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "commander [-m show|config] --hf <hosts> --cf <commands> [-w] [-o]",
	Short:             "Run commands across a fleet of Cisco devices",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Args:              cobra.NoArgs,
	Long: `Commander opens an SSH session to every device in a host directory file
and runs a command file against it.

Host file lines are <address>:<device_kind>, with device_kind one of
cisco_ios, cisco_xr, cisco_nxos or cisco_asa. Other lines are skipped.

  -m show    run each command file line, in order, as a show command (default)
  -m config  send the whole command file as one configuration batch

Results go to <address>.txt (-w) and/or the screen (-o). Failures are
appended to error.txt. The SSH password is prompted once per run, or read
from COMMANDER_PASSWORD.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		util.SetVerbose(verbose)
		if jsonLogs {
			util.SetJSONFormat()
		}

		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}
		if auditLog == "" {
			auditLog = userSettings.AuditLog
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		applySettings(cmd.Flags().Changed, &flags, userSettings)
		if err := validateFlags(&flags); err != nil {
			return err
		}
		return runBatch(context.Background(), &flags)
	},
}

func init() {
	registerRunFlags(rootCmd.Flags(), &flags)

	rootCmd.PersistentFlags().StringVar(&auditLog, "audit-log", "", "JSON-lines audit log path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "diagnostic logs as JSON")

	rootCmd.AddCommand(settingsCmd, auditCmd, versionCmd)
}

// registerRunFlags binds the batch flags to f.
func registerRunFlags(fs *pflag.FlagSet, f *runFlags) {
	fs.StringVarP(&f.mode, "mode", "m", string(commander.ModeShow), "execution mode: show or config")
	fs.StringVar(&f.hostFile, "hf", "", "host directory file (<address>:<device_kind> per line)")
	fs.StringVar(&f.cmdFile, "cf", "", "command file")
	fs.IntVarP(&f.workers, "workers", "p", settings.DefaultWorkers, "maximum devices in flight")
	fs.BoolVarP(&f.write, "write", "w", false, "append results to <address>.txt")
	fs.BoolVarP(&f.screen, "output", "o", false, "print results to the screen")

	fs.IntVar(&f.port, "port", settings.DefaultPort, "SSH port")
	fs.DurationVar(&f.timeout, "timeout", settings.DefaultTimeout, "connect and login timeout")
	fs.DurationVar(&f.commandTimeout, "command-timeout", settings.DefaultCommandTimeout, "per-command timeout")
	fs.StringVar(&f.outputDir, "output-dir", "", "directory for <address>.txt and error.txt")
	fs.Float64Var(&f.connectRate, "connect-rate", 0, "maximum new sessions per second (0 = unlimited)")
	fs.StringVar(&f.profiles, "profiles", "", "YAML file overriding the built-in CLI profiles")
	fs.StringVar(&f.knownHosts, "known-hosts", "", "verify host keys against this known_hosts file")
	fs.StringVar(&f.user, "user", "", "SSH username (default: the local user)")
	fs.BoolVar(&f.enable, "enable", false, "prompt for an enable secret for devices that land in user exec")
	fs.BoolVar(&f.legacyCrypto, "legacy-crypto", false, "allow SHA-1 key exchanges and CBC ciphers for old images")
	fs.BoolVar(&f.strict, "strict", false, "treat '% Invalid input' style output as a failure")
}

// applySettings fills every flag the user did not set from persisted settings.
func applySettings(changed func(string) bool, f *runFlags, s *settings.Settings) {
	if !changed("workers") {
		f.workers = s.GetWorkers()
	}
	if !changed("port") {
		f.port = s.GetPort()
	}
	if !changed("timeout") {
		f.timeout = s.GetTimeout()
	}
	if !changed("command-timeout") {
		f.commandTimeout = s.GetCommandTimeout()
	}
	if !changed("output-dir") && s.OutputDir != "" {
		f.outputDir = s.OutputDir
	}
	if !changed("profiles") && s.Profiles != "" {
		f.profiles = s.Profiles
	}
}

func validateFlags(f *runFlags) error {
	v := &util.ValidationBuilder{}
	if _, err := commander.ParseMode(f.mode); err != nil {
		v.AddErrorf("-m: %v", err)
	}
	v.Add(f.hostFile != "", "--hf <host file> is required")
	v.Add(f.cmdFile != "", "--cf <command file> is required")
	v.Add(f.workers > 0, "-p must be at least 1")
	v.Add(f.port > 0 && f.port <= 65535, "--port must be between 1 and 65535")
	v.Add(f.timeout > 0, "--timeout must be positive")
	v.Add(f.commandTimeout > 0, "--command-timeout must be positive")
	v.Add(f.connectRate >= 0, "--connect-rate must not be negative")
	return v.Build()
}

func runBatch(ctx context.Context, f *runFlags) error {
	mode, _ := commander.ParseMode(f.mode)
	if !f.write && !f.screen {
		util.Warnf("neither -w nor -o given: command output will not be kept")
	}

	commands, err := commander.LoadCommandFile(f.cmdFile, mode)
	if err != nil {
		return err
	}
	scanner, hosts, err := hostfile.Open(f.hostFile)
	if err != nil {
		return err
	}
	defer hosts.Close()

	profiles, err := cisco.LoadProfiles(f.profiles)
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	creds, err := promptCredentials(f.user, f.enable)
	if err != nil {
		return err
	}

	if f.outputDir != "" {
		if err := os.MkdirAll(f.outputDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	dialer, err := cisco.NewDialer(cisco.Options{
		Port:           f.port,
		DialTimeout:    f.timeout,
		CommandTimeout: f.commandTimeout,
		LegacyCrypto:   f.legacyCrypto,
		KnownHostsFile: f.knownHosts,
		Strict:         f.strict,
		Profiles:       profiles,
	})
	if err != nil {
		return err
	}

	cli.SetColor(term.IsTerminal(int(os.Stdout.Fd())))
	reporter := commander.NewConsoleReporter()
	errLog := commander.NewErrorLog(filepath.Join(f.outputDir, commander.ErrorLogName))
	defer errLog.Close()

	engine := commander.NewEngine(dialer, reporter, errLog)
	engine.RunID = audit.NewRunID()
	if auditLog != "" {
		logger, err := audit.NewFileLogger(auditLog, audit.DefaultRotation())
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			defer logger.Close()
			engine.Audit = logger
		}
	}

	job := &commander.Job{
		Mode:     mode,
		Commands: commands,
		Output: commander.Output{
			WriteToFile:   f.write,
			PrintToScreen: f.screen,
			Dir:           f.outputDir,
		},
		Credentials: creds,
	}

	dispatcher := commander.NewDispatcher(engine, f.workers)
	dispatcher.SetConnectRate(f.connectRate)

	start := time.Now()
	summary := dispatcher.Run(ctx, scanner.Targets(reporter.Skipped), job)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading host file: %w", err)
	}

	util.WithRun(engine.RunID).Infof("%d devices, %d failed, %s",
		summary.Targets, summary.Failed, time.Since(start).Round(time.Millisecond))
	return nil
}
