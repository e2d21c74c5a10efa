// Package cli provides the command-line interface for logwindow.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logwindow/internal/cli/commands"
	"github.com/ccollicutt/logwindow/pkg/output"
)

// legacyFlags are the long flags the classic check_timed_logs plugin spelled
// with a single dash. They are rewritten to double dash before parsing so
// existing monitoring definitions keep working.
var legacyFlags = map[string]bool{
	"logfile":      true,
	"pattern":      true,
	"interval":     true,
	"warning":      true,
	"critical":     true,
	"timepattern":  true,
	"timeposition": true,
	"debug":        true,
	"verbose":      true,
	"help":         true,
	"version":      true,
}

// Execute runs the root command and returns the exit code.
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes the command line args and returns the exit code. Errors that
// escape a command are printed as an UNKNOWN status line on stdout, where
// monitoring systems look for it.
func Run(args []string, stdout, stderr io.Writer) int {
	commands.ExitCode = 0

	rootCmd := NewRootCommand()
	rootCmd.SetArgs(NormalizeArgs(args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing this itself
		_, _ = fmt.Fprintf(stdout, "%s - %v\n", output.StatusUnknown, err)
		return output.StatusUnknown.ExitCode()
	}
	return commands.ExitCode
}

// NormalizeArgs rewrites single-dash legacy long flags such as -logfile or
// -interval=5 to their double-dash form. Short flags, values and anything
// after "--" are left alone.
func NormalizeArgs(args []string) []string {
	normalized := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			normalized = append(normalized, args[i:]...)
			break
		}
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			name, _, _ := strings.Cut(arg[1:], "=")
			if legacyFlags[name] {
				arg = "-" + arg
			}
		}
		normalized = append(normalized, arg)
	}
	return normalized
}

// NewRootCommand creates the root cobra command. Run without a subcommand
// it performs the check.
func NewRootCommand() *cobra.Command {
	opts := &commands.CheckOptions{}

	rootCmd := &cobra.Command{
		Use:   "logwindow",
		Short: "Count recent log lines matching a pattern",
		Long: `logwindow is a monitoring check that counts the log lines matching a
pattern within the last few minutes and reports OK, WARNING, CRITICAL or
UNKNOWN with the matching exit code (0, 1, 2, 3).

To allow for rotating logfiles, any file that matches the passed filename and
was changed within the passed interval is checked. e.g. If you pass
/var/log/applog, this could match /var/log/applog.0, /var/log/applog.old and
so on. Compressed files are not supported.

Files are read newest line first and scanning stops at the first line older
than the interval.

Default time pattern is: %Y-%m-%d %H:%M:%S  => 2012-12-31 17:20:40
Example time patterns:
  BSD/Syslog:     %b %d %H:%M:%S                    => Dec 31 17:20:40
  Apache Logs:    %d/%b/%Y:%H:%M:%S (timeposition 3) => [31/Dec/2012:17:20:40
  Websphere Logs: %d-%b-%Y %I:%M:%S %p              => 31-Dec-2012 05:20:40 PM
  Nagios logs:    %s                                => 1361260238

Time position: each line is split into words on whitespace, and the time
position is the index of the first word of the date. A line starting with the
date has time position 0.

Default warning/critical threshold is 1: unless you change it you will only
get OK or CRITICAL, never WARNING.

The single-dash flags of the classic plugin (-logfile, -pattern, -interval,
-timepattern, ...) are accepted as well.`,
		Example: `  logwindow -l /var/log/app.log -p 'ERROR|FATAL' -i 5
  logwindow --logfile /var/log/messages --pattern sshd --interval 10 --timepattern '%b %d %H:%M:%S'
  logwindow --config checks/app.yaml --output json
  logwindow validate --config checks/app.yaml
  logwindow diagnose --config checks/app.yaml`,
		Version:       commands.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunCheck(cmd, opts)
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	commands.BindCheckFlags(rootCmd.PersistentFlags(), opts)

	// Add subcommands
	rootCmd.AddCommand(commands.NewDetectCommand(opts, &commands.DetectOptions{}))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(opts, &commands.DiagnoseOptions{}))
	rootCmd.AddCommand(commands.NewValidateCommand(opts))
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
