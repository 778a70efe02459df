// Package cli implements the flock command line.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// NewRootCmd builds the flock command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "flock",
		Short:   "Load test an endpoint with simulated admin-paths users",
		Version: version,
		Long: `flock runs simulated users that each wait a random 1-3 seconds and then
request GET /api/admin_paths/ with a 30 second timeout, over and over.

Users are scheduled by the boomer load framework, either standalone or as a
worker of a locust master:

  flock run --host http://localhost:8000 --users 50 --spawn-rate 10 --run-time 5m
  flock worker --host http://localhost:8000 --master-host 10.0.0.5
  flock debug --host http://localhost:8000 --iterations 3
  flock validate flock.yaml
  flock serve --addr :8000`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	addCommonFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newDebugCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newServeCmd())

	return root
}

// Execute runs the root command with os.Args
func Execute() error {
	return NewRootCmd().Execute()
}

// addCommonFlags registers the flags shared by every command
func addCommonFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Configuration file (YAML or JSON)")
	flags.String("host", "", "Base URL of the system under test")
	flags.String("path", "", "Request path (default /api/admin_paths/)")
	flags.String("wait-min", "", "Minimum wait before each request, e.g. 1s or 1")
	flags.String("wait-max", "", "Maximum wait before each request, e.g. 3s or 3")
	flags.StringP("timeout", "t", "", "Request timeout (default 30s)")
	flags.String("network-timeout", "", "Connection timeout (default 30s)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("json", false, "Print the final report as JSON")
	flags.StringP("output", "o", "", "Write the final JSON report to a file")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
}
