// Package cli wires configuration, storage and the HTTP server behind the
// facetimer command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the root command
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "facetimer",
		Short: "Countdown timer backend with urgency classification",
		Long: `facetimer serves countdown timers over HTTP. Each timer reports how
urgent it is as a level, a colour and a facial expression, and a background
ticker counts active timers down.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./config.yaml)")

	root.AddCommand(
		newServeCommand(&configFile),
		newMigrateCommand(&configFile),
		newTimersCommand(&configFile),
	)
	return root
}
