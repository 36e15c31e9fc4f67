// Package cmd wires the projectwatcher command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sjsage522/projectwatcher/config"
	"sjsage522/projectwatcher/internal/store"
)

// Version is set at build time with -ldflags "-X sjsage522/projectwatcher/cmd.Version=..."
var Version = "dev"

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "projectwatcher",
		Short:        "Watch the 99freelas project listing and alert on new projects",
		Long:         "projectwatcher sweeps the project listing every interval, keeps a bounded history of projects and alerts when the newest one matches your recency filter.",
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCommand(),
		newSweepCommand(),
		newListCommand(),
		newFiltersCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line with ctx
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "projectwatcher %s\n", Version)
		},
	}
}

// loadConfig reads and validates the environment configuration
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the store named by the secrets file
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	secrets, err := config.LoadSecrets(cfg.SecretsFile)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, secrets.DatabaseURI)
}
