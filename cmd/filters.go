package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"sjsage522/projectwatcher/config"
	"sjsage522/projectwatcher/internal/filter"
)

func loadSettings(cfg *config.Config) (*config.Settings, error) {
	return config.LoadSettings(cfg.SettingsFile)
}

func renderFilter(w io.Writer, path string, f filter.RecencyFilter) {
	bound := func(v int) string {
		if v == filter.Unset {
			return "unset"
		}
		return fmt.Sprintf("%d days", v)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRow(table.Row{"min_age_days", bound(f.MinAgeDays)})
	t.AppendRow(table.Row{"max_age_days", bound(f.MaxAgeDays)})
	t.AppendFooter(table.Row{"file", path})
	t.Render()
}

func newFiltersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show or change the recency filter",
	}
	cmd.AddCommand(newFiltersShowCommand(), newFiltersSetCommand())
	return cmd
}

func newFiltersShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active recency filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(config.LoadConfig())
			if err != nil {
				return err
			}
			renderFilter(cmd.OutOrStdout(), settings.Path(), settings.Filter())
			return nil
		},
	}
}

func newFiltersSetCommand() *cobra.Command {
	var minAge, maxAge int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the recency filter (-1 leaves a bound unset)",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(config.LoadConfig())
			if err != nil {
				return err
			}

			f := settings.Filter()
			if cmd.Flags().Changed("min") {
				f.MinAgeDays = minAge
			}
			if cmd.Flags().Changed("max") {
				f.MaxAgeDays = maxAge
			}

			if err := settings.Save(f); err != nil {
				return fmt.Errorf("filter not saved: %w", err)
			}
			renderFilter(cmd.OutOrStdout(), settings.Path(), settings.Filter())
			return nil
		},
	}

	cmd.Flags().IntVar(&minAge, "min", filter.Unset, "Minimum age in days")
	cmd.Flags().IntVar(&maxAge, "max", filter.Unset, "Maximum age in days")
	return cmd
}
