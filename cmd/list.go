package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"sjsage522/projectwatcher/internal/filter"
	"sjsage522/projectwatcher/internal/store"
)

// listing is one page of filter-eligible records
type listing struct {
	Records []store.Record
	Page    int
	Pages   int
	Total   int
}

// loadListing applies f as of now to every stored record and cuts out the
// requested 1-based page. pageSize <= 0 puts everything on a single page.
func loadListing(ctx context.Context, st store.Store, f filter.RecencyFilter, now time.Time, page, pageSize int) (listing, error) {
	all, err := st.List(ctx, 0, 0)
	if err != nil {
		return listing{}, err
	}
	matching := filter.Apply(all, func(r store.Record) time.Time { return r.PublishedAt }, f, now)

	if page < 1 {
		page = 1
	}
	l := listing{Page: page, Total: len(matching), Pages: 1}
	if pageSize <= 0 {
		l.Records = matching
		return l, nil
	}

	l.Pages = max(1, (len(matching)+pageSize-1)/pageSize)
	start := (page - 1) * pageSize
	if start >= len(matching) {
		return l, nil
	}
	end := min(start+pageSize, len(matching))
	l.Records = matching[start:end]
	return l, nil
}

// renderListing writes l as a table
func renderListing(w io.Writer, l listing, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault

	t.AppendHeader(table.Row{"ID", "Title", "Age", "Published", "URL"})
	for _, r := range l.Records {
		t.AppendRow(table.Row{
			r.ID,
			r.Title,
			fmt.Sprintf("%dd", filter.AgeDays(r.PublishedAt, now)),
			r.PublishedAt.Local().Format("2006-01-02 15:04"),
			r.URL,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("Page %d/%d", l.Page, l.Pages), "", "", fmt.Sprintf("%d projects", l.Total)})
	t.Render()
}

func newListCommand() *cobra.Command {
	var (
		page int
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored projects matching the recency filter, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			settings, err := loadSettings(cfg)
			if err != nil {
				return err
			}

			pageSize := cfg.PageSize
			if all {
				pageSize = 0
			}

			now := time.Now()
			l, err := loadListing(cmd.Context(), st, settings.Filter(), now, page, pageSize)
			if err != nil {
				return err
			}
			renderListing(cmd.OutOrStdout(), l, now)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to show")
	cmd.Flags().BoolVar(&all, "all", false, "Show every matching project on one page")
	return cmd
}
