package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"sjsage522/projectwatcher/internal/filter"
)

// runConsole serves filter edits and listings typed on in while the loop
// runs. It returns when in is exhausted or ctx is done.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, a *app) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "filters", "f":
			editFilters(scanner, out, a)
		case "list", "l":
			page := 1
			if len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					page = n
				}
			}
			now := time.Now()
			l, err := loadListing(ctx, a.store, a.settings.Filter(), now, page, a.cfg.PageSize)
			if err != nil {
				fmt.Fprintf(out, "Listing failed: %v\n", err)
				continue
			}
			renderListing(out, l, now)
		case "open", "o":
			if len(fields) < 2 {
				fmt.Fprintln(out, "Usage: open <id>")
				continue
			}
			openProject(ctx, out, a, fields[1])
		case "help", "h", "?":
			fmt.Fprintln(out, "Commands: filters | list [page] | open <id> | help")
		default:
			fmt.Fprintf(out, "Unknown command %q, type help\n", fields[0])
		}
	}
}

// editFilters prompts for both bounds. Alerts are held back until the editor
// closes, whether or not the new filter is accepted.
func editFilters(scanner *bufio.Scanner, out io.Writer, a *app) {
	a.settings.BeginEdit()
	defer a.settings.EndEdit()

	cur := a.settings.Filter()
	fmt.Fprintf(out, "Current filter: %s\n", cur)

	minAge, ok := promptInt(scanner, out, "Min age in days", cur.MinAgeDays)
	if !ok {
		return
	}
	maxAge, ok := promptInt(scanner, out, "Max age in days", cur.MaxAgeDays)
	if !ok {
		return
	}

	f := filter.RecencyFilter{MinAgeDays: minAge, MaxAgeDays: maxAge}
	if err := a.settings.Save(f); err != nil {
		fmt.Fprintf(out, "Rejected: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Saved filter: %s\n", f)
}

// promptInt reads one integer; an empty line keeps def
func promptInt(scanner *bufio.Scanner, out io.Writer, label string, def int) (int, bool) {
	fmt.Fprintf(out, "%s (-1 for unset, enter keeps %d): ", label, def)
	if !scanner.Scan() {
		return 0, false
	}

	text := strings.TrimSpace(scanner.Text())
	if text == "" {
		return def, true
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		fmt.Fprintf(out, "\n%q is not a number, filter unchanged\n", text)
		return 0, false
	}
	return n, true
}

// openProject opens the stored project with the given ID in the browser
func openProject(ctx context.Context, out io.Writer, a *app, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Fprintf(out, "%q is not a project id\n", arg)
		return
	}

	recs, err := a.store.List(ctx, 0, 0)
	if err != nil {
		fmt.Fprintf(out, "Listing failed: %v\n", err)
		return
	}
	for _, r := range recs {
		if r.ID != id {
			continue
		}
		if err := a.openURL(r.URL); err != nil {
			fmt.Fprintf(out, "Could not open %s: %v\n", r.URL, err)
			return
		}
		fmt.Fprintf(out, "Opened %s\n", r.URL)
		return
	}
	fmt.Fprintf(out, "No stored project with id %d\n", id)
}
