package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/projectwatcher/config"
	"sjsage522/projectwatcher/internal/filter"
	"sjsage522/projectwatcher/internal/store"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, st store.Store, ages ...int) {
	t.Helper()
	for i, age := range ages {
		_, err := st.Insert(context.Background(), store.Record{
			Title:       fmt.Sprintf("Project %d", i),
			URL:         fmt.Sprintf("https://www.99freelas.com.br/project/p-%d", i),
			PublishedAt: now.Add(-time.Duration(age)*24*time.Hour - time.Hour),
		})
		require.NoError(t, err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadListing(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st, 0, 1, 2, 3, 4, 5, 6)

	f := filter.RecencyFilter{MinAgeDays: 1, MaxAgeDays: 5}

	l, err := loadListing(ctx, st, f, now, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, l.Total)
	assert.Equal(t, 3, l.Pages)
	require.Len(t, l.Records, 2)
	assert.Equal(t, "Project 1", l.Records[0].Title)
	assert.Equal(t, "Project 2", l.Records[1].Title)

	l, err = loadListing(ctx, st, f, now, 3, 2)
	require.NoError(t, err)
	require.Len(t, l.Records, 1)
	assert.Equal(t, "Project 5", l.Records[0].Title)

	l, err = loadListing(ctx, st, f, now, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, l.Records)

	l, err = loadListing(ctx, st, filter.None(), now, 1, 0)
	require.NoError(t, err)
	assert.Len(t, l.Records, 7)
	assert.Equal(t, 1, l.Pages)
}

func TestLoadListingFollowsFilterChanges(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st, 0, 3, 8)

	wide, err := loadListing(ctx, st, filter.None(), now, 1, 0)
	require.NoError(t, err)
	narrow, err := loadListing(ctx, st, filter.RecencyFilter{MinAgeDays: filter.Unset, MaxAgeDays: 2}, now, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, wide.Total)
	assert.Equal(t, 1, narrow.Total)
}

func TestRenderListing(t *testing.T) {
	var buf bytes.Buffer
	renderListing(&buf, listing{
		Records: []store.Record{{
			ID:          4,
			Title:       "Landing page em React",
			URL:         "https://www.99freelas.com.br/project/landing-4",
			PublishedAt: now.Add(-50 * time.Hour),
		}},
		Page:  1,
		Pages: 1,
		Total: 1,
	}, now)

	out := buf.String()
	assert.Contains(t, out, "Landing page em React")
	assert.Contains(t, out, "2d")
	assert.Contains(t, out, "Page 1/1")
}

func TestFiltersCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	t.Setenv("SETTINGS_FILE", path)

	out, err := execute(t, "filters", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "unset")

	out, err = execute(t, "filters", "set", "--min", "2", "--max", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "10 days")

	_, err = execute(t, "filters", "set", "--min", "10", "--max", "2")
	assert.Error(t, err)

	settings, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, filter.RecencyFilter{MinAgeDays: 2, MaxAgeDays: 10}, settings.Filter())

	// only the given bound changes
	_, err = execute(t, "filters", "set", "--max=-1")
	require.NoError(t, err)
	settings, err = config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, filter.RecencyFilter{MinAgeDays: 2, MaxAgeDays: filter.Unset}, settings.Filter())
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	dbURI := "sqlite://" + filepath.Join(dir, "projects.db")
	secrets := filepath.Join(dir, ".secrets.toml")
	require.NoError(t, os.WriteFile(secrets, []byte(fmt.Sprintf("DATABASE_URI = %q\n", dbURI)), 0o600))

	t.Setenv("SECRETS_FILE", secrets)
	t.Setenv("SETTINGS_FILE", filepath.Join(dir, "settings.yaml"))
	t.Setenv("PAGE_SIZE", "2")

	st, err := store.Open(context.Background(), dbURI)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := st.Insert(context.Background(), store.Record{
			Title:       fmt.Sprintf("Project %d", i),
			URL:         fmt.Sprintf("https://www.99freelas.com.br/project/p-%d", i),
			PublishedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Project 0")
	assert.Contains(t, out, "Project 1")
	assert.NotContains(t, out, "Project 2")
	assert.Contains(t, out, "Page 1/2")

	out, err = execute(t, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Project 2")
}

func TestListCommandWithoutSecrets(t *testing.T) {
	t.Setenv("SECRETS_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := execute(t, "list")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "projectwatcher "))
}

func newConsoleApp(t *testing.T) *app {
	t.Helper()
	settings, err := config.LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	st := store.NewMemoryStore()
	seed(t, st, 0, 1)
	return &app{
		cfg:      &config.Config{PageSize: 10},
		store:    st,
		settings: settings,
	}
}

func TestConsoleEditsFilter(t *testing.T) {
	a := newConsoleApp(t)
	var out bytes.Buffer

	runConsole(context.Background(), strings.NewReader("filters\n3\n7\n"), &out, a)

	assert.Equal(t, filter.RecencyFilter{MinAgeDays: 3, MaxAgeDays: 7}, a.settings.Filter())
	assert.False(t, a.settings.Editing())
	assert.Contains(t, out.String(), "Saved filter")
}

func TestConsoleRejectsInvalidFilter(t *testing.T) {
	a := newConsoleApp(t)
	var out bytes.Buffer

	runConsole(context.Background(), strings.NewReader("f\n9\n1\nf\n\nabc\n"), &out, a)

	assert.Equal(t, filter.None(), a.settings.Filter())
	assert.False(t, a.settings.Editing())
	assert.Contains(t, out.String(), "Rejected")
	assert.Contains(t, out.String(), "not a number")
}

func TestConsoleList(t *testing.T) {
	a := newConsoleApp(t)
	var out bytes.Buffer

	runConsole(context.Background(), strings.NewReader("list\nbogus\n"), &out, a)

	assert.Contains(t, out.String(), "Project 0")
	assert.Contains(t, out.String(), "Project 1")
	assert.Contains(t, out.String(), `Unknown command "bogus"`)
}

func TestConsoleOpensProject(t *testing.T) {
	a := newConsoleApp(t)
	var opened []string
	a.openURL = func(u string) error {
		opened = append(opened, u)
		return nil
	}
	var out bytes.Buffer

	runConsole(context.Background(), strings.NewReader("open 1\nopen 99\nopen x\nopen\n"), &out, a)

	assert.Equal(t, []string{"https://www.99freelas.com.br/project/p-0"}, opened)
	assert.Contains(t, out.String(), "Opened https://www.99freelas.com.br/project/p-0")
	assert.Contains(t, out.String(), "No stored project with id 99")
	assert.Contains(t, out.String(), `"x" is not a project id`)
	assert.Contains(t, out.String(), "Usage: open <id>")
}
