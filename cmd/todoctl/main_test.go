package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	domain "github.com/example/todo-demo/domain/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cli runs todoctl against a KV store in its own temp dir.
type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("KV_DRIVER", "file")
	return &cli{t: t, dir: t.TempDir()}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	c.t.Setenv("KV_DIR", c.dir)
	var out, errOut bytes.Buffer
	code := run(context.Background(), &out, &errOut, append([]string{"--backend", "kv"}, args...))
	return code, out.String(), errOut.String()
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	code, out, errOut := c.run(args...)
	require.Equal(c.t, 0, code, "todoctl %v: %s", args, errOut)
	return out
}

func (c *cli) add(args ...string) string {
	c.t.Helper()
	out := c.mustRun(append([]string{"add"}, args...)...)
	id, ok := strings.CutPrefix(strings.TrimSpace(out), "Created ")
	require.True(c.t, ok, "unexpected add output %q", out)
	return id
}

func (c *cli) show(id string) domain.Todo {
	c.t.Helper()
	var td domain.Todo
	require.NoError(c.t, json.Unmarshal([]byte(c.mustRun("show", id)), &td))
	return td
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), &out, &errOut, nil))
	assert.Contains(t, out.String(), "Usage: todoctl")

	out.Reset()
	assert.Equal(t, 1, run(context.Background(), &out, &errOut, []string{"frobnicate"}))
	assert.Contains(t, errOut.String(), "unknown command: frobnicate")

	out.Reset()
	assert.Equal(t, 0, run(context.Background(), &out, &errOut, []string{"add", "--help"}))
	assert.Contains(t, out.String(), "--title")
}

func TestRun_UnknownBackend(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), &out, &errOut, []string{"--backend", "mongo", "ls"})
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "unknown storage backend")
}

func TestAddAndList(t *testing.T) {
	c := newCLI(t)

	c.add("--title", "Buy milk", "--priority", "high", "--tags", "home,errands")
	c.add("--title", "Pay rent", "--due", "2000-01-01")

	table := c.mustRun("ls", "--sort", "title")
	lines := strings.Split(strings.TrimSpace(table), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[1], "Buy milk")
	assert.Contains(t, lines[1], "home,errands")
	assert.Contains(t, lines[2], "2000-01-01!", "overdue marker")

	var list struct {
		Items []domain.Todo `json:"items"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("ls", "--json", "--q", "MILK")), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, domain.PriorityHigh, list.Items[0].Priority)

	assert.Equal(t, "No todos.\n", c.mustRun("ls", "--status", "done"))
}

func TestAdd_ValidationError(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("add", "--title", "   ")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Title is required (TITLE_REQUIRED)")

	code, _, errOut = c.run("add", "--title", "x", "--due", "tomorrow")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "DATE_FMT")
}

func TestEdit_OnlyGivenFlags(t *testing.T) {
	c := newCLI(t)
	id := c.add("--title", "Write report", "--description", "Q3 numbers", "--tags", "work")

	c.mustRun("edit", id, "--priority", "high")
	td := c.show(id)
	assert.Equal(t, domain.PriorityHigh, td.Priority)
	require.NotNil(t, td.Description)
	assert.Equal(t, "Q3 numbers", *td.Description)
	assert.Equal(t, []string{"work"}, td.Tags)

	c.mustRun("edit", id, "--description", "", "--tags", "")
	td = c.show(id)
	assert.Nil(t, td.Description)
	assert.Empty(t, td.Tags)

	code, _, errOut := c.run("edit", "missing", "--title", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "NOT_FOUND")

	code, _, _ = c.run("edit")
	assert.Equal(t, 1, code, "id is required")
}

func TestDoneAndRm(t *testing.T) {
	c := newCLI(t)
	a := c.add("--title", "a")
	b := c.add("--title", "b")

	assert.Equal(t, "Completed 2\n", c.mustRun("done", a, b, "missing"))
	assert.Equal(t, "Completed 0\n", c.mustRun("done", a))
	assert.NotNil(t, c.show(a).CompletedAt)

	assert.Equal(t, "Deleted 1\n", c.mustRun("rm", a))
	code, _, _ := c.run("show", a)
	assert.Equal(t, 1, code)
}

func TestExportImport(t *testing.T) {
	src := newCLI(t)
	id := src.add("--title", "carry me", "--status", "in_progress")

	file := filepath.Join(t.TempDir(), "todos.json")
	src.mustRun("export", "--out", file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": 1`)

	stdout := src.mustRun("export")
	assert.Contains(t, stdout, id)

	dst := newCLI(t)
	assert.Equal(t, "Imported 1\n", dst.mustRun("import", file))
	assert.Equal(t, domain.StatusInProgress, dst.show(id).Status)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"todos": "nope"}`), 0o644))
	code, _, errOut := dst.run("import", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "BAD_JSON")
}
