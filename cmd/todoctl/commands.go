package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	domain "github.com/example/todo-demo/domain/todo"
	"github.com/example/todo-demo/storage"
	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
)

// env is what a command runs against.
type env struct {
	out    io.Writer
	errOut io.Writer
	repo   storage.Repository
	now    func() time.Time
}

func (e *env) println(a ...any) {
	fmt.Fprintln(e.out, a...)
}

// command is one todoctl subcommand.
type command struct {
	// usage starts with the command name, e.g. "show <id>".
	usage string
	short string
	flags *flag.FlagSet
	// minArgs is the number of positional arguments required.
	minArgs int
	// maxArgs is the number of positional arguments allowed; -1 means any.
	maxArgs int
	exec    func(ctx context.Context, e *env, args []string) error
}

func (c *command) parse(args []string) ([]string, error) {
	c.flags.SetOutput(io.Discard)
	if err := c.flags.Parse(args); err != nil {
		return nil, err
	}
	rest := c.flags.Args()
	if len(rest) < c.minArgs {
		return nil, fmt.Errorf("%s: missing argument", c.name())
	}
	if c.maxArgs >= 0 && len(rest) > c.maxArgs {
		return nil, fmt.Errorf("%s: too many arguments", c.name())
	}
	return rest, nil
}

func (c *command) printHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: todoctl", c.usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.short)
	if c.flags.HasFlags() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		var buf strings.Builder
		c.flags.SetOutput(&buf)
		c.flags.PrintDefaults()
		fmt.Fprint(w, buf.String())
	}
}

func commands() []*command {
	return []*command{
		lsCommand(),
		showCommand(),
		addCommand(),
		editCommand(),
		doneCommand(),
		rmCommand(),
		exportCommand(),
		importCommand(),
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func lsCommand() *command {
	fs := newFlagSet("ls")
	status := fs.String("status", domain.StatusAll, "Filter by status: all, todo, in_progress, done")
	query := fs.String("q", "", "Search title and description")
	sort := fs.String("sort", domain.DefaultSort, "Sort key, '-' prefix for descending")
	asJSON := fs.Bool("json", false, "Print JSON")

	return &command{
		usage:   "ls [flags]",
		short:   "List todos",
		flags:   fs,
		maxArgs: 0,
		exec: func(ctx context.Context, e *env, _ []string) error {
			items, err := e.repo.List(ctx)
			if err != nil {
				return err
			}
			items = domain.Query(items, domain.ListOptions{Status: *status, Query: *query, Sort: *sort})
			if items == nil {
				items = []domain.Todo{}
			}

			if *asJSON {
				return printJSON(e.out, struct {
					Items []domain.Todo `json:"items"`
					Total int           `json:"total"`
				}{items, len(items)})
			}
			return printTable(e, items)
		},
	}
}

func showCommand() *command {
	return &command{
		usage:   "show <id>",
		short:   "Show one todo as JSON",
		flags:   newFlagSet("show"),
		minArgs: 1,
		maxArgs: 1,
		exec: func(ctx context.Context, e *env, args []string) error {
			t, ok, err := e.repo.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNotFound
			}
			return printJSON(e.out, t)
		},
	}
}

// todoFlags are the record fields shared by add and edit.
type todoFlags struct {
	fs          *flag.FlagSet
	title       *string
	description *string
	status      *string
	priority    *string
	due         *string
	tags        *string
}

func newTodoFlags(name string) todoFlags {
	fs := newFlagSet(name)
	return todoFlags{
		fs:          fs,
		title:       fs.StringP("title", "t", "", "Title (required, max 200)"),
		description: fs.StringP("description", "d", "", "Description (max 2000)"),
		status:      fs.String("status", "", "Status: todo, in_progress, done"),
		priority:    fs.StringP("priority", "p", "", "Priority: low, medium, high"),
		due:         fs.String("due", "", "Due date YYYY-MM-DD"),
		tags:        fs.String("tags", "", "Comma-separated tags"),
	}
}

func (f todoFlags) input() domain.Input {
	return domain.Input{
		Title:       *f.title,
		Description: *f.description,
		Status:      *f.status,
		Priority:    *f.priority,
		DueDate:     *f.due,
		Tags:        domain.ParseTags(*f.tags),
	}
}

// patch carries only the flags given on the command line.
func (f todoFlags) patch() domain.Patch {
	var p domain.Patch
	if f.fs.Changed("title") {
		p.Title = f.title
	}
	if f.fs.Changed("description") {
		p.Description = f.description
	}
	if f.fs.Changed("status") {
		p.Status = f.status
	}
	if f.fs.Changed("priority") {
		p.Priority = f.priority
	}
	if f.fs.Changed("due") {
		p.DueDate = f.due
	}
	if f.fs.Changed("tags") {
		tags := domain.ParseTags(*f.tags)
		p.Tags = &tags
	}
	return p
}

func addCommand() *command {
	f := newTodoFlags("add")
	return &command{
		usage:   "add --title <title> [flags]",
		short:   "Create a todo",
		flags:   f.fs,
		maxArgs: 0,
		exec: func(ctx context.Context, e *env, _ []string) error {
			t, err := e.repo.Create(ctx, f.input())
			if err != nil {
				return err
			}
			e.println("Created", t.ID)
			return nil
		},
	}
}

func editCommand() *command {
	f := newTodoFlags("edit")
	return &command{
		usage:   "edit <id> [flags]",
		short:   "Change the given fields of a todo",
		flags:   f.fs,
		minArgs: 1,
		maxArgs: 1,
		exec: func(ctx context.Context, e *env, args []string) error {
			t, err := e.repo.Update(ctx, args[0], f.patch())
			if err != nil {
				return err
			}
			e.println("Updated", t.ID)
			return nil
		},
	}
}

func doneCommand() *command {
	return &command{
		usage:   "done <id>...",
		short:   "Mark todos done",
		flags:   newFlagSet("done"),
		minArgs: 1,
		maxArgs: -1,
		exec: func(ctx context.Context, e *env, args []string) error {
			res, err := e.repo.BulkAction(ctx, domain.BulkRequest{Action: domain.BulkComplete, IDs: args})
			if err != nil {
				return err
			}
			e.println("Completed", res.Updated)
			return nil
		},
	}
}

func rmCommand() *command {
	return &command{
		usage:   "rm <id>...",
		short:   "Delete todos",
		flags:   newFlagSet("rm"),
		minArgs: 1,
		maxArgs: -1,
		exec: func(ctx context.Context, e *env, args []string) error {
			res, err := e.repo.BulkAction(ctx, domain.BulkRequest{Action: domain.BulkDelete, IDs: args})
			if err != nil {
				return err
			}
			e.println("Deleted", res.Updated)
			return nil
		},
	}
}

func exportCommand() *command {
	fs := newFlagSet("export")
	outPath := fs.StringP("out", "o", "", "Write to file instead of stdout")

	return &command{
		usage:   "export [--out file]",
		short:   "Write all todos as an export document",
		flags:   fs,
		maxArgs: 0,
		exec: func(ctx context.Context, e *env, _ []string) error {
			data, err := e.repo.ExportJSON(ctx)
			if err != nil {
				return err
			}
			if *outPath == "" {
				_, err := e.out.Write(append(data, '\n'))
				return err
			}
			if err := atomic.WriteFile(*outPath, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("writing %s: %w", *outPath, err)
			}
			e.println("Exported to", *outPath)
			return nil
		},
	}
}

func importCommand() *command {
	return &command{
		usage:   "import <file>",
		short:   "Load todos from an export document",
		flags:   newFlagSet("import"),
		minArgs: 1,
		maxArgs: 1,
		exec: func(ctx context.Context, e *env, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			n, err := e.repo.ImportJSON(ctx, data)
			if err != nil {
				return err
			}
			e.println("Imported", n)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable lists todos one per line. Overdue due dates get a trailing '!'.
func printTable(e *env, items []domain.Todo) error {
	if len(items) == 0 {
		e.println("No todos.")
		return nil
	}

	now := e.now()
	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE\tTAGS")
	for _, t := range items {
		due := "-"
		if t.DueDate != nil {
			due = *t.DueDate
			if domain.IsOverdue(t, now) {
				due += "!"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.Priority, due, t.Title, strings.Join(t.Tags, ","))
	}
	return tw.Flush()
}
