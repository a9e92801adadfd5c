// Command todoctl manages todos from the terminal. It opens the same
// repository the server uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/example/todo-demo/config"
	domain "github.com/example/todo-demo/domain/todo"
	"github.com/example/todo-demo/internal/logging"
	"github.com/example/todo-demo/storage"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]))
}

type globalFlags struct {
	configPath string
	backend    string
	help       bool
}

// run is the entry point. It returns the exit code.
func run(ctx context.Context, out, errOut io.Writer, args []string) int {
	var g globalFlags
	fs := flag.NewFlagSet("todoctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	fs.StringVarP(&g.configPath, "config", "c", "", "Path to a TOML config file")
	fs.StringVar(&g.backend, "backend", "", "Storage backend: auto, sqlite or kv")
	fs.BoolVarP(&g.help, "help", "h", false, "Show help")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		printUsage(errOut)
		return 1
	}

	rest := fs.Args()
	if g.help || len(rest) == 0 {
		printUsage(out)
		return 0
	}

	cmd, ok := findCommand(rest[0])
	if !ok {
		fmt.Fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut)
		return 1
	}

	cmdArgs, err := cmd.parse(rest[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cmd.printHelp(out)
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		cmd.printHelp(errOut)
		return 1
	}

	cfg, err := loadConfig(g)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	// Storage lifecycle lines are noise on a terminal; only warnings show by
	// default.
	level := cfg.Log.Level
	if level == config.DefaultLogLevel {
		level = "warn"
	}
	logger, err := logging.NewWithOutput(level, cfg.Log.Format, errOut)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	repo, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer repo.Close()

	e := &env{out: out, errOut: errOut, repo: repo, now: time.Now}
	if err := cmd.exec(ctx, e, cmdArgs); err != nil {
		fmt.Fprintln(errOut, "error:", describe(err))
		return 1
	}
	return 0
}

func loadConfig(g globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.backend != "" {
		cfg.Storage.Backend = g.backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// describe appends the error code to todo errors.
func describe(err error) string {
	if code := domain.CodeOf(err); code != "" {
		return fmt.Sprintf("%s (%s)", err.Error(), code)
	}
	return err.Error()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: todoctl [--config file] [--backend auto|sqlite|kv] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-34s %s\n", c.usage, c.short)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'todoctl <command> --help' for command flags.")
}

func findCommand(name string) (*command, bool) {
	for _, c := range commands() {
		if c.name() == name {
			return c, true
		}
	}
	return nil, false
}

// name returns the command name (first word of usage).
func (c *command) name() string {
	name, _, _ := strings.Cut(c.usage, " ")
	return name
}
