// Package cmd implements the CLI command structure for todone.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/todone/todone/internal/api"
	"github.com/todone/todone/internal/config"
	"github.com/todone/todone/internal/logging"
	"github.com/todone/todone/internal/share"
	"github.com/todone/todone/internal/todo"
	"github.com/todone/todone/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the todone CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todone", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	logger := logging.FromConfig(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
	client := api.New(cfg.APIBaseURL, cfg.Timeout(), logger,
		api.WithResponseValidation(cfg.ValidateResponses))

	// Determine the subcommand. With no arguments, a terminal gets the
	// interactive UI and a pipe gets a plain listing.
	subcommand := "ls"
	if ui.IsTTY(os.Stdout) {
		subcommand = "tui"
	}
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "ls":
		return lsCommand(ctx, client, remainingArgs)
	case "add":
		return addCommand(ctx, client, remainingArgs)
	case "done":
		return doneCommand(ctx, client, remainingArgs)
	case "rm":
		return rmCommand(ctx, client, remainingArgs)
	case "get":
		return getCommand(ctx, cfg, client, remainingArgs)
	case "share":
		return shareCommand(ctx, client, logger, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, client, logger)
	case "doctor":
		return doctorCommand(ctx, cfg, client)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// lsCommand fetches and prints the collection in server order.
func lsCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("todone ls", flag.ContinueOnError)
	onlyDone := fs.Bool("done", false, "Show only completed todos")
	onlyPending := fs.Bool("pending", false, "Show only pending todos")
	if err := fs.Parse(args); err != nil {
		return err
	}

	todos, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("fetching todos: %w", err)
	}

	printed := 0
	for _, t := range todos {
		if *onlyDone && !t.Done {
			continue
		}
		if *onlyPending && t.Done {
			continue
		}
		fmt.Println(formatTodo(t))
		printed++
	}
	if printed == 0 {
		fmt.Println("no todos")
	}
	return nil
}

// addCommand creates a new todo from the arguments.
func addCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("todone add", flag.ContinueOnError)
	title := fs.String("title", "", "Optional title")
	file := fs.String("file", "", "Path of a file to attach")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: todone add [-title t] [-file path] <description...>")
	}

	t := todo.Todo{
		Title:       *title,
		Description: strings.Join(fs.Args(), " "),
		Timestamp:   todo.NewTimestamp(),
	}
	if *file != "" {
		t.Document = &todo.Document{
			Filename: filepath.Base(*file),
			Path:     *file,
		}
	}

	created, err := client.Create(ctx, t)
	if err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	fmt.Printf("added #%d\n", created.ID)
	return nil
}

// doneCommand toggles completion state. The flip is computed here, once,
// from the record the server currently holds; the wire payload carries
// the new value untouched.
func doneCommand(ctx context.Context, client *api.Client, args []string) error {
	id, err := parseID("done", args)
	if err != nil {
		return err
	}

	t, err := findTodo(ctx, client, id)
	if err != nil {
		return err
	}

	t.Done = !t.Done
	if err := client.Update(ctx, *t, false); err != nil {
		return fmt.Errorf("updating todo %d: %w", id, err)
	}
	state := "pending"
	if t.Done {
		state = "done"
	}
	fmt.Printf("#%d is now %s\n", id, state)
	return nil
}

// rmCommand deletes a todo by id.
func rmCommand(ctx context.Context, client *api.Client, args []string) error {
	id, err := parseID("rm", args)
	if err != nil {
		return err
	}
	if err := client.Delete(ctx, todo.Todo{ID: id}); err != nil {
		return fmt.Errorf("deleting todo %d: %w", id, err)
	}
	fmt.Printf("deleted #%d\n", id)
	return nil
}

// getCommand downloads a todo's attachment into the download directory.
func getCommand(ctx context.Context, cfg *config.Config, client *api.Client, args []string) error {
	id, err := parseID("get", args)
	if err != nil {
		return err
	}

	t, err := findTodo(ctx, client, id)
	if err != nil {
		return err
	}

	data, err := client.Download(ctx, *t)
	if err != nil {
		return fmt.Errorf("downloading attachment of todo %d: %w", id, err)
	}

	path := filepath.Join(cfg.DownloadDir, t.AttachmentName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("saving attachment: %w", err)
	}
	fmt.Printf("saved %s\n", path)
	return nil
}

// shareCommand hands a todo to the platform share target. A missing
// target is a silent no-op, not an error.
func shareCommand(ctx context.Context, client *api.Client, logger *log.Logger, args []string) error {
	id, err := parseID("share", args)
	if err != nil {
		return err
	}

	t, err := findTodo(ctx, client, id)
	if err != nil {
		return err
	}

	title := t.Title
	if title == "" {
		title = "Todo"
	}
	content := share.Content{
		Title: title,
		Text:  fmt.Sprintf("%s (%s)", t.Description, t.Timestamp),
		URL:   client.BaseURL(),
	}

	target := share.Default()
	if !target.Available() {
		logger.Debug("no share target available")
		return nil
	}
	if err := share.Do(target, content); err != nil {
		return fmt.Errorf("sharing todo %d: %w", id, err)
	}
	fmt.Println("shared")
	return nil
}

// tuiCommand starts the interactive session.
func tuiCommand(ctx context.Context, cfg *config.Config, client *api.Client, logger *log.Logger) error {
	store := todo.NewStore()
	return ui.Run(ctx, cfg, client, store, share.Default(), logger)
}

// doctorCommand reports the effective configuration and API health.
func doctorCommand(ctx context.Context, cfg *config.Config, client *api.Client) error {
	fmt.Println("todone doctor")
	fmt.Println()
	fmt.Printf("  API URL:        %s\n", cfg.APIBaseURL)
	fmt.Printf("  Timeout:        %s\n", cfg.Timeout())
	fmt.Printf("  Download dir:   %s\n", cfg.DownloadDir)
	fmt.Printf("  Validate resp.: %v\n", cfg.ValidateResponses)
	fmt.Printf("  Share target:   available=%v\n", share.Default().Available())
	fmt.Println()

	if err := client.Ping(ctx); err != nil {
		fmt.Printf("  API check:      FAILED (%v)\n", err)
		return fmt.Errorf("api unreachable: %w", err)
	}
	fmt.Println("  API check:      ok")
	return nil
}

func versionCommand() error {
	fmt.Printf("todone %s\n", Version)
	return nil
}

// findTodo fetches the collection and returns the record with the given
// id. Line-mode commands are stateless, so each one starts from server
// truth.
func findTodo(ctx context.Context, client *api.Client, id int64) (*todo.Todo, error) {
	todos, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching todos: %w", err)
	}
	store := todo.NewStore()
	store.Replace(todos)
	t := store.Get(id)
	if t == nil {
		return nil, fmt.Errorf("todo %d not found", id)
	}
	return t, nil
}

func parseID(cmd string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: todone %s <id>", cmd)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not a todo id: %s", cmd, args[0])
	}
	return id, nil
}

func formatTodo(t todo.Todo) string {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	line := fmt.Sprintf("%4d. %s %s", t.ID, box, t.Description)
	if t.Title != "" {
		line = fmt.Sprintf("%4d. %s %s: %s", t.ID, box, t.Title, t.Description)
	}
	if t.Document != nil {
		line += fmt.Sprintf(" [%s]", t.AttachmentName())
	}
	return line + "  " + t.Timestamp
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `todone - terminal client for the To-Done list API

Usage:
  todone [flags] <command> [args]

Commands:
  tui              Interactive session (default on a terminal)
  ls               List todos (-done / -pending to filter)
  add <desc...>    Create a todo (-title, -file to attach)
  done <id>        Toggle completion
  rm <id>          Delete a todo
  get <id>         Download a todo's attachment
  share <id>       Share a todo via the platform share target
  doctor           Show configuration and check API reachability
  version          Show version
  help             Show this help

Flags:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  todone add "Buy milk"
  todone add -title Groceries -file list.txt "Weekly shopping"
  todone done 2
  TODONE_API_URL=https://todos.example.com todone ls
`)
}
