// Command vaultctl is a playground CLI and interactive REPL for a vault:
// it wires [vaultcore.Vault] up to a directory on disk, using the ambient
// config layer for vault root / log level and a liner-backed line editor
// for the REPL.
//
// Usage:
//
//	vaultctl [--vault <dir>] [--config <file>] init
//	vaultctl [--vault <dir>] search <query>
//	vaultctl [--vault <dir>] browse [path] [--recursive]
//	vaultctl [--vault <dir>] open <path>
//	vaultctl [--vault <dir>] journal
//	vaultctl [--vault <dir>] repl
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/vaultcore"
	"github.com/calvinalkan/vaultcore/internal/config"
	"github.com/calvinalkan/vaultcore/internal/reconcile"
	"github.com/calvinalkan/vaultcore/pkg/query"
	"github.com/calvinalkan/vaultcore/pkg/vaultpath"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("vaultctl", flag.ContinueOnError)

	vaultRoot := fs.StringP("vault", "C", "", "vault root directory (overrides config)")
	configPath := fs.StringP("config", "c", "", "path to a .vault.json config file")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage())
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cfg, _, err := config.Load(".", *configPath, config.Config{VaultRoot: *vaultRoot}, *vaultRoot != "", os.Environ())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	vault, err := vaultcore.Open(cfg.VaultRoot, vaultcore.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open vault at %s: %w", cfg.VaultRoot, err)
	}
	defer vault.Close()

	ctx := context.Background()
	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "init":
		return cmdInit(ctx, vault)
	case "search":
		return cmdSearch(ctx, vault, cmdArgs)
	case "browse":
		return cmdBrowse(ctx, vault, cmdArgs)
	case "open":
		return cmdOpen(ctx, vault, cmdArgs)
	case "journal":
		return cmdJournal(ctx, vault)
	case "config":
		return cmdConfig(cfg, cmdArgs)
	case "repl":
		return runREPL(ctx, vault)
	case "help", "-h", "--help":
		fmt.Println(usage())
		return nil
	default:
		return fmt.Errorf("unknown command: %s\n%s", cmd, usage())
	}
}

func usage() string {
	return `vaultctl - note vault engine playground CLI

Usage:
  vaultctl [--vault <dir>] [--config <file>] [-v] <command> [args]

Commands:
  init                 Validate or build the index
  search <query>       Run a query-language search
  browse [path]        Walk path (default: root), list its entries, sync the index
  open <path>          Open-or-search: resolve a bare name or exact path
  journal              Open (or create) today's journal entry
  config print         Print the resolved config as JSON
  config set-root <p>  Persist vault_root=<p> to the project config file
  repl                 Start an interactive REPL

Flags:
  -C, --vault <dir>    Vault root directory (overrides .vault.json)
  -c, --config <file>  Explicit config file path
  -v, --verbose        Enable debug logging`
}

func cmdInit(ctx context.Context, v *vaultcore.Vault) error {
	report, err := v.InitAndValidate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("indexed in %s\n", report.Duration)

	return nil
}

func cmdSearch(ctx context.Context, v *vaultcore.Vault, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: vaultctl search <query>")
	}

	rows, err := v.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	printRows(os.Stdout, rows)

	return nil
}

func cmdBrowse(ctx context.Context, v *vaultcore.Vault, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	recursive := fs.BoolP("recursive", "r", false, "recurse into subdirectories")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := vaultpath.Root()
	if rest := fs.Args(); len(rest) > 0 {
		path = vaultpath.New(rest[0])
	}

	count := 0

	for result := range v.BrowseVault(ctx, path, vaultcore.BrowseOptions{Recursive: *recursive}) {
		printResult(os.Stdout, result)
		count++
	}

	fmt.Printf("\n%d entries\n", count)

	return nil
}

func cmdOpen(ctx context.Context, v *vaultcore.Vault, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: vaultctl open <path>")
	}

	path := vaultpath.NotePathFrom(args[0])

	rows, err := v.OpenOrSearch(ctx, path)
	if err != nil {
		return err
	}

	switch len(rows) {
	case 0:
		fmt.Printf("no note matches %q\n", path.String())
	case 1:
		fmt.Printf("%s  %s\n", rows[0].Path, rows[0].Title)
	default:
		fmt.Printf("%d matches:\n", len(rows))

		for _, r := range rows {
			fmt.Printf("  %s  %s\n", r.Path, r.Title)
		}
	}

	return nil
}

func cmdConfig(cfg config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: vaultctl config <print|set-root> [args]")
	}

	switch args[0] {
	case "print":
		out, err := config.Format(cfg)
		if err != nil {
			return err
		}

		fmt.Println(out)

		return nil
	case "set-root":
		if len(args) < 2 {
			return errors.New("usage: vaultctl config set-root <path>")
		}

		cfg.VaultRoot = args[1]

		if err := config.Save(config.FileName, cfg); err != nil {
			return err
		}

		fmt.Printf("wrote %s\n", config.FileName)

		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

func cmdJournal(ctx context.Context, v *vaultcore.Vault) error {
	details, text, err := v.JournalEntry(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d bytes)\n\n%s\n", details.Path.String(), details.SizeBytes, text)

	return nil
}

func printRows(w io.Writer, rows []query.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}

	for _, r := range rows {
		fmt.Fprintf(w, "%-10s  %s\n", r.Path, r.Title)
	}

	fmt.Fprintf(w, "\n%d result(s)\n", len(rows))
}

func printResult(w io.Writer, result reconcile.SearchResult) {
	switch result.Kind {
	case reconcile.ResultDirectory:
		fmt.Fprintf(w, "%s/\n", result.Path)
	case reconcile.ResultAttachment:
		fmt.Fprintf(w, "%s\t(attachment)\n", result.Path)
	default:
		fmt.Fprintf(w, "%s\t%s\n", result.Path, result.Content.Title)
	}
}
