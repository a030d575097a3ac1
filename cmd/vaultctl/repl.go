package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/vaultcore"
	"github.com/calvinalkan/vaultcore/internal/reconcile"
)

// replCompletions is the fixed command list liner completes against.
var replCompletions = []string{
	"search", "browse", "open", "journal", "reindex", "help", "exit", "quit", "q",
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".vaultctl_history")
}

// runREPL starts an interactive liner-backed command loop over v: prompt,
// history file, tab completion, and a small fixed verb set.
func runREPL(ctx context.Context, v *vaultcore.Vault) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(s string) []string {
		var out []string

		lower := strings.ToLower(s)
		for _, c := range replCompletions {
			if strings.HasPrefix(c, lower) {
				out = append(out, c)
			}
		}

		return out
	})

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println("vaultctl - type 'help' for commands, 'exit' to quit")

	for {
		input, err := line.Prompt("vault> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nbye")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if done := dispatchREPLLine(ctx, v, input); done {
			break
		}
	}

	saveHistory(line)

	return nil
}

func saveHistory(line *liner.State) {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = line.WriteHistory(f)
}

func dispatchREPLLine(ctx context.Context, v *vaultcore.Vault, input string) (exit bool) {
	parts := strings.Fields(input)
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "exit", "quit", "q":
		fmt.Println("bye")
		return true

	case "help", "?":
		printREPLHelp()

	case "search":
		if err := cmdSearch(ctx, v, args); err != nil {
			fmt.Println("error:", err)
		}

	case "browse":
		if err := cmdBrowse(ctx, v, args); err != nil {
			fmt.Println("error:", err)
		}

	case "open":
		if err := cmdOpen(ctx, v, args); err != nil {
			fmt.Println("error:", err)
		}

	case "journal":
		if err := cmdJournal(ctx, v); err != nil {
			fmt.Println("error:", err)
		}

	case "reindex":
		if err := v.IndexNotes(ctx, reconcile.ValidationFull); err != nil {
			fmt.Println("error:", err)
		} else {
			fmt.Println("reindexed")
		}

	default:
		fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return false
}

func printREPLHelp() {
	fmt.Println("Commands:")
	fmt.Println("  search <query>       run a query-language search")
	fmt.Println("  browse [path]        walk path, list its entries, sync the index")
	fmt.Println("  open <path>          open-or-search by name or path")
	fmt.Println("  journal              open or create today's journal entry")
	fmt.Println("  reindex              full-validation reindex of the root")
	fmt.Println("  help                 show this help")
	fmt.Println("  exit / quit / q      leave the REPL")
}
