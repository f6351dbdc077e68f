package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hourbook/config"
	"hourbook/storage"
)

var deleteDBPath string

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one logged hours entry",
	Long: `Delete a single hours entry by its id.

An entry that is already assigned to a coder or project billing period is
refused. Before deletion, an interactive security prompt requires typing
exactly "Y".`,
	Example: `
  # Delete entry 42 (requires interactive confirmation)
  hourbook delete 42 --db ./hourbook.db
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q: %w", args[0], err)
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, id)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		return withDeleteStore(func(store *storage.Store) error {
			if err := store.DeleteEntry(id); err != nil {
				if errors.Is(err, storage.ErrEntryBilled) {
					return fmt.Errorf("entry %d is assigned to a billing period and cannot be deleted", id)
				}
				return err
			}
			fmt.Printf("Deleted entry %d\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "", "SQLite database path (default from config)")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, id int64) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete hours entry %d? Type Y to confirm: ", id); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(line) == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func withDeleteStore(fn func(*storage.Store) error) error {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return err
	}
	store, err := storage.Open(resolveDBPath(deleteDBPath, cfg))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
