package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// StoreOptions holds flags for commands that use the flow database.
type StoreOptions struct {
	*RootOptions
	Database string // SQLite database path
}

// ImportResult is the payload of import.
type ImportResult struct {
	Path     string `json:"path"`
	Imported int    `json:"imported"`
	Stored   int    `json:"stored"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <flows-file>",
		Short: "Store flows in a SQLite database",
		Long: `Load flows from a .yaml, .yml, .json or .cue file and write them to the
database. Flows with an existing id are replaced. The import is atomic.

Examples:
  flowfilt import --db flows.db capture.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *StoreOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	flows, err := loadFlows(formatter, path)
	if err != nil {
		return err
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if err := st.PutFlows(ctx, flows); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	stored, err := st.CountFlows(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	slog.Debug("flows imported", "path", path, "db", opts.Database, "count", len(flows))

	result := ImportResult{Path: path, Imported: len(flows), Stored: stored}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s imported %d flow(s) from %s (%d stored)\n",
		okColor.Sprint("✓"), result.Imported, path, result.Stored)
	return nil
}
