package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/store"
)

// NewFiltersCommand creates the filters command group.
func NewFiltersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage saved filter expressions",
		Long: `Save, list, show and delete named filter expressions in the database.
Saved filters can be used with "flowfilt query --saved <name>".`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newFiltersSaveCommand(opts))
	cmd.AddCommand(newFiltersListCommand(opts))
	cmd.AddCommand(newFiltersShowCommand(opts))
	cmd.AddCommand(newFiltersDeleteCommand(opts))

	return cmd
}

func newFiltersSaveCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "save <name> <expr>",
		Short:         "Validate and save a filter expression",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				saved, err := st.SaveFilter(context.Background(), args[0], args[1])
				if errors.Is(err, filter.ErrInvalidFilter) {
					return reportFilterError(f, args[1], err)
				}
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
				}
				if f.Format == "json" {
					return f.Success(saved)
				}
				fmt.Fprintf(f.Writer, "%s saved %s: %s\n", okColor.Sprint("✓"), saved.Name, saved.Description)
				return nil
			})
		},
	}
}

func newFiltersListCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved filters",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				saved, err := st.ListFilters(context.Background())
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
				}
				if f.Format == "json" {
					return f.Success(saved)
				}
				if len(saved) == 0 {
					fmt.Fprintln(f.Writer, "No saved filters.")
					return nil
				}
				for _, sf := range saved {
					fmt.Fprintf(f.Writer, "%s  %s\n", emphasisText.Sprint(sf.Name), sf.Expression)
				}
				return nil
			})
		},
	}
}

func newFiltersShowCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show a saved filter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				sf, err := st.GetFilter(context.Background(), args[0])
				if err != nil {
					return savedFilterError(f, args[0], err)
				}
				if f.Format == "json" {
					return f.Success(sf)
				}
				fmt.Fprintf(f.Writer, "name:        %s\n", sf.Name)
				fmt.Fprintf(f.Writer, "expression:  %s\n", sf.Expression)
				fmt.Fprintf(f.Writer, "description: %s\n", sf.Description)
				return nil
			})
		},
	}
}

func newFiltersDeleteCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved filter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				if err := st.DeleteFilter(context.Background(), args[0]); err != nil {
					return savedFilterError(f, args[0], err)
				}
				if f.Format == "json" {
					return f.Success(map[string]string{"deleted": args[0]})
				}
				fmt.Fprintf(f.Writer, "%s deleted %s\n", okColor.Sprint("✓"), args[0])
				return nil
			})
		},
	}
}

// withStore opens the database for the duration of fn.
func withStore(opts *StoreOptions, cmd *cobra.Command, fn func(*OutputFormatter, *store.Store) error) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)
	return fn(formatter, st)
}
