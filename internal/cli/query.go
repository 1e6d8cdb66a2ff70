package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	StoreOptions
	Saved string // name of a saved filter to use instead of an expression
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "query [expr]",
		Short: "Select stored flows with a filter",
		Long: `Evaluate a filter expression against the flows in the database, in id
order. The indexed parts of the expression run as SQL; the rest is checked
in memory.

Either give an expression or name a saved filter with --saved.

Examples:
  flowfilt query --db flows.db '~c 500 & ~d api'
  flowfilt query --db flows.db --saved errors`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Saved, "saved", "", "use the saved filter with this name")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if (len(args) == 1) == (opts.Saved != "") {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "exactly one of <expr> and --saved is required", nil)
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	var expr string
	if opts.Saved != "" {
		saved, err := st.GetFilter(ctx, opts.Saved)
		if err != nil {
			return savedFilterError(formatter, opts.Saved, err)
		}
		expr = saved.Expression
		formatter.VerboseLog("Using saved filter %s: %s", saved.Name, expr)
	} else {
		expr = args[0]
	}

	pred, err := filter.Parse(expr)
	if err != nil {
		return reportFilterError(formatter, expr, err)
	}

	flows, err := st.QueryFlows(ctx, pred)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	total, err := st.CountFlows(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	result := MatchResult{
		Filter:      expr,
		Description: pred.Description(),
		Total:       total,
		Matched:     len(flows),
		Flows:       make([]FlowSummary, 0, len(flows)),
	}
	for _, f := range flows {
		result.Flows = append(result.Flows, summarize(f))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeFlowList(formatter.Writer, result)
	return nil
}

// savedFilterError reports a failed saved filter lookup.
func savedFilterError(f *OutputFormatter, name string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitFailure, ErrCodeFilterMissing, fmt.Sprintf("no saved filter named %q", name), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
}
