package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flowfilt/internal/filter"
)

// CheckResult is the payload of a successful check.
type CheckResult struct {
	Valid       bool   `json:"valid"`
	Filter      string `json:"filter"`
	Description string `json:"description"`
	Canonical   string `json:"canonical"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <expr>",
		Short: "Parse a filter expression and explain it",
		Long: `Parse a filter expression without evaluating it.

Prints the human-readable description and the canonical form of a valid
expression. For an invalid one, prints the error with a caret under the
failing column.

Exit codes:
  0 - Expression is valid
  1 - Expression is invalid

Examples:
  flowfilt check '~d example.com & !~c 200'
  flowfilt check '~h "content-type: text/html"' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, expr string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	pred, err := filter.Parse(expr)
	if err != nil {
		return reportFilterError(formatter, expr, err)
	}

	result := CheckResult{
		Valid:       true,
		Filter:      expr,
		Description: pred.Description(),
		Canonical:   pred.Node().String(),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s valid filter\n", okColor.Sprint("✓"))
	fmt.Fprintf(w, "  %s %s\n", emphasisText.Sprint("description:"), result.Description)
	fmt.Fprintf(w, "  %s   %s\n", emphasisText.Sprint("canonical:"), result.Canonical)
	return nil
}
