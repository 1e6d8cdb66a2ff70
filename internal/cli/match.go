package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/flowfilt/internal/flow"
	"github.com/roach88/flowfilt/internal/view"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Highlight string // highlight expression
}

// FlowSummary is one selected flow in match and query output.
type FlowSummary struct {
	ID          string `json:"id"`
	Kind        string `json:"type"`
	Method      string `json:"method,omitempty"`
	URL         string `json:"url,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	Address     string `json:"address,omitempty"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// MatchResult is the payload of match and query.
type MatchResult struct {
	Filter      string        `json:"filter"`
	Description string        `json:"description"`
	Total       int           `json:"total"`
	Matched     int           `json:"matched"`
	Flows       []FlowSummary `json:"flows"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <expr> <flows-file>",
		Short: "Evaluate a filter against a flow file",
		Long: `Load flows from a .yaml, .yml, .json or .cue file and print the ones the
filter expression selects, in file order.

With --highlight, flows matching a second expression are marked with "*".

Exit codes:
  0 - Filter evaluated (even if nothing matched)
  1 - Invalid filter or highlight expression
  2 - Flow file missing or invalid

Examples:
  flowfilt match '~c 404' flows.yaml
  flowfilt match '~d example.com' flows.json --highlight '~m POST'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Highlight, "highlight", "", "mark flows matching this expression")

	return cmd
}

func runMatch(opts *MatchOptions, expr, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	flows, err := loadFlows(formatter, path)
	if err != nil {
		return err
	}

	list := view.New()
	if err := list.Receive(flows); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFlowLoad, err.Error(), nil)
	}
	if err := list.SetFilter(expr); err != nil {
		return reportFilterError(formatter, expr, err)
	}
	if err := list.SetHighlight(opts.Highlight); err != nil {
		return reportFilterError(formatter, opts.Highlight, err)
	}

	selected := list.View()
	result := MatchResult{
		Filter:      expr,
		Description: list.FilterDescription(),
		Total:       list.Len(),
		Matched:     len(selected),
		Flows:       make([]FlowSummary, 0, len(selected)),
	}
	for _, f := range selected {
		s := summarize(f)
		s.Highlighted = list.IsHighlighted(f.ID)
		result.Flows = append(result.Flows, s)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeFlowList(formatter.Writer, result)
	return nil
}

// summarize extracts the listed fields of a flow.
func summarize(f *flow.Flow) FlowSummary {
	s := FlowSummary{ID: f.ID, Kind: string(f.Kind)}
	if f.Request != nil {
		s.Method = f.Request.Method
		s.URL = f.Request.PrettyURL()
	}
	if f.Response != nil {
		s.StatusCode = f.Response.StatusCode
	}
	if f.ServerConn != nil && f.ServerConn.Address != nil {
		s.Address = f.ServerConn.Address.String()
	}
	return s
}

func writeFlowList(w io.Writer, r MatchResult) {
	for _, s := range r.Flows {
		marker := " "
		if s.Highlighted {
			marker = markerColor.Sprint("*")
		}
		target := s.URL
		if target == "" {
			target = s.Address
		}
		status := "-"
		if s.StatusCode != 0 {
			status = fmt.Sprint(s.StatusCode)
		}
		method := s.Method
		if method == "" {
			method = s.Kind
		}
		fmt.Fprintf(w, "%s %s  %s %s %s\n", marker, s.ID, method, target, status)
	}
	fmt.Fprintf(w, "%d of %d flow(s) match %s\n", r.Matched, r.Total, r.Description)
}
