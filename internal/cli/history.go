package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semanteco/internal/config"
	"github.com/roach88/semanteco/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	RequestID string
	Limit     int
	ShowQuery bool
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	RequestID  string            `json:"request_id,omitempty"`
	Executions []store.Execution `json:"executions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the SPARQL execution log",
		Long: `Show queries recorded in the execution log.

Without --request the most recent executions are listed, newest first.
With --request every execution of that request is listed in sequence
order. The log path comes from the configuration's store field unless
--db is given.

Examples:
  semanteco history
  semanteco history --limit 5 --show-query
  semanteco history --db ./semanteco.db --request 01920c7e-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite execution log (overrides the configuration)")
	cmd.Flags().StringVar(&opts.RequestID, "request", "", "show the executions of one request")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of recent executions to show")
	cmd.Flags().BoolVar(&opts.ShowQuery, "show-query", false, "print the query text of each execution")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	path := opts.Database
	if path == "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return reportError(f, ExitCommandError, "failed to load configuration", err)
		}
		path = cfg.Store
	}
	if path == "" {
		return reportError(f, ExitCommandError, "no execution log",
			fmt.Errorf("configuration has no store and --db was not given"))
	}
	if opts.Limit <= 0 {
		return reportError(f, ExitCommandError, "invalid limit",
			fmt.Errorf("--limit must be positive, got %d", opts.Limit))
	}

	f.VerboseLog("Opening execution log %s", path)
	st, err := store.Open(path)
	if err != nil {
		return reportError(f, ExitCommandError, "failed to open execution log", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var executions []store.Execution
	if opts.RequestID != "" {
		executions, err = st.ReadExecutions(ctx, opts.RequestID)
	} else {
		executions, err = st.RecentExecutions(ctx, opts.Limit)
	}
	if err != nil {
		return reportError(f, ExitCommandError, "failed to read execution log", err)
	}
	if executions == nil {
		executions = []store.Execution{}
	}

	if opts.Format == "json" {
		return f.Success(HistoryResult{RequestID: opts.RequestID, Executions: executions})
	}

	w := cmd.OutOrStdout()
	if len(executions) == 0 {
		fmt.Fprintln(w, "No executions recorded.")
		return nil
	}
	for _, e := range executions {
		origin := e.Extension
		if origin == "" {
			origin = "-"
		}
		status := e.Outcome
		if e.ErrorCode != "" {
			status += " " + e.ErrorCode
		}
		fmt.Fprintf(w, "%s #%d %-6s %-22s %s (%d bytes)\n", e.RequestID, e.Seq, origin, status, e.QueryHash, e.ResponseBytes)
		if opts.ShowQuery {
			fmt.Fprintln(w, indent(e.QueryText, "    "))
		}
	}
	return nil
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	out := make([]byte, 0, len(s)+len(prefix))
	start := true
	for i := 0; i < len(s); i++ {
		if start && s[i] != '\n' {
			out = append(out, prefix...)
		}
		out = append(out, s[i])
		start = s[i] == '\n'
	}
	for len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return string(out)
}
