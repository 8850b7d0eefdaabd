package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/querysparql"
)

// ComposeOptions holds flags for the compose command.
type ComposeOptions struct {
	*RootOptions
	Params  []string
	Execute bool
}

// ComposeResult is the JSON payload of the compose command.
type ComposeResult struct {
	Query    string          `json:"query"`
	Warnings []string        `json:"warnings,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose the site query from the configured extensions",
		Long: `Run every configured extension over an empty SELECT query, in
registration order, and print the resulting SPARQL.

With --execute the query is also sent to the configured endpoint using
the configured accept type, and the raw answer is printed.

Examples:
  semanteco compose
  semanteco compose --execute --format json
  semanteco compose --config ./deploy/semanteco.cue --param state=CO`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "request parameter key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "send the composed query to the endpoint")

	return cmd
}

func runCompose(opts *ComposeOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	params, err := parseParams(opts.Params)
	if err != nil {
		return reportError(f, ExitCommandError, "invalid parameters", err)
	}

	env, err := openEnvironment(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return reportError(f, ExitCommandError, "failed to set up", err)
	}
	defer env.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req := env.pipeline.NewRequest(params)
	q, err := env.pipeline.Compose(ctx, req)
	if err != nil {
		return reportError(f, ExitFailure, "composition failed", err)
	}

	text, err := querysparql.Compile(q)
	if err != nil {
		return reportError(f, ExitFailure, "compile failed", err)
	}

	result := ComposeResult{Query: text}
	if v := queryir.Validate(q); !v.Clean {
		result.Warnings = v.Warnings
		for _, w := range v.Warnings {
			req.Logger().Warn("composed query warning", "warning", w)
		}
	}

	if opts.Execute {
		ctx = executor.WithOrigin(ctx, executor.Origin{
			RequestID: req.ID(),
			Seq:       req.NextSeq,
		})
		raw, err := env.client.Execute(ctx, q, env.cfg.Endpoint.Accept)
		if err != nil {
			return reportError(f, ExitFailure, "query failed", err)
		}
		if opts.Format != "json" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		}
		if json.Valid(raw) {
			result.Response = raw
		} else {
			result.Response, _ = json.Marshal(string(raw))
		}
	}

	if opts.Format == "json" {
		return f.SuccessFor(req.ID(), result)
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
