package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDomainsCommand creates the domains command.
func NewDomainsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "Print the domains described by the configured extensions",
		Long: `Collect domain descriptions (sources, regulations and data types)
from every configured extension and print them merged by domain URI.

Water sources are read from the endpoint. When that query fails the
domain is still listed, without sources.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDomains(rootOpts, cmd)
		},
	}

	return cmd
}

func runDomains(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	env, err := openEnvironment(opts, cmd.ErrOrStderr())
	if err != nil {
		return reportError(f, ExitCommandError, "failed to set up", err)
	}
	defer env.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req := env.pipeline.NewRequest(nil)
	domains, err := env.pipeline.Domains(ctx, req)
	if err != nil {
		return reportError(f, ExitFailure, "failed to collect domains", err)
	}

	if opts.Format == "json" {
		return f.SuccessFor(req.ID(), domains)
	}

	w := cmd.OutOrStdout()
	if len(domains) == 0 {
		fmt.Fprintln(w, "No domains.")
		return nil
	}
	for _, d := range domains {
		fmt.Fprintf(w, "%s <%s>\n", d.Label, d.URI)
		for _, s := range d.Sources {
			fmt.Fprintf(w, "  source      %s <%s>\n", s.Label, s.URI)
		}
		for _, r := range d.Regulations {
			fmt.Fprintf(w, "  regulation  %s <%s>\n", r.Label, r.URI)
		}
		for _, dt := range d.DataTypes {
			fmt.Fprintf(w, "  data type   %s (%s)\n", dt.Label, dt.Name)
		}
	}
	return nil
}
