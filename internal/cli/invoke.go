package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Params []string
	List   bool
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <extension> <method>",
		Short: "Run an extension query method against the endpoint",
		Long: `Run a named query method of a configured extension and print its
response envelope: {"success":true,"data":[...]} or {"success":false}.

Missing or unknown parameters, extensions and methods are configuration
errors (exit code 2). A query that reached the endpoint and failed is
reported as {"success":false} (exit code 1).

Examples:
  semanteco invoke sites siteCounts
  semanteco invoke water queryForDataSources
  semanteco invoke air queryForMeasurements -p state=CO -p county=001 -p stateCode=08
  semanteco invoke --list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.List {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.List {
				return listMethods(opts, cmd)
			}
			return invokeMethod(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "request parameter key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list the available query methods")

	return cmd
}

func invokeMethod(opts *InvokeOptions, extension, method string, cmd *cobra.Command) error {
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
	resp, err := env.pipeline.Invoke(ctx, extension, method, req)
	if err != nil {
		code := ExitFailure
		if errorCode(err) == ErrCodeConfig {
			code = ExitCommandError
		}
		return reportError(f, code, "invoke failed", err)
	}

	if opts.Format == "json" {
		if err := f.SuccessFor(req.ID(), resp); err != nil {
			return err
		}
	} else {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	if !resp.Success {
		return NewExitError(ExitFailure, fmt.Sprintf("%s.%s failed", extension, method))
	}
	return nil
}

func listMethods(opts *InvokeOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	env, err := openEnvironment(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return reportError(f, ExitCommandError, "failed to set up", err)
	}
	defer env.close()

	methods := env.pipeline.Methods()
	if opts.Format == "json" {
		return f.Success(methods)
	}
	for _, ext := range sortedKeys(methods) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ext, strings.Join(methods[ext], ", "))
	}
	return nil
}
