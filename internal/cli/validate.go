package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semanteco/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool             `json:"valid"`
	Endpoint   string           `json:"endpoint,omitempty"`
	Extensions []string         `json:"extensions,omitempty"`
	Store      string           `json:"store,omitempty"`
	Errors     []ValidationItem `json:"errors,omitempty"`
}

// ValidationItem is one configuration problem.
type ValidationItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration without contacting the endpoint",
		Long: `Load the configuration, unify it with the built-in schema and check
that every listed extension is known. Nothing is sent to the endpoint and
the execution log is not opened.

Exit codes:
  0 - Configuration is valid
  1 - Configuration is invalid`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	registry := config.DefaultRegistry()

	f.VerboseLog("Loading configuration from %s", opts.Config)
	cfg, err := loadConfig(opts, registry)
	if err != nil {
		return outputValidationError(f, toValidationItem(err))
	}

	f.VerboseLog("Known extensions: %s", strings.Join(registry.Names(), ", "))
	result := ValidationResult{
		Valid:      true,
		Endpoint:   cfg.Endpoint.URL,
		Extensions: cfg.Extensions,
		Store:      cfg.Store,
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	w := f.Writer
	fmt.Fprintln(w, "✓ Configuration valid")
	fmt.Fprintf(w, "  endpoint:   %s %s (timeout %s)\n", cfg.Endpoint.Method, cfg.Endpoint.URL, cfg.Endpoint.Timeout)
	fmt.Fprintf(w, "  extensions: %s\n", strings.Join(cfg.Extensions, ", "))
	if cfg.Store != "" {
		fmt.Fprintf(w, "  store:      %s\n", cfg.Store)
	}
	return nil
}

// toValidationItem extracts code and position from a config error.
func toValidationItem(err error) ValidationItem {
	var le *config.LoadError
	if !errors.As(err, &le) {
		return ValidationItem{Code: config.ErrCodeGeneric, Message: err.Error()}
	}

	item := ValidationItem{Code: le.Code, Message: le.Message}
	if le.Pos.IsValid() {
		item.File = le.Pos.Filename()
		item.Line = le.Pos.Line()
		item.Column = le.Pos.Column()
	}
	return item
}

func outputValidationError(f *OutputFormatter, item ValidationItem) error {
	if f.Format == "json" {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: []ValidationItem{item}},
			Error: &CLIError{
				Code:    item.Code,
				Message: item.Message,
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	if item.Line > 0 {
		fmt.Fprintf(f.Writer, "%s:%d:%d\n", item.File, item.Line, item.Column)
	}
	fmt.Fprintf(f.Writer, "  %s: %s\n", item.Code, item.Message)

	return NewExitError(ExitFailure, "validation failed")
}
