package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/semanteco/internal/config"
	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/pipeline"
	"github.com/roach88/semanteco/internal/store"
)

// environment is everything a query command needs, built from the
// configuration file.
type environment struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store // nil when the configuration has no store
	client   *executor.Client
	pipeline *pipeline.Pipeline
	metrics  *prometheus.Registry
}

// newLogger builds the text logger used by every command. Verbose mode
// logs at debug level.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads opts.Config and checks its extension names against the
// built-in registry.
func loadConfig(opts *RootOptions, registry *config.Registry) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if err := registry.Check(cfg.Extensions); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openEnvironment loads the configuration and wires the store, executor
// and pipeline. The caller must call close.
func openEnvironment(opts *RootOptions, logW io.Writer) (*environment, error) {
	registry := config.DefaultRegistry()
	cfg, err := loadConfig(opts, registry)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	env := &environment{
		cfg:     cfg,
		logger:  newLogger(opts, logW),
		metrics: prometheus.NewRegistry(),
	}

	execOpts := []executor.Option{
		executor.WithMethod(cfg.Endpoint.Method),
		executor.WithTimeout(cfg.Endpoint.Timeout),
		executor.WithLogger(env.logger),
		executor.WithMetrics(executor.NewMetrics(env.metrics)),
	}
	if cfg.Store != "" {
		env.logger.Debug("opening execution log", "path", cfg.Store)
		st, err := store.Open(cfg.Store)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open execution log", err)
		}
		env.store = st
		execOpts = append(execOpts, executor.WithRecorder(st))
	}

	env.client, err = executor.New(cfg.Endpoint.URL, execOpts...)
	if err != nil {
		env.close()
		return nil, WrapExitError(ExitCommandError, "failed to create executor", err)
	}

	exts, err := registry.Build(cfg.Extensions, config.Deps{Executor: env.client})
	if err != nil {
		env.close()
		return nil, WrapExitError(ExitCommandError, "failed to build extensions", err)
	}

	pipeOpts := []pipeline.Option{pipeline.WithLogger(env.logger)}
	if cfg.StrictComposition {
		pipeOpts = append(pipeOpts, pipeline.WithStrictComposition())
	}
	env.pipeline, err = pipeline.New(exts, pipeOpts...)
	if err != nil {
		env.close()
		return nil, WrapExitError(ExitCommandError, "failed to create pipeline", err)
	}

	env.logger.Debug("environment ready",
		"endpoint", cfg.Endpoint.URL,
		"extensions", strings.Join(cfg.Extensions, ","),
		"strict", cfg.StrictComposition,
	)
	return env, nil
}

// close logs query metrics and releases the store.
func (e *environment) close() {
	e.logQueryCounts()
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing execution log", "error", err)
	}
}

// logQueryCounts logs the per-outcome query counters at debug level.
func (e *environment) logQueryCounts() {
	families, err := e.metrics.Gather()
	if err != nil {
		e.logger.Debug("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		if mf.GetName() != "semanteco_sparql_queries_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				e.logger.Debug("sparql queries",
					"outcome", label.GetValue(),
					"count", int64(m.GetCounter().GetValue()),
				)
			}
		}
	}
}

// parseParams turns repeated k=v flags into request parameters.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --param %q: want key=value", pair))
		}
		params[k] = v
	}
	return params, nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// errorCode maps an error to the code reported in CLIError.
func errorCode(err error) string {
	var le *config.LoadError
	switch {
	case errors.As(err, &le):
		return le.Code
	case pipeline.IsConfigError(err):
		return ErrCodeConfig
	case errors.Is(err, pipeline.ErrCompositionConflict):
		return ErrCodeComposition
	case executor.IsExecutionError(err):
		return string(executor.ErrorCodeOf(err))
	default:
		return config.ErrCodeGeneric
	}
}

// reportError writes err in the configured format and returns it as an
// ExitError with code.
func reportError(f *OutputFormatter, code int, message string, err error) error {
	if outErr := f.Error(errorCode(err), fmt.Sprintf("%s: %v", message, err), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(code, message, err)
}
