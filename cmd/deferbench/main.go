// Package main provides the CLI entry point for deferbench, a benchmark
// harness for the per-callback cost of chained deferred continuations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/weiihann/deferbench/catalog"
	"github.com/weiihann/deferbench/harness"
	"github.com/weiihann/deferbench/report"
	"github.com/weiihann/deferbench/result"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "deferbench",
		Short: "Deferred callback chain benchmarking tool",
		Long: `Deferbench measures the per-callback cost of chaining continuations
on a deferred value across a fixed catalog of chain shapes, run both with
pre-resolved and with pending (blocked) units, and compares result files
produced by separate runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("parse --log-level: %w", err)
			}

			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(logger),
		newCompareCmd(),
		newListCmd(),
	)

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		configPath  string
		trials      int
		callbacks   int
		metricsFile string
		trace       bool
	)

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Run the benchmark catalog",
		Long: `Run every benchmark in the catalog and print the per-callback cost of
each. When a path is given the results are also written there as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := harness.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = harness.LoadConfig(configPath); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("trials") {
				cfg.Trials = trials
			}
			if flags.Changed("callbacks") {
				cfg.Callbacks = callbacks
			}
			if flags.Changed("metrics-file") {
				cfg.MetricsFile = metricsFile
			}
			if flags.Changed("trace") {
				cfg.Trace = trace
			}

			var output string
			if len(args) == 1 {
				output = args[0]
			}

			return runBenchmarks(cmd.Context(), cmd, logger, cfg, output)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "",
		"Path to a YAML config file")
	flags.IntVar(&trials, "trials", harness.DefaultConfig().Trials,
		"Base trial count, scaled per benchmark")
	flags.IntVar(&callbacks, "callbacks", harness.DefaultConfig().Callbacks,
		"Continuations chained per trial")
	flags.StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics to this file after the run")
	flags.BoolVar(&trace, "trace", false,
		"Export OpenTelemetry spans to stderr")

	return cmd
}

func runBenchmarks(
	ctx context.Context,
	cmd *cobra.Command,
	logger *slog.Logger,
	cfg harness.Config,
	output string,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	descs, err := catalog.Descriptors()
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	reg := prometheus.NewRegistry()

	metrics, err := harness.NewMetrics(reg)
	if err != nil {
		return err
	}

	opts := []harness.Option{harness.WithMetrics(metrics)}

	if cfg.Trace {
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("trace shutdown failed", slog.String("error", err.Error()))
			}
		}()

		opts = append(opts, harness.WithTracerProvider(tp))
	}

	logger.InfoContext(ctx, "starting benchmarks",
		slog.Int("benchmarks", len(descs)),
		slog.Int("trials", cfg.Trials),
		slog.Int("callbacks", cfg.Callbacks),
	)

	runner := harness.NewRunner(cfg, logger, opts...)

	set, err := runner.Run(ctx, descs)
	if err != nil {
		return err
	}

	if err := report.Results(cmd.OutOrStdout(), set); err != nil {
		return fmt.Errorf("print results: %w", err)
	}

	if output != "" {
		if err := result.WriteFile(output, set); err != nil {
			return err
		}

		logger.InfoContext(ctx, "results written", slog.String("path", output))
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics %s: %w", cfg.MetricsFile, err)
		}
	}

	logger.InfoContext(ctx, "benchmarks complete")

	return nil
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare path_a path_b",
		Short: "Compare two result files",
		Long: `Print, for every benchmark in path_a, the relative difference of its
per-callback cost in path_b, as a multiplier. Benchmarks with a baseline get
a second line comparing their cost net of the baseline.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := result.ReadFile(args[0])
			if err != nil {
				return err
			}

			b, err := result.ReadFile(args[1])
			if err != nil {
				return err
			}

			return report.Compare(cmd.OutOrStdout(), a, b)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the benchmark catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			descs, err := catalog.Descriptors()
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), catalog.Tree(descs))

			return err
		},
	}
}
