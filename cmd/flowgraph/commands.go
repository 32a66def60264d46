package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/blueprint"
	"github.com/ib-77/flowgraph/pkg/flow/config"
	"github.com/ib-77/flowgraph/pkg/flow/engine"
)

type rootOptions struct {
	configPath string
}

type runOptions struct {
	workers int
	debug   bool
	reRaise bool
	timeout string
	trace   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "flowgraph",
		Short:         "Run dataflow graphs described in YAML",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config file")

	root.AddCommand(newRunCmd(opts), newValidateCmd(opts), newTasksCmd())
	return root
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <blueprint.yaml>",
		Short: "Run a blueprint and print its ordered results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, opts, &cfg); err != nil {
				return err
			}
			return runBlueprint(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], cfg, opts.trace)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "worker pool size, 0 runs tasks inline")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "round-trip every task through the payload codec")
	cmd.Flags().BoolVar(&opts.reRaise, "reraise", false, "fail on the first task error")
	cmd.Flags().StringVar(&opts.timeout, "timeout", "", "bound the run, e.g. 30s")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print spans to stderr")
	return cmd
}

// applyRunFlags overrides cfg with flags the user set explicitly.
func applyRunFlags(cmd *cobra.Command, opts *runOptions, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Engine.Workers = opts.workers
	}
	if flags.Changed("debug") {
		cfg.Engine.Debug = opts.debug
	}
	if flags.Changed("reraise") {
		cfg.Engine.ReRaise = opts.reRaise
	}
	if flags.Changed("timeout") {
		d, err := parseTimeout(opts.timeout)
		if err != nil {
			return err
		}
		cfg.Engine.Timeout = d
	}
	return cfg.Validate()
}

func runBlueprint(ctx context.Context, stdout, stderr io.Writer, path string, cfg config.Config, trace bool) error {
	logger, err := cfg.Logging.NewLogger(stderr)
	if err != nil {
		return err
	}

	engineOpts := []engine.Option{
		engine.WithQueueSize(cfg.Engine.QueueSize),
		engine.WithDebug(cfg.Engine.Debug),
		engine.WithLogger(logger),
	}

	if trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer func() {
			if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("trace provider shutdown", slog.String("error", err.Error()))
			}
		}()
		engineOpts = append(engineOpts, engine.WithTracerProvider(tp))
	}

	if cfg.Engine.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Engine.Timeout)
		defer cancel()
	}

	bp, err := blueprint.Load(path)
	if err != nil {
		return err
	}

	e := engine.New(ctx, append([]engine.Option{engine.WithWorkers(cfg.Engine.Workers)}, engineOpts...)...)
	defer e.ShutDown()

	g, err := bp.Build(ctx, e.Registry())
	if err != nil {
		return err
	}
	if err := e.Run(ctx, g.Output); err != nil {
		return err
	}

	values, err := g.Output.Values(cfg.Engine.ReRaise)
	if err != nil {
		return err
	}
	for i, v := range values {
		if f, ok := v.(*flow.Failure); ok {
			fmt.Fprintf(stdout, "%d\t%s: %s\n", i, f.Kind, f.Error())
			continue
		}
		fmt.Fprintf(stdout, "%d\t%v\n", i, v)
	}

	logger.Debug("pool stats", slog.Any("stats", e.Stats()))
	if g.Output.Interrupted() {
		return fmt.Errorf("run %q stopped before completion: %w", bp.Name, flow.ErrInterrupted)
	}
	return nil
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <blueprint.yaml>",
		Short: "Check a blueprint and print the size of every node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(root.configPath); err != nil {
				return err
			}
			bp, err := blueprint.Load(args[0])
			if err != nil {
				return err
			}
			g, err := bp.Build(cmd.Context(), engine.DefaultRegistry())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NODE\tKIND\tSIZE")
			for _, n := range g.Nodes() {
				fmt.Fprintf(w, "%s\t%s\t%d\n", n.Name, n.Kind, n.Size)
			}
			fmt.Fprintf(w, "output\t%s\t%d\n", g.Output.Kind(), g.Output.Size())
			return w.Flush()
		},
	}
}

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the built-in task kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range engine.DefaultRegistry().Kinds() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
