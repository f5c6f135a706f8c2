// Package cli implements the juparc command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"juparc/internal/core/app"
	"juparc/internal/core/config"
	"juparc/internal/core/errors"
	"juparc/internal/shared/observability"
	"juparc/internal/ui/report"

	"github.com/spf13/cobra"
)

const versionString = "1.0.0"
const defaultConfigPath = "juparc.toml"

type rootOptions struct {
	configPath  string
	verbose     bool
	metricsAddr string
	format      string
}

// runtime is the state shared by the subcommands of one invocation.
type runtime struct {
	opts   rootOptions
	stdin  io.Reader
	stderr io.Writer

	app     *app.App
	format  report.Format
	closers []func(context.Context) error
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	return execute(context.Background(), args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rt := &runtime{stdin: stdin, stderr: stderr}
	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := rt.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return errors.ExitCode(err)
}

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "juparc",
		Short:         "Mine Jupyter notebooks for code features",
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd.Context())
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(err, errors.CodeValidationError, "invalid arguments")
	})

	flags := root.PersistentFlags()
	flags.StringVar(&rt.opts.configPath, "config", defaultConfigPath, "Path to config file")
	flags.BoolVar(&rt.opts.verbose, "verbose", false, "Enable verbose logging")
	flags.StringVar(&rt.opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	flags.StringVar(&rt.opts.format, "format", "", "Record output format (json or tsv)")

	root.AddCommand(
		newListCommand(rt),
		newListReqCommand(rt),
		newExtractCommand(rt),
		newSelectCommand(rt, "select", "Select notebooks that match conditions", nil),
		newSelectCommand(rt, "python", "Select Python notebooks that match conditions", map[string]string{"language": "python"}),
		newCodeFeaturesCommand(rt),
		newAggregateCommand(rt),
		newScanCommand(rt),
		newWatchCommand(rt),
		newRunsCommand(rt),
		newVersionCommand(),
	)
	return root
}

func (rt *runtime) setup(ctx context.Context) error {
	configureLogging(rt.stderr, rt.opts.verbose)

	cfg, err := config.LoadOrDefault(rt.opts.configPath)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "load config"), errors.CtxPath, rt.opts.configPath)
	}
	if rt.opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = rt.opts.metricsAddr
	}
	format := cfg.Output.Format
	if rt.opts.format != "" {
		format = rt.opts.format
	}
	if rt.format, err = report.ParseFormat(format); err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Exporter:    cfg.Observability.TraceExporter,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Observability.OTLPInsecure,
		ServiceName: cfg.Observability.ServiceName,
		Version:     versionString,
	})
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, shutdown)

	rt.app = app.New(cfg)
	rt.closers = append(rt.closers, rt.app.Close)

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server := NewObservabilityServer(addr, app.NewHealthService(rt.app))
		if err := server.Start(ctx); err != nil {
			return err
		}
		rt.closers = append(rt.closers, server.Stop)
	}
	slog.Debug("configuration loaded", "path", rt.opts.configPath, "db", cfg.DB.Enabled)
	return nil
}

// close releases resources in reverse order of acquisition.
func (rt *runtime) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "juparc %s\n", versionString)
			return err
		},
	}
}
