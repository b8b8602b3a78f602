package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/pkg/config"
	"github.com/ajitpratap0/colwire/pkg/logger"
	"github.com/ajitpratap0/colwire/pkg/observability"
)

var version = "0.1.0"

// app carries the resolved configuration from the root command's
// PersistentPreRunE to the subcommands.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	log     *zap.Logger
	metrics *http.Server
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.BindDefaults(a.v)

	var configFile string
	root := &cobra.Command{
		Use:   "colwire",
		Short: "colwire - columnar data in the Arrow IPC stream and file formats",
		Long: `colwire builds columnar record batches and reads and writes them in the
Arrow IPC stream and file formats.

Settings come from flags, COLWIRE_* environment variables and an optional
YAML config file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(configFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("compression", "none", "Body compression for written data (none, lz4, zstd)")
	flags.Bool("dictionary-deltas", false, "Send dictionary growth as delta batches on streams")
	flags.Bool("mmap", false, "Memory-map IPC files instead of reading them")
	flags.Bool("metrics", false, "Serve Prometheus metrics while the command runs")
	flags.Bool("trace", false, "Export OpenTelemetry spans to stdout")
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("writer.compression", flags.Lookup("compression"))
	_ = a.v.BindPFlag("writer.emit_dictionary_deltas", flags.Lookup("dictionary-deltas"))
	_ = a.v.BindPFlag("reader.use_mmap", flags.Lookup("mmap"))
	_ = a.v.BindPFlag("metrics.enabled", flags.Lookup("metrics"))
	_ = a.v.BindPFlag("tracing.enabled", flags.Lookup("trace"))

	root.AddCommand(
		newVersionCmd(),
		newGenCmd(a),
		newCatCmd(a),
		newConvertCmd(a),
		newInspectCmd(a),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "colwire v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (a *app) setup(configFile string) error {
	if configFile != "" {
		a.v.SetConfigFile(configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	a.log = logger.Named("cli")

	if cfg.Tracing.ServiceVersion == "dev" {
		cfg.Tracing.ServiceVersion = version
	}
	if err := observability.Init(cfg.Tracing); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		a.metrics = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		a.log.Info("serving metrics",
			zap.String("address", cfg.Metrics.Address),
			zap.String("path", cfg.Metrics.Path))
	}
	return nil
}

func (a *app) teardown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.log.Warn("failed to stop metrics server", zap.Error(err))
		}
	}
	if err := observability.Shutdown(ctx); err != nil {
		a.log.Warn("failed to flush traces", zap.Error(err))
	}
	_ = logger.Sync()
	return nil
}
