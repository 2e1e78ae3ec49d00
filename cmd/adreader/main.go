package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/adreader/internal/pipeline"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/registry"
	"github.com/ajitpratap0/adreader/pkg/logger"
	"github.com/ajitpratap0/adreader/pkg/metrics"
	"github.com/ajitpratap0/adreader/pkg/observability"

	// Register readers and writers
	_ "github.com/ajitpratap0/adreader/pkg/connector/destinations/bigquery"
	_ "github.com/ajitpratap0/adreader/pkg/connector/destinations/gcs"
	_ "github.com/ajitpratap0/adreader/pkg/connector/destinations/local"
	_ "github.com/ajitpratap0/adreader/pkg/connector/destinations/s3"
	_ "github.com/ajitpratap0/adreader/pkg/connector/sources/dv360"
	_ "github.com/ajitpratap0/adreader/pkg/connector/sources/facebook"
	_ "github.com/ajitpratap0/adreader/pkg/connector/sources/gsheets"
)

var version = "0.1.0"

// globalFlags are shared by every command
type globalFlags struct {
	configFile string
	writer     string
	logLevel   string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "adreader",
		Short: "adreader - advertising platform data extraction",
		Long: `adreader pulls reporting data from advertising and spreadsheet APIs
(Display & Video 360 SDF, Google Sheets, Facebook Marketing) and writes it
to local files, stdout, Cloud Storage, S3 or BigQuery.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to YAML configuration file")
	root.PersistentFlags().StringVarP(&flags.writer, "writer", "w", "", "Writer name, overrides output.writer")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides logging.level")

	root.AddCommand(
		newReadCommand(flags),
		newListCommand(),
		newVersionCommand(),
		newConfigCommand(flags),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "adreader v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available readers and writers",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			reg := registry.GetRegistry()
			fmt.Fprintln(out, "Readers:")
			for _, name := range reg.ListReaders() {
				printInfo(cmd, reg, core.ConnectorTypeReader, name)
			}
			fmt.Fprintln(out, "\nWriters:")
			for _, name := range reg.ListWriters() {
				printInfo(cmd, reg, core.ConnectorTypeWriter, name)
			}
		},
	}
}

func printInfo(cmd *cobra.Command, reg *registry.Registry, t core.ConnectorType, name string) {
	out := cmd.OutOrStdout()
	info, ok := reg.Info(t, name)
	if !ok {
		fmt.Fprintf(out, "  - %s\n", name)
		return
	}
	fmt.Fprintf(out, "  - %-10s %s\n", name, info.Description)
	for _, s := range info.Streams {
		fmt.Fprintf(out, "      stream: %s\n", s)
	}
}

func newConfigCommand(flags *globalFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			data, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.NewDefault()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})
	return configCmd
}

func newReadCommand(flags *globalFlags) *cobra.Command {
	var timeout time.Duration

	readCmd := &cobra.Command{
		Use:   "read <reader>",
		Short: "Run a reader and write its streams",
		Long: `Run a reader and write every stream it produces with the configured writer.

Example:
  adreader read facebook --config facebook.yaml --writer gcs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runRead(cmd.Context(), args[0], cfg, timeout)
		},
	}
	readCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the run after this duration (0 means no limit)")
	return readCmd
}

// loadConfig loads the file and applies flag overrides
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.writer != "" {
		cfg.Output.Writer = flags.writer
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runRead(parent context.Context, readerName string, cfg *config.Config, timeout time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get().With(
		zap.String("component", "adreader-cli"),
		zap.String("reader", readerName),
		zap.String("writer", cfg.Output.Writer))

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		Enabled:        cfg.Observability.EnableTracing,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	reader, err := registry.CreateReader(readerName, cfg)
	if err != nil {
		return err
	}
	writer, err := registry.CreateWriter(cfg.Output.Writer, cfg)
	if err != nil {
		_ = reader.Close(context.Background())
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, runErr := pipeline.NewRunner(reader, writer, log).Run(ctx)

	if cfg.Observability.PushGateway != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grouping := map[string]string{"reader": readerName, "run_id": result.RunID}
		if err := metrics.Push(pushCtx, cfg.Observability.PushGateway, cfg.Observability.JobName, grouping); err != nil {
			log.Warn("metrics push failed", zap.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	log.Info("done",
		zap.String("run_id", result.RunID),
		zap.Int("streams", len(result.Streams)),
		zap.Int64("records", result.Records()),
		zap.Duration("duration", result.Duration))
	return nil
}
