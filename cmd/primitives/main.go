package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vango-dev/primitives/internal/config"
	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/internal/logging"
	"github.com/vango-dev/primitives/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app is the state shared by every command, filled in before RunE.
type app struct {
	configFile string
	envDir     string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			fmt.Fprint(os.Stderr, e.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "primitives",
		Short: "Keyed list reconciliation toolkit",
		Long: `primitives replays list updates through the keyed reconciler and
reports how each item was kept, moved, rewritten, recycled or created.

  • replay YAML scenarios, optionally re-running on every save
  • serve an HTTP and WebSocket playground with Prometheus metrics
  • compute masonry layouts from item heights`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&a.envDir, "env-dir", ".", "Directory holding the .env file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level")

	rootCmd.AddCommand(
		replayCmd(a),
		serveCmd(a),
		layoutCmd(),
		versionCmd(),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.envDir, a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return errors.New("E103").Wrap(err)
	}
	reactive.SetLogger(logger)
	if cfg.Log.Level == "debug" {
		reactive.DebugMode = true
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
