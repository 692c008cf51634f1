package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatbot-server/internal/app"
	"github.com/vovakirdan/chatbot-server/internal/config"
	applog "github.com/vovakirdan/chatbot-server/internal/log"
)

var (
	version = "dev"
	commit  = "unknown"
)

type serveFlags struct {
	configPath  string
	addr        string
	logLevel    string
	logFormat   string
	storeDriver string
	storePath   string
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	root := &cobra.Command{
		Use:           "chatbot-server",
		Short:         "Messaging backend with users, friends, direct and group chat",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file path (default config.yaml or $CHATBOT_CONFIG_DEFAULT_PATH)")
	pf.StringVar(&flags.addr, "addr", "", "HTTP listen address")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format (console or json)")
	pf.StringVar(&flags.storeDriver, "store-driver", "", "record store driver (sqlite or badger)")
	pf.StringVar(&flags.storePath, "store-path", "", "record store path")

	root.AddCommand(serve, newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("chatbot-server %s (commit: %s)\n", version, commit)
		},
	}
}

func runServe(parent context.Context, flags *serveFlags) error {
	if parent == nil {
		parent = context.Background()
	}

	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, path, err := config.Load(&bootLogger, flags.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{
		Addr: flags.addr,
		Log:  config.LogConfig{Level: flags.logLevel, Format: flags.logFormat},
		Store: config.StoreConfig{
			Driver: flags.storeDriver,
			Path:   flags.storePath,
		},
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := applog.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info().Str("config", path).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Str("version", version).Msg("starting chatbot server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
