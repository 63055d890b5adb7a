package main

import (
	"context"
	"os"

	"github.com/Netflix/go-env"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func loadSettings() (Settings, *zap.Logger, error) {
	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		return settings, nil, err
	}

	logger, err := buildZapLogger(settings.LogEncoding)

	return settings, logger, err
}

func newRootCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat relay http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), true)
		},
	}

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the storage schema and indexes, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), false)
		},
	}

	rootCmd := &cobra.Command{
		Use:          "chatrelay",
		Short:        "Real-time chat relay over websockets",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	rootCmd.AddCommand(serveCmd, setupCmd)

	return rootCmd
}

func run(ctx context.Context, serve bool) error {
	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine, err := openEngine(logger, settings)
	if err != nil {
		logger.Error("failed to open storage", zap.Error(err))
		return err
	}

	app := NewApp(logger, settings, engine)

	err = app.setup(ctx)
	if err != nil {
		logger.Error("failed to setup", zap.Error(err))
		engine.Close(ctx)
		return err
	}

	if !serve {
		logger.Info("storage ready", zap.String("storageDriver", settings.StorageDriver))
		return engine.Close(ctx)
	}

	app.startHttpServer(ctx)

	return nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
