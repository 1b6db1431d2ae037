package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/config"
	"github.com/sngm3741/riskboard/api/internal/logging"
	"github.com/sngm3741/riskboard/api/internal/server"
)

type serveOptions struct {
	configPath string
	port       int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &serveOptions{}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "回答受付 API サーバーを起動する",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, opts)
		},
	}

	rootCmd := &cobra.Command{
		Use:           "api",
		Short:         "Risk survey ingestion API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML 設定ファイルのパス (未指定なら CONFIG_FILE)")
	rootCmd.PersistentFlags().IntVar(&opts.port, "port", 0, "待ち受けポート (設定ファイルと環境変数より優先)")
	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

func serve(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "設定の読み込みに失敗しました: %v\n", err)
		return err
	}
	if opts.port != 0 {
		cfg.Port = opts.port
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "ロガーの初期化に失敗しました: %v\n", err)
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("ストアの初期化に失敗しました", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	app, err := server.New(cfg, server.Dependencies{
		Repository: store.Repository,
		Logger:     logger,
		CloseStore: store.Close,
	})
	if err != nil {
		_ = store.Close(context.Background())
		logger.Fatal("サーバーの組み立てに失敗しました", zap.Error(err))
	}

	if err := app.Run(ctx); err != nil {
		logger.Fatal("サーバー起動に失敗", zap.Error(err))
	}
	return nil
}
