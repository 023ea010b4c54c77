package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"drivegate"
	"drivegate/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Long: `Serve the drive behind the ACL. SIGHUP reloads the policy file
without dropping connections; SIGINT and SIGTERM shut down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadEnv()
	if err != nil {
		return err
	}
	if cfg.ClientID == "" {
		return errors.New("AZURE_CLIENT_ID is required to reach the drive")
	}
	logger := cfg.logger()

	builder := drivegate.New().WithConfig(cfg.engineConfig()).WithLogger(logger)
	if cfg.RedisAddr != "" {
		builder.WithRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	engine, err := builder.Build()
	if err != nil {
		return err
	}
	if !engine.Tokens().Authenticated() {
		logger.Warn("no cached token, run 'drivegate login' first")
	}

	front, err := web.NewServer(web.Options{
		Engine:        engine,
		Logger:        logger,
		SessionSecret: []byte(cfg.SessionSecret),
		SessionTTL:    cfg.SessionTTL,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           front.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := engine.ReloadACL(); err != nil {
				logger.Error("policy reload failed", "error", err)
			}
		}
	}()
	defer signal.Stop(hup)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
