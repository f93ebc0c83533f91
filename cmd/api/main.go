package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studentmedia/cmd/app"
	"studentmedia/internal/config"
	"studentmedia/internal/database"
	"studentmedia/internal/logger"
	"studentmedia/internal/notify"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studentmedia",
		Short:         "Campus social network API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newWorkerCmd(), newMigrateCmd())
	return root
}

// setup loads the configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.StorageDriver == config.StorageDriverPostgres {
				if err := database.RunMigrations(cfg.DB.URL(), false, log); err != nil {
					return err
				}
			}

			application, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer application.Close()

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
				Handler:           application.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server started",
					zap.String("addr", server.Addr),
					zap.String("storage", cfg.StorageDriver),
					zap.Bool("demo_mode", cfg.DemoMode),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		},
	}
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver verification emails queued in RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.RabbitMQ.URL == "" {
				return errors.New("RABBITMQ_URL is required for the worker")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := notify.NewRabbitClient(cfg.RabbitMQ, log)
			if err != nil {
				return err
			}
			defer client.Close()

			mailer := notify.NewMailer(cfg.SMTP, log)
			log.Info("worker started", zap.String("queue", cfg.RabbitMQ.QueueName))

			err = client.Consume(ctx, mailer.Send)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			return database.RunMigrations(cfg.DB.URL(), down, log)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations")
	return cmd
}
