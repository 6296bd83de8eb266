package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/app"
	"github.com/sangkips/billdesk/internal/config"
	"github.com/sangkips/billdesk/internal/presentation/http/routes"
	"github.com/sangkips/billdesk/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "billdesk",
	Short:         "Billing and collections desk",
	Long:          `Sign in to the billing API, manage invoices, record collections and review cheques.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) *config.Config {
	envFile, _ := cmd.Flags().GetString("env")
	cfg := config.Load(envFile)

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.App.Port = port
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg
}

// withApp runs fn against an initialized App and tears it down afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := loadConfig(cmd)
	log, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to init app: %w", err)
	}
	defer func() {
		if err := a.Teardown(); err != nil {
			log.Warn("teardown failed", zap.Error(err))
		}
	}()

	ctx := cmd.Context()
	if err := a.Init(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	return fn(ctx, a)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if a.Config.App.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			deps := routes.NewDeps(a)
			defer deps.Close()
			router := routes.Setup(routes.NewHandlers(a), deps)

			server := &http.Server{
				Addr:         ":" + a.Config.App.Port,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.Log.Info("server listening",
					zap.String("addr", server.Addr),
					zap.String("env", a.Config.App.Env),
					zap.String("api", a.Client.BaseURL()),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			quit, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-quit.Done():
			}

			a.Log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			a.Log.Info("server stopped")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("env", "e", ".env", "path to the .env file")
	rootCmd.PersistentFlags().String("log-level", "", "log level, overrides LOG_LEVEL")
	serveCmd.Flags().StringP("port", "p", "", "port to listen on, overrides APP_PORT")

	rootCmd.AddCommand(serveCmd)
	addSessionCommands(rootCmd)
	addInvoiceCommands(rootCmd)
	addPaymentCommands(rootCmd)
}
