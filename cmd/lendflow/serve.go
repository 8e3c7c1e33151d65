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

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/cli"
	httpAdapter "github.com/aretw0/lendflow/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts lendflow as an HTTP server exposing the sessions API, a server-sent
events stream of session changes and a WebSocket chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(context.Background()); err != nil {
				app.Logger.Warn("Failed to release resources", "err", err)
			}
		}()

		port := app.Config.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithCORSOrigins(app.Config.Server.CORSOrigins),
		}
		if app.Metrics != nil {
			opts = append(opts, httpAdapter.WithMetrics(app.Metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           httpAdapter.NewHandler(app.Assistant, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting lendflow server", "addr", srv.Addr, "version", lendflow.Version, "storage", app.Config.Storage.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			app.Logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to stop server: %w", err)
				}
			}
			app.Logger.Info("lendflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}
