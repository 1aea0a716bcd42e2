package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"offrecord/internal/app"
	"offrecord/internal/relay"
	"offrecord/internal/util/ratelimit"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr      string
		logLevel  string
		logFormat string
		sendRPS   float64
		sendBurst int
	)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "In-memory store-and-forward relay for offrecord peers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := app.NewLogger(os.Stderr, level, logFormat)

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			var limiter *ratelimit.Limiter[string]
			if sendRPS > 0 {
				limiter = ratelimit.New[string](sendRPS, sendBurst, 10*time.Minute)
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           relay.NewServer(logger, reg, limiter).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", addr).Msg("relay listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			logger.Info().Msg("relay shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log format (console or json)")
	cmd.Flags().Float64Var(&sendRPS, "send-rps", 20, "per-sender message rate; 0 disables throttling")
	cmd.Flags().IntVar(&sendBurst, "send-burst", 40, "per-sender burst")
	return cmd
}
