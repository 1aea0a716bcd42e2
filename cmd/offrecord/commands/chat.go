package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"offrecord/internal/app"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <peer>",
		Short: "Talk to a peer interactively; /otr starts a private conversation, /status shows state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireAccount(); err != nil {
				return err
			}
			// Unlock once up front so a bad passphrase fails before the loop.
			if _, err := deps.Identity.LoadIdentity(passphrase, deps.Config.Account, deps.Config.Protocol); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if addr := deps.Config.MetricsAddr; addr != "" {
				srv := serveMetrics(addr)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			out := cmd.OutOrStdout()
			c := &app.Chat{
				Service: deps.Messages(passphrase, out),
				Relay:   deps.Relay,
				Key:     conversationWith(args[0]),
				Out:     out,
				Log:     deps.Log,
			}
			deps.Log.Info().Str("peer", args[0]).Str("policy", deps.Config.PolicyFor(deps.Config.Protocol).String()).Msg("chat started")
			return c.Run(ctx, cmd.InOrStdin(), deps.Config.PollInterval)
		},
	}
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
