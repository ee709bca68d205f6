package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldwise/bridge/pkg/config"
	"github.com/fieldwise/bridge/pkg/demo"
	"github.com/fieldwise/bridge/pkg/logger"
	"github.com/fieldwise/bridge/pkg/server"
	"github.com/fieldwise/bridge/pkg/upstream"
)

var serveDemo bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Get()

		client := upstream.NewClientWithTimeout(settings.Upstream.URL, settings.Upstream.Timeout)

		var stages demo.StageStore
		if serveDemo {
			stages = demo.NewMemoryStore()
		}

		srv := server.New(settings.Server.Address, client, stages)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("server: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "enable scripted demo endpoints")
	rootCmd.AddCommand(serveCmd)
}
