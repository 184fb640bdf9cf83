package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcooky/go-din"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/prodpulse/knowledgesync/assistant"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/retriever"
	"github.com/prodpulse/knowledgesync/server"
	_ "github.com/prodpulse/knowledgesync/internal/tracing"
)

func newServeCmd() *cobra.Command {
	params := &struct {
		Port int
	}{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the knowledge sync HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			c := din.NewContainer(ctx, din.EnvProd)
			defer c.Close()

			logger := din.MustGetT[*mylog.Logger](c)
			din.MustGetT[*sdktrace.TracerProvider](c)
			registry := din.MustGetT[assistant.Service](c)
			retrieverService := din.MustGetT[retriever.Service](c)

			handler, err := server.CreateHandler(registry, retrieverService, logger)
			if err != nil {
				return err
			}

			logger.Info("server started", "port", params.Port)
			defer logger.Info("server stopped")

			httpServer := &http.Server{
				Addr:    fmt.Sprintf(":%d", params.Port),
				Handler: handler,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			go func() {
				<-ctx.Done()
				if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.Error("failed to shutdown server", mylog.Err(err))
				}
			}()

			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&params.Port, "port", "p", 3001, "Port to listen on")

	return cmd
}
