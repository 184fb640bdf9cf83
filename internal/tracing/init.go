package tracing

import (
	"context"
	"log/slog"

	"github.com/jcooky/go-din"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/prodpulse/knowledgesync/config"
	"github.com/prodpulse/knowledgesync/internal/mylog"
)

// NewTracerProvider builds a provider that mirrors every span into the
// process log. Spans are the only tracing surface here; exporting to a
// collector is the deployment's concern.
func NewTracerProvider(logger *slog.Logger, verbose bool) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&loggingSpanProcessor{
			verbose: verbose,
			logger:  logger,
		}),
	)
}

func init() {
	din.RegisterT(func(c *din.Container) (*sdktrace.TracerProvider, error) {
		logConf, err := din.GetT[*config.LogConfig](c)
		if err != nil {
			return nil, err
		}
		logger, err := din.GetT[*mylog.Logger](c)
		if err != nil {
			return nil, err
		}

		tp := NewTracerProvider(logger, logConf.TraceVerbose)
		otel.SetTracerProvider(tp)
		c.RegisterOnShutdown(func(ctx context.Context) {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("failed to shutdown tracer provider", mylog.Err(err))
			}
		})

		return tp, nil
	})
}
