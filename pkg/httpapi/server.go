package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// New builds the echo server with request logging and panic recovery.
func New(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	logger := logx.Component("httpapi")
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Error != nil {
				ev = logger.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	h.RegisterRoutes(e)
	return e
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, e *echo.Echo) error {
	logger := logx.Component("httpapi")
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http api listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("start http api: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return shutdown(e, logger)
}

func shutdown(e *echo.Echo, logger zerolog.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info().Msg("shutting down http api")
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http api: %w", err)
	}
	return nil
}
