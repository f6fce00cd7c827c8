package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fablehall/fablehall/internal/profile"
	"github.com/fablehall/fablehall/plugin/markdown"
	"github.com/fablehall/fablehall/server/internal/metrics"
	"github.com/fablehall/fablehall/server/middleware"
	apiv1 "github.com/fablehall/fablehall/server/router/api/v1"
	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/server/service/publication"
	"github.com/fablehall/fablehall/store"
	"github.com/fablehall/fablehall/store/cache"
)

// Server owns the HTTP surface and the service graph behind it.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer  *echo.Echo
	cache       *cache.Cache
	rateLimiter *middleware.RateLimiter
}

// NewServer wires the cache, invalidation router, aggregate reader, and
// publication state machine onto an echo instance. stats may be nil when no
// statistics provider is deployed.
func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store, stats derived.StatisticsProvider) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestMetrics)

	derivedCache := cache.New(cache.Config{
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
		MaxItems:        100_000,
	})
	invalidator := derived.NewInvalidator(derivedCache)
	markdownService := markdown.NewService()
	reader := derived.NewReader(st, derivedCache, markdownService, stats)
	publicationService := publication.NewService(st, invalidator)
	if profile.OngoingStatusTagID != 0 {
		publicationService.SetOngoingStatusTag(profile.OngoingStatusTagID)
	}

	rateLimiter := middleware.NewRateLimiter(10, 20)
	e.Use(rateLimiter.Middleware())

	s := &Server{
		Profile:     profile,
		Store:       st,
		echoServer:  e,
		cache:       derivedCache,
		rateLimiter: rateLimiter,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiV1Service := apiv1.NewAPIV1Service(profile, st, markdownService, reader, publicationService, invalidator)
	apiV1Service.Register(e)

	return s, nil
}

// Start runs the HTTP listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server listening",
		slog.String("address", address),
		slog.String("mode", s.Profile.Mode),
		slog.String("version", s.Profile.Version))
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown drains in-flight requests and releases the cache janitor.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	s.cache.Close()
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server shut down")
}

func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		if err != nil {
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
		return err
	}
}
