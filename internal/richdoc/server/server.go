// Пакет server предоставляет HTTP API сервиса документов.
//
// Основные возможности:
//   - Преобразование документов между markdown, HTML и TipTap JSON.
//   - Описание схемы документа.
//   - Сессии редактирования: команды, отмена и повтор, панель форматирования, история снимков.
//   - Поиск встраиваемых ссылок.
//   - Метрики Prometheus.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aisa-it/richdoc/internal/richdoc/apierrors"
	"github.com/aisa-it/richdoc/internal/richdoc/config"
	"github.com/aisa-it/richdoc/internal/richdoc/convert"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/embed"
	"github.com/aisa-it/richdoc/internal/richdoc/metrics"
	"github.com/aisa-it/richdoc/internal/richdoc/store"
)

// Server - HTTP API.
type Server struct {
	cfg       *config.Config
	echo      *echo.Echo
	converter *convert.Converter
	sessions  *sessionPool
	store     *store.Store
	metrics   *metrics.Metrics
	embeds    *embed.Registry

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	version    string
}

type Option func(s *Server)

// WithStore включает сохранение снимков сессий.
func WithStore(st *store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithMetrics подключает метрики сервиса.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithPrometheus задает реестр метрик HTTP и источник для /metrics.
// По умолчанию используются глобальные реестры prometheus.
func WithPrometheus(reg prometheus.Registerer, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.registerer = reg
		s.gatherer = g
	}
}

// WithVersion задает версию для заголовка Server.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New собирает сервер и регистрирует маршруты.
func New(cfg *config.Config, conv *convert.Converter, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		converter:  conv,
		embeds:     embed.DefaultRegistry(),
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		version:    "DEV",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = newSessionPool(s)

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		switch code {
		case http.StatusNotFound:
			c.NoContent(http.StatusNotFound)
			return
		case http.StatusRequestEntityTooLarge:
			EErrorDefined(c, apierrors.ErrEntityToLarge)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		er := apierrors.ErrGeneric
		er.StatusCode = code
		EErrorDefined(c, er)
	}

	// Global middlewares
	e.Use(s.serverHeader)
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.MaxBody()))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     5,
		MinLength: 2048,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "richdoc",
		Subsystem:  "http",
		Registerer: s.registerer,
	}))
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/metrics"
		},
	}))

	api := e.Group("/api")
	api.POST("/convert/", s.convert)
	api.GET("/schema/", s.schema)
	api.GET("/embed/", s.embed)

	sessions := api.Group("/sessions")
	sessions.POST("/", s.createSession)
	sessions.GET("/:id/", s.getSession)
	sessions.DELETE("/:id/", s.closeSession)
	sessions.POST("/:id/commands/", s.applyCommand)
	sessions.PUT("/:id/selection/", s.setSelection)
	sessions.POST("/:id/undo/", s.undo)
	sessions.POST("/:id/redo/", s.redo)
	sessions.GET("/:id/menu/", s.menu)
	sessions.GET("/:id/history/", s.history)

	if cfg.MetricsAddr == "" {
		e.GET("/metrics", s.metricsHandler())
	}

	s.echo = e
	return s
}

// ServeHTTP позволяет использовать Server как http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) metricsHandler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: s.gatherer})
}

// serverHeader добавляет заголовок Server в ответ.
func (s *Server) serverHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "richdoc/"+s.version)
		return next(c)
	}
}

// Run запускает API и, если задан отдельный адрес, сервер метрик. Останавливается при отмене ctx.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.MetricsAddr != "" {
		metricsServer := echo.New()
		metricsServer.HideBanner = true
		metricsServer.GET("/metrics", s.metricsHandler())
		go func() {
			if err := metricsServer.Start(s.cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server fail", "err", err)
			}
		}()
		defer metricsServer.Close()
	}

	reaper, err := s.startReaper()
	if err != nil {
		return err
	}
	if reaper != nil {
		defer reaper.Stop()
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown", "err", err)
		}
		s.sessions.closeAll()
	}()

	slog.Info("Start server", "addr", s.cfg.ListenAddr)
	if err := s.echo.Start(s.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
