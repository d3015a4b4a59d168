// Package fixture is a development backend that replays a fixture file
// through the same REST endpoints the dashboard consumes.
package fixture

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server serves fixture Data over HTTP.
type Server struct {
	data     *Data
	e        *echo.Echo
	latency  time.Duration
	notReady bool
}

// Option configures a Server.
type Option func(*Server)

// WithLatency delays every response, to exercise client timeouts.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// WithNotReady makes the probe endpoint report data_loaded=false.
func WithNotReady() Option {
	return func(s *Server) {
		s.notReady = true
	}
}

// WithRequestLog enables echo's request logger.
func WithRequestLog() Option {
	return func(s *Server) {
		s.e.Use(middleware.Logger())
	}
}

// New builds a server around data.
func New(data *Data, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{data: data, e: e}
	for _, opt := range opts {
		opt(s)
	}
	if s.latency > 0 {
		e.Use(s.delay)
	}
	s.routes()
	return s
}

// Handler exposes the server for httptest.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	err := s.e.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) routes() {
	g := s.e.Group("/api")
	g.GET("/test", s.handleTest)
	g.GET("/timeseries", s.handleTimeseries)
	g.GET("/map-data/:date", s.handleMapData)
	g.GET("/global-stats", s.handleGlobalStats)
	g.GET("/country/:name", s.handleCountry)
	g.GET("/top-countries", s.handleTop)
}

func (s *Server) delay(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		select {
		case <-time.After(s.latency):
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
		return next(c)
	}
}

func (s *Server) handleTest(c echo.Context) error {
	if s.notReady {
		return c.JSON(http.StatusOK, map[string]any{
			"status":      "error",
			"message":     "data file not loaded",
			"data_loaded": false,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "success",
		"message":     "Backend is working",
		"data_loaded": true,
		"date_range": map[string]string{
			"start": s.data.Dates[0],
			"end":   s.data.Dates[len(s.data.Dates)-1],
		},
	})
}

func (s *Server) handleTimeseries(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"dates": s.data.Dates})
}

func (s *Server) handleMapData(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.Dataset(c.Param("date")))
}

func (s *Server) handleGlobalStats(c echo.Context) error {
	day := c.QueryParam("date")
	if day == "" {
		day = s.data.Dates[len(s.data.Dates)-1]
	}
	return c.JSON(http.StatusOK, s.data.Stats(day))
}

func (s *Server) handleCountry(c echo.Context) error {
	name := c.Param("name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	detail, ok := s.data.Country(name)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"detail": "Country " + name + " not found"})
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleTop(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.Top())
}
