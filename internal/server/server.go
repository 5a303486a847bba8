// Package server exposes site feeds over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gatefeed/gatefeed/internal/extract"
	"github.com/gatefeed/gatefeed/internal/feed"
	"github.com/gatefeed/gatefeed/internal/logger"
	"github.com/gatefeed/gatefeed/internal/pipeline"
)

// PipelineFactory builds a pipeline for one site profile. The factory owns
// backend selection (browser vs. remote) and cache wiring.
type PipelineFactory func(profile extract.Profile) *pipeline.Pipeline

// Server serves feeds built from pipeline runs.
type Server struct {
	echo    *echo.Echo
	factory PipelineFactory
}

// New creates the HTTP server.
func New(factory PipelineFactory) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, factory: factory}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/feeds/:site", s.handleFeed)
	e.GET("/feeds/:site/:category", s.handleFeed)

	return s
}

// Start listens on addr until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		_ = s.echo.Shutdown(context.Background())
	}()

	logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleFeed(c echo.Context) error {
	site := c.Param("site")
	profile, ok := extract.Lookup(site)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown site: "+site)
	}

	listingURL := profile.BaseURL
	if category := c.Param("category"); category != "" {
		listingURL = profile.BaseURL + "category/" + category
	}

	p := s.factory(profile)
	articles, err := p.Run(c.Request().Context(), listingURL)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoBackend) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		logger.Error("pipeline run failed", "site", site, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "feed temporarily unavailable")
	}

	format := feed.Format(c.QueryParam("format"))
	out, err := feed.Render(feed.Build(feed.Meta{
		Title:       profile.Name,
		Link:        listingURL,
		Description: "Articles from " + profile.Name,
	}, articles), format)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.Blob(http.StatusOK, format.ContentType(), []byte(out))
}
