// Package server serves the HTTP API and the prometheus metrics.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/robmorgan/legopi/effect"
	"github.com/robmorgan/legopi/engine"
	"github.com/robmorgan/legopi/fixture"
	"github.com/robmorgan/legopi/logger"
	"github.com/robmorgan/legopi/utils"
)

// Player is the part of the engine the API reads and controls.
type Player interface {
	Bindings() []engine.Binding
	SetPatternByName(controller string, channel uint8, name string) error
}

// Fixtures gives access to the patched fixtures.
type Fixtures interface {
	GetFixtureNames() []string
	GetByName(name string) *fixture.Fixture
	SetColor(name string, color utils.Color) error
}

// Server runs the HTTP server for the service.
type Server struct {
	fixtures Fixtures
	player   Player
	router   *echo.Echo
	log      *logrus.Logger
}

// FixtureView is the JSON form of a fixture.
type FixtureView struct {
	Name       string `json:"name"`
	GPIO       uint8  `json:"gpio"`
	Num        uint8  `json:"num"`
	Channel    uint8  `json:"channel"`
	Controller string `json:"controller"`
	Color      string `json:"color"`
	Brightness uint8  `json:"brightness"`
}

type colorRequest struct {
	Color string `json:"color"`
}

type patternRequest struct {
	Pattern string `json:"pattern"`
}

// New configures a new Server.
func New(fixtures Fixtures, player Player) *Server {
	s := &Server{
		fixtures: fixtures,
		player:   player,
		router:   echo.New(),
		log:      logger.GetProjectLogger(),
	}
	s.router.HideBanner = true
	s.router.HidePort = true

	s.router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	api := s.router.Group("/api")
	api.GET("/fixtures", s.listFixtures)
	api.PUT("/fixtures/:name/color", s.setColor)
	api.GET("/channels", s.listChannels)
	api.GET("/patterns", s.listPatterns)
	api.PUT("/controllers/:controller/channels/:channel/pattern", s.setPattern)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "failed to listen on address %s", addr)
	}
	httpSrv := http.Server{Handler: s.router}

	done := make(chan error, 1)
	s.log.WithField("address", addr).Info("serving HTTP")
	go func() {
		done <- httpSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("closing HTTP server")
		if err := httpSrv.Shutdown(context.Background()); err != nil {
			s.log.WithError(err).Warn("HTTP server did not shut down cleanly")
			return errors.WithStackTrace(err)
		}
		<-done
		return nil
	case err := <-done:
		return errors.WithStackTrace(err)
	}
}

func (s *Server) listFixtures(c echo.Context) error {
	names := s.fixtures.GetFixtureNames()
	out := make([]FixtureView, 0, len(names))
	for _, name := range names {
		f := s.fixtures.GetByName(name)
		if f == nil {
			continue
		}
		view := FixtureView{
			Name:       f.Name,
			GPIO:       f.GPIO,
			Num:        f.Num,
			Channel:    f.Channel,
			Color:      f.GetColor().Hex(),
			Brightness: f.GetBrightness(),
		}
		if f.Control != nil {
			view.Controller = f.Control.Name()
		}
		out = append(out, view)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) setColor(c echo.Context) error {
	name := c.Param("name")
	if s.fixtures.GetByName(name) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown fixture "+name)
	}
	var req colorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	color, err := utils.ParseColor(req.Color)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.fixtures.SetColor(name, color); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listChannels(c echo.Context) error {
	return c.JSON(http.StatusOK, s.player.Bindings())
}

func (s *Server) listPatterns(c echo.Context) error {
	return c.JSON(http.StatusOK, effect.Names())
}

func (s *Server) setPattern(c echo.Context) error {
	channel, err := strconv.ParseUint(c.Param("channel"), 10, 8)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid channel "+c.Param("channel"))
	}
	var req patternRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !slices.Contains(effect.Names(), req.Pattern) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown pattern "+req.Pattern)
	}
	if err := s.player.SetPatternByName(c.Param("controller"), uint8(channel), req.Pattern); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
