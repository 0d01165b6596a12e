// Package webhook receives Telegram updates over HTTP.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.uber.org/zap"

	"telegrambot/pkg/config"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/objects"
	"telegrambot/pkg/version"
)

// Dispatcher hands an update to the named bot. Unknown bots are reported
// with config.ErrBotNotConfigured.
type Dispatcher interface {
	ProcessUpdate(ctx context.Context, bot string, update *objects.Update) error
}

// Known reports whether a dispatcher serves a bot.
type Known interface {
	Names() []string
}

// Server is the webhook HTTP server.
type Server struct {
	log        *logger.Logger
	dispatcher Dispatcher
	addr       string
	path       string
	startedAt  time.Time

	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates a server listening on host:port that accepts updates
// at POST {path}/:bot.
func NewServer(log *logger.Logger, dispatcher Dispatcher, host string, port int, path string) *Server {
	path = "/" + strings.Trim(path, "/")
	if path == "/" {
		path = ""
	}

	s := &Server{
		log:        log,
		dispatcher: dispatcher,
		addr:       net.JoinHostPort(host, strconv.Itoa(port)),
		path:       path,
		startedAt:  time.Now(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	e := echo.New()
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)
	e.POST(s.path+"/:bot", s.handleUpdate)

	s.echo = e
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start starts serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.log.Info("Webhook server starting",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", s.path+"/:bot"))

	// http.Server directly so shutdown follows the fx lifecycle.
	s.httpServer = &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("Webhook server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Webhook server stopping")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *echo.Context) error {
	resp := map[string]any{
		"status":         "ok",
		"version":        version.GetVersion(),
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}
	if k, ok := s.dispatcher.(Known); ok {
		resp["bots"] = k.Names()
	}
	return c.JSON(http.StatusOK, resp)
}

// handleUpdate answers 200 once the update has been dispatched, even when a
// command failed, so Telegram does not redeliver it.
func (s *Server) handleUpdate(c *echo.Context) error {
	bot := c.Param("bot")

	var update objects.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
		s.log.Warn("Invalid update payload", zap.String("bot", bot), zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid update"})
	}

	err := s.dispatcher.ProcessUpdate(c.Request().Context(), bot, &update)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrBotNotConfigured):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown bot"})
	default:
		s.log.Error("Failed to process update",
			zap.String("bot", bot),
			zap.Int("update_id", update.UpdateID),
			zap.Error(err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
