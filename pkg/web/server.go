// Package web serves the control surface: color pickers, the tracking
// toggle, a live preview and pipeline stats.
package web

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/eyesim/internal/log"
	"github.com/teslashibe/eyesim/pkg/control"
	"github.com/teslashibe/eyesim/pkg/hub"
	"github.com/teslashibe/eyesim/pkg/pipeline"
)

//go:embed static/index.html
var indexHTML []byte

const shutdownTimeout = 2 * time.Second

// Server is the control surface HTTP server.
type Server struct {
	app     *fiber.App
	addr    string
	session string
	control *control.State
	log     *slog.Logger

	statusHub  *hub.Hub
	previewHub *hub.Hub

	hubsOnce sync.Once
	cancel   context.CancelFunc

	// StatsFunc reports frame loop counters for /api/stats. Optional.
	StatsFunc func() pipeline.Stats
}

// NewServer builds the routes. addr is a listen address such as ":8181".
func NewServer(addr, session string, ctl *control.State) *Server {
	s := &Server{
		addr:       addr,
		session:    session,
		control:    ctl,
		log:        log.Component("web"),
		statusHub:  hub.New("status", 64),
		previewHub: hub.New("preview", 2),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Eye Simulation",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/colors/:part", s.handleSetColor)
	api.Post("/tracking/toggle", s.handleToggle)
	api.Get("/stats", s.handleStats)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(indexHTML)
	})

	ctl.OnChange(func(snap control.Snapshot) {
		if err := s.statusHub.BroadcastJSON(StateResponse{Snapshot: snap, SessionID: s.session}); err != nil {
			s.log.Warn("status broadcast failed", "error", err)
		}
	})

	s.app = app
	return s
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App { return s.app }

// PreviewHub returns the hub that carries JPEG frames.
func (s *Server) PreviewHub() *hub.Hub { return s.previewHub }

// StatusHub returns the hub that carries control snapshots.
func (s *Server) StatusHub() *hub.Hub { return s.statusHub }

func (s *Server) startHubs() {
	s.hubsOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.statusHub.Run(ctx)
		go s.previewHub.Run(ctx)
	})
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	s.startHubs()
	s.log.Info("control surface listening", "url", "http://localhost"+s.addr, "session", s.session)
	return s.app.Listen(s.addr)
}

// Serve runs the server on an existing listener and blocks until shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.startHubs()
	s.log.Info("control surface listening", "addr", ln.Addr().String(), "session", s.session)
	return s.app.Listener(ln)
}

// StartAsync runs Start in the background. Listen errors are logged and
// never stop the frame loop.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Warn("control surface stopped", "error", err)
		}
	}()
}

// Shutdown stops the hubs and the listener. It is best-effort and bounded.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}
