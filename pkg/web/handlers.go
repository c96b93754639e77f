package web

import (
	"encoding/json"
	"image/color"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/eyesim/pkg/control"
	"github.com/teslashibe/eyesim/pkg/eye"
	"github.com/teslashibe/eyesim/pkg/hub"
)

// StateResponse is the body of /api/state and every color or toggle reply.
type StateResponse struct {
	control.Snapshot
	SessionID string `json:"session_id,omitempty"`
}

// ColorRequest is the body of POST /api/colors/:part. An empty color or
// Cancelled means the user dismissed the picker.
type ColorRequest struct {
	Color     string `json:"color"`
	Cancelled bool   `json:"cancelled"`
}

func (s *Server) stateResponse() StateResponse {
	return StateResponse{Snapshot: s.control.Snapshot(), SessionID: s.session}
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.stateResponse())
}

func (s *Server) handleSetColor(c *fiber.Ctx) error {
	part, ok := eye.ParsePart(c.Params("part"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown part: " + c.Params("part"),
		})
	}

	var req ColorRequest
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	var parseErr error
	changed := s.control.ChooseColor(part, func() (color.RGBA, bool) {
		if req.Cancelled || req.Color == "" {
			return color.RGBA{}, false
		}
		col, err := control.ParseColor(req.Color)
		if err != nil {
			parseErr = err
			return color.RGBA{}, false
		}
		return col, true
	})
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": parseErr.Error(),
		})
	}
	if changed {
		s.log.Info("color changed", "part", part.String(), "color", req.Color)
	}
	return c.JSON(s.stateResponse())
}

func (s *Server) handleToggle(c *fiber.Ctx) error {
	enabled := s.control.Toggle()
	s.log.Info("tracking toggled", "enabled", enabled)
	return c.JSON(s.stateResponse())
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	if s.StatsFunc == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "frame loop not running",
		})
	}
	return c.JSON(fiber.Map{
		"session_id": s.session,
		"pipeline":   s.StatsFunc(),
	})
}

// handleStatusWS sends the current snapshot, then every change.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if err := c.WriteJSON(s.stateResponse()); err != nil {
		c.Close()
	}
	client.Run()
}

func (s *Server) handlePreviewWS(c *websocket.Conn) {
	hub.NewClient(s.previewHub, c).Run()
}
