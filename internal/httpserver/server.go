// Package httpserver exposes the interview over HTTP: turn and reconnect
// endpoints, candidate intake, result finalization and the audio relay
// websocket.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/interview"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/planner"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/relay"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/store"
)

// TurnRunner is the interview surface the server drives.
type TurnRunner interface {
	Turn(ctx context.Context, userID, answer string) (*interview.TurnResult, error)
	Reconnect(userID string)
	Gate(userID string) *relay.Gate
	Finish(ctx context.Context, userID string) map[string]interview.TopicEvaluation
}

// PlanBuilder runs candidate intake.
type PlanBuilder interface {
	BuildPlan(ctx context.Context, req planner.IntakeRequest) (*store.SessionPayload, json.RawMessage, error)
}

// UtteranceSource yields the candidate's accumulated speech and accepts
// relayed audio frames.
type UtteranceSource interface {
	ConsumeUtterance() string
	Forward(data []byte, isBinary bool) bool
}

// Server wires the HTTP routes to the interview components.
type Server struct {
	coordinator TurnRunner
	planner     PlanBuilder
	transcript  UtteranceSource
	echo        *echo.Echo
}

func New(coordinator TurnRunner, pl PlanBuilder, transcript UtteranceSource) *Server {
	s := &Server{coordinator: coordinator, planner: pl, transcript: transcript}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/send-msg", s.handleSendMsg)
	e.POST("/reconnect", s.handleReconnect)
	e.POST("/topics", s.handleTopics)
	e.POST("/finish", s.handleFinish)
	e.GET("/audio", s.handleAudio)

	s.echo = e
	return s
}

// Handler returns the routed handler for an http.Server.
func (s *Server) Handler() http.Handler { return s.echo }

type turnRequest struct {
	UserID     string `json:"userId"`
	AnswerText string `json:"answer_text"`
}

// handleSendMsg runs one interview turn. The answer is the explicit
// answer_text when provided, otherwise the utterance accumulated from the
// audio relay since the last turn.
func (s *Server) handleSendMsg(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.UserID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
	}

	answer := req.AnswerText
	if answer == "" {
		answer = s.transcript.ConsumeUtterance()
	}

	result, err := s.coordinator.Turn(c.Request().Context(), req.UserID, answer)
	if errors.Is(err, interview.ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no session found for user"})
	}
	if err != nil {
		log.Printf("httpserver: turn failed for %s: %v", req.UserID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "turn failed"})
	}
	return c.JSON(http.StatusOK, result)
}

type reconnectRequest struct {
	UserID string `json:"userId"`
}

// handleReconnect reopens the relay gate once the client finished playing the
// question audio.
func (s *Server) handleReconnect(c echo.Context) error {
	var req reconnectRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
	}
	s.coordinator.Reconnect(req.UserID)
	return c.JSON(http.StatusOK, echo.Map{"status": "listening"})
}

// handleTopics runs intake: topics and question patterns are generated for
// the candidate's skills and the session payload is stored. The response is
// the generated plan, mirroring what the session now holds.
func (s *Server) handleTopics(c echo.Context) error {
	var req planner.IntakeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.UserID) == "" || len(req.Skills) == 0 || strings.TrimSpace(req.Experience) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId, skills and experience are required"})
	}

	_, rawPlan, err := s.planner.BuildPlan(c.Request().Context(), req)
	if err != nil {
		log.Printf("httpserver: intake failed for %s: %v", req.UserID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "plan generation failed"})
	}
	return c.JSONBlob(http.StatusOK, rawPlan)
}

// handleFinish closes out the in-flight topic and returns all evaluations.
func (s *Server) handleFinish(c echo.Context) error {
	var req reconnectRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
	}
	evals := s.coordinator.Finish(c.Request().Context(), req.UserID)
	return c.JSON(http.StatusOK, evals)
}

// handleAudio upgrades to a websocket and relays the client's audio frames to
// the transcription provider under the user's gate.
func (s *Server) handleAudio(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId query parameter is required"})
	}
	gw := relay.NewGateway(s.transcript, s.coordinator.Gate(userID))
	gw.ServeWebSocket(c.Response(), c.Request())
	return nil
}
