package v1

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/agenticdata/datachat/server/chat"
	"github.com/agenticdata/datachat/server/logger"
	"github.com/agenticdata/datachat/store"
)

type chatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   struct {
		Message string `json:"message"`
	} `json:"message"`
}

type chatResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []chat.Message `json:"messages"`
	Error     string         `json:"error,omitempty"`
}

// handleChat runs one chat turn and returns the assembled reply sequence.
func (s *APIV1Service) handleChat(c *echo.Context) error {
	if s.Orchestrator == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Chat components not initialized on the server.")
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id, session_id, and message are required")
	}

	messages, _, err := s.Orchestrator.Converse(c.Request().Context(), req.UserID, req.SessionID, req.Message.Message)
	switch {
	case errors.Is(err, chat.ErrMissingField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return c.JSON(http.StatusInternalServerError, chatResponse{
			SessionID: req.SessionID,
			Messages:  []chat.Message{},
			Error:     "Internal server error",
		})
	}

	if messages == nil {
		messages = []chat.Message{}
	}
	return c.JSON(http.StatusOK, chatResponse{SessionID: req.SessionID, Messages: messages})
}

// testQuery runs a single question on a throwaway session and classifies the
// outcome. Meant for smoke checks, not for the frontend.
func (s *APIV1Service) testQuery(c *echo.Context) error {
	userID := c.QueryParam("user_id")
	question := c.QueryParam("question")
	if userID == "" || question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Both 'user_id' and 'question' required")
	}

	if s.Store == nil || s.Runner == nil || s.Orchestrator == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Chat components not initialized")
	}

	ctx := c.Request().Context()
	sess, err := s.Store.CreateSession(ctx, &store.Session{
		UID:     shortuuid.New(),
		AppName: s.Runner.AppName(),
		UserID:  userID,
	})
	if err != nil {
		s.Logs.Operational.Error("error in test_query endpoint")
		s.Logs.Restricted.Error("test query session creation failed", "user", userID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	s.Logs.Operational.Debug("created temporary session",
		"user", logger.Sanitize(userID),
		"session", sess.UID,
	)

	result, err := s.Orchestrator.Probe(ctx, userID, sess.UID, question)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	switch {
	case result.AgentError != nil:
		return c.JSON(http.StatusBadRequest, map[string]any{
			"status": "AgentError",
			"error":  result.AgentError,
		})
	case result.GeneratedSQL == "" && result.Clarification != "":
		return c.JSON(http.StatusOK, map[string]any{
			"status":                 "ClarificationNeeded",
			"clarification_question": result.Clarification,
		})
	default:
		sql := result.GeneratedSQL
		if sql == "" {
			sql = "No SQL generated."
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":        "Success",
			"generated_sql": sql,
		})
	}
}
