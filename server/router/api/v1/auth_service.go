package v1

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/lithammer/shortuuid/v4"

	"github.com/agenticdata/datachat/server/logger"
	"github.com/agenticdata/datachat/store"
)

type loginRequest struct {
	UserID string `json:"user_id"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type logoutRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// login creates a fresh chat session for the user. There is no credential
// check; the user id is a self-asserted label scoping session history.
func (s *APIV1Service) login(c *echo.Context) error {
	if s.Store == nil || s.Runner == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Session service not initialized.")
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	sess, err := s.Store.CreateSession(c.Request().Context(), &store.Session{
		UID:     shortuuid.New(),
		AppName: s.Runner.AppName(),
		UserID:  req.UserID,
	})
	if err != nil {
		s.Logs.Operational.Error("failed to create session", "user", logger.Sanitize(req.UserID))
		s.Logs.Restricted.Error("session creation failed", "user", req.UserID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not create session.")
	}

	s.Logs.Operational.Info("new session created",
		"user", logger.Sanitize(req.UserID),
		"session", sess.UID,
	)
	return c.JSON(http.StatusOK, loginResponse{SessionID: sess.UID, UserID: req.UserID})
}

// logout acknowledges the request and logs it. The session row is left in
// place; nothing references it again unless the same id is replayed.
func (s *APIV1Service) logout(c *echo.Context) error {
	var req logoutRequest
	_ = c.Bind(&req)

	s.Logs.Operational.Info("user logged out",
		"user", logger.Sanitize(req.UserID),
		"session", logger.Sanitize(req.SessionID),
	)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logout successful"})
}
