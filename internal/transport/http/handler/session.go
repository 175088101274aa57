package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/app"
	"studybuddy/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
}

func NewSessionHandler(sessionService *app.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type CreateSessionRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=512"`
}

type UpdateSessionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), app.CreateSessionInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeSessionError(c, err, "create session failed")
		return
	}
	response.OK(c, gin.H{"session": session})
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessionService.ListSessions(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list sessions failed")
		return
	}
	response.OK(c, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	detail, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		writeSessionError(c, err, "fetch session failed")
		return
	}
	response.OK(c, gin.H{"session": detail})
}

func (h *SessionHandler) Update(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.sessionService.UpdateSession(c.Request.Context(), sessionID, app.UpdateSessionInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeSessionError(c, err, "update session failed")
		return
	}
	response.OK(c, gin.H{"session": session})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	if err := h.sessionService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		writeSessionError(c, err, "delete session failed")
		return
	}
	response.OK(c, gin.H{"message": "Session deleted successfully"})
}

func writeSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	u, err := strconv.ParseUint(c.Param(key), 10, 64)
	return uint(u), err
}
