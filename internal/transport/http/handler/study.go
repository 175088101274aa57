package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/app"
	"studybuddy/internal/transport/http/response"
)

const maxUploadSize = 10 << 20 // 10 MB

type StudyHandler struct {
	ingestService *app.IngestService
	studyService  *app.StudyService
}

func NewStudyHandler(ingestService *app.IngestService, studyService *app.StudyService) *StudyHandler {
	return &StudyHandler{
		ingestService: ingestService,
		studyService:  studyService,
	}
}

type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID uint   `json:"session_id"`
}

type SummaryRequest struct {
	Message string `json:"message" binding:"required"`
}

type FlashcardsRequest struct {
	SessionID uint `json:"session_id"`
}

// Upload accepts a multipart PDF and ingests it. An image-only PDF is a
// success with zero chunks processed, not an error.
func (h *StudyHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 10MB)")
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are supported currently")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	sessionID, err := parseUintForm(c, "session_id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	result, err := h.ingestService.IngestPDF(c.Request.Context(), app.IngestInput{
		FileName:  file.Filename,
		Data:      data,
		SessionID: sessionID,
	})
	if err != nil {
		writeStudyError(c, err, "ingest failed")
		return
	}

	response.OK(c, gin.H{
		"filename":         result.FileName,
		"chunks_processed": result.ChunksProcessed,
		"status":           "success",
	})
}

// Chat answers a question grounded in the uploaded documents.
func (h *StudyHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.studyService.Ask(c.Request.Context(), app.AskInput{
		Question:  req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeStudyError(c, err, "chat failed")
		return
	}
	response.OK(c, result)
}

func (h *StudyHandler) Summary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.studyService.Summarize(c.Request.Context(), req.Message)
	if err != nil {
		writeStudyError(c, err, "summary failed")
		return
	}
	response.OK(c, result)
}

func (h *StudyHandler) Flashcards(c *gin.Context) {
	var req FlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.studyService.GenerateFlashcards(c.Request.Context(), req.SessionID)
	if err != nil {
		writeStudyError(c, err, "flashcard generation failed")
		return
	}
	response.OK(c, result)
}

func (h *StudyHandler) History(c *gin.Context) {
	sessionID, err := parseUintQuery(c, "session_id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		limit, _ = strconv.Atoi(s)
	}

	messages, err := h.studyService.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		writeStudyError(c, err, "fetch history failed")
		return
	}
	response.OK(c, gin.H{"messages": messages})
}

func writeStudyError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrExtraction):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeUnprocessable, err.Error())
	case errors.Is(err, app.ErrEmbedding), errors.Is(err, app.ErrRetrieval), errors.Is(err, app.ErrCompletion):
		response.Error(c, http.StatusBadGateway, response.CodeUpstreamFailed, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func parseUintForm(c *gin.Context, key string) (uint, error) {
	s := c.PostForm(key)
	if s == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(u), nil
}

func parseUintQuery(c *gin.Context, key string) (uint, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(u), nil
}
