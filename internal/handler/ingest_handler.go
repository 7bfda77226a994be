package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/hearthlabs/hearth/internal/model"
	"github.com/hearthlabs/hearth/internal/pkg/errcode"
	"github.com/hearthlabs/hearth/internal/pkg/response"
	"github.com/hearthlabs/hearth/internal/service"
)

const maxUploadBytes = 50 << 20

type IngestHandler struct {
	ingest *service.IngestService
}

func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

type fileStatusResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ExtractStatus string `json:"extract_status"`
	ExtractError  string `json:"extract_error,omitempty"`
}

func (h *IngestHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(io.LimitReader(opened, maxUploadBytes+1))
	if err != nil || len(data) > maxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}

	mime := fileHeader.Header.Get("Content-Type")
	file, err := h.ingest.IngestFile(c.Request.Context(), data, mime, fileHeader.Filename, getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fileStatusResponse{
		ID:            file.ID,
		Name:          file.Name,
		ExtractStatus: string(file.ExtractStatus),
		ExtractError:  file.ExtractError,
	})
}

func (h *IngestHandler) Status(c *gin.Context) {
	file, err := h.ingest.GetFileStatus(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fileStatusResponse{
		ID:            file.ID,
		Name:          file.Name,
		ExtractStatus: string(file.ExtractStatus),
		ExtractError:  file.ExtractError,
	})
}

type ingestMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	MessageID      string `json:"message_id" binding:"required"`
	Text           string `json:"text" binding:"required"`
}

func (h *IngestHandler) IngestMessage(c *gin.Context) {
	var req ingestMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	count, err := h.ingest.IngestMessage(c.Request.Context(), getUserID(c), req.ConversationID, req.MessageID, req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"records": count})
}

func (h *IngestHandler) DeleteSource(c *gin.Context) {
	sourceType := model.SourceType(c.Param("type"))
	if err := h.ingest.DeleteBySource(c.Request.Context(), sourceType, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *IngestHandler) DeleteConversationIndex(c *gin.Context) {
	if err := h.ingest.DeleteByConversation(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
