package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hearthlabs/hearth/internal/model"
	"github.com/hearthlabs/hearth/internal/pkg/errcode"
	"github.com/hearthlabs/hearth/internal/pkg/response"
	"github.com/hearthlabs/hearth/internal/service"
)

type SearchHandler struct {
	ingest *service.IngestService
}

func NewSearchHandler(ingest *service.IngestService) *SearchHandler {
	return &SearchHandler{ingest: ingest}
}

type searchRequest struct {
	Query          string   `json:"query" binding:"required"`
	ConversationID string   `json:"conversation_id"`
	FileIDs        []string `json:"file_ids"`
	Limit          int      `json:"limit"`
}

// Search answers a scoped similarity query. With ?stream=1 the matches go
// out one by one as SSE events so the chat layer can render grounding
// sources while the completion is still being generated.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	scope := model.SearchScope{
		ConversationID: req.ConversationID,
		FileIDs:        req.FileIDs,
	}
	matches, err := h.ingest.Search(c.Request.Context(), getUserID(c), req.Query, scope, req.Limit)
	if err != nil {
		handleError(c, err)
		return
	}
	if c.Query("stream") == "1" {
		h.streamMatches(c, matches)
		return
	}
	response.Success(c, gin.H{"matches": matches})
}

func (h *SearchHandler) streamMatches(c *gin.Context, matches []*model.SearchMatch) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	for _, match := range matches {
		c.SSEvent("match", match)
		c.Writer.Flush()
	}
	c.SSEvent("done", gin.H{"count": len(matches)})
	c.Writer.Flush()
}
