package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/hearthlabs/hearth/internal/middleware"
	"github.com/hearthlabs/hearth/internal/pkg/errcode"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
	"github.com/hearthlabs/hearth/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError maps core errors onto stable response codes. Internal detail
// (vector dimensionality, store backend) stays in the log, never in the
// response body.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrNoExtractor):
		response.Error(c, errcode.ErrUnsupportedFileType, err.Error())
	case appErr.IsExtractionError(err):
		response.Error(c, errcode.ErrExtractionFailed, "file could not be extracted")
	case errors.Is(err, appErr.ErrEmbeddingFailed):
		response.Error(c, errcode.ErrAIUnavailable, "embedding service unavailable")
	case errors.Is(err, appErr.ErrInvalidVector):
		response.Error(c, errcode.ErrSearchFailed, "retrieval failed")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
