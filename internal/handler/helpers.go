package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/ai"
	"github.com/xxxsen/embedserver/internal/middleware"
	"github.com/xxxsen/embedserver/internal/pkg/errcode"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
	"github.com/xxxsen/embedserver/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrModelNotFound):
		response.Error(c, errcode.ErrModelNotFound, err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrModelLoad):
		response.Error(c, errcode.ErrModelLoad, err.Error())
	case errors.Is(err, appErr.ErrChunkCountMismatch):
		response.Error(c, errcode.ErrChunkCountMismatch, "chunk count mismatch")
	case errors.Is(err, appErr.ErrDimensionMismatch):
		response.Error(c, errcode.ErrDimensionMismatch, "dimension mismatch")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "inference backend not configured")
	case errors.Is(err, appErr.ErrInference):
		response.Error(c, errcode.ErrInference, "inference failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
