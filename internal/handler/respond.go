package handler

import (
	"context"
	"errors"
	"net/http"

	"ytstream/internal/media"
	"ytstream/internal/model"
	"ytstream/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the structured error body for err. Invalid input maps to
// 400 and everything else to 500.
func respondError(c *gin.Context, err error, hint string) {
	status := http.StatusInternalServerError
	resp := model.ErrorResponse{
		Error:   errorCode(err),
		Message: err.Error(),
		Hint:    hint,
	}

	var notFound *media.FormatNotFoundError
	if errors.As(err, &notFound) {
		resp.Available = notFound.Available
	}
	if errors.Is(err, media.ErrInvalidInput) {
		status = http.StatusBadRequest
		resp.Hint = ""
	}
	resp.Code = status

	fields := []zap.Field{
		zap.String("path", c.Request.URL.Path),
		zap.String("error_code", resp.Error),
	}
	if status >= http.StatusInternalServerError {
		logger.LogError("Request failed", err, fields...)
	} else {
		logger.LogWarn("Request rejected", append(fields, zap.String("reason", err.Error()))...)
	}

	c.JSON(status, resp)
}

// badRequest writes a 400 for a request that failed validation.
func badRequest(c *gin.Context, code, message string) {
	logger.LogWarn("Invalid request",
		zap.String("path", c.Request.URL.Path),
		zap.String("error_code", code))
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    http.StatusBadRequest,
	})
}

func errorCode(err error) string {
	var notFound *media.FormatNotFoundError
	switch {
	case errors.As(err, &notFound):
		return "format_not_found"
	case errors.Is(err, media.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, media.ErrNotFound):
		return "video_not_found"
	case errors.Is(err, media.ErrNoFormats):
		return "no_formats"
	case errors.Is(err, media.ErrLiveNoManifest):
		return "live_no_manifest"
	case errors.Is(err, media.ErrRestricted):
		return "video_restricted"
	case errors.Is(err, media.ErrDecipherUnavailable):
		return "decipher_unavailable"
	case errors.Is(err, media.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "request_cancelled"
	default:
		return "internal_error"
	}
}
