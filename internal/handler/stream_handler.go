package handler

import (
	"context"
	"net/http"
	"strconv"

	"ytstream/internal/media"
	"ytstream/internal/service"
	"ytstream/internal/stream"
	"ytstream/pkg/logger"
	"ytstream/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const streamHint = "Use /api/youtube/download-fast?url=... to list the available formats"

// StreamHandler relays media bytes to clients
type StreamHandler struct {
	videoService *service.VideoService
	proxy        *stream.Proxy
	registry     *stream.Registry
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(vs *service.VideoService, proxy *stream.Proxy, registry *stream.Registry) *StreamHandler {
	return &StreamHandler{
		videoService: vs,
		proxy:        proxy,
		registry:     registry,
	}
}

// Stream handles GET /api/youtube/stream/:videoId
func (h *StreamHandler) Stream(c *gin.Context) {
	id, err := media.ParseVideoID(c.Param("videoId"))
	if err != nil {
		badRequest(c, "invalid_video_id", "Video id must be exactly 11 characters of [A-Za-z0-9_-]")
		return
	}

	itag, ok := validator.ParseItag(c.Query("itag"))
	if !ok {
		badRequest(c, "invalid_itag", "itag must be a positive integer")
		return
	}

	outputType, err := media.ParseOutputType(c.Query("type"))
	if err != nil {
		respondError(c, err, "")
		return
	}

	criteria := media.Criteria{
		Itag:    itag,
		Type:    outputType,
		Quality: c.DefaultQuery("quality", media.QualityBest),
	}
	download := validator.ParseBool(c.Query("download"))

	ctx := c.Request.Context()
	plan, err := h.videoService.PlanStream(ctx, id, criteria)
	if err != nil {
		respondError(c, err, streamHint)
		return
	}

	if live := plan.Selection.Live; live != nil {
		logger.Logger.Info("Redirecting live stream to manifest", zap.String("video_id", id.String()))
		c.Redirect(http.StatusFound, live.ManifestURL)
		return
	}

	format := plan.Selection.Format
	header := http.Header{}
	header.Set("X-Format-Itag", strconv.Itoa(format.Itag))
	if plan.Selection.AudioMissing {
		header.Set("X-Audio-Missing", "true")
	}

	rangeHeader := c.GetHeader("Range")
	res := h.proxy.Serve(ctx, c.Writer, stream.Request{
		VideoID: id.String(),
		Itag:    format.Itag,
		Open: func(ctx context.Context) (*stream.Upstream, error) {
			return h.videoService.OpenUpstream(ctx, plan, rangeHeader)
		},
		Framing: stream.Framing{
			MimeType:      format.MimeType,
			ContentLength: format.ContentLength,
			Title:         plan.Title,
			Ext:           format.Ext,
			Attachment:    download,
		},
		Header: header,
	})

	if res.Outcome == stream.OutcomeUpstreamFailed && !res.HeadersSent {
		respondError(c, res.Err, streamHint)
	}
}

// Health handles GET /api/health
func (h *StreamHandler) Health(c *gin.Context) {
	stats := h.registry.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          "ytstream",
		"activeStreams":    stats.Active,
		"completedStreams": stats.Completed,
		"bytesRelayed":     stats.Bytes,
	})
}

// ActiveStreams handles GET /api/streams
func (h *StreamHandler) ActiveStreams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streams": h.registry.Active()})
}
