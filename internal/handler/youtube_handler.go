package handler

import (
	"net/http"
	"strconv"
	"strings"

	"ytstream/internal/media"
	"ytstream/internal/model"
	"ytstream/internal/service"
	"ytstream/internal/youtube"
	"ytstream/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// YouTubeHandler handles video info, search and link requests
type YouTubeHandler struct {
	videoService *service.VideoService
	cfg          *model.Config
	links        links
}

// NewYouTubeHandler creates a new youtube handler
func NewYouTubeHandler(vs *service.VideoService, cfg *model.Config) *YouTubeHandler {
	return &YouTubeHandler{
		videoService: vs,
		cfg:          cfg,
		links:        newLinks(cfg.Server.PublicBaseURL),
	}
}

// Info handles GET /api/youtube/info
func (h *YouTubeHandler) Info(c *gin.Context) {
	input, ok := h.videoInput(c)
	if !ok {
		return
	}

	report, err := h.videoService.Info(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "")
		return
	}

	playable := h.videoService.PlayableURLs(c.Request.Context(), report)
	formats := lo.Map(report.Catalog.All(), func(f media.ClassifiedFormat, _ int) model.InfoFormat {
		u, ok := playable[f.Itag]
		if !ok {
			u = h.links.format(report.Details.ID, f.Itag, false)
		}
		return model.InfoFormat{
			Itag:        f.Itag,
			Quality:     f.QualityLabel,
			MimeType:    f.MimeType,
			URL:         u,
			StreamURL:   h.links.format(report.Details.ID, f.Itag, false),
			DownloadURL: h.links.format(report.Details.ID, f.Itag, true),
		}
	})

	thumbnails := report.Details.Thumbnails
	if thumbnails == nil {
		thumbnails = []media.Thumbnail{}
	}

	c.JSON(http.StatusOK, model.InfoResponse{
		Title:      report.Details.Title,
		Thumbnails: thumbnails,
		Formats:    formats,
	})
}

// Download handles GET /api/youtube/download, backed by yt-dlp
func (h *YouTubeHandler) Download(c *gin.Context) {
	input, ok := h.videoInput(c)
	if !ok {
		return
	}

	report, err := h.videoService.ExtractorInfo(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Try /api/youtube/download-fast?url=... which does not depend on yt-dlp")
		return
	}

	c.JSON(http.StatusOK, h.links.video(report))
}

// DownloadFast handles GET /api/youtube/download-fast, backed by the session client
func (h *YouTubeHandler) DownloadFast(c *gin.Context) {
	input, ok := h.videoInput(c)
	if !ok {
		return
	}

	report, err := h.videoService.Info(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Try /api/youtube/download?url=... which uses yt-dlp")
		return
	}

	c.JSON(http.StatusOK, h.links.video(report))
}

// Complete handles GET /api/youtube/v2
func (h *YouTubeHandler) Complete(c *gin.Context) {
	input, ok := h.videoInput(c)
	if !ok {
		return
	}

	report, err := h.videoService.Info(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Make sure the video is public and not age-restricted, or try /api/youtube/download")
		return
	}

	c.JSON(http.StatusOK, model.CompleteResponse{
		Success:       true,
		VideoResponse: h.links.video(report),
		Description:   report.Details.Description,
		UploadDate:    report.Details.UploadDate,
		QuickStream:   h.links.quickStream(report.Details.ID),
	})
}

// Proxy handles GET /api/youtube/proxy. It only derives links and does not
// contact YouTube.
func (h *YouTubeHandler) Proxy(c *gin.Context) {
	input, ok := h.videoInput(c)
	if !ok {
		return
	}

	id, err := media.Resolve(input)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, h.links.proxy(id))
}

// Search handles GET /api/youtube/search
func (h *YouTubeHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "missing_query", "Search query parameter 'q' is required")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.videoService.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, model.SearchResponse{
		Query: query,
		Results: lo.Map(results, func(r youtube.SearchResult, _ int) model.SearchResult {
			return model.SearchResult{
				ID:        r.ID,
				Title:     r.Title,
				Thumbnail: r.Thumbnail,
				Duration:  r.Duration,
				Author:    r.Author,
				Live:      r.Live,
			}
		}),
	})
}

// videoInput reads the url parameter. Bare ids pass; URLs must belong to an
// allowed domain.
func (h *YouTubeHandler) videoInput(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		badRequest(c, "missing_url", "Query parameter 'url' is required")
		return "", false
	}

	decoded := strings.TrimSpace(media.FullyDecode(raw))
	if media.IsValidVideoID(decoded) {
		return decoded, true
	}
	if !validator.ValidateURL(decoded, h.cfg.Security.AllowedDomains) {
		badRequest(c, "invalid_domain", "URL domain is not allowed")
		return "", false
	}
	return raw, true
}
