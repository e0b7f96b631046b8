package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"ytstream/internal/media"
	"ytstream/internal/model"
	"ytstream/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxConcurrentExtractions = 4

// Runner executes the extractor binary and returns its stdout.
type Runner func(ctx context.Context, path string, args ...string) ([]byte, error)

// Extractor fetches video details by running yt-dlp.
type Extractor struct {
	cfg       *model.YtDlpConfig
	run       Runner
	semaphore chan struct{}
}

// NewExtractor creates a new yt-dlp extractor
func NewExtractor(cfg *model.YtDlpConfig) *Extractor {
	return NewExtractorWithRunner(cfg, execRunner)
}

// NewExtractorWithRunner creates an extractor using a custom runner
func NewExtractorWithRunner(cfg *model.YtDlpConfig, run Runner) *Extractor {
	return &Extractor{
		cfg:       cfg,
		run:       run,
		semaphore: make(chan struct{}, maxConcurrentExtractions),
	}
}

// Fetch runs `yt-dlp -J` for the video and normalizes the dump.
func (e *Extractor) Fetch(ctx context.Context, id media.VideoID) (*media.VideoDetails, error) {
	if !e.cfg.Enabled {
		return nil, fmt.Errorf("%w: yt-dlp extractor is disabled", media.ErrUpstreamUnavailable)
	}

	select {
	case e.semaphore <- struct{}{}:
		defer func() { <-e.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.Timeout)*time.Second)
		defer cancel()
	}

	start := time.Now()
	out, err := e.run(ctx, e.cfg.Path, "-J", "--no-warnings", "--no-playlist", id.WatchURL())
	if err != nil {
		logger.Logger.Error("yt-dlp failed",
			zap.String("video_id", id.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, errors.Wrapf(fmt.Errorf("%w: %w", media.ErrUpstreamUnavailable, err), "run yt-dlp for %s", id)
	}

	details, err := parseDump(out)
	if err != nil {
		return nil, errors.Wrapf(err, "parse yt-dlp output for %s", id)
	}
	if details.ID == "" {
		details.ID = id
	}

	logger.Logger.Debug("yt-dlp extracted video",
		zap.String("video_id", id.String()),
		zap.Int("formats", len(details.Formats)),
		zap.Duration("duration", time.Since(start)))

	return details, nil
}

func execRunner(ctx context.Context, path string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrap(err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

type ytDlpDump struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Uploader    string           `json:"uploader"`
	Channel     string           `json:"channel"`
	ChannelID   string           `json:"channel_id"`
	Duration    float64          `json:"duration"`
	ViewCount   int              `json:"view_count"`
	UploadDate  string           `json:"upload_date"`
	Thumbnail   string           `json:"thumbnail"`
	Thumbnails  []ytDlpThumbnail `json:"thumbnails"`
	IsLive      bool             `json:"is_live"`
	ManifestURL string           `json:"manifest_url"`
	Formats     []ytDlpFormat    `json:"formats"`
}

type ytDlpThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ytDlpFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	TBR            float64 `json:"tbr"` // kbps
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	FormatNote     string  `json:"format_note"`
	AudioChannels  int     `json:"audio_channels"`
	URL            string  `json:"url"`
	ManifestURL    string  `json:"manifest_url"`
	Protocol       string  `json:"protocol"`
}

func parseDump(data []byte) (*media.VideoDetails, error) {
	var dump ytDlpDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("%w: decode yt-dlp json: %w", media.ErrUpstreamUnavailable, err)
	}

	author := dump.Uploader
	if author == "" {
		author = dump.Channel
	}

	details := &media.VideoDetails{
		ID:          media.VideoID(dump.ID),
		Title:       dump.Title,
		Description: dump.Description,
		Author:      author,
		ChannelID:   dump.ChannelID,
		Duration:    int(dump.Duration),
		Views:       dump.ViewCount,
		UploadDate:  formatUploadDate(dump.UploadDate),
		Live:        dump.IsLive,
	}

	for _, t := range dump.Thumbnails {
		if t.URL != "" {
			details.Thumbnails = append(details.Thumbnails, media.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
		}
	}
	if len(details.Thumbnails) == 0 && dump.Thumbnail != "" {
		details.Thumbnails = []media.Thumbnail{{URL: dump.Thumbnail}}
	}

	details.HLSManifestURL = dump.ManifestURL
	for _, f := range dump.Formats {
		if details.HLSManifestURL == "" && strings.HasPrefix(f.Protocol, "m3u8") {
			details.HLSManifestURL = f.ManifestURL
		}
		if raw, ok := normalizeDumpFormat(f); ok {
			details.Formats = append(details.Formats, raw)
		}
	}

	return details, nil
}

// normalizeDumpFormat maps a yt-dlp format onto RawFormat. Only formats whose
// id is a numeric itag are kept; storyboards and manifest variants are not.
func normalizeDumpFormat(f ytDlpFormat) (media.RawFormat, bool) {
	itag, err := strconv.Atoi(f.FormatID)
	if err != nil || itag <= 0 {
		return media.RawFormat{}, false
	}

	hasVideo := codecPresent(f.VCodec)
	hasAudio := codecPresent(f.ACodec)
	mimeType := synthesizeMime(f.Ext, f.VCodec, f.ACodec, hasVideo, hasAudio)
	if mimeType == "" {
		return media.RawFormat{}, false
	}

	size := f.Filesize
	if size == 0 {
		size = f.FilesizeApprox
	}

	raw := media.RawFormat{
		Itag:          itag,
		MimeType:      mimeType,
		FPS:           int(math.Round(f.FPS)),
		Bitrate:       int(math.Round(f.TBR * 1000)),
		Width:         f.Width,
		Height:        f.Height,
		ContentLength: size,
		AudioChannels: f.AudioChannels,
		URL:           f.URL,
		Combined:      hasVideo && hasAudio,
	}
	if hasVideo && f.Height > 0 {
		raw.QualityLabel = strconv.Itoa(f.Height) + "p"
	}
	if !hasVideo {
		raw.AudioQuality = f.FormatNote
	}
	return raw, true
}

func codecPresent(codec string) bool {
	return codec != "" && codec != "none"
}

func synthesizeMime(ext, vcodec, acodec string, hasVideo, hasAudio bool) string {
	var kind, subtype string
	switch {
	case hasVideo:
		kind = "video"
		subtype = ext
		if ext == "3gp" {
			subtype = "3gpp"
		}
	case hasAudio:
		kind = "audio"
		subtype = ext
		if ext == "m4a" {
			subtype = "mp4"
		}
	default:
		return ""
	}
	if subtype == "" {
		return ""
	}

	var codecs []string
	if hasVideo {
		codecs = append(codecs, vcodec)
	}
	if hasAudio {
		codecs = append(codecs, acodec)
	}
	return fmt.Sprintf(`%s/%s; codecs="%s"`, kind, subtype, strings.Join(codecs, ", "))
}

// formatUploadDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD.
func formatUploadDate(s string) string {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}
