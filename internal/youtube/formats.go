package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ytstream/internal/media"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"
)

// Video is a fetched video: normalized details plus the source handle needed
// to open its streams.
type Video struct {
	Details media.VideoDetails

	native *youtube.Video
}

// NewVideo wraps details that have no stream source attached.
func NewVideo(details media.VideoDetails) *Video {
	return &Video{Details: details}
}

func videoFromNative(id media.VideoID, v *youtube.Video) *Video {
	details := media.VideoDetails{
		ID:             id,
		Title:          v.Title,
		Description:    v.Description,
		Author:         v.Author,
		ChannelID:      v.ChannelID,
		Duration:       int(v.Duration.Seconds()),
		Views:          v.Views,
		HLSManifestURL: v.HLSManifestURL,
		Thumbnails: lo.Map(v.Thumbnails, func(t youtube.Thumbnail, _ int) media.Thumbnail {
			return media.Thumbnail{URL: t.URL, Width: int(t.Width), Height: int(t.Height)}
		}),
		Formats: lo.Map(v.Formats, func(f youtube.Format, _ int) media.RawFormat {
			return normalizeFormat(f)
		}),
	}
	if !v.PublishDate.IsZero() {
		details.UploadDate = v.PublishDate.Format("2006-01-02")
	}
	// Live broadcasts report no length and carry an HLS manifest.
	details.Live = v.HLSManifestURL != "" && v.Duration == 0

	return &Video{Details: details, native: v}
}

// normalizeFormat maps a library format onto RawFormat. The library merges
// the combined and adaptive lists, so a video format that reports audio
// channels is taken to be combined.
func normalizeFormat(f youtube.Format) media.RawFormat {
	return media.RawFormat{
		Itag:            f.ItagNo,
		MimeType:        f.MimeType,
		QualityLabel:    f.QualityLabel,
		Quality:         f.Quality,
		FPS:             f.FPS,
		Bitrate:         f.Bitrate,
		Width:           f.Width,
		Height:          f.Height,
		ContentLength:   f.ContentLength,
		AudioQuality:    f.AudioQuality,
		AudioChannels:   f.AudioChannels,
		SignatureCipher: f.Cipher,
		URL:             f.URL,
		Combined:        strings.HasPrefix(f.MimeType, "video/") && f.AudioChannels > 0,
	}
}

// classifyError maps library errors onto the media error classes.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%s: %w: %w", op, media.ErrInvalidInput, err)
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("%s: %w: %w", op, media.ErrRestricted, err)
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%s: %w: %w", op, media.ErrRestricted, err)
	}

	return fmt.Errorf("%s: %w: %w", op, media.ErrUpstreamUnavailable, err)
}
