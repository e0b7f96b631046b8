package service

import (
	"fmt"
	"strings"

	"ytstream/internal/media"
)

// QualityTier buckets a format into Audio, FD (below 480p), SD (480p),
// HD (720p) or FHD (1080p and above).
func QualityTier(f media.ClassifiedFormat) string {
	if f.Category == media.CategoryAudioOnly {
		return "Audio"
	}

	height := f.Height
	if height == 0 {
		height, _ = media.ParseQuality(f.QualityLabel)
	}

	switch {
	case height >= 1080:
		return "FHD"
	case height >= 720:
		return "HD"
	case height >= 480:
		return "SD"
	case height > 0:
		return "FD"
	default:
		return "Unknown"
	}
}

// DisplayName builds a readable format name
func DisplayName(f media.ClassifiedFormat) string {
	codecs := codecsOf(f.MimeType)
	switch f.Category {
	case media.CategoryAudioOnly:
		return fmt.Sprintf("Audio %dkbps - %s", f.BitrateKbps, codecs)
	case media.CategoryVideoOnly:
		return fmt.Sprintf("%s (%s, no audio) - %s", QualityTier(f), f.Label(), codecs)
	default:
		return fmt.Sprintf("%s (%s) - %s", QualityTier(f), f.Label(), codecs)
	}
}

func codecsOf(mimeType string) string {
	_, params, ok := strings.Cut(mimeType, "codecs=")
	if !ok {
		return strings.TrimSpace(strings.Split(mimeType, ";")[0])
	}
	return strings.Trim(strings.TrimSpace(params), `"`)
}
