package media

import (
	"fmt"
	"strconv"
	"strings"
)

// OutputType is the kind of stream a caller asks for.
type OutputType string

const (
	OutputVideo  OutputType = "video"
	OutputAudio  OutputType = "audio"
	OutputMerged OutputType = "merged"
)

// ParseOutputType parses a type query value; empty means merged.
func ParseOutputType(s string) (OutputType, error) {
	switch t := OutputType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return OutputMerged, nil
	case OutputVideo, OutputAudio, OutputMerged:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q, expected video, audio or merged", ErrInvalidInput, s)
	}
}

const (
	QualityBest  = "best"
	QualityWorst = "worst"
)

// Criteria describes what the caller wants from a catalog.
type Criteria struct {
	Itag    int // 0 means no explicit format
	Type    OutputType
	Quality string // "best", "worst" or "<N>p"
}

// Selection is the result of Select: exactly one of Format or Live is set.
type Selection struct {
	Format *ClassifiedFormat
	Live   *LiveStream

	// AudioMissing is set when a merged request fell back to a video-only
	// format because the video has no merged formats.
	AudioMissing bool
}

// Select picks one format from the catalog, or the live descriptor when the
// video is live. It never panics on any combination of criteria.
func Select(cat *Catalog, live *LiveStream, c Criteria) (Selection, error) {
	if live != nil {
		if live.ManifestURL == "" {
			return Selection{}, ErrLiveNoManifest
		}
		return Selection{Live: live}, nil
	}

	if cat == nil {
		return Selection{}, ErrNoFormats
	}

	if c.Itag != 0 {
		for _, f := range cat.All() {
			if f.Itag == c.Itag {
				return Selection{Format: &f}, nil
			}
		}
		return Selection{}, &FormatNotFoundError{Itag: c.Itag, Available: cat.Itags()}
	}

	switch c.Type {
	case OutputAudio:
		if len(cat.AudioOnly) == 0 {
			return Selection{}, fmt.Errorf("%w: no audio-only formats", ErrNoFormats)
		}
		f := cat.AudioOnly[0]
		return Selection{Format: &f}, nil

	case OutputVideo:
		f, ok := pickByQuality(cat.VideoOnly, c.Quality)
		if !ok {
			return Selection{}, fmt.Errorf("%w: no video-only formats", ErrNoFormats)
		}
		return Selection{Format: &f}, nil

	case OutputMerged, "":
		if f, ok := pickByQuality(cat.Merged, c.Quality); ok {
			return Selection{Format: &f}, nil
		}
		if f, ok := pickByQuality(cat.VideoOnly, c.Quality); ok {
			return Selection{Format: &f, AudioMissing: true}, nil
		}
		return Selection{}, fmt.Errorf("%w: no merged or video-only formats", ErrNoFormats)

	default:
		return Selection{}, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, c.Type)
	}
}

// pickByQuality applies the best/worst/<=N rule to a bucket sorted by
// descending height.
func pickByQuality(bucket []ClassifiedFormat, quality string) (ClassifiedFormat, bool) {
	if len(bucket) == 0 {
		return ClassifiedFormat{}, false
	}

	switch q := strings.ToLower(strings.TrimSpace(quality)); q {
	case "", QualityBest:
		return bucket[0], true
	case QualityWorst:
		return bucket[len(bucket)-1], true
	default:
		if target, ok := ParseQuality(q); ok {
			for _, f := range bucket {
				if f.Height <= target {
					return f, true
				}
			}
		}
		return bucket[0], true
	}
}

// ParseQuality parses a "<N>p" (or bare "<N>") height hint.
func ParseQuality(q string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(q)), "p"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
