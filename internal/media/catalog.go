package media

import (
	"math"
	"mime"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// extByMime maps base MIME types to file extensions.
var extByMime = map[string]string{
	"video/mp4":  "mp4",
	"video/webm": "webm",
	"video/3gpp": "3gp",
	"audio/mp4":  "m4a",
	"audio/webm": "webm",
	"audio/opus": "opus",
	"audio/aac":  "aac",
}

var (
	audioCodecPrefixes = []string{"mp4a", "opus", "vorbis", "ac-3", "ec-3", "flac", "mp3", "aac"}
	videoCodecPrefixes = []string{"avc1", "avc3", "vp9", "vp09", "vp8", "av01", "hev1", "hvc1", "mp4v"}
)

// Catalog holds the classified formats of one video, each bucket sorted
// best-first.
type Catalog struct {
	VideoOnly []ClassifiedFormat
	AudioOnly []ClassifiedFormat
	Merged    []ClassifiedFormat
}

// Len returns the number of formats across all buckets.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.VideoOnly) + len(c.AudioOnly) + len(c.Merged)
}

// All returns every format in merged, video-only, audio-only order.
func (c *Catalog) All() []ClassifiedFormat {
	if c == nil {
		return nil
	}
	all := make([]ClassifiedFormat, 0, c.Len())
	all = append(all, c.Merged...)
	all = append(all, c.VideoOnly...)
	return append(all, c.AudioOnly...)
}

// Itags lists the identifiers of every format in All order.
func (c *Catalog) Itags() []int {
	return lo.Map(c.All(), func(f ClassifiedFormat, _ int) int {
		return f.Itag
	})
}

// BuildCatalog classifies formats into buckets and sorts them. It fails with
// ErrNoFormats when nothing usable remains and the video is not live.
func BuildCatalog(formats []RawFormat, live bool) (*Catalog, error) {
	cat := &Catalog{}

	for _, raw := range formats {
		f, ok := Classify(raw)
		if !ok {
			continue
		}
		switch f.Category {
		case CategoryMerged:
			cat.Merged = append(cat.Merged, f)
		case CategoryVideoOnly:
			cat.VideoOnly = append(cat.VideoOnly, f)
		case CategoryAudioOnly:
			cat.AudioOnly = append(cat.AudioOnly, f)
		}
	}

	if cat.Len() == 0 && !live {
		return nil, ErrNoFormats
	}

	sortByHeight(cat.Merged)
	sortByHeight(cat.VideoOnly)
	sortByBitrate(cat.AudioOnly)

	return cat, nil
}

// Classify assigns a category, extension and kbps bitrate to a raw format.
// It returns false for formats that signal neither audio nor video.
func Classify(raw RawFormat) (ClassifiedFormat, bool) {
	base, codecs := splitMime(raw.MimeType)

	f := ClassifiedFormat{
		RawFormat:   raw,
		Ext:         ExtFromMime(raw.MimeType),
		BitrateKbps: int(math.Round(float64(raw.Bitrate) / 1000)),
	}

	switch {
	case strings.HasPrefix(base, "audio/"):
		f.Category = CategoryAudioOnly
	case strings.HasPrefix(base, "video/"):
		if raw.Combined || hasAudioAndVideo(codecs) {
			f.Category = CategoryMerged
		} else {
			f.Category = CategoryVideoOnly
		}
	default:
		return ClassifiedFormat{}, false
	}

	return f, true
}

// ExtFromMime maps a MIME type (codecs parameter allowed) to a file
// extension, falling back to the subtype and then to "unknown".
func ExtFromMime(mimeType string) string {
	base, _ := splitMime(mimeType)
	if base == "" {
		return "unknown"
	}
	if ext, ok := extByMime[base]; ok {
		return ext
	}
	if _, sub, ok := strings.Cut(base, "/"); ok && sub != "" {
		return sub
	}
	return "unknown"
}

func splitMime(mimeType string) (string, []string) {
	base, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		base, _, _ = strings.Cut(mimeType, ";")
		return strings.ToLower(strings.TrimSpace(base)), nil
	}

	var codecs []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, strings.ToLower(c))
		}
	}
	return base, codecs
}

func hasAudioAndVideo(codecs []string) bool {
	var audio, video bool
	for _, c := range codecs {
		audio = audio || hasAnyPrefix(c, audioCodecPrefixes)
		video = video || hasAnyPrefix(c, videoCodecPrefixes)
	}
	return audio && video
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Equal heights keep their input order.
func sortByHeight(formats []ClassifiedFormat) {
	slices.SortStableFunc(formats, func(a, b ClassifiedFormat) int {
		return b.Height - a.Height
	})
}

func sortByBitrate(formats []ClassifiedFormat) {
	slices.SortStableFunc(formats, func(a, b ClassifiedFormat) int {
		return b.Bitrate - a.Bitrate
	})
}
