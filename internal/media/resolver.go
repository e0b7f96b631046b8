package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	videoIDLength = 11

	// maxDecodeRounds bounds percent-decoding of multiply-encoded input.
	maxDecodeRounds = 8
)

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	// pathPrefixes are the youtube.com path shapes that carry the ID as
	// their second segment.
	pathPrefixes = map[string]bool{
		"embed":  true,
		"shorts": true,
		"live":   true,
		"v":      true,
	}
)

// IsValidVideoID reports whether s has the shape of a video ID.
func IsValidVideoID(s string) bool {
	return len(s) == videoIDLength && videoIDPattern.MatchString(s)
}

// ParseVideoID validates a bare video ID without any URL handling.
func ParseVideoID(s string) (VideoID, error) {
	if !IsValidVideoID(s) {
		return "", fmt.Errorf("%w: video id must be exactly %d characters of [A-Za-z0-9_-], got %q", ErrInvalidInput, videoIDLength, s)
	}
	return VideoID(s), nil
}

// Resolve extracts the video ID from a bare ID or any supported YouTube URL
// shape (watch, youtu.be, embed, shorts, live, v). Input may be percent-encoded
// any number of times.
func Resolve(input string) (VideoID, error) {
	decoded := strings.TrimSpace(FullyDecode(input))

	if IsValidVideoID(decoded) {
		return VideoID(decoded), nil
	}

	if id, ok := idFromURL(decoded); ok {
		return id, nil
	}

	return "", fmt.Errorf("%w: no video id in %q", ErrNotFound, input)
}

// FullyDecode percent-decodes s until it stops changing. A malformed escape
// stops decoding and the last successfully decoded value is returned.
func FullyDecode(s string) string {
	decoded := s
	for i := 0; i < maxDecodeRounds; i++ {
		next, err := url.PathUnescape(decoded)
		if err != nil || next == decoded {
			break
		}
		decoded = next
	}
	return decoded
}

func idFromURL(raw string) (VideoID, bool) {
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case host == "youtu.be" || host == "www.youtu.be":
		return candidate(segments[0])

	case isLongFormHost(host):
		if v := u.Query().Get("v"); v != "" {
			return candidate(v)
		}
		if len(segments) >= 2 && pathPrefixes[segments[0]] {
			return candidate(segments[1])
		}
	}

	return "", false
}

func isLongFormHost(host string) bool {
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtube-nocookie.com" || strings.HasSuffix(host, ".youtube-nocookie.com")
}

func candidate(s string) (VideoID, bool) {
	if IsValidVideoID(s) {
		return VideoID(s), true
	}
	return "", false
}
