package validator

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const maxFilenameLength = 200

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_\s-]`)

// ValidateURL validates that the URL host belongs to one of the allowed domains
func ValidateURL(videoURL string, allowedDomains []string) bool {
	raw := strings.TrimSpace(videoURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	// Normalize host to lowercase for comparison
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}

	for _, domain := range allowedDomains {
		cleanDomain := strings.ToLower(strings.TrimSpace(domain))
		if len(cleanDomain) == 0 {
			continue
		}

		if host == cleanDomain || strings.HasSuffix(host, "."+cleanDomain) {
			return true
		}
	}

	return false
}

// ParseItag validates an itag query value. Empty means no explicit format.
func ParseItag(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if len(s) > 6 {
		return 0, false
	}
	itag, err := strconv.Atoi(s)
	if err != nil || itag <= 0 {
		return 0, false
	}
	return itag, true
}

// ParseBool accepts the usual truthy spellings of a query flag
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// SanitizeFilename keeps only letters, digits, underscore, whitespace and
// hyphen, collapses whitespace runs and trims. Empty results become "video".
func SanitizeFilename(filename string) string {
	result := unsafeFilenameChars.ReplaceAllString(filename, "")
	result = strings.Join(strings.Fields(result), " ")
	result = TruncateFilename(result, maxFilenameLength)
	result = strings.TrimSpace(result)
	if result == "" {
		return "video"
	}
	return result
}

// TruncateFilename truncates filename to max length while preserving extension
// Uses rune-level truncation to properly handle UTF-8 multi-byte characters
func TruncateFilename(filename string, maxLen int) string {
	runes := []rune(filename)

	if len(runes) <= maxLen {
		return filename
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot == -1 {
		return string(runes[:maxLen])
	}

	ext := filename[lastDot:]
	extRunes := []rune(ext)

	availableLen := maxLen - len(extRunes)
	if availableLen <= 0 {
		return string(runes[:maxLen])
	}

	return string(runes[:availableLen]) + ext
}
