package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInput marks malformed or missing identifiers and parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks identifiers or formats that resolve to nothing.
	ErrNotFound = errors.New("not found")

	// ErrNoFormats is returned when a non-live video has no usable formats.
	ErrNoFormats = errors.New("no usable formats found, the video may be restricted or unavailable")

	ErrLiveNoManifest = errors.New("live stream has no playable manifest")

	// ErrRestricted marks videos that need login, are private, or refuse playback.
	ErrRestricted = errors.New("video is restricted")

	// ErrUpstreamUnavailable marks failures of the external info or session source.
	// These are the only errors the session retry policy acts on.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrDecipherUnavailable is returned when a playable URL cannot be recovered.
	ErrDecipherUnavailable = errors.New("unable to decipher playable url")
)

// FormatNotFoundError reports an explicit itag that is not in the catalog.
type FormatNotFoundError struct {
	Itag      int
	Available []int
}

func (e *FormatNotFoundError) Error() string {
	ids := make([]string, 0, len(e.Available))
	for _, id := range e.Available {
		ids = append(ids, strconv.Itoa(id))
	}
	return fmt.Sprintf("format with itag %d not found, available: [%s]", e.Itag, strings.Join(ids, ", "))
}

func (e *FormatNotFoundError) Unwrap() error {
	return ErrNotFound
}
