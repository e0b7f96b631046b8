package youtube

import (
	"context"
	"fmt"
	"strings"

	"ytstream/internal/media"

	"github.com/raitonoberu/ytsearch"
)

// SearchResult is one video hit of a keyword search.
type SearchResult struct {
	ID        string
	Title     string
	Thumbnail string
	Duration  int // seconds, 0 for live
	Author    string
	Live      bool
}

// Searcher runs keyword searches against YouTube.
type Searcher struct{}

// NewSearcher creates a new searcher
func NewSearcher() *Searcher {
	return &Searcher{}
}

// Search returns at most limit video results for the query.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", media.ErrInvalidInput)
	}

	type outcome struct {
		results []SearchResult
		err     error
	}
	done := make(chan outcome, 1)

	// The search client does not take a context; abandon it on cancellation.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("search %q: %w: malformed response: %v", query, media.ErrUpstreamUnavailable, r)}
			}
		}()

		page, err := ytsearch.VideoSearch(query).Next()
		if err != nil {
			done <- outcome{err: fmt.Errorf("search %q: %w: %w", query, media.ErrUpstreamUnavailable, err)}
			return
		}

		results := make([]SearchResult, 0, min(limit, len(page.Videos)))
		for _, video := range page.Videos {
			if len(results) >= limit {
				break
			}
			if !media.IsValidVideoID(video.ID) {
				continue
			}

			thumbnail := ""
			if len(video.Thumbnails) > 0 {
				thumbnail = video.Thumbnails[0].URL
			}

			results = append(results, SearchResult{
				ID:        video.ID,
				Title:     video.Title,
				Thumbnail: thumbnail,
				Duration:  video.Duration,
				Author:    video.Channel.Title,
				Live:      video.Duration == 0,
			})
		}
		done <- outcome{results: results}
	}()

	select {
	case out := <-done:
		return out.results, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
