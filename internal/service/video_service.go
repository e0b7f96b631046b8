package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ytstream/internal/media"
	"ytstream/internal/model"
	"ytstream/internal/stream"
	"ytstream/internal/youtube"
	"ytstream/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionProvider hands out the shared upstream session.
type SessionProvider interface {
	GetOrInit(ctx context.Context) (youtube.Client, error)
	Invalidate()
}

// InfoExtractor fetches video details without a session.
type InfoExtractor interface {
	Fetch(ctx context.Context, id media.VideoID) (*media.VideoDetails, error)
}

// VideoSearcher runs keyword searches.
type VideoSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]youtube.SearchResult, error)
}

// VideoReport is a fetched video with its classified formats.
type VideoReport struct {
	Details *media.VideoDetails
	Catalog *media.Catalog

	video *youtube.Video
}

// StreamPlan is a selected format (or live manifest) ready to be opened.
type StreamPlan struct {
	VideoID   media.VideoID
	Title     string
	Selection media.Selection

	video *youtube.Video
}

// VideoService resolves videos, builds catalogs and plans streams
type VideoService struct {
	sessions  SessionProvider
	extractor InfoExtractor
	searcher  VideoSearcher
	search    model.SearchConfig
	threshold int

	mu       sync.Mutex
	failures int

	fetches singleflight.Group
}

// NewVideoService creates a new video service
func NewVideoService(sessions SessionProvider, extractor InfoExtractor, searcher VideoSearcher, cfg *model.Config) *VideoService {
	threshold := cfg.YouTube.FailureThreshold
	if threshold <= 0 {
		threshold = 3
	}
	return &VideoService{
		sessions:  sessions,
		extractor: extractor,
		searcher:  searcher,
		search:    cfg.Search,
		threshold: threshold,
	}
}

// Info resolves input to a video and classifies its formats using the
// upstream session.
func (s *VideoService) Info(ctx context.Context, input string) (*VideoReport, error) {
	id, err := media.Resolve(input)
	if err != nil {
		return nil, err
	}
	return s.InfoByID(ctx, id)
}

// InfoByID is Info for an already resolved id.
func (s *VideoService) InfoByID(ctx context.Context, id media.VideoID) (*VideoReport, error) {
	v, err := s.fetchVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	cat, err := media.BuildCatalog(v.Details.Formats, v.Details.Live)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", id, err)
	}

	logger.Logger.Info("Video info retrieved",
		zap.String("video_id", id.String()),
		zap.String("title", v.Details.Title),
		zap.Bool("live", v.Details.Live),
		zap.Int("formats", cat.Len()))

	return &VideoReport{Details: &v.Details, Catalog: cat, video: v}, nil
}

// ExtractorInfo resolves input and fetches its details through yt-dlp.
func (s *VideoService) ExtractorInfo(ctx context.Context, input string) (*VideoReport, error) {
	id, err := media.Resolve(input)
	if err != nil {
		return nil, err
	}

	details, err := s.extractor.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	cat, err := media.BuildCatalog(details.Formats, details.Live)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", id, err)
	}

	logger.Logger.Info("Video info extracted",
		zap.String("video_id", id.String()),
		zap.String("title", details.Title),
		zap.Int("formats", cat.Len()))

	return &VideoReport{Details: details, Catalog: cat}, nil
}

// PlayableURLs resolves a direct upstream URL for every catalog entry. Formats
// whose URL cannot be recovered are left out.
func (s *VideoService) PlayableURLs(ctx context.Context, report *VideoReport) map[int]string {
	urls := make(map[int]string)
	if report.video == nil {
		return urls
	}

	client, err := s.sessions.GetOrInit(ctx)
	if err != nil {
		logger.Logger.Warn("No session for playable urls", zap.Error(err))
		return urls
	}

	for _, f := range report.Catalog.All() {
		u, err := client.PlayableURL(ctx, report.video, f.Itag)
		if err != nil {
			if ctx.Err() != nil {
				return urls
			}
			logger.Logger.Debug("Playable url unavailable",
				zap.String("video_id", report.Details.ID.String()),
				zap.Int("itag", f.Itag),
				zap.Error(err))
			continue
		}
		urls[f.Itag] = u
	}
	return urls
}

// PlanStream fetches the video and selects what to relay.
func (s *VideoService) PlanStream(ctx context.Context, id media.VideoID, c media.Criteria) (*StreamPlan, error) {
	v, err := s.fetchVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	var cat *media.Catalog
	if !v.Details.Live {
		if cat, err = media.BuildCatalog(v.Details.Formats, false); err != nil {
			return nil, fmt.Errorf("video %s: %w", id, err)
		}
	}

	sel, err := media.Select(cat, v.Details.LiveStream(), c)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", id, err)
	}

	return &StreamPlan{
		VideoID:   id,
		Title:     v.Details.Title,
		Selection: sel,
		video:     v,
	}, nil
}

// OpenUpstream opens the planned format. rangeHeader is forwarded when set.
func (s *VideoService) OpenUpstream(ctx context.Context, plan *StreamPlan, rangeHeader string) (*stream.Upstream, error) {
	if plan.Selection.Format == nil {
		return nil, fmt.Errorf("%w: plan has no format to open", media.ErrInvalidInput)
	}
	format := *plan.Selection.Format

	return withSession(ctx, s, func(c youtube.Client) (*stream.Upstream, error) {
		return c.OpenStream(ctx, plan.video, format, rangeHeader)
	})
}

// Search runs a keyword search. limit <= 0 uses the default and larger
// values are capped.
func (s *VideoService) Search(ctx context.Context, query string, limit int) ([]youtube.SearchResult, error) {
	if limit <= 0 {
		limit = s.search.DefaultLimit
	}
	limit = min(limit, s.search.MaxLimit)
	return s.searcher.Search(ctx, query, limit)
}

// fetchVideo coalesces concurrent lookups of one id. The shared fetch runs
// detached from any single caller; a caller whose context ends stops waiting.
func (s *VideoService) fetchVideo(ctx context.Context, id media.VideoID) (*youtube.Video, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.fetches.DoChan(id.String(), func() (any, error) {
		return withSession(detached, s, func(c youtube.Client) (*youtube.Video, error) {
			return c.FetchVideo(detached, id)
		})
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Logger.Debug("Video lookup coalesced", zap.String("video_id", id.String()))
		}
		return res.Val.(*youtube.Video), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// withSession runs op on the shared session. Upstream-unavailable failures
// are counted; once the count reaches the threshold the session is rebuilt
// and op is retried once. Any success resets the count.
func withSession[T any](ctx context.Context, s *VideoService, op func(youtube.Client) (T, error)) (T, error) {
	val, err := runOnSession(ctx, s.sessions, op)
	if err == nil {
		s.resetFailures()
		return val, nil
	}
	if !errors.Is(err, media.ErrUpstreamUnavailable) || !s.recordFailure() {
		return val, err
	}

	logger.Logger.Warn("Upstream failure threshold reached, rebuilding session",
		zap.Int("threshold", s.threshold),
		zap.Error(err))
	s.sessions.Invalidate()

	val, err = runOnSession(ctx, s.sessions, op)
	if err == nil {
		s.resetFailures()
	}
	return val, err
}

func runOnSession[T any](ctx context.Context, sessions SessionProvider, op func(youtube.Client) (T, error)) (T, error) {
	c, err := sessions.GetOrInit(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return op(c)
}

// recordFailure counts one failure and reports whether the threshold was
// reached, resetting the count when it was.
func (s *VideoService) recordFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures++
	if s.failures >= s.threshold {
		s.failures = 0
		return true
	}
	return false
}

func (s *VideoService) resetFailures() {
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
}
