package youtube

import (
	"context"
	"fmt"
	"sync"

	"ytstream/internal/media"
	"ytstream/internal/stream"
	"ytstream/pkg/logger"

	"go.uber.org/zap"
)

// Client is an initialized upstream session. Implementations must be safe
// for concurrent use.
type Client interface {
	// FetchVideo loads metadata and the raw format list of a video.
	FetchVideo(ctx context.Context, id media.VideoID) (*Video, error)

	// PlayableURL returns a directly fetchable URL for one format, deciphering
	// its signature when needed.
	PlayableURL(ctx context.Context, v *Video, itag int) (string, error)

	// OpenStream opens the byte stream of a format. A non-empty rangeHeader
	// is forwarded upstream as a Range request.
	OpenStream(ctx context.Context, v *Video, f media.ClassifiedFormat, rangeHeader string) (*stream.Upstream, error)
}

// Factory builds a new session.
type Factory func(ctx context.Context) (Client, error)

// Manager owns the shared upstream session. The session is created on first
// use and dropped by Invalidate.
type Manager struct {
	factory Factory

	mu     sync.Mutex
	client Client
	inits  int
}

// NewManager creates a new session manager
func NewManager(factory Factory) *Manager {
	return &Manager{factory: factory}
}

// GetOrInit returns the current session, creating it if needed. The lock is
// held across creation so concurrent callers wait for and share one session.
func (m *Manager) GetOrInit(ctx context.Context) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}

	c, err := m.factory(ctx)
	if err != nil {
		logger.Logger.Error("Failed to create upstream session", zap.Error(err))
		return nil, fmt.Errorf("%w: create session: %w", media.ErrUpstreamUnavailable, err)
	}

	m.client = c
	m.inits++
	logger.Logger.Info("Upstream session created", zap.Int("generation", m.inits))
	return c, nil
}

// Invalidate drops the current session; the next GetOrInit builds a new one.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return
	}
	m.client = nil
	logger.Logger.Warn("Upstream session invalidated", zap.Int("generation", m.inits))
}

// Generation returns how many sessions have been created so far.
func (m *Manager) Generation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits
}
