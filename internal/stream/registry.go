package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ytstream/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session tracks one in-flight relay.
type Session struct {
	ID        string
	VideoID   string
	Itag      int
	StartedAt time.Time

	bytes  atomic.Int64
	cancel context.CancelFunc
}

// Bytes returns the number of bytes relayed so far.
func (s *Session) Bytes() int64 {
	return s.bytes.Load()
}

// SessionInfo is a point-in-time copy of a Session.
type SessionInfo struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	Itag      int       `json:"itag"`
	Bytes     int64     `json:"bytes"`
	StartedAt time.Time `json:"started_at"`
}

// Stats summarizes registry activity since start.
type Stats struct {
	Active    int   `json:"active"`
	Completed int64 `json:"completed"`
	Bytes     int64 `json:"bytes"`
}

// Registry tracks active relay sessions and cancels them on shutdown.
type Registry struct {
	statsInterval time.Duration
	sessions      map[string]*Session
	mu            sync.RWMutex
	completed     atomic.Int64
	totalBytes    atomic.Int64
	quitChan      chan struct{}
	stopOnce      sync.Once
	stopped       bool
}

// NewRegistry creates a registry; statsInterval <= 0 disables periodic logging.
func NewRegistry(statsInterval time.Duration) *Registry {
	return &Registry{
		statsInterval: statsInterval,
		sessions:      make(map[string]*Session),
		quitChan:      make(chan struct{}),
	}
}

// Start starts the stats logging routine.
func (r *Registry) Start() {
	if r.statsInterval > 0 {
		go r.statsRoutine()
	}
}

// Stop stops the stats routine and cancels every active session.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.quitChan)

		r.mu.Lock()
		defer r.mu.Unlock()
		r.stopped = true
		for _, s := range r.sessions {
			s.cancel()
		}
		if len(r.sessions) > 0 {
			logger.Logger.Info("Cancelled active streams", zap.Int("count", len(r.sessions)))
		}
	})
}

// Register adds a session and returns a context that is cancelled when
// either ctx ends or the registry stops. After Stop the session is not
// tracked and its context is already cancelled.
func (r *Registry) Register(ctx context.Context, videoID string, itag int) (*Session, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Itag:      itag,
		StartedAt: time.Now(),
		cancel:    cancel,
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		cancel()
		return s, ctx
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	logger.Logger.Debug("Stream registered",
		zap.String("session", s.ID),
		zap.String("video_id", videoID),
		zap.Int("itag", itag))

	return s, ctx
}

// Done removes the session and releases its context.
func (r *Registry) Done(s *Session) {
	r.mu.Lock()
	_, ok := r.sessions[s.ID]
	delete(r.sessions, s.ID)
	r.mu.Unlock()

	s.cancel()
	if !ok {
		return
	}

	r.completed.Add(1)
	r.totalBytes.Add(s.Bytes())
}

// Active returns a snapshot of the sessions currently relaying.
func (r *Registry) Active() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, SessionInfo{
			ID:        s.ID,
			VideoID:   s.VideoID,
			Itag:      s.Itag,
			Bytes:     s.Bytes(),
			StartedAt: s.StartedAt,
		})
	}
	return out
}

// Stats returns counters for the health endpoint.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	active := len(r.sessions)
	r.mu.RUnlock()

	return Stats{
		Active:    active,
		Completed: r.completed.Load(),
		Bytes:     r.totalBytes.Load(),
	}
}

func (r *Registry) statsRoutine() {
	ticker := time.NewTicker(r.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quitChan:
			logger.Logger.Info("Stream stats routine stopped")
			return
		case <-ticker.C:
			st := r.Stats()
			if st.Active > 0 {
				logger.Logger.Info("Stream stats",
					zap.Int("active", st.Active),
					zap.Int64("completed", st.Completed),
					zap.Int64("bytes", st.Bytes))
			}
		}
	}
}
