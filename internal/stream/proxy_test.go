package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWriter records how often headers are committed.
type countingWriter struct {
	*httptest.ResponseRecorder
	headerWrites int
	failWrites   bool
}

func (w *countingWriter) WriteHeader(code int) {
	w.headerWrites++
	w.ResponseRecorder.WriteHeader(code)
}

func (w *countingWriter) Write(p []byte) (int, error) {
	if w.failWrites {
		return 0, errors.New("broken pipe")
	}
	return w.ResponseRecorder.Write(p)
}

// scriptedBody returns chunks then err.
type scriptedBody struct {
	chunks []string
	err    error
	closed bool
	mu     sync.Mutex
}

func (b *scriptedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, b.err
	}
	n := copy(p, b.chunks[0])
	if n < len(b.chunks[0]) {
		b.chunks[0] = b.chunks[0][n:]
	} else {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *scriptedBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *scriptedBody) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// blockingBody blocks in Read until closed.
type blockingBody struct {
	closed chan struct{}
	once   sync.Once
}

func newBlockingBody() *blockingBody {
	return &blockingBody{closed: make(chan struct{})}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	<-b.closed
	return 0, errors.New("read on closed body")
}

func (b *blockingBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func openBody(body io.ReadCloser, length int64) Opener {
	return func(context.Context) (*Upstream, error) {
		return &Upstream{Body: body, ContentLength: length}, nil
	}
}

func TestServeCompleted(t *testing.T) {
	p := NewProxy(NewRegistry(0), 4)
	w := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
	body := &scriptedBody{chunks: []string{"hello ", "world"}, err: io.EOF}

	res := p.Serve(context.Background(), w, Request{
		VideoID: "dQw4w9WgXcQ",
		Itag:    18,
		Open:    openBody(body, 11),
		Framing: Framing{MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Title: "My: Video!", Ext: "mp4", Attachment: true},
		Header:  http.Header{"X-Format-Itag": []string{"18"}},
	})

	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.True(t, res.HeadersSent)
	assert.EqualValues(t, 11, res.Bytes)
	assert.NoError(t, res.Err)
	assert.True(t, body.isClosed())

	assert.Equal(t, 1, w.headerWrites)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", w.Body.String())
	assert.Equal(t, `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, w.Header().Get("Content-Type"))
	assert.Equal(t, "11", w.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, `attachment; filename="My Video.mp4"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "18", w.Header().Get("X-Format-Itag"))
}

func TestServeDefaultsAndInline(t *testing.T) {
	p := NewProxy(nil, 0)
	w := httptest.NewRecorder()

	res := p.Serve(context.Background(), w, Request{
		Open:    openBody(io.NopCloser(strings.NewReader("abc")), 0),
		Framing: Framing{ContentLength: 3},
	})

	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, "3", w.Header().Get("Content-Length"))
	assert.Equal(t, "inline", w.Header().Get("Content-Disposition"))
}

func TestServeRangedUpstream(t *testing.T) {
	p := NewProxy(nil, 0)
	w := httptest.NewRecorder()

	res := p.Serve(context.Background(), w, Request{
		Open: func(context.Context) (*Upstream, error) {
			return &Upstream{
				Body:          io.NopCloser(strings.NewReader("0123")),
				ContentLength: 4,
				ContentRange:  "bytes 10-13/100",
				Status:        http.StatusPartialContent,
			}, nil
		},
		Framing: Framing{ContentLength: 100},
	})

	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, "bytes 10-13/100", w.Header().Get("Content-Range"))
}

func TestServeOpenFailureLeavesHeadersUnsent(t *testing.T) {
	p := NewProxy(nil, 0)
	w := &countingWriter{ResponseRecorder: httptest.NewRecorder()}

	res := p.Serve(context.Background(), w, Request{
		Open: func(context.Context) (*Upstream, error) {
			return nil, errors.New("decipher failed")
		},
	})

	assert.Equal(t, OutcomeUpstreamFailed, res.Outcome)
	assert.False(t, res.HeadersSent)
	assert.ErrorContains(t, res.Err, "decipher failed")
	assert.Zero(t, w.headerWrites)
	assert.Empty(t, w.Header().Get("Content-Type"))
}

func TestServeUpstreamErrorBeforeFirstByte(t *testing.T) {
	p := NewProxy(nil, 0)
	w := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
	body := &scriptedBody{err: errors.New("connection reset")}

	res := p.Serve(context.Background(), w, Request{Open: openBody(body, 100)})

	assert.Equal(t, OutcomeUpstreamFailed, res.Outcome)
	assert.False(t, res.HeadersSent)
	assert.Zero(t, res.Bytes)
	assert.Zero(t, w.headerWrites)
	assert.Empty(t, w.Header().Get("Content-Length"))
	assert.Zero(t, w.Body.Len())
	assert.True(t, body.isClosed())
}

func TestServeUpstreamErrorAfterFirstByte(t *testing.T) {
	p := NewProxy(nil, 0)
	w := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
	body := &scriptedBody{chunks: []string{"partial"}, err: errors.New("connection reset")}

	res := p.Serve(context.Background(), w, Request{Open: openBody(body, 100)})

	assert.Equal(t, OutcomeUpstreamFailed, res.Outcome)
	assert.True(t, res.HeadersSent)
	assert.EqualValues(t, 7, res.Bytes)
	assert.Equal(t, 1, w.headerWrites)
	assert.Equal(t, "partial", w.Body.String())
	assert.True(t, body.isClosed())
}

func TestServeClientWriteFailure(t *testing.T) {
	p := NewProxy(nil, 0)
	w := &countingWriter{ResponseRecorder: httptest.NewRecorder(), failWrites: true}
	body := &scriptedBody{chunks: []string{"a", "b", "c"}, err: io.EOF}

	res := p.Serve(context.Background(), w, Request{Open: openBody(body, 3)})

	assert.Equal(t, OutcomeClientGone, res.Outcome)
	assert.True(t, res.HeadersSent)
	assert.True(t, body.isClosed())
	assert.Len(t, body.chunks, 2, "no further upstream reads after the client left")
}

func TestServeCancellationClosesUpstream(t *testing.T) {
	reg := NewRegistry(0)
	p := NewProxy(reg, 0)
	w := httptest.NewRecorder()
	body := newBlockingBody()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() {
		done <- p.Serve(ctx, w, Request{VideoID: "dQw4w9WgXcQ", Open: openBody(body, 0)})
	}()

	require.Eventually(t, func() bool { return reg.Stats().Active == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.Equal(t, OutcomeClientGone, res.Outcome)
		assert.False(t, res.HeadersSent)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancellation")
	}
	assert.Zero(t, reg.Stats().Active)
}

func TestServeCancelledDuringOpen(t *testing.T) {
	p := NewProxy(nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Serve(ctx, httptest.NewRecorder(), Request{
		Open: func(ctx context.Context) (*Upstream, error) {
			return nil, ctx.Err()
		},
	})
	assert.Equal(t, OutcomeClientGone, res.Outcome)
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, "inline", ContentDisposition("Title", "mp4", false))
	assert.Equal(t, `attachment; filename="video.m4a"`, ContentDisposition("", "m4a", true))
	assert.Equal(t, `attachment; filename="Song"`, ContentDisposition("Song", "unknown", true))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "completed", OutcomeCompleted.String())
	assert.Equal(t, "client_gone", OutcomeClientGone.String())
	assert.Equal(t, "upstream_failed", OutcomeUpstreamFailed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
