package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"ytstream/pkg/logger"
	"ytstream/pkg/validator"

	"go.uber.org/zap"
)

const (
	defaultMimeType   = "video/mp4"
	defaultBufferSize = 64 * 1024
)

// Upstream is an opened byte source for one format.
type Upstream struct {
	Body          io.ReadCloser
	ContentLength int64  // <= 0 when unknown
	ContentRange  string // set for ranged upstream responses
	Status        int    // 0 means 200
}

// Opener opens the upstream byte source. It must honour ctx cancellation.
type Opener func(ctx context.Context) (*Upstream, error)

// Framing carries the metadata used to build response headers.
type Framing struct {
	MimeType      string
	ContentLength int64
	Title         string
	Ext           string
	Attachment    bool
}

// Request is one relay to perform.
type Request struct {
	VideoID string
	Itag    int
	Open    Opener
	Framing Framing

	// Header holds extra response headers, committed with the framing.
	Header http.Header
}

// Outcome is how a relay session ended. Exactly one is reported per session.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeClientGone
	OutcomeUpstreamFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeClientGone:
		return "client_gone"
	case OutcomeUpstreamFailed:
		return "upstream_failed"
	default:
		return "unknown"
	}
}

// Result describes a finished relay.
type Result struct {
	Outcome     Outcome
	Bytes       int64
	HeadersSent bool
	Err         error
}

// Proxy relays upstream media bytes to HTTP clients.
type Proxy struct {
	registry   *Registry
	bufferSize int
}

// NewProxy creates a proxy. bufferSize <= 0 uses 64KB.
func NewProxy(registry *Registry, bufferSize int) *Proxy {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if registry == nil {
		registry = NewRegistry(0)
	}
	return &Proxy{
		registry:   registry,
		bufferSize: bufferSize,
	}
}

// Serve opens the upstream and copies it to w. Headers are committed only
// together with the first byte, so when Result.HeadersSent is false the
// caller may still write an error response. When it is true the caller must
// not write anything else.
func (p *Proxy) Serve(ctx context.Context, w http.ResponseWriter, req Request) Result {
	sess, ctx := p.registry.Register(ctx, req.VideoID, req.Itag)
	defer p.registry.Done(sess)

	res := p.relay(ctx, w, req, sess)

	fields := []zap.Field{
		zap.String("session", sess.ID),
		zap.String("video_id", req.VideoID),
		zap.Int("itag", req.Itag),
		zap.String("outcome", res.Outcome.String()),
		zap.Int64("bytes", res.Bytes),
		zap.Bool("headers_sent", res.HeadersSent),
	}
	switch res.Outcome {
	case OutcomeCompleted:
		logger.Logger.Info("Stream completed", fields...)
	case OutcomeClientGone:
		logger.Logger.Info("Stream client disconnected", fields...)
	default:
		logger.Logger.Error("Stream upstream failed", append(fields, zap.Error(res.Err))...)
	}

	return res
}

func (p *Proxy) relay(ctx context.Context, w http.ResponseWriter, req Request, sess *Session) Result {
	up, err := req.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeClientGone, Err: ctx.Err()}
		}
		return Result{Outcome: OutcomeUpstreamFailed, Err: fmt.Errorf("open upstream: %w", err)}
	}

	body := &onceCloser{rc: up.Body}
	defer body.Close()

	// A Read blocked on the network only returns once the body is closed.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	header := buildHeader(req.Framing, up)
	for k, v := range req.Header {
		header[k] = v
	}
	status := up.Status
	if status == 0 {
		status = http.StatusOK
	}

	var (
		written     int64
		headersSent bool
		buf         = make([]byte, p.bufferSize)
	)
	commit := func() {
		dst := w.Header()
		for k, v := range header {
			dst[k] = v
		}
		w.WriteHeader(status)
		headersSent = true
	}

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if !headersSent {
				commit()
			}
			m, writeErr := w.Write(buf[:n])
			written += int64(m)
			sess.bytes.Add(int64(m))
			if writeErr != nil {
				return Result{Outcome: OutcomeClientGone, Bytes: written, HeadersSent: true, Err: writeErr}
			}
		}

		if errors.Is(readErr, io.EOF) {
			if !headersSent {
				commit()
			}
			return Result{Outcome: OutcomeCompleted, Bytes: written, HeadersSent: true}
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return Result{Outcome: OutcomeClientGone, Bytes: written, HeadersSent: headersSent, Err: ctx.Err()}
			}
			return Result{Outcome: OutcomeUpstreamFailed, Bytes: written, HeadersSent: headersSent, Err: readErr}
		}
	}
}

func buildHeader(f Framing, up *Upstream) http.Header {
	h := make(http.Header)

	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	h.Set("Content-Type", mimeType)

	length := up.ContentLength
	if length <= 0 && up.ContentRange == "" {
		length = f.ContentLength
	}
	if length > 0 {
		h.Set("Content-Length", strconv.FormatInt(length, 10))
	}
	if up.ContentRange != "" {
		h.Set("Content-Range", up.ContentRange)
	}

	h.Set("Content-Disposition", ContentDisposition(f.Title, f.Ext, f.Attachment))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", "no-cache")
	return h
}

// ContentDisposition builds the disposition header value. Attachments get a
// sanitized "<title>.<ext>" filename.
func ContentDisposition(title, ext string, attachment bool) string {
	if !attachment {
		return "inline"
	}
	name := validator.SanitizeFilename(title)
	if ext != "" && ext != "unknown" {
		name += "." + ext
	}
	return fmt.Sprintf(`attachment; filename="%s"`, name)
}

type onceCloser struct {
	rc   io.ReadCloser
	once sync.Once
	err  error
}

func (c *onceCloser) Read(p []byte) (int, error) {
	return c.rc.Read(p)
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.rc.Close() })
	return c.err
}
