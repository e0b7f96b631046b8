package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"ytstream/internal/media"
	"ytstream/internal/model"
	"ytstream/internal/stream"
	"ytstream/pkg/logger"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
)

// session is a Client backed by the kkdai youtube client. kkdai clients
// mutate themselves on every call, so each call runs on a copy of template.
type session struct {
	http *http.Client

	mu       sync.Mutex
	template youtube.Client
}

func newSession(hc *http.Client) *session {
	return &session{
		http:     hc,
		template: youtube.Client{HTTPClient: hc},
	}
}

// client returns a private copy of the template for one call.
func (s *session) client() *youtube.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	yt := s.template
	return &yt
}

// keep makes yt the template so later calls reuse its player cache. Only
// copies used for deciphering are kept; video lookups may switch the
// copy to a different innertube client.
func (s *session) keep(yt *youtube.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template = *yt
	s.template.HTTPClient = s.http
}

// NewFactory returns a Factory building kkdai sessions over a proxy-aware
// HTTP client.
func NewFactory(cfg *model.YouTubeConfig) Factory {
	return func(ctx context.Context) (Client, error) {
		hc, err := NewHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
		return newSession(hc), nil
	}
}

// NewHTTPClient creates an HTTP client that routes through the configured
// HTTP or SOCKS proxy. No client timeout is set; streams may run for hours.
func NewHTTPClient(cfg *model.YouTubeConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
		if cfg.ProxyUser != "" {
			proxyURL.User = url.UserPassword(cfg.ProxyUser, cfg.ProxyPass)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Logger.Info("Using HTTP proxy", zap.String("host", proxyURL.Host))
	}

	if cfg.SOCKSProxy != "" {
		addr := cfg.SOCKSProxy
		if !strings.Contains(addr, "://") {
			addr = "socks5://" + addr
		}
		socksURL, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("parse socks proxy: %w", err)
		}
		if cfg.ProxyUser != "" {
			socksURL.User = url.UserPassword(cfg.ProxyUser, cfg.ProxyPass)
		}

		dialer, err := proxy.FromURL(socksURL, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("create socks dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("socks dialer does not support contexts")
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer.DialContext
		logger.Logger.Info("Using SOCKS proxy", zap.String("host", socksURL.Host))
	}

	return &http.Client{Transport: transport}, nil
}

func (s *session) FetchVideo(ctx context.Context, id media.VideoID) (*Video, error) {
	v, err := s.client().GetVideoContext(ctx, id.String())
	if err != nil {
		return nil, classifyError("fetch video", err)
	}
	return videoFromNative(id, v), nil
}

func (s *session) PlayableURL(ctx context.Context, v *Video, itag int) (string, error) {
	format, err := nativeFormat(v, itag)
	if err != nil {
		return "", err
	}

	yt := s.client()
	u, err := yt.GetStreamURLContext(ctx, v.native, format)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("itag %d: %w: %w", itag, media.ErrDecipherUnavailable, err)
	}
	s.keep(yt)
	return u, nil
}

func (s *session) OpenStream(ctx context.Context, v *Video, f media.ClassifiedFormat, rangeHeader string) (*stream.Upstream, error) {
	if rangeHeader != "" {
		return s.openRange(ctx, v, f, rangeHeader)
	}

	format, err := nativeFormat(v, f.Itag)
	if err != nil {
		return nil, err
	}

	// The copy stays with the download goroutines kkdai starts and is not kept.
	body, size, err := s.client().GetStreamContext(ctx, v.native, format)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, youtube.ErrCipherNotFound) {
			return nil, fmt.Errorf("itag %d: %w: %w", f.Itag, media.ErrDecipherUnavailable, err)
		}
		return nil, classifyError("open stream", err)
	}
	return &stream.Upstream{Body: body, ContentLength: size}, nil
}

// openRange forwards a Range request to the playable URL.
func (s *session) openRange(ctx context.Context, v *Video, f media.ClassifiedFormat, rangeHeader string) (*stream.Upstream, error) {
	u, err := s.PlayableURL(ctx, v, f.Itag)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build range request: %w", err)
	}
	req.Header.Set("Range", rangeHeader)

	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("range request: %w: %w", media.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("range request: %w: %w", media.ErrUpstreamUnavailable, youtube.ErrUnexpectedStatusCode(resp.StatusCode))
	}

	return &stream.Upstream{
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
		ContentRange:  resp.Header.Get("Content-Range"),
		Status:        resp.StatusCode,
	}, nil
}

func nativeFormat(v *Video, itag int) (*youtube.Format, error) {
	if v == nil || v.native == nil {
		return nil, fmt.Errorf("itag %d: %w: video has no stream source", itag, media.ErrUpstreamUnavailable)
	}
	for i := range v.native.Formats {
		if v.native.Formats[i].ItagNo == itag {
			return &v.native.Formats[i], nil
		}
	}
	return nil, &media.FormatNotFoundError{Itag: itag, Available: lo.Map(v.Details.Formats, func(f media.RawFormat, _ int) int { return f.Itag })}
}
