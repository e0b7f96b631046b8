package youtube

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"ytstream/internal/media"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
)

// embedTransport answers every request with an embed page carrying no
// player script.
type embedTransport struct {
	calls atomic.Int64
}

func (t *embedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       io.NopCloser(strings.NewReader("<html><body>embed</body></html>")),
		Request:    req,
	}, nil
}

func cipheredVideo() *Video {
	return &Video{
		Details: media.VideoDetails{
			ID:      "dQw4w9WgXcQ",
			Formats: []media.RawFormat{{Itag: 18}},
		},
		native: &youtube.Video{
			ID: "dQw4w9WgXcQ",
			Formats: youtube.FormatList{{
				ItagNo: 18,
				Cipher: "s=abc&sp=sig&url=https%3A%2F%2Frr1.googlevideo.com%2Fvideoplayback%3Fitag%3D18",
			}},
		},
	}
}

func TestSessionPlayableURLConcurrent(t *testing.T) {
	transport := &embedTransport{}
	s := newSession(&http.Client{Transport: transport})
	v := cipheredVideo()

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.PlayableURL(context.Background(), v, 18)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, media.ErrDecipherUnavailable)
	}
	assert.GreaterOrEqual(t, transport.calls.Load(), int64(callers))
}

func TestSessionPlayableURLUnknownItag(t *testing.T) {
	s := newSession(&http.Client{Transport: &embedTransport{}})

	_, err := s.PlayableURL(context.Background(), cipheredVideo(), 22)

	var notFound *media.FormatNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, []int{18}, notFound.Available)
}
