package youtube

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ytstream/internal/media"
	"ytstream/internal/model"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNative() *youtube.Video {
	return &youtube.Video{
		ID:          "dQw4w9WgXcQ",
		Title:       "Never Gonna Give You Up",
		Author:      "Rick Astley",
		ChannelID:   "UCuAXFkgsw1L7xaCfnd5JJOw",
		Views:       1500000000,
		Duration:    213 * time.Second,
		PublishDate: time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC),
		Thumbnails: youtube.Thumbnails{
			{URL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg", Width: 120, Height: 90},
			{URL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", Width: 480, Height: 360},
		},
		Formats: youtube.FormatList{
			{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, QualityLabel: "360p", Height: 360, Width: 640, Bitrate: 503000, AudioChannels: 2},
			{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Height: 1080, Width: 1920, Bitrate: 4500000, ContentLength: 80000000},
			{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000, AudioQuality: "AUDIO_QUALITY_MEDIUM", AudioChannels: 2, Cipher: "s=abc&sp=sig&url=https%3A%2F%2Fexample"},
		},
	}
}

func TestVideoFromNative(t *testing.T) {
	v := videoFromNative("dQw4w9WgXcQ", sampleNative())
	d := v.Details

	assert.Equal(t, media.VideoID("dQw4w9WgXcQ"), d.ID)
	assert.Equal(t, "Never Gonna Give You Up", d.Title)
	assert.Equal(t, 213, d.Duration)
	assert.Equal(t, "2009-10-25", d.UploadDate)
	assert.False(t, d.Live)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", d.BestThumbnail())
	require.Len(t, d.Formats, 3)

	assert.True(t, d.Formats[0].Combined)
	assert.False(t, d.Formats[1].Combined)
	assert.False(t, d.Formats[2].Combined, "audio formats are never combined")
	assert.Equal(t, "s=abc&sp=sig&url=https%3A%2F%2Fexample", d.Formats[2].SignatureCipher)

	cat, err := media.BuildCatalog(d.Formats, d.Live)
	require.NoError(t, err)
	assert.Len(t, cat.Merged, 1)
	assert.Len(t, cat.VideoOnly, 1)
	assert.Len(t, cat.AudioOnly, 1)
	assert.Equal(t, 160, cat.AudioOnly[0].BitrateKbps)
}

func TestVideoFromNativeLive(t *testing.T) {
	native := sampleNative()
	native.Duration = 0
	native.HLSManifestURL = "https://manifest.googlevideo.com/api/manifest/hls_variant/x.m3u8"

	v := videoFromNative("dQw4w9WgXcQ", native)
	require.True(t, v.Details.Live)
	require.NotNil(t, v.Details.LiveStream())
	assert.Equal(t, native.HLSManifestURL, v.Details.LiveStream().ManifestURL)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{youtube.ErrVideoIDMinLength, media.ErrInvalidInput},
		{youtube.ErrInvalidCharactersInVideoID, media.ErrInvalidInput},
		{youtube.ErrLoginRequired, media.ErrRestricted},
		{youtube.ErrVideoPrivate, media.ErrRestricted},
		{fmt.Errorf("can't bypass age restriction: %w", youtube.ErrNotPlayableInEmbed), media.ErrRestricted},
		{&youtube.ErrPlayabiltyStatus{Status: "UNPLAYABLE", Reason: "region"}, media.ErrRestricted},
		{youtube.ErrUnexpectedStatusCode(429), media.ErrUpstreamUnavailable},
		{errors.New("dial tcp: i/o timeout"), media.ErrUpstreamUnavailable},
		{context.Canceled, context.Canceled},
	}
	for _, tt := range tests {
		got := classifyError("fetch video", tt.err)
		assert.ErrorIs(t, got, tt.want, tt.err.Error())
		assert.ErrorIs(t, got, tt.err, "original error is kept")
	}
	assert.NoError(t, classifyError("op", nil))

	assert.NotErrorIs(t, classifyError("op", context.Canceled), media.ErrUpstreamUnavailable)
}

func TestNativeFormat(t *testing.T) {
	v := videoFromNative("dQw4w9WgXcQ", sampleNative())

	f, err := nativeFormat(v, 137)
	require.NoError(t, err)
	assert.Equal(t, 137, f.ItagNo)

	_, err = nativeFormat(v, 22)
	var notFound *media.FormatNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []int{18, 137, 251}, notFound.Available)

	_, err = nativeFormat(NewVideo(media.VideoDetails{ID: "dQw4w9WgXcQ"}), 18)
	assert.ErrorIs(t, err, media.ErrUpstreamUnavailable)
}

func TestNewHTTPClient(t *testing.T) {
	hc, err := NewHTTPClient(&model.YouTubeConfig{})
	require.NoError(t, err)
	assert.Zero(t, hc.Timeout)

	_, err = NewHTTPClient(&model.YouTubeConfig{HTTPProxy: "http://proxy.local:3128", ProxyUser: "u", ProxyPass: "p"})
	require.NoError(t, err)

	_, err = NewHTTPClient(&model.YouTubeConfig{SOCKSProxy: "127.0.0.1:1080"})
	require.NoError(t, err)

	_, err = NewHTTPClient(&model.YouTubeConfig{HTTPProxy: "http://bad host:%zz"})
	assert.Error(t, err)

	_, err = NewHTTPClient(&model.YouTubeConfig{SOCKSProxy: "ftp://127.0.0.1:21"})
	assert.Error(t, err)
}

func TestNewFactory(t *testing.T) {
	m := NewManager(NewFactory(&model.YouTubeConfig{}))
	c, err := m.GetOrInit(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &session{}, c)
}
