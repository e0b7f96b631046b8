package handler

import (
	"fmt"
	"net/url"
	"strings"

	"ytstream/internal/media"
	"ytstream/internal/model"
	"ytstream/internal/service"

	"github.com/samber/lo"
)

const streamPath = "/api/youtube/stream/"

// links derives the proxy URLs handed out to clients.
type links struct {
	base string
}

func newLinks(publicBaseURL string) links {
	return links{base: strings.TrimRight(publicBaseURL, "/")}
}

// format returns the stream URL of one itag, optionally as an attachment.
func (l links) format(id media.VideoID, itag int, download bool) string {
	u := fmt.Sprintf("%s%s%s?itag=%d", l.base, streamPath, id, itag)
	if download {
		u += "&download=true"
	}
	return u
}

// stream returns a selector-driven stream URL with the given query.
func (l links) stream(id media.VideoID, query url.Values) string {
	u := l.base + streamPath + id.String()
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (l links) views(id media.VideoID, formats []media.ClassifiedFormat) []model.FormatView {
	return lo.Map(formats, func(f media.ClassifiedFormat, _ int) model.FormatView {
		return model.FormatView{
			Type:          f.Category,
			Itag:          f.Itag,
			Quality:       f.Label(),
			Ext:           f.Ext,
			MimeType:      f.MimeType,
			Bitrate:       f.BitrateKbps,
			ContentLength: f.ContentLength,
			FPS:           f.FPS,
			Width:         f.Width,
			Height:        f.Height,
			AudioQuality:  f.AudioQuality,
			Tier:          service.QualityTier(f),
			Name:          service.DisplayName(f),
			StreamURL:     l.format(id, f.Itag, false),
			DownloadURL:   l.format(id, f.Itag, true),
		}
	})
}

func (l links) video(report *service.VideoReport) model.VideoResponse {
	d := report.Details
	resp := model.VideoResponse{
		ID:        d.ID.String(),
		Title:     d.Title,
		Thumbnail: d.BestThumbnail(),
		Duration:  d.Duration,
		Author:    d.Author,
		ChannelID: d.ChannelID,
		ViewCount: d.Views,
		Live:      d.Live,
		Merged:    l.views(d.ID, report.Catalog.Merged),
		VideoOnly: l.views(d.ID, report.Catalog.VideoOnly),
		AudioOnly: l.views(d.ID, report.Catalog.AudioOnly),
	}
	if d.Live {
		resp.HLSURL = d.HLSManifestURL
	}
	return resp
}

func (l links) quickStream(id media.VideoID) model.QuickStream {
	return model.QuickStream{
		Best:      l.stream(id, nil),
		BestVideo: l.stream(id, url.Values{"type": {string(media.OutputVideo)}}),
		BestAudio: l.stream(id, url.Values{"type": {string(media.OutputAudio)}}),
		Download:  l.stream(id, url.Values{"download": {"true"}}),
	}
}

func (l links) proxy(id media.VideoID) model.ProxyResponse {
	return model.ProxyResponse{
		Success:          true,
		ID:               id.String(),
		StreamURL:        l.stream(id, nil),
		DownloadURL:      l.stream(id, url.Values{"download": {"true"}}),
		AudioStreamURL:   l.stream(id, url.Values{"type": {string(media.OutputAudio)}}),
		AudioDownloadURL: l.stream(id, url.Values{"type": {string(media.OutputAudio)}, "download": {"true"}}),
		VideoStreamURL:   l.stream(id, url.Values{"type": {string(media.OutputVideo)}}),
	}
}
