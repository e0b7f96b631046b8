package model

import "ytstream/internal/media"

// FormatView is one catalog entry as returned to API clients
type FormatView struct {
	Type          media.Category `json:"type"`
	Itag          int            `json:"itag"`
	Quality       string         `json:"quality,omitempty"`
	Ext           string         `json:"ext"`
	MimeType      string         `json:"mimeType"`
	Bitrate       int            `json:"bitrate,omitempty"` // kbps
	ContentLength int64          `json:"contentLength,omitempty"`
	FPS           int            `json:"fps,omitempty"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	AudioQuality  string         `json:"audioQuality,omitempty"`
	Tier          string         `json:"tier"` // Audio, FD, SD, HD, FHD
	Name          string         `json:"name"`
	StreamURL     string         `json:"streamUrl"`
	DownloadURL   string         `json:"downloadUrl"`
}

// VideoResponse is the video summary returned by /download and /download-fast
type VideoResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail"`
	Duration  int          `json:"duration"`
	Author    string       `json:"author"`
	ChannelID string       `json:"channelId,omitempty"`
	ViewCount int          `json:"viewCount,omitempty"`
	Live      bool         `json:"live"`
	HLSURL    string       `json:"hlsUrl,omitempty"`
	Merged    []FormatView `json:"merged"`
	VideoOnly []FormatView `json:"videoOnly"`
	AudioOnly []FormatView `json:"audioOnly"`
}

// QuickStream holds ready-made links for the common cases
type QuickStream struct {
	Best      string `json:"best"`
	BestVideo string `json:"bestVideo"`
	BestAudio string `json:"bestAudio"`
	Download  string `json:"download"`
}

// CompleteResponse is the full metadata returned by /v2
type CompleteResponse struct {
	Success bool `json:"success"`
	VideoResponse
	Description string      `json:"description"`
	UploadDate  string      `json:"uploadDate,omitempty"`
	QuickStream QuickStream `json:"quickStream"`
}

// InfoFormat is one entry of the /info format list
type InfoFormat struct {
	Itag        int    `json:"itag"`
	Quality     string `json:"quality,omitempty"`
	MimeType    string `json:"mimeType"`
	URL         string `json:"url"`
	StreamURL   string `json:"streamUrl"`
	DownloadURL string `json:"downloadUrl"`
}

// InfoResponse is returned by /info
type InfoResponse struct {
	Title      string            `json:"title"`
	Thumbnails []media.Thumbnail `json:"thumbnails"`
	Formats    []InfoFormat      `json:"formats"`
}

// ProxyResponse is returned by /proxy
type ProxyResponse struct {
	Success          bool   `json:"success"`
	ID               string `json:"id"`
	StreamURL        string `json:"streamUrl"`
	DownloadURL      string `json:"downloadUrl"`
	AudioStreamURL   string `json:"audioStreamUrl"`
	AudioDownloadURL string `json:"audioDownloadUrl"`
	VideoStreamURL   string `json:"videoStreamUrl"`
}

// SearchResponse is returned by /search
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult is one search hit
type SearchResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Duration  int    `json:"duration"`
	Author    string `json:"author"`
	Live      bool   `json:"live"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Hint      string `json:"hint,omitempty"`
	Available []int  `json:"available,omitempty"`
	Code      int    `json:"code"`
}
