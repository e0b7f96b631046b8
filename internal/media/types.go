package media

// VideoID is the 11-character YouTube video identifier.
type VideoID string

func (id VideoID) String() string {
	return string(id)
}

// WatchURL returns the canonical watch page for the video.
func (id VideoID) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

// Category classifies a format by the tracks it carries.
type Category string

const (
	CategoryVideoOnly Category = "video_only"
	CategoryAudioOnly Category = "audio_only"
	CategoryMerged    Category = "merged"
)

// RawFormat is one format as reported by an info source, normalized at the
// adapter boundary. Zero values mean "not reported".
type RawFormat struct {
	Itag            int
	MimeType        string
	QualityLabel    string
	Quality         string
	FPS             int
	Bitrate         int // bits per second
	Width           int
	Height          int
	ContentLength   int64
	AudioQuality    string
	AudioChannels   int
	SignatureCipher string
	URL             string

	// Combined is set when the source listed the format among its
	// combined (audio+video) formats.
	Combined bool
}

// ClassifiedFormat is a RawFormat placed in exactly one catalog bucket.
type ClassifiedFormat struct {
	RawFormat
	Category    Category
	Ext         string
	BitrateKbps int
}

// Label returns the quality label, falling back to the coarse quality name.
func (f ClassifiedFormat) Label() string {
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	return f.Quality
}

// Thumbnail is a preview image reported for a video.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// VideoDetails is the normalized metadata of a video from any info source.
type VideoDetails struct {
	ID             VideoID
	Title          string
	Description    string
	Author         string
	ChannelID      string
	Duration       int // seconds
	Views          int
	UploadDate     string
	Thumbnails     []Thumbnail
	Live           bool
	HLSManifestURL string
	Formats        []RawFormat
}

// BestThumbnail returns the last (largest) thumbnail, or the static
// maxresdefault image when the source reported none.
func (d *VideoDetails) BestThumbnail() string {
	for i := len(d.Thumbnails) - 1; i >= 0; i-- {
		if d.Thumbnails[i].URL != "" {
			return d.Thumbnails[i].URL
		}
	}
	return "https://i.ytimg.com/vi/" + string(d.ID) + "/maxresdefault.jpg"
}

// LiveStream returns the live descriptor for live videos and nil otherwise.
func (d *VideoDetails) LiveStream() *LiveStream {
	if !d.Live {
		return nil
	}
	return &LiveStream{ManifestURL: d.HLSManifestURL}
}

// LiveStream describes a live video, which is served by manifest redirect.
type LiveStream struct {
	ManifestURL string
}
