package content

// KindVideo is the RelatedItem type that carries a playable video.
const KindVideo = "video"

// BadgeVerifiedChannel marks a verified author.
const BadgeVerifiedChannel = "VERIFIED_CHANNEL"

// Image is one rendition of an avatar or thumbnail.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Badge is a label attached to an author or a video.
type Badge struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AuthorStats holds channel-level counters.
type AuthorStats struct {
	Subscribers     int64  `json:"subscribers"`
	SubscribersText string `json:"subscribersText"`
}

// Author is the channel that published a video.
type Author struct {
	ChannelID string       `json:"channelId"`
	Title     string       `json:"title"`
	Avatar    []Image      `json:"avatar"`
	Badges    []Badge      `json:"badges"`
	Stats     *AuthorStats `json:"stats"`
}

// Stats holds video counters. Any of them may be missing from the payload.
type Stats struct {
	Likes    int64 `json:"likes"`
	Views    int64 `json:"views"`
	Comments int64 `json:"comments"`
}

// VideoDetail is the metadata of one video. Every field is optional.
type VideoDetail struct {
	VideoID           string  `json:"videoId"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Author            *Author `json:"author"`
	Stats             *Stats  `json:"stats"`
	LengthSeconds     int64   `json:"lengthSeconds"`
	PublishedDate     string  `json:"publishedDate"`
	PublishedTimeText string  `json:"publishedTimeText"`
	Thumbnails        []Image `json:"thumbnails"`
	Badges            []Badge `json:"badges"`
	IsLiveNow         bool    `json:"isLiveNow"`
}

// RelatedItem is one entry of the related-content feed. Only items of
// KindVideo carry a Video.
type RelatedItem struct {
	Type  string       `json:"type"`
	Video *VideoDetail `json:"video,omitempty"`
}

// IsVideo reports whether the item is a renderable video.
func (i RelatedItem) IsVideo() bool {
	return i.Type == KindVideo && i.Video != nil
}

// relatedResp is the envelope of video/related-contents.
type relatedResp struct {
	Contents []RelatedItem `json:"contents"`
	Cursor   string        `json:"cursor"`
}
