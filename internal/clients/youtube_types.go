package clients

// Wire format of the YouTube Data API v3 resources consumed by the services
// layer.

type YoutubeThumbnail struct {
	URL string `json:"url"`
}

type YoutubeVideoSnippet struct {
	Title        string                      `json:"title"`
	PublishedAt  string                      `json:"publishedAt"`
	Description  string                      `json:"description"`
	Thumbnails   map[string]YoutubeThumbnail `json:"thumbnails"`
	ChannelTitle string                      `json:"channelTitle"`
}

type YoutubeVideoContentDetails struct {
	// Video duration as an ISO-8601-like token, e.g. "PT15H10M".
	Duration string `json:"duration"`
}

type YoutubeVideo struct {
	ID             string                     `json:"id"`
	Snippet        YoutubeVideoSnippet        `json:"snippet"`
	ContentDetails YoutubeVideoContentDetails `json:"contentDetails"`
}

type YoutubePlaylistSnippet struct {
	Title       string                      `json:"title"`
	Description string                      `json:"description"`
	Thumbnails  map[string]YoutubeThumbnail `json:"thumbnails"`
}

type YoutubePlaylist struct {
	ID      string                 `json:"id"`
	Snippet YoutubePlaylistSnippet `json:"snippet"`
}

type YoutubePlaylistItemContentDetails struct {
	VideoID string `json:"videoId"`
}

type YoutubePlaylistItem struct {
	ContentDetails YoutubePlaylistItemContentDetails `json:"contentDetails"`
}

type YoutubePageInfo struct {
	TotalResults int `json:"totalResults"`
}

// One page of a playlist's items, as returned by /playlistItems.
type YoutubePlaylistItemsPage struct {
	Items         []YoutubePlaylistItem `json:"items"`
	NextPageToken string                `json:"nextPageToken"`
	PageInfo      YoutubePageInfo       `json:"pageInfo"`
}

type youtubeVideoListResponse struct {
	Items []YoutubeVideo `json:"items"`
}

type youtubePlaylistListResponse struct {
	Items []YoutubePlaylist `json:"items"`
}
