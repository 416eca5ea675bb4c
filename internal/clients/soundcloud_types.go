package clients

// Wire format of the SoundCloud v2 API. Only the fields the services layer
// consumes are decoded.

type SoundcloudTrackFormat struct {
	Protocol string `json:"protocol"`
}

type SoundcloudTrackTranscoding struct {
	Format SoundcloudTrackFormat `json:"format"`
	URL    string                `json:"url"`
}

type SoundcloudTrackMedia struct {
	Transcodings []SoundcloudTrackTranscoding `json:"transcodings"`
}

type SoundcloudTrackUser struct {
	Username string `json:"username"`
}

type SoundcloudTrack struct {
	ID           int64                `json:"id"`
	Title        string               `json:"title"`
	ArtworkURL   *string              `json:"artwork_url"`
	CreatedAt    string               `json:"created_at"`
	Description  *string              `json:"description"`
	FullDuration int                  `json:"full_duration"`
	LikesCount   *int                 `json:"likes_count"`
	PermalinkURL string               `json:"permalink_url"`
	Media        SoundcloudTrackMedia `json:"media"`
	User         SoundcloudTrackUser  `json:"user"`
}

type SoundcloudPlaylistTrack struct {
	ID int64 `json:"id"`
}

type SoundcloudPlaylist struct {
	// Resource kind as reported by the /resolve endpoint; anything other
	// than "playlist" means the url pointed at a different resource.
	Kind string `json:"kind"`

	ID           int64                     `json:"id"`
	Title        string                    `json:"title"`
	Description  *string                   `json:"description"`
	Permalink    string                    `json:"permalink"`
	PermalinkURL string                    `json:"permalink_url"`
	ArtworkURL   *string                   `json:"artwork_url"`
	SecretToken  *string                   `json:"secret_token"`
	Tracks       []SoundcloudPlaylistTrack `json:"tracks"`
}

// Format data resolved from a transcoding endpoint.
type SoundcloudFormatData struct {
	URL string `json:"url"`
}

type soundcloudSearchTracksResponse struct {
	Collection []SoundcloudTrack `json:"collection"`
}

type soundcloudSearchPlaylistsResponse struct {
	Collection []SoundcloudPlaylist `json:"collection"`
}
