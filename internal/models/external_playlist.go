package models

// ExternalPlaylistToLink identifies an external playlist by the platform it
// lives on and its public url.
type ExternalPlaylistToLink struct {
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
}

// PlatformSpecificParams carries per-platform options for playlist lookups
// by id.
type PlatformSpecificParams struct {
	// Token for fetching private/unlisted SoundCloud playlists.
	SoundcloudSecretToken *string `json:"soundcloud_secret_token,omitempty"`
}

// ExternalPlaylistInfo is a playlist read live from an external platform.
// It is a transient aggregate: import/sync logic consumes it to mutate
// playlist and track reference state, but it is never persisted directly.
type ExternalPlaylistInfo struct {
	ExternalPlatformID string `json:"external_platform_id"`

	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	PictureURL  *string `json:"picture_url,omitempty"`

	TrackReferences []TrackReference `json:"track_references"`

	// Playlist page on the platform the playlist is hosted on, e.g.
	// https://soundcloud.com/username/sets/playlist or
	// https://www.youtube.com/playlist?list=PLFV2KydlgVPrzJLyCYHLiDE38Z4tconON
	OriginalPageURL string `json:"original_page_url"`

	SoundcloudSecretToken *string `json:"-"`
}
