package models

// TrackOwner is the author/uploader of a track on its platform.
type TrackOwner struct {
	Name string `json:"name"`
}

// LoadedTrack is a track reference enriched with live metadata fetched from
// its platform. Produced only by a platform service from a raw platform
// resource; immutable once produced and never persisted.
type LoadedTrack struct {
	ID         string   `json:"id"`
	Platform   Platform `json:"platform"`
	PlatformID string   `json:"platform_id"`

	Name            string  `json:"name"`
	PictureURL      *string `json:"picture_url,omitempty"`
	Description     *string `json:"description,omitempty"`
	SecondsDuration int     `json:"seconds_duration"`
	LikesCount      *int    `json:"likes_count,omitempty"`

	OriginalPageURL string `json:"original_page_url"`

	// Endpoint the audio file url can be resolved from, where the platform
	// exposes one (SoundCloud transcoding endpoints).
	AudioFileEndpointURL *string `json:"audio_file_endpoint_url,omitempty"`

	Owner TrackOwner `json:"owner"`
}
