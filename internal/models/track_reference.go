package models

// TrackReference points to a track hosted on an external platform. The row
// carries no track data itself; metadata is always loaded live from the
// platform API. Rows are created lazily on first import, reused across
// playlists and never mutated afterwards.
type TrackReference struct {
	// Composite id in the form "<PLATFORM>/<platform_id>".
	ID string `gorm:"primaryKey;size:255" json:"id"`

	Platform   Platform `gorm:"size:32;not null;uniqueIndex:idx_track_reference_platform_id" json:"platform"`
	PlatformID string   `gorm:"size:191;not null;uniqueIndex:idx_track_reference_platform_id" json:"platform_id"`

	Playlists []Playlist `gorm:"many2many:playlist_tracks" json:"playlists,omitempty"`
}

// NewTrackReference builds a reference with its canonical composite id.
func NewTrackReference(platform Platform, platformID string) TrackReference {
	return TrackReference{
		ID:         TrackID(platform, platformID),
		Platform:   platform,
		PlatformID: platformID,
	}
}
