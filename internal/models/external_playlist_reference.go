package models

import (
	"time"

	"github.com/google/uuid"
)

// ExternalPlaylistReference links one internal playlist to one external
// playlist for syncing. Only the platform id needed to re-resolve the
// external playlist live is stored, never its contents. A playlist has at
// most one reference; re-linking deletes the previous row before inserting
// the new one.
type ExternalPlaylistReference struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LastSyncAt time.Time `json:"last_sync_at"`

	Platform Platform `gorm:"size:32;not null" json:"platform"`

	// External platform id of the playlist that is being referenced.
	PlatformID string `gorm:"size:191;not null" json:"platform_id"`

	// Needed to re-resolve private/unlisted SoundCloud playlists.
	SoundcloudSecretToken *string `gorm:"size:255" json:"-"`

	ParentPlaylistID uuid.UUID `gorm:"type:uuid;not null;index" json:"parent_playlist_id"`
}
