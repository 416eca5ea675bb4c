package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Playlist is a user-owned playlist composed of cross-platform track
// references. Membership is a many-to-many join, ordered by insertion and
// de-duplicated; the referenced tracks themselves live on their platforms.
type Playlist struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name        string  `gorm:"size:255;not null" json:"name"`
	Description *string `gorm:"size:2000" json:"description,omitempty"`
	PictureURL  *string `gorm:"size:2048" json:"picture_url,omitempty"`

	PubliclyAvailable bool `gorm:"default:false" json:"publicly_available"`

	// Owner id as provided by the auth collaborator (JWT subject claim).
	OwnerUserID string `gorm:"size:255;not null;index" json:"owner_user_id"`

	TrackReferences []TrackReference `gorm:"many2many:playlist_tracks" json:"track_references,omitempty"`

	ExternalPlaylistToSyncWith *ExternalPlaylistReference `gorm:"foreignKey:ParentPlaylistID;constraint:OnDelete:CASCADE" json:"external_playlist_to_sync_with,omitempty"`
}

// BeforeCreate generates a UUID if not set
func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PlaylistTrack is the membership row linking a playlist to a track
// reference. It maps onto the join table GORM creates for
// Playlist.TrackReferences, so reconciliation code can diff and mutate
// memberships directly.
type PlaylistTrack struct {
	PlaylistID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TrackReferenceID string    `gorm:"size:255;primaryKey"`
}

func (PlaylistTrack) TableName() string {
	return "playlist_tracks"
}
