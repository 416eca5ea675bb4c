package services

import (
	"context"
	"errors"

	"github.com/windchimes/backend/internal/models"
)

// ErrNoSuitableFormat is returned when a track exists but exposes no format
// the player can stream.
var ErrNoSuitableFormat = errors.New("track has no suitable audio format")

// ErrExternalPlaylistNotFound is returned when the linked external playlist
// no longer resolves on its platform.
var ErrExternalPlaylistNotFound = errors.New("external playlist not found")

// ErrExternalPlaylistNotLinked is returned when a sync operation runs against
// a playlist that has no external playlist linked.
var ErrExternalPlaylistNotLinked = errors.New("playlist has no external playlist linked")

// PlatformService is the per-platform adapter every supported platform
// implements. All methods hit the platform live; nothing is cached.
//
// LoadTracks returns exactly one entry per requested id, in request order,
// nil where the platform did not return the track. GetTrackAudioFileURL may
// take a pre-resolved audio endpoint url as a shortcut; platforms without
// that concept ignore it. GetPlaylistByURL and GetPlaylistByID return nil
// (and no error) when the playlist does not exist or the url does not point
// at a playlist.
type PlatformService interface {
	LoadTracks(ctx context.Context, platformIDs []string) ([]*models.LoadedTrack, error)
	GetTrackAudioFileURL(ctx context.Context, platformID string, audioFileEndpointURL *string) (string, error)
	GetPlaylistByURL(ctx context.Context, playlistURL string) (*models.ExternalPlaylistInfo, error)
	GetPlaylistByID(ctx context.Context, platformID string, params models.PlatformSpecificParams) (*models.ExternalPlaylistInfo, error)
	SearchTracks(ctx context.Context, query string) ([]*models.LoadedTrack, error)
}

// ExternalPlaylistSource resolves external playlists across platforms. The
// aggregator satisfies it; import and sync services depend on it instead of
// the full aggregator surface.
type ExternalPlaylistSource interface {
	GetPlaylistByURL(ctx context.Context, platform models.Platform, playlistURL string) (*models.ExternalPlaylistInfo, error)
	GetPlaylistByID(ctx context.Context, platform models.Platform, platformID string, params models.PlatformSpecificParams) (*models.ExternalPlaylistInfo, error)
}
