package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/windchimes/backend/internal/clients"
	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

// The hls transcoding is the one the web player streams; progressive
// downloads also work but are not offered for every track.
const soundcloudPreferredProtocol = "hls"

// SoundcloudService adapts the SoundCloud API to the platform contract.
type SoundcloudService struct {
	client *clients.SoundcloudClient
	logger *zap.Logger
}

func NewSoundcloudService(client *clients.SoundcloudClient, logger *zap.Logger) *SoundcloudService {
	return &SoundcloudService{client: client, logger: logger}
}

// LoadTracks fetches track metadata by platform ids, preserving request
// order and leaving nil where SoundCloud did not return the track. Ids that
// are not numeric cannot exist on SoundCloud and come back nil without a
// request.
func (s *SoundcloudService) LoadTracks(ctx context.Context, platformIDs []string) ([]*models.LoadedTrack, error) {
	numericIDs := make([]int64, 0, len(platformIDs))
	numericPositions := make([]int, 0, len(platformIDs))
	for i, platformID := range platformIDs {
		id, err := strconv.ParseInt(platformID, 10, 64)
		if err != nil {
			continue
		}
		numericIDs = append(numericIDs, id)
		numericPositions = append(numericPositions, i)
	}

	fetched, err := s.client.GetTracksByIDs(ctx, numericIDs)
	if err != nil {
		return nil, err
	}

	loaded := make([]*models.LoadedTrack, len(platformIDs))
	for i, track := range fetched {
		if track == nil {
			continue
		}
		loaded[numericPositions[i]] = s.convertTrack(track)
	}

	return loaded, nil
}

// GetTrackAudioFileURL resolves a streamable audio url for the track. When
// the caller already holds the track's transcoding endpoint url (from a
// previous LoadTracks), passing it skips the metadata refetch. Returns the
// empty url when no such track exists; ErrNoSuitableFormat when the track
// exists but offers no matching transcoding.
func (s *SoundcloudService) GetTrackAudioFileURL(ctx context.Context, platformID string, audioFileEndpointURL *string) (string, error) {
	formatURL := ""
	if audioFileEndpointURL != nil {
		formatURL = *audioFileEndpointURL
	} else {
		id, err := strconv.ParseInt(platformID, 10, 64)
		if err != nil {
			return "", nil
		}

		tracks, err := s.client.GetTracksByIDs(ctx, []int64{id})
		if err != nil {
			return "", err
		}
		if tracks[0] == nil {
			return "", nil
		}
		formatURL = suitableFormatURL(tracks[0])
	}

	if formatURL == "" {
		return "", ErrNoSuitableFormat
	}

	formatData, err := s.client.GetFormatData(ctx, formatURL)
	if err != nil {
		return "", err
	}
	if formatData.URL == "" {
		return "", ErrNoSuitableFormat
	}

	return formatData.URL, nil
}

// GetPlaylistByURL resolves a public playlist url into playlist info.
func (s *SoundcloudService) GetPlaylistByURL(ctx context.Context, playlistURL string) (*models.ExternalPlaylistInfo, error) {
	playlist, err := s.client.ResolvePlaylistByURL(ctx, playlistURL)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, nil
	}

	return s.convertPlaylist(playlist), nil
}

// GetPlaylistByID fetches playlist info by its platform id. The secret token
// from params is required for private playlists.
func (s *SoundcloudService) GetPlaylistByID(ctx context.Context, platformID string, params models.PlatformSpecificParams) (*models.ExternalPlaylistInfo, error) {
	playlist, err := s.client.GetPlaylistByID(ctx, platformID, params.SoundcloudSecretToken)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, nil
	}

	return s.convertPlaylist(playlist), nil
}

// SearchTracks searches SoundCloud tracks by a free-text query.
func (s *SoundcloudService) SearchTracks(ctx context.Context, query string) ([]*models.LoadedTrack, error) {
	tracks, err := s.client.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}

	loaded := make([]*models.LoadedTrack, 0, len(tracks))
	for i := range tracks {
		loaded = append(loaded, s.convertTrack(&tracks[i]))
	}

	return loaded, nil
}

func (s *SoundcloudService) convertTrack(track *clients.SoundcloudTrack) *models.LoadedTrack {
	platformID := strconv.FormatInt(track.ID, 10)

	loaded := &models.LoadedTrack{
		ID:              models.TrackID(models.PlatformSoundcloud, platformID),
		Platform:        models.PlatformSoundcloud,
		PlatformID:      platformID,
		Name:            track.Title,
		PictureURL:      track.ArtworkURL,
		Description:     track.Description,
		SecondsDuration: (track.FullDuration + 500) / 1000,
		LikesCount:      track.LikesCount,
		OriginalPageURL: track.PermalinkURL,
		Owner:           models.TrackOwner{Name: track.User.Username},
	}

	if formatURL := suitableFormatURL(track); formatURL != "" {
		loaded.AudioFileEndpointURL = &formatURL
	}

	return loaded
}

func (s *SoundcloudService) convertPlaylist(playlist *clients.SoundcloudPlaylist) *models.ExternalPlaylistInfo {
	references := make([]models.TrackReference, 0, len(playlist.Tracks))
	for _, track := range playlist.Tracks {
		references = append(references, models.NewTrackReference(
			models.PlatformSoundcloud, strconv.FormatInt(track.ID, 10)))
	}

	return &models.ExternalPlaylistInfo{
		ExternalPlatformID:    strconv.FormatInt(playlist.ID, 10),
		Name:                  playlist.Title,
		Description:           playlist.Description,
		PictureURL:            playlist.ArtworkURL,
		TrackReferences:       references,
		OriginalPageURL:       playlist.PermalinkURL,
		SoundcloudSecretToken: playlist.SecretToken,
	}
}

// suitableFormatURL picks the transcoding endpoint of the preferred
// protocol. SoundCloud serves snippet transcodings for Go+ tracks under
// /preview/; rewriting that segment to /stream/ yields the full version.
func suitableFormatURL(track *clients.SoundcloudTrack) string {
	for _, transcoding := range track.Media.Transcodings {
		if transcoding.Format.Protocol != soundcloudPreferredProtocol {
			continue
		}
		return strings.Replace(transcoding.URL, "/preview/", "/stream/", 1)
	}
	return ""
}
