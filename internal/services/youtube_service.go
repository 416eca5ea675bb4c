package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/windchimes/backend/internal/clients"
	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

const youtubeWatchBaseURL = "https://www.youtube.com/watch?v="

// Cap on how many playlistItems pages to walk. Playlists above 200 tracks
// get truncated rather than burning through the API quota.
const maxYoutubePlaylistPages = 4

// YoutubeService adapts the YouTube Data API (and the internal search API)
// to the platform contract.
type YoutubeService struct {
	dataClient     *clients.YoutubeDataClient
	internalClient *clients.YoutubeInternalClient
	mediaResolver  clients.MediaURLResolver
	logger         *zap.Logger
}

func NewYoutubeService(
	dataClient *clients.YoutubeDataClient,
	internalClient *clients.YoutubeInternalClient,
	mediaResolver clients.MediaURLResolver,
	logger *zap.Logger,
) *YoutubeService {
	return &YoutubeService{
		dataClient:     dataClient,
		internalClient: internalClient,
		mediaResolver:  mediaResolver,
		logger:         logger,
	}
}

// LoadTracks fetches video metadata by platform ids, preserving request
// order and leaving nil where the video is missing, deleted or private.
func (s *YoutubeService) LoadTracks(ctx context.Context, platformIDs []string) ([]*models.LoadedTrack, error) {
	videos, err := s.dataClient.GetVideosByIDs(ctx, platformIDs)
	if err != nil {
		return nil, err
	}

	loaded := make([]*models.LoadedTrack, len(videos))
	for i, video := range videos {
		if video == nil {
			continue
		}
		loaded[i] = s.convertVideo(video)
	}

	return loaded, nil
}

// GetTrackAudioFileURL resolves a directly streamable audio url for the
// video via the media resolver. YouTube has no pre-resolved audio endpoints,
// so audioFileEndpointURL is ignored.
func (s *YoutubeService) GetTrackAudioFileURL(ctx context.Context, platformID string, audioFileEndpointURL *string) (string, error) {
	if audioFileEndpointURL != nil {
		s.logger.Warn("audio file endpoint url passed for a youtube track, ignoring",
			zap.String("platform_id", platformID))
	}

	audioURL, err := s.mediaResolver.ResolveAudioURL(ctx, youtubeWatchBaseURL+platformID)
	if err != nil {
		return "", err
	}
	if audioURL == "" {
		return "", ErrNoSuitableFormat
	}

	return audioURL, nil
}

// GetPlaylistByURL fetches playlist info for a playlist page url. Returns
// nil when the url carries no playlist id or the playlist does not exist.
func (s *YoutubeService) GetPlaylistByURL(ctx context.Context, playlistURL string) (*models.ExternalPlaylistInfo, error) {
	parsed, err := url.Parse(playlistURL)
	if err != nil {
		return nil, nil
	}

	playlistID := parsed.Query().Get("list")
	if playlistID == "" {
		return nil, nil
	}

	return s.GetPlaylistByID(ctx, playlistID, models.PlatformSpecificParams{})
}

// GetPlaylistByID fetches playlist info by its platform id.
func (s *YoutubeService) GetPlaylistByID(ctx context.Context, platformID string, _ models.PlatformSpecificParams) (*models.ExternalPlaylistInfo, error) {
	playlist, err := s.dataClient.GetPlaylistByID(ctx, platformID)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, nil
	}

	references, err := s.loadPlaylistTrackReferences(ctx, platformID)
	if err != nil {
		return nil, err
	}

	info := &models.ExternalPlaylistInfo{
		ExternalPlatformID: playlist.ID,
		Name:               playlist.Snippet.Title,
		TrackReferences:    references,
		OriginalPageURL:    "https://www.youtube.com/playlist?list=" + playlist.ID,
	}
	if playlist.Snippet.Description != "" {
		description := playlist.Snippet.Description
		info.Description = &description
	}
	if thumbnail := bestThumbnail(playlist.Snippet.Thumbnails); thumbnail != "" {
		info.PictureURL = &thumbnail
	}

	return info, nil
}

// loadPlaylistTrackReferences walks the playlist's item pages, stopping when
// the reported total has been collected, the pages run out, or the page cap
// is hit.
func (s *YoutubeService) loadPlaylistTrackReferences(ctx context.Context, playlistID string) ([]models.TrackReference, error) {
	var references []models.TrackReference
	pageToken := ""

	for page := 0; page < maxYoutubePlaylistPages; page++ {
		itemsPage, err := s.dataClient.GetPlaylistItemsPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}

		for _, item := range itemsPage.Items {
			references = append(references, models.NewTrackReference(
				models.PlatformYoutube, item.ContentDetails.VideoID))
		}

		if len(references) >= itemsPage.PageInfo.TotalResults || itemsPage.NextPageToken == "" {
			break
		}
		pageToken = itemsPage.NextPageToken
	}

	return references, nil
}

// SearchTracks searches YouTube videos by a free-text query and loads full
// metadata for the results. Results that disappear between the search and
// the metadata fetch are dropped.
func (s *YoutubeService) SearchTracks(ctx context.Context, query string) ([]*models.LoadedTrack, error) {
	videoIDs, err := s.internalClient.SearchVideoIDs(ctx, query)
	if err != nil {
		return nil, err
	}

	loaded, err := s.LoadTracks(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	found := make([]*models.LoadedTrack, 0, len(loaded))
	for _, track := range loaded {
		if track != nil {
			found = append(found, track)
		}
	}

	return found, nil
}

func (s *YoutubeService) convertVideo(video *clients.YoutubeVideo) *models.LoadedTrack {
	loaded := &models.LoadedTrack{
		ID:              models.TrackID(models.PlatformYoutube, video.ID),
		Platform:        models.PlatformYoutube,
		PlatformID:      video.ID,
		Name:            video.Snippet.Title,
		SecondsDuration: parseYoutubeDuration(video.ContentDetails.Duration),
		OriginalPageURL: youtubeWatchBaseURL + video.ID,
		Owner:           models.TrackOwner{Name: video.Snippet.ChannelTitle},
	}
	if video.Snippet.Description != "" {
		description := video.Snippet.Description
		loaded.Description = &description
	}
	if thumbnail := bestThumbnail(video.Snippet.Thumbnails); thumbnail != "" {
		loaded.PictureURL = &thumbnail
	}

	return loaded
}

var youtubeThumbnailPreference = []string{"maxres", "standard", "high", "medium", "default"}

func bestThumbnail(thumbnails map[string]clients.YoutubeThumbnail) string {
	for _, key := range youtubeThumbnailPreference {
		if thumbnail, ok := thumbnails[key]; ok && thumbnail.URL != "" {
			return thumbnail.URL
		}
	}
	return ""
}

// parseYoutubeDuration converts a duration token like "PT1H2M30S" into
// seconds. Components are optional and carry at most two digits; anything
// unparseable counts as zero.
func parseYoutubeDuration(duration string) int {
	hours := durationComponent(duration, 'H')
	minutes := durationComponent(duration, 'M')
	seconds := durationComponent(duration, 'S')

	return hours*3600 + minutes*60 + seconds
}

func durationComponent(duration string, marker byte) int {
	markerIndex := strings.IndexByte(duration, marker)
	if markerIndex == -1 {
		return 0
	}

	start := markerIndex
	for start > 0 && markerIndex-start < 2 && isDigit(duration[start-1]) {
		start--
	}

	value := 0
	for _, c := range duration[start:markerIndex] {
		value = value*10 + int(c-'0')
	}

	return value
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
