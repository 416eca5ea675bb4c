package services

import (
	"context"
	"fmt"

	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

// MaxTracksToLoadPerRequest caps how many tracks a single load request may
// resolve, keeping one request from fanning out into hundreds of platform
// API calls.
const MaxTracksToLoadPerRequest = 30

// TracksService picks which of a playlist's track references to load and
// resolves them through the aggregator.
type TracksService struct {
	aggregator *PlatformAggregator
	logger     *zap.Logger
}

func NewTracksService(aggregator *PlatformAggregator, logger *zap.Logger) *TracksService {
	return &TracksService{aggregator: aggregator, logger: logger}
}

// GetTrackReferencesToLoad selects the portion of the playlist's references
// to resolve. With idsToLoad the portion is position-aligned to the ids
// (nil where the id is not in the playlist); with loadFirstTracks it is the
// first MaxTracksToLoadPerRequest references; with neither it is empty.
func (s *TracksService) GetTrackReferencesToLoad(playlist *models.Playlist, idsToLoad []string, loadFirstTracks bool) ([]*models.TrackReference, error) {
	if len(idsToLoad) > 0 {
		if len(idsToLoad) > MaxTracksToLoadPerRequest {
			return nil, fmt.Errorf("can't load more than %d tracks per request", MaxTracksToLoadPerRequest)
		}

		byID := make(map[string]*models.TrackReference, len(playlist.TrackReferences))
		for i := range playlist.TrackReferences {
			byID[playlist.TrackReferences[i].ID] = &playlist.TrackReferences[i]
		}

		references := make([]*models.TrackReference, len(idsToLoad))
		for i, id := range idsToLoad {
			references[i] = byID[id]
		}
		return references, nil
	}

	if loadFirstTracks {
		count := len(playlist.TrackReferences)
		if count > MaxTracksToLoadPerRequest {
			count = MaxTracksToLoadPerRequest
		}

		references := make([]*models.TrackReference, count)
		for i := 0; i < count; i++ {
			references[i] = &playlist.TrackReferences[i]
		}
		return references, nil
	}

	return []*models.TrackReference{}, nil
}

// LoadTracks resolves references through the aggregator, keeping the
// positional alignment of the input. nil input entries stay nil.
func (s *TracksService) LoadTracks(ctx context.Context, references []*models.TrackReference) ([]*models.LoadedTrack, error) {
	present := make([]models.TrackReference, 0, len(references))
	positions := make([]int, 0, len(references))
	for i, reference := range references {
		if reference == nil {
			continue
		}
		present = append(present, *reference)
		positions = append(positions, i)
	}

	loaded, err := s.aggregator.LoadTracks(ctx, present)
	if err != nil {
		return nil, err
	}

	aligned := make([]*models.LoadedTrack, len(references))
	for i, track := range loaded {
		aligned[positions[i]] = track
	}

	return aligned, nil
}

// GetTrackAudioFileURL resolves the playable audio url for a single track.
func (s *TracksService) GetTrackAudioFileURL(ctx context.Context, platform models.Platform, platformID string, audioFileEndpointURL *string) (string, error) {
	return s.aggregator.GetTrackAudioFileURL(ctx, platform, platformID, audioFileEndpointURL)
}

// SearchTracks searches all platforms through the aggregator.
func (s *TracksService) SearchTracks(ctx context.Context, query string) ([]*models.LoadedTrack, error) {
	return s.aggregator.SearchTracks(ctx, query)
}
