package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

// PlatformAggregator dispatches platform-generic operations to the matching
// platform service and fans multi-platform operations out concurrently.
type PlatformAggregator struct {
	platforms map[models.Platform]PlatformService
	logger    *zap.Logger
}

func NewPlatformAggregator(platforms map[models.Platform]PlatformService, logger *zap.Logger) *PlatformAggregator {
	return &PlatformAggregator{platforms: platforms, logger: logger}
}

func (a *PlatformAggregator) platformService(platform models.Platform) (PlatformService, error) {
	service, ok := a.platforms[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
	return service, nil
}

// LoadTracks loads metadata for track references spanning any mix of
// platforms. Each platform is queried once with its share of the ids, all
// platforms concurrently. The result has exactly one entry per input
// reference, in input order, nil where the track could not be loaded.
func (a *PlatformAggregator) LoadTracks(ctx context.Context, references []models.TrackReference) ([]*models.LoadedTrack, error) {
	type partition struct {
		platformIDs []string
		positions   []int
	}

	partitions := make(map[models.Platform]*partition)
	for i, reference := range references {
		if _, err := a.platformService(reference.Platform); err != nil {
			return nil, err
		}
		part := partitions[reference.Platform]
		if part == nil {
			part = &partition{}
			partitions[reference.Platform] = part
		}
		part.platformIDs = append(part.platformIDs, reference.PlatformID)
		part.positions = append(part.positions, i)
	}

	loaded := make([]*models.LoadedTrack, len(references))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for platform, part := range partitions {
		wg.Add(1)
		go func(platform models.Platform, part *partition) {
			defer wg.Done()

			service := a.platforms[platform]
			tracks, err := service.LoadTracks(ctx, part.platformIDs)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for i, track := range tracks {
				loaded[part.positions[i]] = track
			}
		}(platform, part)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return loaded, nil
}

// GetTrackAudioFileURL resolves the audio file url for a single track.
func (a *PlatformAggregator) GetTrackAudioFileURL(ctx context.Context, platform models.Platform, platformID string, audioFileEndpointURL *string) (string, error) {
	service, err := a.platformService(platform)
	if err != nil {
		return "", err
	}
	return service.GetTrackAudioFileURL(ctx, platformID, audioFileEndpointURL)
}

// GetPlaylistByURL resolves an external playlist url on the given platform.
func (a *PlatformAggregator) GetPlaylistByURL(ctx context.Context, platform models.Platform, playlistURL string) (*models.ExternalPlaylistInfo, error) {
	service, err := a.platformService(platform)
	if err != nil {
		return nil, err
	}
	return service.GetPlaylistByURL(ctx, playlistURL)
}

// GetPlaylistByID fetches an external playlist by its platform id.
func (a *PlatformAggregator) GetPlaylistByID(ctx context.Context, platform models.Platform, platformID string, params models.PlatformSpecificParams) (*models.ExternalPlaylistInfo, error) {
	service, err := a.platformService(platform)
	if err != nil {
		return nil, err
	}
	return service.GetPlaylistByID(ctx, platformID, params)
}

// SearchTracks runs the query on every platform concurrently and merges the
// results. The merged list is shuffled so no platform consistently dominates
// the top of the results.
func (a *PlatformAggregator) SearchTracks(ctx context.Context, query string) ([]*models.LoadedTrack, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		merged   []*models.LoadedTrack
		firstErr error
	)

	for platform, service := range a.platforms {
		wg.Add(1)
		go func(platform models.Platform, service PlatformService) {
			defer wg.Done()

			tracks, err := service.SearchTracks(ctx, query)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				a.logger.Error("platform search failed",
					zap.String("platform", string(platform)), zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			merged = append(merged, tracks...)
		}(platform, service)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	rand.Shuffle(len(merged), func(i, j int) {
		merged[i], merged[j] = merged[j], merged[i]
	})

	return merged, nil
}
