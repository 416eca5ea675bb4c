package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TracksImportService copies the track set of an external playlist into an
// internal one, creating track reference rows lazily and never duplicating
// membership rows.
type TracksImportService struct {
	db        *gorm.DB
	playlists ExternalPlaylistSource
	logger    *zap.Logger
}

func NewTracksImportService(db *gorm.DB, playlists ExternalPlaylistSource, logger *zap.Logger) *TracksImportService {
	return &TracksImportService{db: db, playlists: playlists, logger: logger}
}

// ImportPlaylistTracks resolves the external playlist by url and links its
// tracks to the target playlist. With replaceExisting the playlist's current
// membership is dropped first, leaving exactly the source's track set.
// Without it the import is additive and idempotent. Returns the references
// of the source playlist.
func (s *TracksImportService) ImportPlaylistTracks(ctx context.Context, from models.ExternalPlaylistToLink, toPlaylistID uuid.UUID, replaceExisting bool) ([]models.TrackReference, error) {
	playlistInfo, err := s.playlists.GetPlaylistByURL(ctx, from.Platform, from.URL)
	if err != nil {
		return nil, err
	}
	if playlistInfo == nil {
		return nil, ErrExternalPlaylistNotFound
	}

	if err := s.AddTracksToPlaylist(ctx, toPlaylistID, playlistInfo.TrackReferences, replaceExisting); err != nil {
		return nil, err
	}

	s.logger.Info("imported external playlist tracks",
		zap.String("playlist_id", toPlaylistID.String()),
		zap.String("platform", string(from.Platform)),
		zap.Int("tracks", len(playlistInfo.TrackReferences)))

	return playlistInfo.TrackReferences, nil
}

// AddTracksToPlaylist links the references to the playlist in one
// transaction. References already linked are skipped, reference rows are
// created only for ids the system has never seen, and duplicates within the
// input collapse to one membership row.
func (s *TracksImportService) AddTracksToPlaylist(ctx context.Context, playlistID uuid.UUID, references []models.TrackReference, replaceExisting bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.addTracksToPlaylist(tx, playlistID, references, replaceExisting)
	})
}

// addTracksToPlaylist runs the membership diff on the caller's transaction,
// so callers can bundle it with their own writes atomically.
func (s *TracksImportService) addTracksToPlaylist(tx *gorm.DB, playlistID uuid.UUID, references []models.TrackReference, replaceExisting bool) error {
	if replaceExisting {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&models.PlaylistTrack{}).Error; err != nil {
			return err
		}
	}

	deduped := dedupeReferences(references)
	if len(deduped) == 0 {
		return nil
	}

	ids := make([]string, len(deduped))
	for i, reference := range deduped {
		ids[i] = reference.ID
	}

	var existing []models.TrackReference
	if err := tx.Where("id IN ?", ids).Find(&existing).Error; err != nil {
		return err
	}
	existingIDs := make(map[string]bool, len(existing))
	for _, reference := range existing {
		existingIDs[reference.ID] = true
	}

	var linked []models.PlaylistTrack
	if err := tx.Where("playlist_id = ? AND track_reference_id IN ?", playlistID, ids).
		Find(&linked).Error; err != nil {
		return err
	}
	linkedIDs := make(map[string]bool, len(linked))
	for _, link := range linked {
		linkedIDs[link.TrackReferenceID] = true
	}

	var newReferences []models.TrackReference
	for _, reference := range deduped {
		if !existingIDs[reference.ID] {
			newReferences = append(newReferences, reference)
		}
	}
	if len(newReferences) > 0 {
		if err := tx.Create(&newReferences).Error; err != nil {
			return err
		}
	}

	var newLinks []models.PlaylistTrack
	for _, reference := range deduped {
		if linkedIDs[reference.ID] {
			continue
		}
		newLinks = append(newLinks, models.PlaylistTrack{
			PlaylistID:       playlistID,
			TrackReferenceID: reference.ID,
		})
	}
	if len(newLinks) > 0 {
		if err := tx.Create(&newLinks).Error; err != nil {
			return err
		}
	}

	return nil
}

// dedupeReferences drops repeated ids, keeping first occurrences in order.
func dedupeReferences(references []models.TrackReference) []models.TrackReference {
	seen := make(map[string]bool, len(references))
	deduped := make([]models.TrackReference, 0, len(references))
	for _, reference := range references {
		if seen[reference.ID] {
			continue
		}
		seen[reference.ID] = true
		deduped = append(deduped, reference)
	}
	return deduped
}
