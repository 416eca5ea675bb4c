package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TracksSyncService manages the link between an internal playlist and the
// external playlist it mirrors, and runs the sync itself.
type TracksSyncService struct {
	db            *gorm.DB
	playlists     ExternalPlaylistSource
	importService *TracksImportService
	logger        *zap.Logger
}

func NewTracksSyncService(db *gorm.DB, playlists ExternalPlaylistSource, importService *TracksImportService, logger *zap.Logger) *TracksSyncService {
	return &TracksSyncService{
		db:            db,
		playlists:     playlists,
		importService: importService,
		logger:        logger,
	}
}

// LinkExternalPlaylistForSync resolves the external playlist and stores a
// reference to it on the internal playlist. Any previous reference is
// deleted first, so a playlist never carries more than one.
func (s *TracksSyncService) LinkExternalPlaylistForSync(ctx context.Context, playlistID uuid.UUID, external models.ExternalPlaylistToLink) (*models.ExternalPlaylistReference, error) {
	playlistInfo, err := s.playlists.GetPlaylistByURL(ctx, external.Platform, external.URL)
	if err != nil {
		return nil, err
	}
	if playlistInfo == nil {
		return nil, ErrExternalPlaylistNotFound
	}

	reference := models.ExternalPlaylistReference{
		LastSyncAt:            time.Now().UTC(),
		Platform:              external.Platform,
		PlatformID:            playlistInfo.ExternalPlatformID,
		SoundcloudSecretToken: playlistInfo.SoundcloudSecretToken,
		ParentPlaylistID:      playlistID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_playlist_id = ?", playlistID).
			Delete(&models.ExternalPlaylistReference{}).Error; err != nil {
			return err
		}
		return tx.Create(&reference).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("linked external playlist for sync",
		zap.String("playlist_id", playlistID.String()),
		zap.String("platform", string(external.Platform)),
		zap.String("platform_id", reference.PlatformID))

	return &reference, nil
}

// DisableExternalPlaylistSync removes the playlist's external reference.
// No-op when none exists.
func (s *TracksSyncService) DisableExternalPlaylistSync(ctx context.Context, playlistID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("parent_playlist_id = ?", playlistID).
		Delete(&models.ExternalPlaylistReference{}).Error
}

// GetExternalPlaylistLinked re-resolves the linked external playlist live.
// Returns nil when the playlist has no link; ErrExternalPlaylistNotFound
// when the link exists but the playlist is gone from its platform.
func (s *TracksSyncService) GetExternalPlaylistLinked(ctx context.Context, playlistID uuid.UUID) (*models.ExternalPlaylistInfo, error) {
	reference, err := s.getReference(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if reference == nil {
		return nil, nil
	}

	playlistInfo, err := s.playlists.GetPlaylistByID(ctx, reference.Platform, reference.PlatformID,
		models.PlatformSpecificParams{SoundcloudSecretToken: reference.SoundcloudSecretToken})
	if err != nil {
		return nil, err
	}
	if playlistInfo == nil {
		return nil, ErrExternalPlaylistNotFound
	}

	return playlistInfo, nil
}

// SyncPlaylistTracks replaces the playlist's track set with the current
// track set of its linked external playlist and stamps last_sync_at.
func (s *TracksSyncService) SyncPlaylistTracks(ctx context.Context, playlistID uuid.UUID) error {
	reference, err := s.getReference(ctx, playlistID)
	if err != nil {
		return err
	}
	if reference == nil {
		return ErrExternalPlaylistNotLinked
	}

	playlistInfo, err := s.playlists.GetPlaylistByID(ctx, reference.Platform, reference.PlatformID,
		models.PlatformSpecificParams{SoundcloudSecretToken: reference.SoundcloudSecretToken})
	if err != nil {
		return err
	}
	if playlistInfo == nil {
		return ErrExternalPlaylistNotFound
	}

	// Replace and timestamp must land together; a failed stamp would
	// otherwise leave the replaced track set behind as a partial write.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.importService.addTracksToPlaylist(tx, playlistID, playlistInfo.TrackReferences, true); err != nil {
			return err
		}
		return tx.Model(&models.ExternalPlaylistReference{}).
			Where("id = ?", reference.ID).
			Update("last_sync_at", time.Now().UTC()).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("synced playlist tracks",
		zap.String("playlist_id", playlistID.String()),
		zap.Int("tracks", len(playlistInfo.TrackReferences)))

	return nil
}

func (s *TracksSyncService) getReference(ctx context.Context, playlistID uuid.UUID) (*models.ExternalPlaylistReference, error) {
	var reference models.ExternalPlaylistReference
	err := s.db.WithContext(ctx).
		Where("parent_playlist_id = ?", playlistID).
		First(&reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reference, nil
}
