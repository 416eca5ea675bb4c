package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlaylistFilters narrows GetPlaylists. Zero-value fields are not applied.
type PlaylistFilters struct {
	IDs               []uuid.UUID
	OwnerUserID       string
	PubliclyAvailable *bool
}

// PlaylistOwnershipCheck is the result of an ownership check over a set of
// playlists. Playlists holds the rows that were found, whether owned or not,
// so callers can reuse them without a second query.
type PlaylistOwnershipCheck struct {
	OwnsAll   bool
	Playlists []models.Playlist
}

// PlaylistsService owns playlist persistence and access management.
type PlaylistsService struct {
	db            *gorm.DB
	importService *TracksImportService
	logger        *zap.Logger
}

func NewPlaylistsService(db *gorm.DB, importService *TracksImportService, logger *zap.Logger) *PlaylistsService {
	return &PlaylistsService{db: db, importService: importService, logger: logger}
}

// CreatePlaylist creates a playlist owned by the given user.
func (s *PlaylistsService) CreatePlaylist(ctx context.Context, ownerUserID, name string, description, pictureURL *string, publiclyAvailable bool) (*models.Playlist, error) {
	playlist := models.Playlist{
		Name:              name,
		Description:       description,
		PictureURL:        pictureURL,
		PubliclyAvailable: publiclyAvailable,
		OwnerUserID:       ownerUserID,
	}

	if err := s.db.WithContext(ctx).Create(&playlist).Error; err != nil {
		return nil, err
	}

	s.logger.Info("created playlist",
		zap.String("playlist_id", playlist.ID.String()),
		zap.String("owner_user_id", ownerUserID))

	return &playlist, nil
}

// GetPlaylist fetches one playlist with its track references and sync link.
// Returns nil when it does not exist.
func (s *PlaylistsService) GetPlaylist(ctx context.Context, playlistID uuid.UUID) (*models.Playlist, error) {
	var playlist models.Playlist
	err := s.db.WithContext(ctx).
		Preload("TrackReferences").
		Preload("ExternalPlaylistToSyncWith").
		First(&playlist, "id = ?", playlistID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

// GetPlaylists fetches playlists matching the filters, with their track
// references preloaded.
func (s *PlaylistsService) GetPlaylists(ctx context.Context, filters PlaylistFilters) ([]models.Playlist, error) {
	query := s.db.WithContext(ctx).
		Preload("TrackReferences").
		Preload("ExternalPlaylistToSyncWith")

	if len(filters.IDs) > 0 {
		query = query.Where("id IN ?", filters.IDs)
	}
	if filters.OwnerUserID != "" {
		query = query.Where("owner_user_id = ?", filters.OwnerUserID)
	}
	if filters.PubliclyAvailable != nil {
		query = query.Where("publicly_available = ?", *filters.PubliclyAvailable)
	}

	var playlists []models.Playlist
	if err := query.Order("created_at DESC").Find(&playlists).Error; err != nil {
		return nil, err
	}
	return playlists, nil
}

// GetViewablePlaylists fetches the playlists a user may see: their own plus
// everyone's public ones. userID may be empty for anonymous callers.
func (s *PlaylistsService) GetViewablePlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	query := s.db.WithContext(ctx).
		Preload("TrackReferences").
		Preload("ExternalPlaylistToSyncWith")

	if userID == "" {
		query = query.Where("publicly_available = ?", true)
	} else {
		query = query.Where("publicly_available = ? OR owner_user_id = ?", true, userID)
	}

	var playlists []models.Playlist
	if err := query.Order("created_at DESC").Find(&playlists).Error; err != nil {
		return nil, err
	}
	return playlists, nil
}

// PlaylistUpdate carries the fields to change on a playlist. Nil fields are
// left untouched.
type PlaylistUpdate struct {
	Name              *string
	Description       *string
	PictureURL        *string
	PubliclyAvailable *bool
}

// UpdatePlaylist applies the non-nil fields to the playlist. The update is
// scoped to the owner; returns nil when the playlist does not exist or
// belongs to someone else.
func (s *PlaylistsService) UpdatePlaylist(ctx context.Context, playlistID uuid.UUID, ownerUserID string, update PlaylistUpdate) (*models.Playlist, error) {
	changes := map[string]any{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if update.PictureURL != nil {
		changes["picture_url"] = *update.PictureURL
	}
	if update.PubliclyAvailable != nil {
		changes["publicly_available"] = *update.PubliclyAvailable
	}

	if len(changes) > 0 {
		result := s.db.WithContext(ctx).Model(&models.Playlist{}).
			Where("id = ? AND owner_user_id = ?", playlistID, ownerUserID).
			Updates(changes)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}
	} else {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Playlist{}).
			Where("id = ? AND owner_user_id = ?", playlistID, ownerUserID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, nil
		}
	}

	return s.GetPlaylist(ctx, playlistID)
}

// DeletePlaylist removes a playlist with its membership rows and sync
// reference. The referenced tracks stay, other playlists may link them.
func (s *PlaylistsService) DeletePlaylist(ctx context.Context, playlistID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&models.PlaylistTrack{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_playlist_id = ?", playlistID).
			Delete(&models.ExternalPlaylistReference{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Playlist{}, "id = ?", playlistID).Error
	})
}

// CheckUserOwnsPlaylists loads the playlists and reports whether the user
// owns every one of them. An empty userID never owns anything. OwnsAll is
// false when any id did not resolve to a playlist.
func (s *PlaylistsService) CheckUserOwnsPlaylists(ctx context.Context, userID string, playlistIDs []uuid.UUID) (*PlaylistOwnershipCheck, error) {
	if len(playlistIDs) == 0 {
		return &PlaylistOwnershipCheck{}, nil
	}

	unique := make(map[uuid.UUID]bool, len(playlistIDs))
	for _, id := range playlistIDs {
		unique[id] = true
	}

	playlists, err := s.GetPlaylists(ctx, PlaylistFilters{IDs: playlistIDs})
	if err != nil {
		return nil, err
	}

	check := &PlaylistOwnershipCheck{Playlists: playlists}
	if userID == "" || len(playlists) != len(unique) {
		return check, nil
	}

	for _, playlist := range playlists {
		if playlist.OwnerUserID != userID {
			return check, nil
		}
	}

	check.OwnsAll = true
	return check, nil
}

// FilterViewable keeps the playlists the user may see: public ones and the
// user's own.
func (s *PlaylistsService) FilterViewable(playlists []models.Playlist, userID string) []models.Playlist {
	viewable := make([]models.Playlist, 0, len(playlists))
	for _, playlist := range playlists {
		if playlist.PubliclyAvailable || (userID != "" && playlist.OwnerUserID == userID) {
			viewable = append(viewable, playlist)
		}
	}
	return viewable
}

// AddTracksToPlaylists links the references to every given playlist.
func (s *PlaylistsService) AddTracksToPlaylists(ctx context.Context, playlistIDs []uuid.UUID, references []models.TrackReference) error {
	for _, playlistID := range playlistIDs {
		if err := s.importService.AddTracksToPlaylist(ctx, playlistID, references, false); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTrackFromPlaylists unlinks one track from the given playlists and
// returns the ids of the playlists that actually contained it.
func (s *PlaylistsService) DeleteTrackFromPlaylists(ctx context.Context, playlistIDs []uuid.UUID, trackReferenceID string) ([]uuid.UUID, error) {
	var updated []uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var linked []models.PlaylistTrack
		if err := tx.Where("playlist_id IN ? AND track_reference_id = ?", playlistIDs, trackReferenceID).
			Find(&linked).Error; err != nil {
			return err
		}
		if len(linked) == 0 {
			return nil
		}

		for _, link := range linked {
			updated = append(updated, link.PlaylistID)
		}

		return tx.Where("playlist_id IN ? AND track_reference_id = ?", playlistIDs, trackReferenceID).
			Delete(&models.PlaylistTrack{}).Error
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
