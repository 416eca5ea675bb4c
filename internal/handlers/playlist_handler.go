package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/windchimes/backend/internal/middleware"
	"github.com/windchimes/backend/internal/models"
	"github.com/windchimes/backend/internal/services"
)

type PlaylistHandler struct {
	playlistsService *services.PlaylistsService
	tracksService    *services.TracksService
	importService    *services.TracksImportService
	syncService      *services.TracksSyncService
}

func NewPlaylistHandler(
	playlistsService *services.PlaylistsService,
	tracksService *services.TracksService,
	importService *services.TracksImportService,
	syncService *services.TracksSyncService,
) *PlaylistHandler {
	return &PlaylistHandler{
		playlistsService: playlistsService,
		tracksService:    tracksService,
		importService:    importService,
		syncService:      syncService,
	}
}

// GetPlaylists handles GET /playlists
func (h *PlaylistHandler) GetPlaylists(c *gin.Context) {
	playlists, err := h.playlistsService.GetViewablePlaylists(c.Request.Context(), middleware.CurrentUserSub(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch playlists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"playlists": playlists})
}

// CreatePlaylist handles POST /playlists
func (h *PlaylistHandler) CreatePlaylist(c *gin.Context) {
	var req struct {
		Name              string  `json:"name" binding:"required,max=255"`
		Description       *string `json:"description"`
		PictureURL        *string `json:"picture_url"`
		PubliclyAvailable bool    `json:"publicly_available"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist, err := h.playlistsService.CreatePlaylist(
		c.Request.Context(),
		middleware.CurrentUserSub(c),
		req.Name,
		req.Description,
		req.PictureURL,
		req.PubliclyAvailable,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create playlist"})
		return
	}

	c.JSON(http.StatusCreated, playlist)
}

// GetPlaylist handles GET /playlists/:id
func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	playlist, ok := h.viewablePlaylist(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, playlist)
}

// GetPlaylistLoadedTracks handles POST /playlists/:id/tracks/loaded
func (h *PlaylistHandler) GetPlaylistLoadedTracks(c *gin.Context) {
	playlist, ok := h.viewablePlaylist(c)
	if !ok {
		return
	}

	var req struct {
		IDsToLoad       []string `json:"ids_to_load"`
		LoadFirstTracks bool     `json:"load_first_tracks"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	references, err := h.tracksService.GetTrackReferencesToLoad(playlist, req.IDsToLoad, req.LoadFirstTracks)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tracks, err := h.tracksService.LoadTracks(c.Request.Context(), references)
	if err != nil {
		respondPlatformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// UpdatePlaylist handles PUT /playlists/:id
func (h *PlaylistHandler) UpdatePlaylist(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	var req struct {
		Name              *string `json:"name" binding:"omitempty,max=255"`
		Description       *string `json:"description"`
		PictureURL        *string `json:"picture_url"`
		PubliclyAvailable *bool   `json:"publicly_available"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.playlistsService.UpdatePlaylist(
		c.Request.Context(),
		playlist.ID,
		middleware.CurrentUserSub(c),
		services.PlaylistUpdate{
			Name:              req.Name,
			Description:       req.Description,
			PictureURL:        req.PictureURL,
			PubliclyAvailable: req.PubliclyAvailable,
		},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update playlist"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeletePlaylist handles DELETE /playlists/:id
func (h *PlaylistHandler) DeletePlaylist(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	if err := h.playlistsService.DeletePlaylist(c.Request.Context(), playlist.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete playlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist deleted"})
}

// AddTracks handles POST /playlists/:id/tracks
func (h *PlaylistHandler) AddTracks(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	var req struct {
		References []struct {
			Platform   models.Platform `json:"platform" binding:"required"`
			PlatformID string          `json:"platform_id" binding:"required"`
		} `json:"references" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	references := make([]models.TrackReference, 0, len(req.References))
	for _, reference := range req.References {
		if !reference.Platform.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform"})
			return
		}
		references = append(references, models.NewTrackReference(reference.Platform, reference.PlatformID))
	}

	if err := h.playlistsService.AddTracksToPlaylists(c.Request.Context(), []uuid.UUID{playlist.ID}, references); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add tracks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tracks added"})
}

// DeleteTrack handles DELETE /playlists/:id/tracks/:trackId
func (h *PlaylistHandler) DeleteTrack(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	updated, err := h.playlistsService.DeleteTrackFromPlaylists(c.Request.Context(), []uuid.UUID{playlist.ID}, c.Param("trackId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete track"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated_playlist_ids": updated})
}

// ImportTracks handles POST /playlists/:id/import
func (h *PlaylistHandler) ImportTracks(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	var req struct {
		Platform        models.Platform `json:"platform" binding:"required"`
		URL             string          `json:"url" binding:"required"`
		ReplaceExisting bool            `json:"replace_existing"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform"})
		return
	}

	imported, err := h.importService.ImportPlaylistTracks(
		c.Request.Context(),
		models.ExternalPlaylistToLink{Platform: req.Platform, URL: req.URL},
		playlist.ID,
		req.ReplaceExisting,
	)
	if err != nil {
		respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported_track_references": imported})
}

// SyncTracks handles POST /playlists/:id/sync
func (h *PlaylistHandler) SyncTracks(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	if err := h.syncService.SyncPlaylistTracks(c.Request.Context(), playlist.ID); err != nil {
		respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist synced"})
}

// LinkSync handles PUT /playlists/:id/sync-link
func (h *PlaylistHandler) LinkSync(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	var req struct {
		Platform models.Platform `json:"platform" binding:"required"`
		URL      string          `json:"url" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform"})
		return
	}

	reference, err := h.syncService.LinkExternalPlaylistForSync(
		c.Request.Context(),
		playlist.ID,
		models.ExternalPlaylistToLink{Platform: req.Platform, URL: req.URL},
	)
	if err != nil {
		respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, reference)
}

// UnlinkSync handles DELETE /playlists/:id/sync-link
func (h *PlaylistHandler) UnlinkSync(c *gin.Context) {
	playlist, ok := h.ownedPlaylist(c)
	if !ok {
		return
	}

	if err := h.syncService.DisableExternalPlaylistSync(c.Request.Context(), playlist.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable sync"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sync disabled"})
}

// GetSyncLink handles GET /playlists/:id/sync-link
func (h *PlaylistHandler) GetSyncLink(c *gin.Context) {
	playlist, ok := h.viewablePlaylist(c)
	if !ok {
		return
	}

	linked, err := h.syncService.GetExternalPlaylistLinked(c.Request.Context(), playlist.ID)
	if err != nil {
		respondSyncError(c, err)
		return
	}
	if linked == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist has no external playlist linked"})
		return
	}

	c.JSON(http.StatusOK, linked)
}

// viewablePlaylist loads the playlist from the :id param and enforces that
// the current user may see it.
func (h *PlaylistHandler) viewablePlaylist(c *gin.Context) (*models.Playlist, bool) {
	playlist, ok := h.loadPlaylist(c)
	if !ok {
		return nil, false
	}

	userID := middleware.CurrentUserSub(c)
	if !playlist.PubliclyAvailable && playlist.OwnerUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this playlist"})
		return nil, false
	}

	return playlist, true
}

// ownedPlaylist loads the playlist from the :id param and enforces that the
// current user owns it.
func (h *PlaylistHandler) ownedPlaylist(c *gin.Context) (*models.Playlist, bool) {
	playlist, ok := h.loadPlaylist(c)
	if !ok {
		return nil, false
	}

	check, err := h.playlistsService.CheckUserOwnsPlaylists(
		c.Request.Context(), middleware.CurrentUserSub(c), []uuid.UUID{playlist.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check playlist ownership"})
		return nil, false
	}
	if !check.OwnsAll {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't own this playlist"})
		return nil, false
	}

	return playlist, true
}

func (h *PlaylistHandler) loadPlaylist(c *gin.Context) (*models.Playlist, bool) {
	playlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid playlist ID"})
		return nil, false
	}

	playlist, err := h.playlistsService.GetPlaylist(c.Request.Context(), playlistID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch playlist"})
		return nil, false
	}
	if playlist == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return nil, false
	}

	return playlist, true
}

// respondSyncError maps reconciliation failures onto HTTP statuses.
func respondSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrExternalPlaylistNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "External playlist not found"})
	case errors.Is(err, services.ErrExternalPlaylistNotLinked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Playlist has no external playlist linked"})
	default:
		respondPlatformError(c, err)
	}
}
