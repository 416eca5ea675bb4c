package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/windchimes/backend/internal/clients"
	"github.com/windchimes/backend/internal/models"
	"github.com/windchimes/backend/internal/services"
)

type TrackHandler struct {
	tracksService *services.TracksService
	aggregator    *services.PlatformAggregator
}

func NewTrackHandler(tracksService *services.TracksService, aggregator *services.PlatformAggregator) *TrackHandler {
	return &TrackHandler{
		tracksService: tracksService,
		aggregator:    aggregator,
	}
}

// GetLoadedTracks handles POST /tracks/loaded
func (h *TrackHandler) GetLoadedTracks(c *gin.Context) {
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

	if len(references) > services.MaxTracksToLoadPerRequest {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many tracks requested"})
		return
	}

	tracks, err := h.aggregator.LoadTracks(c.Request.Context(), references)
	if err != nil {
		respondPlatformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// GetTrackAudioFileURL handles GET /tracks/audio-url
func (h *TrackHandler) GetTrackAudioFileURL(c *gin.Context) {
	platform := models.Platform(c.Query("platform"))
	platformID := c.Query("platform_id")
	if !platform.Valid() || platformID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform and platform_id query parameters are required"})
		return
	}

	var audioFileEndpointURL *string
	if endpoint := c.Query("audio_file_endpoint_url"); endpoint != "" {
		audioFileEndpointURL = &endpoint
	}

	audioURL, err := h.tracksService.GetTrackAudioFileURL(c.Request.Context(), platform, platformID, audioFileEndpointURL)
	if err != nil {
		if errors.Is(err, services.ErrNoSuitableFormat) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No suitable audio format found for this track"})
			return
		}
		respondPlatformError(c, err)
		return
	}
	if audioURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"audio_file_url": audioURL})
}

// SearchTracks handles GET /search/tracks
func (h *TrackHandler) SearchTracks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	tracks, err := h.tracksService.SearchTracks(c.Request.Context(), query)
	if err != nil {
		respondPlatformError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// GetExternalPlaylist handles GET /external-playlists
func (h *TrackHandler) GetExternalPlaylist(c *gin.Context) {
	platform := models.Platform(c.Query("platform"))
	playlistURL := c.Query("url")
	if !platform.Valid() || playlistURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform and url query parameters are required"})
		return
	}

	playlist, err := h.aggregator.GetPlaylistByURL(c.Request.Context(), platform, playlistURL)
	if err != nil {
		respondPlatformError(c, err)
		return
	}
	if playlist == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "External playlist not found"})
		return
	}

	c.JSON(http.StatusOK, playlist)
}

// respondPlatformError maps upstream platform failures to 502 and anything
// else to 500.
func respondPlatformError(c *gin.Context, err error) {
	var platformErr *clients.PlatformAPIError
	if errors.As(err, &platformErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": platformErr.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
