package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/windchimes/backend/internal/clients"
	"github.com/windchimes/backend/internal/config"
	"github.com/windchimes/backend/internal/handlers"
	"github.com/windchimes/backend/internal/middleware"
	"github.com/windchimes/backend/internal/models"
	"github.com/windchimes/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// HTTP client for platform APIs, routed through the egress proxy when
	// one is configured
	platformHTTPClient, err := clients.NewHTTPClient(cfg.EgressProxyURL)
	if err != nil {
		logger.Fatal("failed to initialize platform http client", zap.Error(err))
	}

	// SoundCloud client id: start from the static fallback, keep it fresh in
	// the background
	clientIDStore := clients.NewSoundcloudClientIDStore(cfg.SoundcloudFallbackClientID)
	clientIDRefresher := clients.NewSoundcloudClientIDRefresher(clientIDStore, "", platformHTTPClient, logger)

	refreshCtx, stopRefresher := context.WithCancel(context.Background())
	defer stopRefresher()
	go clientIDRefresher.Run(refreshCtx, cfg.SoundcloudClientIDRefreshInterval)

	// Initialize platform clients
	soundcloudClient := clients.NewSoundcloudClient("", platformHTTPClient, clientIDStore, logger)
	youtubeDataClient := clients.NewYoutubeDataClient("", cfg.YoutubeAPIKey, platformHTTPClient, logger)
	youtubeInternalClient := clients.NewYoutubeInternalClient("", platformHTTPClient, logger)
	mediaResolver := clients.NewYtDlpResolver(cfg.YtDlpPath, cfg.EgressProxyURL, logger)

	// Initialize services
	soundcloudService := services.NewSoundcloudService(soundcloudClient, logger)
	youtubeService := services.NewYoutubeService(youtubeDataClient, youtubeInternalClient, mediaResolver, logger)
	aggregator := services.NewPlatformAggregator(map[models.Platform]services.PlatformService{
		models.PlatformSoundcloud: soundcloudService,
		models.PlatformYoutube:    youtubeService,
	}, logger)
	tracksService := services.NewTracksService(aggregator, logger)
	importService := services.NewTracksImportService(db, aggregator, logger)
	syncService := services.NewTracksSyncService(db, aggregator, importService, logger)
	playlistsService := services.NewPlaylistsService(db, importService, logger)

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))

	// Initialize handlers
	audioProxyHandler := handlers.NewAudioProxyHandler(cfg, platformHTTPClient, logger)
	trackHandler := handlers.NewTrackHandler(tracksService, aggregator)
	playlistHandler := handlers.NewPlaylistHandler(playlistsService, tracksService, importService, syncService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Audio proxy serves media players directly, no auth
	router.GET("/audio", audioProxyHandler.ProxyAudio)

	// Setup routes
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimiter(redisClient, cfg, logger))
	api.Use(middleware.ResolveCurrentUser(cfg))
	{
		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		api.POST("/tracks/loaded", trackHandler.GetLoadedTracks)
		api.GET("/tracks/audio-url", trackHandler.GetTrackAudioFileURL)
		api.GET("/search/tracks", trackHandler.SearchTracks)
		api.GET("/external-playlists", trackHandler.GetExternalPlaylist)

		playlists := api.Group("/playlists")
		{
			playlists.GET("", playlistHandler.GetPlaylists)
			playlists.GET("/:id", playlistHandler.GetPlaylist)
			playlists.POST("/:id/tracks/loaded", playlistHandler.GetPlaylistLoadedTracks)
			playlists.GET("/:id/sync-link", playlistHandler.GetSyncLink)

			// Mutations require an authenticated user
			authed := playlists.Group("")
			authed.Use(middleware.RequireAuth())
			{
				authed.POST("", playlistHandler.CreatePlaylist)
				authed.PUT("/:id", playlistHandler.UpdatePlaylist)
				authed.DELETE("/:id", playlistHandler.DeletePlaylist)
				authed.POST("/:id/tracks", playlistHandler.AddTracks)
				authed.DELETE("/:id/tracks/:trackId", playlistHandler.DeleteTrack)
				authed.POST("/:id/import", playlistHandler.ImportTracks)
				authed.POST("/:id/sync", playlistHandler.SyncTracks)
				authed.PUT("/:id/sync-link", playlistHandler.LinkSync)
				authed.DELETE("/:id/sync-link", playlistHandler.UnlinkSync)
			}
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // streaming proxied media segments can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopRefresher()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
