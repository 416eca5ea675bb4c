package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestLinkExternalPlaylistForSync(t *testing.T) {
	external := models.ExternalPlaylistToLink{
		Platform: models.PlatformSoundcloud,
		URL:      "https://soundcloud.com/user/sets/mix",
	}

	t.Run("stores the resolved reference with its secret token", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")

		token := "s-secret"
		info := externalPlaylist("1", "2")
		info.SoundcloudSecretToken = &token
		source := &stubPlaylistSource{playlist: info}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		reference, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID, external)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if reference.PlatformID != "ext-1" || reference.Platform != models.PlatformSoundcloud {
			t.Errorf("unexpected reference %+v", reference)
		}
		if reference.SoundcloudSecretToken == nil || *reference.SoundcloudSecretToken != token {
			t.Errorf("expected secret token stored")
		}
	})

	t.Run("relinking leaves exactly one reference row", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{playlist: externalPlaylist("1")}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		if _, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID, external); err != nil {
			t.Fatalf("first link failed: %v", err)
		}

		source.playlist = &models.ExternalPlaylistInfo{ExternalPlatformID: "ext-2", Name: "other"}
		if _, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID, external); err != nil {
			t.Fatalf("second link failed: %v", err)
		}

		var references []models.ExternalPlaylistReference
		if err := db.Where("parent_playlist_id = ?", playlist.ID).Find(&references).Error; err != nil {
			t.Fatalf("failed to read references: %v", err)
		}
		if len(references) != 1 {
			t.Fatalf("expected exactly one reference row, got %d", len(references))
		}
		if references[0].PlatformID != "ext-2" {
			t.Errorf("expected the second link's data to win, got %+v", references[0])
		}
	})

	t.Run("fails when the external playlist does not resolve", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		_, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID, external)
		if !errors.Is(err, ErrExternalPlaylistNotFound) {
			t.Fatalf("expected ErrExternalPlaylistNotFound, got %v", err)
		}
	})
}

func TestDisableExternalPlaylistSync(t *testing.T) {
	db := newTestDB(t)
	playlist := createTestPlaylist(t, db, "user-1")
	source := &stubPlaylistSource{playlist: externalPlaylist("1")}

	importService := NewTracksImportService(db, source, zap.NewNop())
	syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

	if _, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID,
		models.ExternalPlaylistToLink{Platform: models.PlatformSoundcloud, URL: "u"}); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	if err := syncService.DisableExternalPlaylistSync(context.Background(), playlist.ID); err != nil {
		t.Fatalf("disable failed: %v", err)
	}

	var count int64
	db.Model(&models.ExternalPlaylistReference{}).Where("parent_playlist_id = ?", playlist.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected reference deleted, found %d", count)
	}

	// disabling again is a no-op
	if err := syncService.DisableExternalPlaylistSync(context.Background(), playlist.ID); err != nil {
		t.Errorf("expected no-op, got %v", err)
	}
}

func TestSyncPlaylistTracks(t *testing.T) {
	external := models.ExternalPlaylistToLink{
		Platform: models.PlatformSoundcloud,
		URL:      "https://soundcloud.com/user/sets/mix",
	}

	t.Run("replaces the track set and stamps last_sync_at", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{playlist: externalPlaylist("1", "2")}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		if _, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID, external); err != nil {
			t.Fatalf("link failed: %v", err)
		}
		if _, err := importService.ImportPlaylistTracks(context.Background(), external, playlist.ID, false); err != nil {
			t.Fatalf("initial import failed: %v", err)
		}

		var before models.ExternalPlaylistReference
		if err := db.Where("parent_playlist_id = ?", playlist.ID).First(&before).Error; err != nil {
			t.Fatalf("failed to read reference: %v", err)
		}

		// the external playlist changed since the link
		source.playlist = externalPlaylist("2", "3")
		time.Sleep(10 * time.Millisecond)

		if err := syncService.SyncPlaylistTracks(context.Background(), playlist.ID); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		got := linkedTrackIDs(t, db, playlist)
		if len(got) != 2 {
			t.Fatalf("expected the new track set, got %v", got)
		}
		seen := map[string]bool{}
		for _, id := range got {
			seen[id] = true
		}
		if !seen["SOUNDCLOUD/2"] || !seen["SOUNDCLOUD/3"] {
			t.Errorf("expected SOUNDCLOUD/2 and SOUNDCLOUD/3, got %v", got)
		}

		var after models.ExternalPlaylistReference
		if err := db.Where("parent_playlist_id = ?", playlist.ID).First(&after).Error; err != nil {
			t.Fatalf("failed to read reference: %v", err)
		}
		if !after.LastSyncAt.After(before.LastSyncAt) {
			t.Errorf("expected last_sync_at updated, before=%v after=%v", before.LastSyncAt, after.LastSyncAt)
		}
	})

	t.Run("a failed last_sync_at stamp rolls the replace back", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{playlist: externalPlaylist("1", "2")}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		if _, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID, external); err != nil {
			t.Fatalf("link failed: %v", err)
		}
		if _, err := importService.ImportPlaylistTracks(context.Background(), external, playlist.ID, false); err != nil {
			t.Fatalf("initial import failed: %v", err)
		}

		stampErr := errors.New("reference update rejected")
		err := db.Callback().Update().Before("gorm:update").Register("reject_reference_updates", func(tx *gorm.DB) {
			if _, ok := tx.Statement.Model.(*models.ExternalPlaylistReference); ok {
				tx.AddError(stampErr)
			}
		})
		if err != nil {
			t.Fatalf("failed to register callback: %v", err)
		}

		source.playlist = externalPlaylist("3", "4")
		if err := syncService.SyncPlaylistTracks(context.Background(), playlist.ID); !errors.Is(err, stampErr) {
			t.Fatalf("expected the stamp failure surfaced, got %v", err)
		}

		got := linkedTrackIDs(t, db, playlist)
		seen := map[string]bool{}
		for _, id := range got {
			seen[id] = true
		}
		if len(got) != 2 || !seen["SOUNDCLOUD/1"] || !seen["SOUNDCLOUD/2"] {
			t.Errorf("expected the previous track set kept, got %v", got)
		}
	})

	t.Run("fails when no external playlist is linked", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{playlist: externalPlaylist("1")}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		err := syncService.SyncPlaylistTracks(context.Background(), playlist.ID)
		if !errors.Is(err, ErrExternalPlaylistNotLinked) {
			t.Fatalf("expected ErrExternalPlaylistNotLinked, got %v", err)
		}
	})

	t.Run("fails when the linked playlist is gone from its platform", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{playlist: externalPlaylist("1")}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		if _, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID, external); err != nil {
			t.Fatalf("link failed: %v", err)
		}

		source.playlist = nil
		err := syncService.SyncPlaylistTracks(context.Background(), playlist.ID)
		if !errors.Is(err, ErrExternalPlaylistNotFound) {
			t.Fatalf("expected ErrExternalPlaylistNotFound, got %v", err)
		}
	})
}

func TestGetExternalPlaylistLinked(t *testing.T) {
	t.Run("returns nil when nothing is linked", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		linked, err := syncService.GetExternalPlaylistLinked(context.Background(), playlist.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if linked != nil {
			t.Errorf("expected nil, got %+v", linked)
		}
	})

	t.Run("re-resolves the linked playlist live", func(t *testing.T) {
		db := newTestDB(t)
		playlist := createTestPlaylist(t, db, "user-1")
		source := &stubPlaylistSource{playlist: externalPlaylist("1")}

		importService := NewTracksImportService(db, source, zap.NewNop())
		syncService := NewTracksSyncService(db, source, importService, zap.NewNop())

		if _, err := syncService.LinkExternalPlaylistForSync(context.Background(), playlist.ID,
			models.ExternalPlaylistToLink{Platform: models.PlatformSoundcloud, URL: "u"}); err != nil {
			t.Fatalf("link failed: %v", err)
		}

		source.playlist = externalPlaylist("1", "2", "3")
		linked, err := syncService.GetExternalPlaylistLinked(context.Background(), playlist.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if linked == nil || len(linked.TrackReferences) != 3 {
			t.Errorf("expected the live state of the external playlist, got %+v", linked)
		}
	})
}
