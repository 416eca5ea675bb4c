package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/windchimes/backend/internal/clients"
	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

func TestParseYoutubeDuration(t *testing.T) {
	cases := []struct {
		duration string
		want     int
	}{
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT10M", 600},
		{"PT15H10M", 54600},
		{"PT0S", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := parseYoutubeDuration(tc.duration); got != tc.want {
			t.Errorf("parseYoutubeDuration(%q) = %d, want %d", tc.duration, got, tc.want)
		}
	}
}

func newTestYoutubeService(t *testing.T, handler http.Handler) (*YoutubeService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dataClient := clients.NewYoutubeDataClient(server.URL, "key", http.DefaultClient, zap.NewNop())
	internalClient := clients.NewYoutubeInternalClient(server.URL, http.DefaultClient, zap.NewNop())
	return NewYoutubeService(dataClient, internalClient, nil, zap.NewNop()), server
}

func TestYoutubeGetPlaylistByURL(t *testing.T) {
	t.Run("returns nil when the url has no list parameter", func(t *testing.T) {
		service, _ := newTestYoutubeService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		}))

		playlist, err := service.GetPlaylistByURL(context.Background(), "https://www.youtube.com/watch?v=abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist != nil {
			t.Errorf("expected nil, got %+v", playlist)
		}
	})

	t.Run("resolves the playlist behind the list parameter", func(t *testing.T) {
		service, _ := newTestYoutubeService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/playlists":
				fmt.Fprint(w, `{"items":[{"id":"PL42","snippet":{"title":"mix"}}]}`)
			case "/playlistItems":
				json.NewEncoder(w).Encode(clients.YoutubePlaylistItemsPage{
					Items: []clients.YoutubePlaylistItem{
						{ContentDetails: clients.YoutubePlaylistItemContentDetails{VideoID: "v1"}},
						{ContentDetails: clients.YoutubePlaylistItemContentDetails{VideoID: "v2"}},
					},
					PageInfo: clients.YoutubePageInfo{TotalResults: 2},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		playlist, err := service.GetPlaylistByURL(context.Background(), "https://www.youtube.com/playlist?list=PL42")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist == nil {
			t.Fatal("expected playlist")
		}
		if playlist.ExternalPlatformID != "PL42" || playlist.Name != "mix" {
			t.Errorf("unexpected playlist %+v", playlist)
		}
		if len(playlist.TrackReferences) != 2 {
			t.Fatalf("expected 2 references, got %d", len(playlist.TrackReferences))
		}
		if playlist.TrackReferences[0].ID != "YOUTUBE/v1" {
			t.Errorf("unexpected reference id %s", playlist.TrackReferences[0].ID)
		}
	})
}

func TestYoutubePlaylistPagination(t *testing.T) {
	t.Run("stops when the reported total is reached", func(t *testing.T) {
		pagesServed := 0
		service, _ := newTestYoutubeService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlistItems" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			pagesServed++
			items := make([]clients.YoutubePlaylistItem, 50)
			for i := range items {
				items[i].ContentDetails.VideoID = fmt.Sprintf("v%d-%d", pagesServed, i)
			}
			json.NewEncoder(w).Encode(clients.YoutubePlaylistItemsPage{
				Items:         items,
				NextPageToken: "more",
				PageInfo:      clients.YoutubePageInfo{TotalResults: 80},
			})
		}))

		references, err := service.loadPlaylistTrackReferences(context.Background(), "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pagesServed != 2 {
			t.Errorf("expected 2 pages fetched, got %d", pagesServed)
		}
		if len(references) != 100 {
			t.Errorf("expected 100 references, got %d", len(references))
		}
	})

	t.Run("never fetches more than four pages", func(t *testing.T) {
		pagesServed := 0
		service, _ := newTestYoutubeService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pagesServed++
			items := make([]clients.YoutubePlaylistItem, 50)
			for i := range items {
				items[i].ContentDetails.VideoID = fmt.Sprintf("v%d-%d", pagesServed, i)
			}
			json.NewEncoder(w).Encode(clients.YoutubePlaylistItemsPage{
				Items:         items,
				NextPageToken: "more",
				PageInfo:      clients.YoutubePageInfo{TotalResults: 100000},
			})
		}))

		references, err := service.loadPlaylistTrackReferences(context.Background(), "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pagesServed != 4 {
			t.Errorf("expected 4 pages fetched, got %d", pagesServed)
		}
		if len(references) != 200 {
			t.Errorf("expected 200 references, got %d", len(references))
		}
	})

	t.Run("stops when no next page token is returned", func(t *testing.T) {
		service, _ := newTestYoutubeService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(clients.YoutubePlaylistItemsPage{
				Items: []clients.YoutubePlaylistItem{
					{ContentDetails: clients.YoutubePlaylistItemContentDetails{VideoID: "only"}},
				},
				PageInfo: clients.YoutubePageInfo{TotalResults: 500},
			})
		}))

		references, err := service.loadPlaylistTrackReferences(context.Background(), "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(references) != 1 {
			t.Errorf("expected 1 reference, got %d", len(references))
		}
	})
}

type stubMediaResolver struct {
	url string
	err error
}

func (r *stubMediaResolver) ResolveAudioURL(ctx context.Context, videoURL string) (string, error) {
	return r.url, r.err
}

func TestYoutubeGetTrackAudioFileURL(t *testing.T) {
	t.Run("returns the resolved media url", func(t *testing.T) {
		service := NewYoutubeService(nil, nil, &stubMediaResolver{url: "https://cdn/audio"}, zap.NewNop())

		audioURL, err := service.GetTrackAudioFileURL(context.Background(), "abc", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if audioURL != "https://cdn/audio" {
			t.Errorf("unexpected url %s", audioURL)
		}
	})

	t.Run("maps an empty resolution to ErrNoSuitableFormat", func(t *testing.T) {
		service := NewYoutubeService(nil, nil, &stubMediaResolver{}, zap.NewNop())

		if _, err := service.GetTrackAudioFileURL(context.Background(), "abc", nil); err != ErrNoSuitableFormat {
			t.Fatalf("expected ErrNoSuitableFormat, got %v", err)
		}
	})
}

func TestYoutubeLoadTracks(t *testing.T) {
	service, _ := newTestYoutubeService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"v1","snippet":{"title":"song","channelTitle":"chan","thumbnails":{"high":{"url":"https://img/high.jpg"}}},"contentDetails":{"duration":"PT3M20S"}}]}`)
	}))

	tracks, err := service.LoadTracks(context.Background(), []string{"v1", "gone"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tracks))
	}
	track := tracks[0]
	if track == nil {
		t.Fatal("expected track at position 0")
	}
	if track.ID != "YOUTUBE/v1" || track.Platform != models.PlatformYoutube {
		t.Errorf("unexpected identity %+v", track)
	}
	if track.SecondsDuration != 200 {
		t.Errorf("expected 200 seconds, got %d", track.SecondsDuration)
	}
	if track.PictureURL == nil || *track.PictureURL != "https://img/high.jpg" {
		t.Errorf("unexpected picture url %v", track.PictureURL)
	}
	if track.OriginalPageURL != "https://www.youtube.com/watch?v=v1" {
		t.Errorf("unexpected page url %s", track.OriginalPageURL)
	}
	if tracks[1] != nil {
		t.Errorf("expected nil for the missing video, got %+v", tracks[1])
	}
}
