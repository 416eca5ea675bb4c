package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestYoutubeGetVideosByIDs(t *testing.T) {
	t.Run("restores request order and pads missing ids with nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/videos" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(youtubeVideoListResponse{Items: []YoutubeVideo{
				{ID: "c", Snippet: YoutubeVideoSnippet{Title: "gamma"}},
				{ID: "a", Snippet: YoutubeVideoSnippet{Title: "alpha"}},
			}})
		}))
		defer server.Close()

		client := NewYoutubeDataClient(server.URL, "key", http.DefaultClient, zap.NewNop())
		videos, err := client.GetVideosByIDs(context.Background(), []string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(videos) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(videos))
		}
		if videos[0] == nil || videos[0].Snippet.Title != "alpha" {
			t.Errorf("expected alpha at position 0, got %+v", videos[0])
		}
		if videos[1] != nil {
			t.Errorf("expected nil at position 1, got %+v", videos[1])
		}
		if videos[2] == nil || videos[2].Snippet.Title != "gamma" {
			t.Errorf("expected gamma at position 2, got %+v", videos[2])
		}
	})
}

func TestYoutubeGetPlaylistItemsPage(t *testing.T) {
	t.Run("passes the page token through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("pageToken"); got != "token-2" {
				t.Errorf("expected pageToken=token-2, got %q", got)
			}
			if got := r.URL.Query().Get("maxResults"); got != "50" {
				t.Errorf("expected maxResults=50, got %q", got)
			}
			json.NewEncoder(w).Encode(YoutubePlaylistItemsPage{
				Items:         []YoutubePlaylistItem{{ContentDetails: YoutubePlaylistItemContentDetails{VideoID: "x"}}},
				NextPageToken: "token-3",
				PageInfo:      YoutubePageInfo{TotalResults: 120},
			})
		}))
		defer server.Close()

		client := NewYoutubeDataClient(server.URL, "key", http.DefaultClient, zap.NewNop())
		page, err := client.GetPlaylistItemsPage(context.Background(), "PL123", "token-2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.NextPageToken != "token-3" || page.PageInfo.TotalResults != 120 {
			t.Errorf("unexpected page %+v", page)
		}
	})
}

func TestYoutubeGetPlaylistByID(t *testing.T) {
	t.Run("returns nil when the playlist does not exist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(youtubePlaylistListResponse{})
		}))
		defer server.Close()

		client := NewYoutubeDataClient(server.URL, "key", http.DefaultClient, zap.NewNop())
		playlist, err := client.GetPlaylistByID(context.Background(), "PLnope")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist != nil {
			t.Errorf("expected nil, got %+v", playlist)
		}
	})
}

func TestYoutubeInternalSearchVideoIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req youtubeSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Query != "lo-fi" {
			t.Errorf("expected query lo-fi, got %s", req.Query)
		}
		if req.Context.Client.ClientName != "WEB" {
			t.Errorf("expected browser client context, got %+v", req.Context.Client)
		}

		// One video, one non-video entry (shelf/ad) that has to be skipped
		w.Write([]byte(`{"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[{"videoRenderer":{"videoId":"abc123"}},{"shelfRenderer":{}}]}}]}}}}}`))
	}))
	defer server.Close()

	client := NewYoutubeInternalClient(server.URL, http.DefaultClient, zap.NewNop())
	videoIDs, err := client.SearchVideoIDs(context.Background(), "lo-fi")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(videoIDs) != 1 || videoIDs[0] != "abc123" {
		t.Errorf("expected [abc123], got %v", videoIDs)
	}
}
