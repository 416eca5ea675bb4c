package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

const defaultYoutubeDataAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// MaxYoutubeTracksPerRequest is the YouTube Data API page size limit for
// /playlistItems.
const MaxYoutubeTracksPerRequest = 50

// YoutubeDataClient talks to the YouTube Data API v3 with an API key.
type YoutubeDataClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewYoutubeDataClient creates a YouTube Data API client. baseURL may be
// empty to use the real API.
func NewYoutubeDataClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *YoutubeDataClient {
	if baseURL == "" {
		baseURL = defaultYoutubeDataAPIBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &YoutubeDataClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetVideosByIDs fetches YouTube videos by their ids. The result has exactly
// one entry per requested id, in request order, nil where the video is
// missing or deleted (the API omits unknown ids).
func (c *YoutubeDataClient) GetVideosByIDs(ctx context.Context, ids []string) ([]*YoutubeVideo, error) {
	if len(ids) == 0 {
		return []*YoutubeVideo{}, nil
	}

	endpoint := fmt.Sprintf("%s/videos?id=%s&key=%s&part=snippet,contentDetails",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")), url.QueryEscape(c.apiKey))

	var result youtubeVideoListResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	byID := make(map[string]*YoutubeVideo, len(result.Items))
	for i := range result.Items {
		byID[result.Items[i].ID] = &result.Items[i]
	}

	ordered := make([]*YoutubeVideo, len(ids))
	for i, id := range ids {
		ordered[i] = byID[id]
	}

	return ordered, nil
}

// GetPlaylistByID fetches playlist metadata. Returns nil when the playlist
// does not exist.
func (c *YoutubeDataClient) GetPlaylistByID(ctx context.Context, playlistID string) (*YoutubePlaylist, error) {
	endpoint := fmt.Sprintf("%s/playlists?id=%s&key=%s&part=snippet,contentDetails,id",
		c.baseURL, url.QueryEscape(playlistID), url.QueryEscape(c.apiKey))

	var result youtubePlaylistListResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	return &result.Items[0], nil
}

// GetPlaylistItemsPage fetches one page of up to 50 playlist videos.
// pageToken selects a follow-up page and may be empty for the first one; the
// returned page carries the token for the next.
func (c *YoutubeDataClient) GetPlaylistItemsPage(ctx context.Context, playlistID, pageToken string) (*YoutubePlaylistItemsPage, error) {
	endpoint := fmt.Sprintf("%s/playlistItems?playlistId=%s&key=%s&part=snippet,contentDetails&maxResults=%d",
		c.baseURL, url.QueryEscape(playlistID), url.QueryEscape(c.apiKey), MaxYoutubeTracksPerRequest)
	if pageToken != "" {
		endpoint += "&pageToken=" + url.QueryEscape(pageToken)
	}

	var page YoutubePlaylistItemsPage
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

func (c *YoutubeDataClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("youtube api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &PlatformAPIError{
			Platform:   models.PlatformYoutube,
			StatusCode: resp.StatusCode,
			Message:    "request failed",
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &PlatformAPIError{Platform: models.PlatformYoutube, Message: err.Error()}
	}

	return nil
}
