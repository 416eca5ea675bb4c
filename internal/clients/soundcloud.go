package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

const (
	defaultSoundcloudAPIBaseURL = "https://api-v2.soundcloud.com"

	soundcloudShortLinkHost = "on.soundcloud.com"

	// SearchTracks and SearchPlaylists are capped by SoundCloud at 100
	// results per request.
	soundcloudSearchLimit = 100
)

// SoundcloudClient talks to the private SoundCloud API v2. The client id it
// authenticates with is read from the process-wide store on every request,
// since the scraped value can change at any time.
type SoundcloudClient struct {
	baseURL    string
	httpClient *http.Client
	clientID   *SoundcloudClientIDStore
	logger     *zap.Logger
}

// NewSoundcloudClient creates a SoundCloud API client. baseURL may be empty
// to use the real API.
func NewSoundcloudClient(baseURL string, httpClient *http.Client, clientID *SoundcloudClientIDStore, logger *zap.Logger) *SoundcloudClient {
	if baseURL == "" {
		baseURL = defaultSoundcloudAPIBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &SoundcloudClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		clientID:   clientID,
		logger:     logger,
	}
}

// GetTracksByIDs fetches SoundCloud tracks by their platform ids. The result
// has exactly one entry per requested id, in request order, nil where the
// platform did not return the track (the API omits missing ids and does not
// preserve order).
func (c *SoundcloudClient) GetTracksByIDs(ctx context.Context, ids []int64) ([]*SoundcloudTrack, error) {
	if len(ids) == 0 {
		return []*SoundcloudTrack{}, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = strconv.FormatInt(id, 10)
	}

	endpoint := fmt.Sprintf("%s/tracks?ids=%s&client_id=%s",
		c.baseURL, strings.Join(idStrings, ","), url.QueryEscape(c.clientID.Get()))

	var tracks []SoundcloudTrack
	if err := c.getJSON(ctx, endpoint, &tracks); err != nil {
		return nil, err
	}

	byID := make(map[int64]*SoundcloudTrack, len(tracks))
	for i := range tracks {
		byID[tracks[i].ID] = &tracks[i]
	}

	ordered := make([]*SoundcloudTrack, len(ids))
	for i, id := range ids {
		ordered[i] = byID[id]
	}

	return ordered, nil
}

// GetFormatData resolves the audio file url from a transcoding endpoint url.
func (c *SoundcloudClient) GetFormatData(ctx context.Context, formatURL string) (*SoundcloudFormatData, error) {
	separator := "?"
	if strings.Contains(formatURL, "?") {
		separator = "&"
	}
	endpoint := fmt.Sprintf("%s%sclient_id=%s", formatURL, separator, url.QueryEscape(c.clientID.Get()))

	var formatData SoundcloudFormatData
	if err := c.getJSON(ctx, endpoint, &formatData); err != nil {
		return nil, err
	}

	return &formatData, nil
}

// ResolvePlaylistByURL fetches playlist data for a public playlist url.
// "on.soundcloud.com/..." shortened links are followed through one manual
// redirect hop first, since /resolve does not understand them. Returns nil
// when the url resolves to something other than a playlist or to nothing.
func (c *SoundcloudClient) ResolvePlaylistByURL(ctx context.Context, playlistURL string) (*SoundcloudPlaylist, error) {
	if strings.Contains(playlistURL, soundcloudShortLinkHost) {
		redirected, err := c.resolveShortLink(ctx, playlistURL)
		if err != nil {
			return nil, err
		}
		playlistURL = redirected
	}

	endpoint := fmt.Sprintf("%s/resolve?url=%s&client_id=%s",
		c.baseURL, url.QueryEscape(playlistURL), url.QueryEscape(c.clientID.Get()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("soundcloud resolve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PlatformAPIError{
			Platform:   models.PlatformSoundcloud,
			StatusCode: resp.StatusCode,
			Message:    "resolve request failed",
		}
	}

	var playlist SoundcloudPlaylist
	if err := json.NewDecoder(resp.Body).Decode(&playlist); err != nil {
		return nil, &PlatformAPIError{Platform: models.PlatformSoundcloud, Message: err.Error()}
	}

	if playlist.Kind != "playlist" {
		return nil, nil
	}

	return &playlist, nil
}

// resolveShortLink reads the Location header of an "on.soundcloud.com" link
// without following it, to recover the playlist's real url.
func (c *SoundcloudClient) resolveShortLink(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", err
	}

	noRedirectClient := &http.Client{
		Transport: c.httpClient.Transport,
		Timeout:   c.httpClient.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := noRedirectClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("soundcloud short link request failed: %w", err)
	}
	defer resp.Body.Close()

	redirectURL := resp.Header.Get("Location")
	if redirectURL == "" {
		return "", &PlatformAPIError{
			Platform: models.PlatformSoundcloud,
			Message:  `"on.soundcloud.com/..." url has not been redirected, cannot get playlist data without the original url`,
		}
	}

	return redirectURL, nil
}

// GetPlaylistByID fetches playlist data by its platform id. secretToken is
// required for private/unlisted playlists. Returns nil when the playlist
// does not exist.
func (c *SoundcloudClient) GetPlaylistByID(ctx context.Context, platformID string, secretToken *string) (*SoundcloudPlaylist, error) {
	endpoint := fmt.Sprintf("%s/playlists/%s?client_id=%s",
		c.baseURL, url.PathEscape(platformID), url.QueryEscape(c.clientID.Get()))
	if secretToken != nil {
		endpoint += "&secret_token=" + url.QueryEscape(*secretToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("soundcloud playlist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PlatformAPIError{
			Platform:   models.PlatformSoundcloud,
			StatusCode: resp.StatusCode,
			Message:    "playlist request failed",
		}
	}

	var playlist SoundcloudPlaylist
	if err := json.NewDecoder(resp.Body).Decode(&playlist); err != nil {
		return nil, &PlatformAPIError{Platform: models.PlatformSoundcloud, Message: err.Error()}
	}

	return &playlist, nil
}

// SearchTracks searches tracks by a free-text query, capped at 100 results.
func (c *SoundcloudClient) SearchTracks(ctx context.Context, query string) ([]SoundcloudTrack, error) {
	endpoint := fmt.Sprintf("%s/search/tracks?q=%s&client_id=%s&limit=%d&offset=0",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.clientID.Get()), soundcloudSearchLimit)

	var result soundcloudSearchTracksResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return result.Collection, nil
}

// SearchPlaylists searches playlists (albums excluded) by a free-text query,
// capped at 100 results.
func (c *SoundcloudClient) SearchPlaylists(ctx context.Context, query string) ([]SoundcloudPlaylist, error) {
	endpoint := fmt.Sprintf("%s/search/playlists_without_albums?q=%s&client_id=%s&limit=%d&offset=0",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.clientID.Get()), soundcloudSearchLimit)

	var result soundcloudSearchPlaylistsResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return result.Collection, nil
}

func (c *SoundcloudClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("soundcloud api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &PlatformAPIError{
			Platform:   models.PlatformSoundcloud,
			StatusCode: resp.StatusCode,
			Message:    "request failed",
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &PlatformAPIError{Platform: models.PlatformSoundcloud, Message: err.Error()}
	}

	return nil
}
