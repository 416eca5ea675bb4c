package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/windchimes/backend/internal/models"
	"go.uber.org/zap"
)

const (
	defaultYoutubeInternalAPIBaseURL = "https://www.youtube.com/youtubei/v1"

	youtubeWebsiteBaseURL = "https://www.youtube.com"

	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"
)

// YoutubeInternalClient talks to the internal, unofficial API YouTube's own
// web frontend uses. Requests must carry a browser-like client context or
// the endpoint rejects them.
type YoutubeInternalClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewYoutubeInternalClient creates an internal API client. baseURL may be
// empty to use the real endpoint; httpClient carries the egress proxy when
// one is configured.
func NewYoutubeInternalClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *YoutubeInternalClient {
	if baseURL == "" {
		baseURL = defaultYoutubeInternalAPIBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &YoutubeInternalClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type youtubeSearchClientContext struct {
	HL            string `json:"hl"`
	GL            string `json:"gl"`
	UserAgent     string `json:"userAgent"`
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	Platform      string `json:"platform"`
}

type youtubeSearchRequest struct {
	Context struct {
		Client youtubeSearchClientContext `json:"client"`
	} `json:"context"`
	Query string `json:"query"`
}

// The search response nests results many renderer levels deep; only the path
// down to videoRenderer.videoId is decoded.
type youtubeSearchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *struct {
									VideoID string `json:"videoId"`
								} `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

// SearchVideoIDs searches videos and returns the ids of the results. Entries
// that are not plain videos (ads, shelves, channels) are skipped.
func (c *YoutubeInternalClient) SearchVideoIDs(ctx context.Context, query string) ([]string, error) {
	var body youtubeSearchRequest
	body.Context.Client = youtubeSearchClientContext{
		HL:            "en",
		GL:            "AU",
		UserAgent:     browserUserAgent + ",gzip(gfe)",
		ClientName:    "WEB",
		ClientVersion: "2.20250205.01.00",
		Platform:      "DESKTOP",
	}
	body.Query = query

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/search?prettyPrint=false", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", youtubeWebsiteBaseURL)
	req.Header.Set("Referer", youtubeWebsiteBaseURL+"/results?search_query="+query)
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube internal api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PlatformAPIError{
			Platform:   models.PlatformYoutube,
			StatusCode: resp.StatusCode,
			Message:    "internal search request failed",
		}
	}

	var searchResponse youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return nil, &PlatformAPIError{Platform: models.PlatformYoutube, Message: err.Error()}
	}

	var videoIDs []string
	sections := searchResponse.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, item := range section.ItemSectionRenderer.Contents {
			if item.VideoRenderer != nil {
				videoIDs = append(videoIDs, item.VideoRenderer.VideoID)
			}
		}
	}

	c.logger.Debug("youtube internal search finished",
		zap.String("query", query), zap.Int("video_ids", len(videoIDs)))

	return videoIDs, nil
}
