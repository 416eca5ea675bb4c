// Package clients wraps the raw HTTP (and subprocess) surfaces of the
// external music platforms: the SoundCloud v2 API, the YouTube Data API v3,
// YouTube's internal search endpoint and the yt-dlp media-url resolver.
//
// Clients speak each platform's own wire format through typed structs and
// leave conversion to the canonical track/playlist model to the services
// layer.
package clients

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/windchimes/backend/internal/models"
)

// PlatformAPIError reports a non-success response or malformed body from an
// external platform API. It is propagated to callers as-is; retries, if any,
// belong to the transport collaborator.
type PlatformAPIError struct {
	Platform   models.Platform
	StatusCode int
	Message    string
}

func (e *PlatformAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api error (status %d): %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s api error: %s", e.Platform, e.Message)
}

// NewHTTPClient builds the egress http client shared by the platform
// clients. proxyURL may be empty; socks5:// and http:// proxies are
// supported.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid egress proxy url: %w", err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	}

	return client, nil
}
