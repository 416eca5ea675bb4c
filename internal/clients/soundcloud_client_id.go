package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSoundcloudMobileBaseURL = "https://m.soundcloud.com"

// Markers preceding the client id value in the mobile website HTML. For now
// only one works, kept as a list so new locations can be added when
// SoundCloud moves it.
var soundcloudClientIDMarkers = []string{`"clientId":"`}

// SoundcloudClientIDStore holds the API key used for SoundCloud API access.
// The value is scraped from the SoundCloud website regularly by
// SoundcloudClientIDRefresher; readers get the static fallback until the
// first scrape succeeds. This is the only cross-request mutable state in the
// core, so access goes through an RWMutex.
type SoundcloudClientIDStore struct {
	mu       sync.RWMutex
	clientID string
}

func NewSoundcloudClientIDStore(fallbackClientID string) *SoundcloudClientIDStore {
	return &SoundcloudClientIDStore{clientID: fallbackClientID}
}

// Get returns the current client id. The value may be stale or empty;
// callers use it as-is and let the API reject it.
func (s *SoundcloudClientIDStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientID
}

func (s *SoundcloudClientIDStore) Set(clientID string) {
	s.mu.Lock()
	s.clientID = clientID
	s.mu.Unlock()
}

// SoundcloudClientIDRefresher scrapes the SoundCloud mobile website for the
// client id their own frontend uses and publishes it to the store.
type SoundcloudClientIDRefresher struct {
	store      *SoundcloudClientIDStore
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSoundcloudClientIDRefresher creates a refresher. baseURL may be empty
// to scrape the real mobile website.
func NewSoundcloudClientIDRefresher(store *SoundcloudClientIDStore, baseURL string, httpClient *http.Client, logger *zap.Logger) *SoundcloudClientIDRefresher {
	if baseURL == "" {
		baseURL = defaultSoundcloudMobileBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &SoundcloudClientIDRefresher{
		store:      store,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Run refreshes the client id immediately, then on every interval tick until
// the context is cancelled. Failures keep the previous value.
func (r *SoundcloudClientIDRefresher) Run(ctx context.Context, interval time.Duration) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Error("soundcloud client id refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Error("soundcloud client id refresh failed", zap.Error(err))
			}
		}
	}
}

// Refresh fetches the mobile website main page and extracts the client id
// from its HTML.
func (r *SoundcloudClientIDRefresher) Refresh(ctx context.Context) error {
	r.logger.Info("fetching soundcloud client id from the mobile website")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("soundcloud mobile website request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("soundcloud mobile website returned status %d", resp.StatusCode)
	}

	pageHTML, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read soundcloud mobile website page: %w", err)
	}

	clientID, err := extractSoundcloudClientID(string(pageHTML))
	if err != nil {
		return err
	}

	r.store.Set(clientID)
	r.logger.Info("scraped soundcloud client id", zap.String("client_id", clientID))
	return nil
}

func extractSoundcloudClientID(pageHTML string) (string, error) {
	for _, marker := range soundcloudClientIDMarkers {
		markerIndex := strings.Index(pageHTML, marker)
		if markerIndex == -1 {
			continue
		}

		start := markerIndex + len(marker)
		end := strings.IndexByte(pageHTML[start:], '"')
		if end == -1 {
			continue
		}

		return pageHTML[start : start+end], nil
	}

	return "", fmt.Errorf("couldn't find the soundcloud client id in the website's html code")
}
