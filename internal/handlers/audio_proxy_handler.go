package handlers

import (
	"bufio"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/windchimes/backend/internal/config"
	"go.uber.org/zap"
)

const (
	hlsManifestContentType  = "application/vnd.apple.mpegurl"
	mediaSegmentContentType = "application/octet-stream"

	// Only Google's video CDN may be proxied. Anything else would turn the
	// endpoint into an open proxy.
	allowedProxyHost = "googlevideo.com"
)

// AudioProxyHandler streams HLS audio from the YouTube CDN through this
// server, rewriting manifests so the player keeps talking to us for every
// segment.
type AudioProxyHandler struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewAudioProxyHandler(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) *AudioProxyHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AudioProxyHandler{cfg: cfg, httpClient: httpClient, logger: logger}
}

// ProxyAudio handles GET /audio
func (h *AudioProxyHandler) ProxyAudio(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	target, err := url.Parse(rawURL)
	if err != nil || !hostAllowed(target.Hostname()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url host is not allowed"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error("audio proxy upstream request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Status(resp.StatusCode)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, hlsManifestContentType):
		h.serveRewrittenManifest(c, resp)
	case strings.HasPrefix(contentType, mediaSegmentContentType):
		c.DataFromReader(http.StatusOK, resp.ContentLength, mediaSegmentContentType, resp.Body, nil)
	default:
		h.logger.Error("audio proxy got unexpected upstream content type",
			zap.String("content_type", contentType))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected upstream content type"})
	}
}

// serveRewrittenManifest rewrites every media segment line of the HLS
// manifest into a self-referencing proxied url. Tag/comment lines pass
// through verbatim.
func (h *AudioProxyHandler) serveRewrittenManifest(c *gin.Context, resp *http.Response) {
	var rewritten strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" && !strings.HasPrefix(line, "#") {
			line = h.cfg.PublicBaseURL + "/audio?url=" + url.QueryEscape(line)
		}
		rewritten.WriteString(line)
		rewritten.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		h.logger.Error("failed to read upstream manifest", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read upstream manifest"})
		return
	}

	c.Data(http.StatusOK, hlsManifestContentType, []byte(rewritten.String()))
}

func hostAllowed(host string) bool {
	return host == allowedProxyHost || strings.HasSuffix(host, "."+allowedProxyHost)
}
