// Package capture produces image artifacts for a dispute: screenshots of web
// pages and rendered HTML cards taken by a headless browser service, and
// downloads of remote images.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/domain"
)

// ErrDisabled is the degraded reason reported while screenshots are switched off.
var ErrDisabled = errors.New("screenshots disabled")

// ErrTooLarge is the degraded reason for images over the size limit.
var ErrTooLarge = errors.New("image exceeds size limit")

const maxDownloadBytes = 20 << 20

// Viewport is the browser window size used for a capture.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Request describes one capture. Exactly one of URL or HTML is set. Selector
// limits the screenshot to a single element.
type Request struct {
	Name     string   `json:"-"`
	URL      string   `json:"url,omitempty"`
	HTML     string   `json:"html,omitempty"`
	Selector string   `json:"selector,omitempty"`
	Viewport Viewport `json:"viewport"`
	WaitMS   int      `json:"wait_ms,omitempty"`
	FullPage bool     `json:"full_page,omitempty"`
}

// Capturer produces artifacts. Implementations never return errors; failures
// come back as degraded or failed results carrying the reason.
type Capturer interface {
	Capture(ctx context.Context, req Request) domain.Result[string]
	Download(ctx context.Context, name, rawURL string) domain.Result[string]
}

// Service talks to the screenshot service over HTTP and writes artifacts into
// the artifact directory.
type Service struct {
	http     *http.Client
	endpoint string
	dir      string
	enabled  bool
	maxBytes int64
	logger   *slog.Logger
}

// New constructs a Service. Screenshots are disabled when the configuration
// turns them off or names no endpoint; downloads keep working.
func New(cfg config.CaptureConfig, logger *slog.Logger) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	dir := cfg.ArtifactDir
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		http:     &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(cfg.URL, "/"),
		dir:      dir,
		enabled:  cfg.Enabled && cfg.URL != "",
		maxBytes: maxDownloadBytes,
		logger:   logger.With("component", "capture"),
	}
}

// Enabled reports whether screenshots are taken.
func (s *Service) Enabled() bool {
	return s.enabled
}

// Capture asks the screenshot service for a PNG and stores it.
func (s *Service) Capture(ctx context.Context, req Request) domain.Result[string] {
	if !s.enabled {
		return domain.Degraded[string](ErrDisabled.Error())
	}
	if req.URL == "" && req.HTML == "" {
		return domain.Degraded[string]("nothing to capture")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Failed[string](fmt.Errorf("encode capture request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/screenshot", bytes.NewReader(body))
	if err != nil {
		return domain.Failed[string](fmt.Errorf("create capture request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png")

	data, err := s.fetch(httpReq)
	if errors.Is(err, ErrTooLarge) {
		return domain.Degraded[string](ErrTooLarge.Error())
	}
	if err != nil {
		return domain.Failed[string](fmt.Errorf("capture %s: %w", req.Name, err))
	}
	return s.store(req.Name, ".png", data)
}

// Download fetches a remote image, keeping its extension.
func (s *Service) Download(ctx context.Context, name, rawURL string) domain.Result[string] {
	if strings.TrimSpace(rawURL) == "" {
		return domain.Degraded[string]("no image url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return domain.Degraded[string](fmt.Sprintf("unsupported image url %q", rawURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.Failed[string](fmt.Errorf("create download request: %w", err))
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return domain.Failed[string](fmt.Errorf("download %s: %w", name, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Failed[string](fmt.Errorf("download %s: status %d", name, resp.StatusCode))
	}
	data, err := s.read(resp.Body)
	if errors.Is(err, ErrTooLarge) {
		s.logger.Warn("remote image over size limit", "name", name, "limit", s.maxBytes)
		return domain.Degraded[string](ErrTooLarge.Error())
	}
	if err != nil {
		return domain.Failed[string](fmt.Errorf("download %s: %w", name, err))
	}
	return s.store(name, extension(u.Path, resp.Header.Get("Content-Type")), data)
}

func (s *Service) fetch(req *http.Request) ([]byte, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := s.read(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if errors.Is(err, ErrTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

// read reads one byte past the limit so an oversized body is rejected
// instead of being stored truncated.
func (s *Service) read(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return data[:s.maxBytes], ErrTooLarge
	}
	return data, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// store writes the artifact under a unique name so concurrent cases never collide.
func (s *Service) store(name, ext string, data []byte) domain.Result[string] {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.Failed[string](fmt.Errorf("create artifact dir: %w", err))
	}
	base := strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if base == "" {
		base = "artifact"
	}
	p := filepath.Join(s.dir, fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return domain.Failed[string](fmt.Errorf("write artifact: %w", err))
	}
	s.logger.Debug("artifact stored", "name", name, "path", p, "bytes", len(data))
	return domain.OK(p)
}

func extension(urlPath, contentType string) string {
	switch ext := strings.ToLower(path.Ext(urlPath)); ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		}
	}
	return ".jpg"
}
