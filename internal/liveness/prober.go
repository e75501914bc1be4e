package liveness

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultProbeTimeout = 15 * time.Second
	maxRedirects        = 10
)

// Prober performs the lightweight existence check against a posting URL.
type Prober interface {
	// Probe reports whether the URL still responds successfully. Any
	// network-level failure counts as unreachable.
	Probe(ctx context.Context, url string) bool
}

// HTTPProber probes with a HEAD request. Redirects are followed up to a
// fixed cap so a redirect loop cannot hang a sweep.
type HTTPProber struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPProber constructs a prober with a shared HTTP client. A
// non-positive timeout falls back to the default.
func NewHTTPProber(timeout time.Duration, logger *slog.Logger) *HTTPProber {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	return &HTTPProber{client: client, logger: logger}
}

// Probe issues the HEAD request and folds every failure mode into false.
func (p *HTTPProber) Probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		p.logger.Debug("Probe request build failed",
			slog.String("url", url),
			slog.Any("error", err),
		)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
