package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"CouncilScraper/internal/config"
	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "CouncilScraper/1.0"
)

// HTTPFetcher performs one GET per call; it does not retry or cache.
type HTTPFetcher struct {
	client *resty.Client
	logger *slog.Logger
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher from config; zero values fall back to defaults.
func NewHTTPFetcher(cfg config.FetcherConfig, log *slog.Logger) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0)

	return &HTTPFetcher{client: client, logger: log}
}

// Fetch returns the response body of url or a *domain.RequestError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, domain.NewRequestError(url, 0, err)
	}

	if !resp.IsSuccess() {
		return nil, domain.NewRequestError(url, resp.StatusCode(), nil)
	}

	if f.logger != nil {
		f.logger.Debug("fetched page", "url", url, "status", resp.StatusCode(), "bytes", len(resp.Body()), "elapsed", resp.Time())
	}
	return resp.Body(), nil
}
