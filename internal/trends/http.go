package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/pkg/config"
	"github.com/darkmind/darkmind/pkg/logging"
)

// HTTPProvider talks to the external trend-research service.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPProvider creates a provider for the configured trends service, or
// nil when no URL is configured.
func NewHTTPProvider(cfg *config.TrendsConfig) (*HTTPProvider, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid trends_url: %w", err)
	}
	return &HTTPProvider{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logging.WithComponent("trends-client"),
	}, nil
}

// IntelligenceFor fetches research for one format.
func (p *HTTPProvider) IntelligenceFor(ctx context.Context, format string) (*Intelligence, error) {
	var intel Intelligence
	endpoint := fmt.Sprintf("%s/intelligence/%s", p.baseURL, url.PathEscape(format))
	if err := p.getJSON(ctx, endpoint, &intel); err != nil {
		return nil, fmt.Errorf("failed to fetch intelligence for %s: %w", format, err)
	}
	return &intel, nil
}

// TrendingTopics fetches ranked topic lists for all formats.
func (p *HTTPProvider) TrendingTopics(ctx context.Context) (map[string][]string, error) {
	topics := make(map[string][]string)
	if err := p.getJSON(ctx, p.baseURL+"/topics", &topics); err != nil {
		return nil, fmt.Errorf("failed to fetch trending topics: %w", err)
	}
	return topics, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
