// Package metrics fetches independent lab performance and accessibility
// scores from a PageSpeed-compatible API. The client is a first-class
// optional dependency of the audit: any failure resolves to "no metrics",
// never to an error the caller must handle.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/pagelens/pagelens/config"
	"github.com/pagelens/pagelens/models"
)

// namedAudits are the lab audits surfaced into the snapshot. Keeping a
// fixed list bounds the prompt contribution of this section.
var namedAudits = []string{
	"color-contrast",
	"tap-targets",
	"viewport",
	"font-size",
	"image-alt",
	"label",
	"link-name",
	"largest-contentful-paint",
	"cumulative-layout-shift",
}

// Client calls the lab API once per strategy.
type Client struct {
	httpClient *http.Client
	cfg        config.MetricsConfig
}

// NewClient creates a metrics client. Pass nil to use a default http.Client.
func NewClient(httpClient *http.Client, cfg config.MetricsConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, cfg: cfg}
}

// Enabled reports whether the client is configured to fetch anything.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.Endpoint != ""
}

// Fetch retrieves mobile and desktop lab scores for targetURL concurrently.
// It returns nil when disabled or when both strategies fail; a single
// failing strategy leaves its side nil.
func (c *Client) Fetch(ctx context.Context, targetURL string) *models.ExternalMetrics {
	if !c.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mobile  *models.StrategyMetrics
		desktop *models.StrategyMetrics
	)

	for _, strategy := range []string{"mobile", "desktop"} {
		wg.Add(1)
		go func(strategy string) {
			defer wg.Done()
			m, err := c.fetchStrategy(ctx, targetURL, strategy)
			if err != nil {
				slog.Debug("lab metrics fetch failed",
					"url", targetURL, "strategy", strategy, "error", err)
				return
			}
			if strategy == "mobile" {
				mobile = m
			} else {
				desktop = m
			}
		}(strategy)
	}
	wg.Wait()

	if mobile == nil && desktop == nil {
		return nil
	}
	return &models.ExternalMetrics{Mobile: mobile, Desktop: desktop}
}

// labResponse is the minimal slice of the lab API response we consume.
type labResponse struct {
	LighthouseResult struct {
		Categories map[string]struct {
			Score float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			Score        *float64 `json:"score"`
			DisplayValue string   `json:"displayValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

func (c *Client) fetchStrategy(ctx context.Context, targetURL, strategy string) (*models.StrategyMetrics, error) {
	q := url.Values{}
	q.Set("url", targetURL)
	q.Set("strategy", strategy)
	q.Set("category", "performance")
	q.Add("category", "accessibility")
	q.Add("category", "best-practices")
	q.Add("category", "seo")
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lab API returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var lab labResponse
	if err := json.Unmarshal(body, &lab); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	m := &models.StrategyMetrics{
		Performance:   lab.LighthouseResult.Categories["performance"].Score,
		Accessibility: lab.LighthouseResult.Categories["accessibility"].Score,
		BestPractices: lab.LighthouseResult.Categories["best-practices"].Score,
		SEO:           lab.LighthouseResult.Categories["seo"].Score,
	}
	for _, name := range namedAudits {
		audit, ok := lab.LighthouseResult.Audits[name]
		if !ok {
			continue
		}
		if m.Audits == nil {
			m.Audits = make(map[string]models.LabAuditResult)
		}
		m.Audits[name] = models.LabAuditResult{
			Score:        audit.Score,
			DisplayValue: audit.DisplayValue,
		}
	}
	return m, nil
}
