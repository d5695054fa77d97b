// Package serper implements the search collaborator on top of the Serper
// web-search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jobfinder/internal/pipeline"
	"jobfinder/internal/utils"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL      = "https://google.serper.dev"
	searchPath  = "/search"
	contentType = "application/json"

	defaultGL      = "us"
	defaultHL      = "en"
	defaultTimeout = 40 * time.Second

	// One request at a time, two per second. Conservative enough for the
	// free Serper tier even with several workers dispatching.
	defaultRate = rate.Limit(2)
)

type Client struct {
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter

	HTTPClient *http.Client
	APIURL     string
	// GL and HL are the Serper locale parameters (country and language).
	GL string
	HL string
	// MaxRetries is the number of additional attempts after a failed
	// request. Zero disables retrying.
	MaxRetries int
}

func New(apiKey string, logger *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		logger:  logger,
		limiter: rate.NewLimiter(defaultRate, 1),
		APIURL:  apiURL,
		GL:      defaultGL,
		HL:      defaultHL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type searchRequest struct {
	Q  string `json:"q"`
	GL string `json:"gl"`
	HL string `json:"hl"`
}

// Search posts the planned query and returns its organic results. Transient
// failures are retried with exponential backoff up to MaxRetries; the caller
// treats a final error as an empty batch.
func (c *Client) Search(ctx context.Context, query pipeline.SearchQuery) ([]pipeline.JobResult, error) {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.Debug("retrying search query",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			if err := utils.WaitFor(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		results, err := c.search(ctx, query.Text)
		if err == nil {
			return results, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) search(ctx context.Context, query string) ([]pipeline.JobResult, error) {
	payload, err := json.Marshal(searchRequest{Q: query, GL: c.GL, HL: c.HL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+searchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	// Organic items carry fields we do not model (position, date, rich
	// sitelinks), so decode loosely first and map the known fields after.
	var response struct {
		Organic []any `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	var results []pipeline.JobResult
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &results,
		TagName:  "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(response.Organic); err != nil {
		return nil, fmt.Errorf("decoding organic items: %w", err)
	}

	c.logger.Debug("got search response", zap.Int("organic", len(results)))

	return results, nil
}
