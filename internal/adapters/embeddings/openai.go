// Package embeddings implements the similarity provider: it turns labels into
// vectors via the OpenAI embeddings API so the matcher can score candidates
// that defeat lexical comparison.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/venueops/tktsrecon/internal/domain/recon"
)

// Cache stores embedding vectors keyed by raw text so repeated runs over the
// same documents do not re-bill the API.
type Cache interface {
	Get(text string) ([]float64, bool)
	Put(text string, vector []float64) error
}

// Config holds OpenAI embeddings settings.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig returns production defaults. Calls are retried with backoff
// and bounded by a request timeout; the pipeline must never hang on a single
// embedding call.
func DefaultConfig() Config {
	return Config{
		Model:      "text-embedding-3-small",
		BaseURL:    "https://api.openai.com/v1",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// Client calls the OpenAI embeddings endpoint.
type Client struct {
	config     Config
	httpClient *retryablehttp.Client
	cache      Cache
	logger     *slog.Logger
}

// NewClient builds an embeddings client. A missing API key is a recognized
// configuration state, reported as ProviderUnavailable so callers can skip
// the matching pass instead of aborting the run. cache may be nil.
func NewClient(cfg Config, cache Cache, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, recon.Errorf(recon.KindProviderUnavailable, "embeddings",
			"similarity provider credential is not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &Client{
		config:     cfg,
		httpClient: rc,
		cache:      cache,
		logger:     logger,
	}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input text, order preserved. Cached texts are
// served locally; the remainder goes out as a single batched request.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if c.cache != nil {
			if v, ok := c.cache.Get(text); ok {
				out[i] = v
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.request(ctx, missing)
	if err != nil {
		return nil, err
	}

	for j, vec := range vectors {
		out[missingIdx[j]] = vec
		if c.cache != nil {
			if cacheErr := c.cache.Put(missing[j], vec); cacheErr != nil && c.logger != nil {
				c.logger.Warn("Failed to cache embedding", "error", cacheErr)
			}
		}
	}
	return out, nil
}

func (c *Client) request(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.config.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, recon.NewError(recon.KindProviderCallFailed, "embeddings", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, recon.NewError(recon.KindProviderCallFailed, "embeddings",
			fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(respBody, &errorResp); jsonErr == nil && errorResp.Error.Message != "" {
			return nil, recon.Errorf(recon.KindProviderCallFailed, "embeddings",
				"OpenAI API error: %s (type: %s)", errorResp.Error.Message, errorResp.Error.Type)
		}
		return nil, recon.Errorf(recon.KindProviderCallFailed, "embeddings",
			"OpenAI API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, recon.NewError(recon.KindProviderCallFailed, "embeddings",
			fmt.Errorf("failed to parse response: %w", err))
	}
	if len(parsed.Data) != len(texts) {
		return nil, recon.Errorf(recon.KindProviderCallFailed, "embeddings",
			"expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	// Align by the index field rather than response order.
	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })

	vectors := make([][]float64, len(parsed.Data))
	for i, item := range parsed.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}
