// Package translate rewrites fetched Markdown into the target language while
// leaving code spans and links untouched.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pagemill/internal/services"
)

// ClientConfig holds the translation backend settings.
type ClientConfig struct {
	Endpoint string
	Source   string
	Target   string
	Timeout  time.Duration
}

// Client talks to a LibreTranslate-compatible HTTP endpoint. It performs no
// retries itself; failures are classified and left to the retry executor.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient constructs a translation client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Translate sends one chunk of text and returns its translation.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(translateRequest{
		Query:  text,
		Source: c.cfg.Source,
		Target: c.cfg.Target,
		Format: "text",
	})
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "translate", "encode request", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "translate", "request", c.cfg.Endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "translate", "post", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "translate", "read body", "", err)
	}

	if resp.StatusCode >= 300 {
		marker := services.ErrValidation
		if resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return "", services.Wrap(marker, "translate", "post",
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, summarizeBody(body)), nil)
	}

	var decoded translateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrTransient, "translate", "decode response", summarizeBody(body), err)
	}
	if decoded.Error != "" {
		return "", services.Wrap(services.ErrValidation, "translate", "api error", decoded.Error, nil)
	}
	if decoded.TranslatedText == "" {
		// An empty translation for non-empty input is a backend hiccup worth
		// retrying, not a result.
		return "", services.Wrap(services.ErrTransient, "translate", "post", "empty translation", nil)
	}
	return decoded.TranslatedText, nil
}

func summarizeBody(body []byte) string {
	snippet := strings.TrimSpace(string(body))
	const limit = 200
	if len(snippet) > limit {
		snippet = snippet[:limit] + "..."
	}
	return snippet
}
