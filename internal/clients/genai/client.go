// internal/clients/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lubebot/internal/common/validation"
	"lubebot/internal/models"
)

var (
	ErrClassifyFailed  = errors.New("CLASSIFIER_UNAVAILABLE")
	ErrClassifyTimeout = errors.New("CLASSIFIER_TIMEOUT")
	ErrBadShape        = errors.New("CLASSIFIER_BAD_SHAPE")
	ErrGenerateFailed  = errors.New("GENERATION_FAILED")
	ErrGenerateTimeout = errors.New("GENERATION_TIMEOUT")
)

// ApologyText is the fixed user-safe reply for degenerate or blocked
// generations. It is a constant so the transport layer can recognize it.
const ApologyText = "Sorry, I can't prepare a proper answer right now. Please try again in a moment."

// HistoryLimit is how many prior turns accompany a generation call.
const HistoryLimit = 10

// Config for the generation/classification service client.
type Config struct {
	BaseURL         string
	APIKey          string
	ClassifyTimeout time.Duration
	GenerateTimeout time.Duration
	MaxRetries      int
}

type Client struct {
	config *Config
	client *http.Client
}

func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			// No client-level timeout; per-call contexts own the deadline.
		},
	}
}

// Configured reports whether a generation credential is present. Without one
// the intent resolver goes straight to its rule fallback.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// Vehicle is one vehicle mention extracted by the classifier.
type Vehicle struct {
	Type  string `json:"type"`
	Brand string `json:"brand"`
	Model string `json:"model"`
}

// ClassifyResult is the shape-validated classification service response.
type ClassifyResult struct {
	Vehicles                   []Vehicle           `json:"vehicles"`
	ProductCategory            string              `json:"productCategory"`
	NeedsProductRecommendation bool                `json:"needsProductRecommendation"`
	SearchKeywords             []string            `json:"searchKeywords"`
	SearchTasks                []models.SearchTask `json:"searchTasks"`
	Certifications             []string            `json:"certifications"`
	Viscosity                  string              `json:"viscosity"`
	UsageScenario              string              `json:"usageScenario"`
	IntentType                 string              `json:"intentType"`
	Raw                        json.RawMessage     `json:"-"`
}

// Classify sends the message plus truncated history to the classification
// endpoint. The response is shape-checked before use; a result without a
// vehicle or product category is rejected as ErrBadShape.
func (c *Client) Classify(ctx context.Context, message string, history []models.ChatTurn) (*ClassifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.ClassifyTimeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"message": message,
		"history": TruncateHistory(history, HistoryLimit),
	}

	body, err := c.post(ctx, "/v1/classify", requestBody, ErrClassifyFailed, ErrClassifyTimeout)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateClassifierResult(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadShape, err)
	}

	var result ClassifyResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrBadShape, err)
	}
	result.Raw = json.RawMessage(body)

	return &result, nil
}

// Generate sends the composed prompt plus the last HistoryLimit turns and
// returns the generated text. A blocked or empty generation yields the fixed
// apology text, never an error.
func (c *Client) Generate(ctx context.Context, prompt string, history []models.ChatTurn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.GenerateTimeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"prompt":  prompt,
		"history": TruncateHistory(history, HistoryLimit),
	}

	body, err := c.post(ctx, "/v1/generate", requestBody, ErrGenerateFailed, ErrGenerateTimeout)
	if err != nil {
		return "", err
	}

	var apiResponse struct {
		Text    string `json:"text"`
		Blocked bool   `json:"blocked"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrGenerateFailed, err)
	}

	if apiResponse.Blocked || strings.TrimSpace(apiResponse.Text) == "" {
		return ApologyText, nil
	}

	return apiResponse.Text, nil
}

// post runs one POST with a bounded fixed-backoff retry loop. Context expiry
// always surfaces as the caller's timeout sentinel.
func (c *Client) post(ctx context.Context, path string, payload interface{}, failErr, timeoutErr error) ([]byte, error) {
	raw, _ := json.Marshal(payload)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return nil, timeoutErr
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewBuffer(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", failErr, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

		resp, lastErr = c.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, timeoutErr
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, timeoutErr
		}
		return nil, fmt.Errorf("%w: %v", failErr, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", failErr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read error: %v", failErr, err)
	}

	return body, nil
}

// TruncateHistory keeps the last n turns, preserving order.
func TruncateHistory(history []models.ChatTurn, n int) []models.ChatTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
