package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const chatCompletionsEndpoint = "/chat/completions"

// ModelClient issues prompts to a chat-completions style model endpoint and
// parses structured JSON replies. Calls are paced by a shared token bucket so
// a generation run cannot trip provider rate limits.
type ModelClient interface {
	// CompleteJSON sends the system/user prompt pair and unmarshals the model's
	// JSON reply into out. An empty apiKey falls back to the app's key.
	CompleteJSON(ctx context.Context, apiKey, system, user string, out interface{}) error
}

type modelClient struct {
	client     *http.Client
	baseURL    string
	defaultKey string
	model      string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewModelClient creates a ModelClient against the given OpenAI-compatible
// endpoint, allowing rpm model calls per minute.
func NewModelClient(baseURL, apiKey, model string, rpm int, logger zerolog.Logger) ModelClient {
	if rpm <= 0 {
		rpm = 6
	}
	return &modelClient{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:    baseURL,
		defaultKey: apiKey,
		model:      model,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		logger:     logger.With().Str("service", "ModelClient").Logger(),
	}
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *modelClient) CompleteJSON(ctx context.Context, apiKey, system, user string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for model rate limiter: %w", err)
	}

	key := apiKey
	if key == "" {
		key = c.defaultKey
	}

	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
		Temperature:    0.7,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling model request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsEndpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating model request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling model endpoint: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading model response: %w", err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return fmt.Errorf("decoding model response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if completion.Error != nil && completion.Error.Message != "" {
			c.logger.Error().
				Int("status_code", resp.StatusCode).
				Str("error_type", completion.Error.Type).
				Msg("Model endpoint returned error")
			return fmt.Errorf("model endpoint returned status %d: %s", resp.StatusCode, completion.Error.Message)
		}
		return fmt.Errorf("model endpoint returned status %d", resp.StatusCode)
	}

	if len(completion.Choices) == 0 {
		return fmt.Errorf("model response contained no choices")
	}

	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("model returned malformed JSON: %w", err)
	}
	return nil
}
