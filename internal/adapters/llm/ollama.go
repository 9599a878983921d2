// Package llm provides LLM adapters implementing ports.LLMService.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

// OllamaLLMAdapter implements ports.LLMService using Ollama API.
type OllamaLLMAdapter struct {
	baseURL string
	model   string
	apiKey  string
	options map[string]any
	client  *http.Client
	logger  zerolog.Logger
}

// OllamaOptions carries generation settings; Options is forwarded verbatim as Ollama's "options" object.
type OllamaOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Options map[string]any
}

// NewOllamaLLMAdapter creates a new Ollama LLM adapter.
func NewOllamaLLMAdapter(model string, opts OllamaOptions, logger zerolog.Logger) *OllamaLLMAdapter {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	return &OllamaLLMAdapter{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		model:   model,
		apiKey:  opts.APIKey,
		options: opts.Options,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger.With().Str("component", "llm").Str("provider", "ollama").Logger(),
	}
}

// ollamaGenerateRequest is the Ollama generate API request.
type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// ollamaGenerateResponse is the Ollama generate API response.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Name returns the provider name.
func (a *OllamaLLMAdapter) Name() string {
	return "ollama"
}

// Complete sends prompt to /api/generate and returns the full response.
func (a *OllamaLLMAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:   a.model,
		Prompt:  prompt,
		Stream:  false,
		Options: a.options,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	started := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return "", apperr.Provider("ollama", fmt.Errorf("calling Ollama: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperr.Provider("ollama", fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", apperr.Provider("ollama", fmt.Errorf("decoding response: %w", err))
	}
	if genResp.Error != "" {
		return "", apperr.Provider("ollama", fmt.Errorf("%s", genResp.Error))
	}

	a.logger.Debug().
		Str("model", a.model).
		Int("prompt_len", len(prompt)).
		Dur("took", time.Since(started)).
		Msg("completion finished")
	return genResp.Response, nil
}
