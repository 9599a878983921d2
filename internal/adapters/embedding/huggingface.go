package embedding

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

// DefaultHuggingFaceURL is the hosted inference endpoint prefix.
const DefaultHuggingFaceURL = "https://router.huggingface.co/hf-inference/models"

// HuggingFaceAdapter implements ports.EmbeddingService with the Hugging Face
// feature-extraction pipeline for sentence-transformers models.
type HuggingFaceAdapter struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHuggingFaceAdapter creates an adapter for model (e.g. "BAAI/bge-small-en-v1.5").
func NewHuggingFaceAdapter(baseURL, model, apiKey string, logger zerolog.Logger) *HuggingFaceAdapter {
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}
	return &HuggingFaceAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger.With().Str("component", "embedding").Str("provider", "huggingface").Logger(),
	}
}

type hfRequest struct {
	Inputs  []string       `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}

// ModelName returns the model repository id.
func (a *HuggingFaceAdapter) ModelName() string {
	return "huggingface/" + a.model
}

// Embed generates an embedding for a single text.
func (a *HuggingFaceAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends all texts in one request.
func (a *HuggingFaceAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:  texts,
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := a.baseURL + "/" + a.model + "/pipeline/feature-extraction"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperr.Provider("huggingface", fmt.Errorf("calling inference API: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Provider("huggingface", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var out [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Provider("huggingface", fmt.Errorf("decoding response (is %s a sentence-embedding model?): %w", a.model, err))
	}
	if len(out) != len(texts) {
		return nil, apperr.Provider("huggingface", fmt.Errorf("got %d embeddings for %d inputs", len(out), len(texts)))
	}

	a.logger.Debug().Int("inputs", len(texts)).Msg("embedded batch")
	return out, nil
}
