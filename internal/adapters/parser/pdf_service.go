// Package parser provides document parsing adapters.
// PDF text extraction is delegated to an external HTTP service (POST /parse with the raw bytes).
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// PDFServiceParser implements ports.DocumentParser by calling the PDF extraction service.
type PDFServiceParser struct {
	serviceURL string
	client     *http.Client
	logger     zerolog.Logger
}

// NewPDFServiceParser creates a parser for the service at serviceURL.
func NewPDFServiceParser(serviceURL string, logger zerolog.Logger) *PDFServiceParser {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	return &PDFServiceParser{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.With().Str("component", "pdf_parser").Logger(),
	}
}

// parseResponse is the service response format.
type parseResponse struct {
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
	Library string `json:"library,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Parse extracts text from PDF bytes.
func (p *PDFServiceParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("PDF parse error in %s: %s", filename, result.Error)
	}

	p.logger.Debug().
		Str("file", filename).
		Int("pages", result.Pages).
		Str("library", result.Library).
		Msg("parsed pdf")
	return result.Text, nil
}

// SupportedFormats returns formats this parser handles.
func (p *PDFServiceParser) SupportedFormats() []string {
	return []string{"pdf"}
}

// IsServiceHealthy checks if the service answers GET /health.
func (p *PDFServiceParser) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
