package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Summarizer turns a prompt into a short piece of prose
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// OllamaConfig configures the Ollama client
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOllamaConfig returns local defaults
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL: "http://localhost:11434",
		Model:   "llama3.2",
		Timeout: 30 * time.Second,
	}
}

// GenerateRequest is the request body for /api/generate
type GenerateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	System  string           `json:"system,omitempty"`
	Options *GenerateOptions `json:"options,omitempty"`
}

// GenerateOptions are optional generation parameters
type GenerateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// GenerateResponse is the non-streaming response from /api/generate
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

const systemPrompt = "You are a concise NBA totals analyst. Answer in two or three sentences without betting advice disclaimers."

// OllamaSummarizer calls an Ollama-compatible server
type OllamaSummarizer struct {
	config     OllamaConfig
	httpClient *http.Client
}

// NewOllamaSummarizer creates a summarizer; zero config fields take defaults
func NewOllamaSummarizer(config OllamaConfig) *OllamaSummarizer {
	def := DefaultOllamaConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}

	return &OllamaSummarizer{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Summarize sends a single non-streaming generate request
func (o *OllamaSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(GenerateRequest{
		Model:   o.config.Model,
		Prompt:  prompt,
		Stream:  false,
		System:  systemPrompt,
		Options: &GenerateOptions{Temperature: 0.3, NumPredict: 200},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.config.BaseURL, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(msg))
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", o.config.Model)
	}
	return text, nil
}
