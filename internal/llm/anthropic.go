package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"
)

// AnthropicClient calls the Anthropic Messages API.
// See: https://docs.anthropic.com/en/api/messages
type AnthropicClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

const anthropicVersion = "2023-06-01"

// NewAnthropicClient creates an Anthropic client. If apiKey is empty, it falls
// back to the ANTHROPIC_API_KEY env var.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	return &AnthropicClient{
		http:    &http.Client{Timeout: 120 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.anthropic.com/v1/messages",
	}, nil
}

func (a *AnthropicClient) Name() string { return "Anthropic" }
func (a *AnthropicClient) Close() error { return nil }

type anthropicReq struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResp struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *AnthropicClient) Generate(ctx context.Context, r Request) (Response, error) {
	start := time.Now()

	body := anthropicReq{
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		System:      r.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: r.UserPrompt}},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(b))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, errors.New("anthropic: unexpected status " + resp.Status)
	}

	var out anthropicResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, err
	}
	var text string
	for _, c := range out.Content {
		if c.Type == "text" {
			text = c.Text
			break
		}
	}
	if text == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{
		Content:   text,
		TokensIn:  out.Usage.InputTokens,
		TokensOut: out.Usage.OutputTokens,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}
