package llm

import (
	"context"
	"log"
	"os"
	"strings"
)

// NewClientForProvider constructs the provider client named by the evaluation
// configuration. A nil client (no error) means no credentials are present and
// the caller should run on the fallback report.
func NewClientForProvider(ctx context.Context, provider string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "anthropic":
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			log.Printf("llm: ANTHROPIC_API_KEY not set, analysis will use the fallback report")
			return nil, nil
		}
		return NewAnthropicClient("")
	case "gemini", "google":
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			log.Printf("llm: GEMINI_API_KEY not set, analysis will use the fallback report")
			return nil, nil
		}
		return NewGeminiClient(ctx)
	default:
		log.Printf("llm: unknown provider %q, analysis will use the fallback report", provider)
		return nil, nil
	}
}
