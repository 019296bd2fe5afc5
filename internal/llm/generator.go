package llm

import (
	"context"
	"log"
	"time"
)

// Generator wraps a provider Client and absorbs its failures: when no client
// is configured or the call errors, it returns the static fallback report with
// zero token counts and measured latency. Callers always get a usable result;
// the orchestrator's logging layer tells fallback from real output by the
// zeroed token counts.
//
// The Generator performs no retries. One invocation, one provider attempt.
type Generator struct {
	client Client
}

// NewGenerator builds a Generator around client, which may be nil when no
// provider credentials are configured.
func NewGenerator(client Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, req Request) Response {
	start := time.Now()

	if g == nil || g.client == nil {
		return Response{Content: FallbackReport, LatencyMs: time.Since(start).Milliseconds()}
	}

	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		log.Printf("llm: %s failed, using fallback report: %v", g.client.Name(), err)
		return Response{Content: FallbackReport, LatencyMs: time.Since(start).Milliseconds()}
	}
	return resp
}

func (g *Generator) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}
