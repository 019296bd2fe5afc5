package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingClient struct{}

func (failingClient) Name() string { return "failing" }
func (failingClient) Close() error { return nil }
func (failingClient) Generate(context.Context, Request) (Response, error) {
	return Response{}, errors.New("provider down")
}

type echoClient struct{}

func (echoClient) Name() string { return "echo" }
func (echoClient) Close() error { return nil }
func (echoClient) Generate(_ context.Context, r Request) (Response, error) {
	return Response{Content: "echo: " + r.UserPrompt, TokensIn: 10, TokensOut: 20, LatencyMs: 5}, nil
}

func TestGeneratorWithoutClientReturnsFallback(t *testing.T) {
	g := NewGenerator(nil)
	resp := g.Generate(context.Background(), Request{UserPrompt: "hola"})
	require.NotEmpty(t, resp.Content)
	require.Zero(t, resp.TokensIn)
	require.Zero(t, resp.TokensOut)
	require.GreaterOrEqual(t, resp.LatencyMs, int64(0))
}

func TestGeneratorAbsorbsProviderFailure(t *testing.T) {
	g := NewGenerator(failingClient{})
	resp := g.Generate(context.Background(), Request{UserPrompt: "hola"})
	require.Equal(t, FallbackReport, resp.Content)
	require.Zero(t, resp.TokensIn)
	require.Zero(t, resp.TokensOut)
}

func TestGeneratorPassesThroughSuccess(t *testing.T) {
	g := NewGenerator(echoClient{})
	resp := g.Generate(context.Background(), Request{UserPrompt: "hola"})
	require.Equal(t, "echo: hola", resp.Content)
	require.Equal(t, 10, resp.TokensIn)
	require.Equal(t, 20, resp.TokensOut)
}

func TestFallbackReportKeepsSectionStructure(t *testing.T) {
	for _, heading := range []string{
		"## Diagnóstico Ejecutivo",
		"## Fortalezas Identificadas",
		"## Áreas Críticas de Mejora",
		"## Roadmap de 90 Días",
		"## Quick Wins",
		"## Métricas de Seguimiento",
	} {
		require.True(t, strings.Contains(FallbackReport, heading), "missing %s", heading)
	}
}
