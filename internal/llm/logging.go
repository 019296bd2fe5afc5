package llm

import (
	"context"
	"log"
)

// WithLogging wraps a Client and logs request sizes and errors. Pass nil to
// use log.Default().
func WithLogging(client Client, logger *log.Logger) Client {
	if logger == nil {
		logger = log.Default()
	}
	return &logging{next: client, log: logger}
}

type logging struct {
	next Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Generate(ctx context.Context, req Request) (Response, error) {
	l.log.Printf("LLM request (%s, model=%s): %d bytes", l.next.Name(), req.Model, len(req.SystemPrompt)+len(req.UserPrompt))
	resp, err := l.next.Generate(ctx, req)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", l.next.Name(), err)
		return resp, err
	}
	l.log.Printf("LLM response (%s): tokens_in=%d tokens_out=%d latency=%dms", l.next.Name(), resp.TokensIn, resp.TokensOut, resp.LatencyMs)
	return resp, nil
}
