// Package app wires configuration, stores, the processing service and the
// HTTP server into a runnable gateway.
package app

import (
	"context"
	"fmt"
	"log"

	"maturix/internal/gateway/config"
	"maturix/internal/gateway/handler"
	"maturix/internal/gateway/server"
	"maturix/internal/gateway/service/processor"
	"maturix/internal/llm"
)

type App struct {
	server    *server.Server
	processor *processor.Service
	llmClient llm.Client
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stores, err := initStores(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stores: %w", err)
	}

	// The provider client is built once here and injected; a nil client
	// makes the generator fall back to the canned report.
	client, err := llm.NewClientForProvider(context.Background(), cfg.LLM.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	if client != nil {
		client = llm.WithLogging(client, log.Default())
		log.Printf("llm: provider %s ready", client.Name())
	} else {
		log.Printf("llm: no provider configured, using fallback report")
	}

	proc := processor.New(stores.sessions, stores.defs, llm.NewGenerator(client), stores.artifacts, log.Default())
	svc := handler.NewService(stores.defs, stores.sessions, proc, stores.artifacts, log.Default())
	srv := server.New(cfg.Port, server.NewMux(svc))

	return &App{
		server:    srv,
		processor: proc,
		llmClient: client,
	}, nil
}

func (a *App) Start() error {
	// Resume any runs interrupted by a previous shutdown.
	if err := a.processor.Recover(context.Background()); err != nil {
		log.Printf("processor recovery failed: %v", err)
	}
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.llmClient != nil {
		if err := a.llmClient.Close(); err != nil {
			log.Printf("llm client close: %v", err)
		}
	}
	return a.server.Shutdown(ctx)
}
