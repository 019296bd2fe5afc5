// Package processor drives the asynchronous session pipeline: scoring,
// narrative generation with the configured LLM, report rendering and the
// state transitions the polling endpoints observe.
package processor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"maturix/internal/gateway/repository/artifact"
	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
	"maturix/internal/llm"
	"maturix/internal/prompt"
	"maturix/internal/scoring"
)

// ReportArtifactPath is where the rendered report is mirrored in the
// artifact store, relative to the session prefix.
const ReportArtifactPath = "reporte.html"

// Stage names surfaced by the status endpoint, in pipeline order.
const (
	StageScoring   = "Calculando puntajes"
	StageAnalysis  = "Generando análisis con IA"
	StageReport    = "Creando reporte"
	StageDelivery  = "Enviando por email"
	StageFinalized = "Completado"
)

// Event is a progress notification delivered to watchers of a session.
type Event struct {
	SessionID string  `json:"sesionId"`
	State     string  `json:"estado"`
	Stage     string  `json:"etapa"`
	Progress  float64 `json:"progreso"`
	Error     string  `json:"error,omitempty"`
}

// Service owns the background pipeline. One run per session at a time;
// duplicate enqueues while a run is active are ignored.
type Service struct {
	sessions  session.Store
	scorer    *scoring.Engine
	assembler *prompt.Assembler
	defs      evaluation.Store
	generator *llm.Generator
	artifacts artifact.Store
	logger    *log.Logger

	mu       sync.Mutex
	active   map[string]struct{}
	watchers map[string][]chan Event
}

func New(sessions session.Store, defs evaluation.Store, generator *llm.Generator, artifacts artifact.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		sessions:  sessions,
		scorer:    scoring.NewEngine(defs, sessions),
		assembler: prompt.NewAssembler(defs, sessions),
		defs:      defs,
		generator: generator,
		artifacts: artifacts,
		logger:    logger,
		active:    make(map[string]struct{}),
		watchers:  make(map[string][]chan Event),
	}
}

// Enqueue records a processing task for the session and launches the
// pipeline in the background. It returns immediately.
func (s *Service) Enqueue(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	s.mu.Lock()
	if _, running := s.active[sessionID]; running {
		s.mu.Unlock()
		return nil
	}
	s.active[sessionID] = struct{}{}
	s.mu.Unlock()

	if err := s.sessions.PutTask(ctx, session.Task{
		SessionID: sessionID,
		State:     session.TaskPending,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		s.clearActive(sessionID)
		return fmt.Errorf("record processing task: %w", err)
	}

	go s.run(sessionID)
	return nil
}

// Recover re-launches pipelines for tasks that never reached a terminal
// state, typically after a process restart.
func (s *Service) Recover(ctx context.Context) error {
	tasks, err := s.sessions.ListUnfinishedTasks(ctx)
	if err != nil {
		return fmt.Errorf("list unfinished tasks: %w", err)
	}
	for _, t := range tasks {
		s.mu.Lock()
		if _, running := s.active[t.SessionID]; running {
			s.mu.Unlock()
			continue
		}
		s.active[t.SessionID] = struct{}{}
		s.mu.Unlock()
		s.logger.Printf("processor: recovering session %s (task %s)", t.SessionID, t.State)
		go s.run(t.SessionID)
	}
	return nil
}

func (s *Service) run(sessionID string) {
	ctx := context.Background()
	defer s.clearActive(sessionID)

	s.setTask(ctx, sessionID, session.TaskRunning, "")

	if err := s.process(ctx, sessionID); err != nil {
		s.logger.Printf("processor: session %s failed: %v", sessionID, err)
		s.setTask(ctx, sessionID, session.TaskFailed, err.Error())
		s.failSession(ctx, sessionID, err)
		s.emit(sessionID, Event{
			SessionID: sessionID,
			State:     session.StateError,
			Stage:     StageFinalized,
			Progress:  100,
			Error:     err.Error(),
		}, true)
		return
	}

	s.setTask(ctx, sessionID, session.TaskDone, "")
	s.emit(sessionID, Event{
		SessionID: sessionID,
		State:     session.StateFinalized,
		Stage:     StageFinalized,
		Progress:  100,
	}, true)
}

func (s *Service) process(ctx context.Context, sessionID string) error {
	if err := s.sessions.UpdateSessionState(ctx, sessionID, session.StateProcessing); err != nil {
		return fmt.Errorf("mark session processing: %w", err)
	}
	s.emit(sessionID, Event{SessionID: sessionID, State: session.StateProcessing, Stage: StageScoring, Progress: 10}, false)

	if _, err := s.scorer.ComputeAllScores(ctx, sessionID); err != nil {
		return fmt.Errorf("compute scores: %w", err)
	}
	s.emit(sessionID, Event{SessionID: sessionID, State: session.StateProcessing, Stage: StageAnalysis, Progress: 40}, false)

	pctx, err := s.assembler.AssembleContext(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("assemble prompt context: %w", err)
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	cfg, err := prompt.ResolveConfig(ctx, s.defs, sess.EvaluationID)
	if err != nil {
		return fmt.Errorf("resolve llm config: %w", err)
	}

	userPrompt := prompt.BuildUserPrompt(pctx)
	out := s.generator.Generate(ctx, llm.Request{
		SystemPrompt: cfg.SystemPrompt,
		UserPrompt:   userPrompt,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
	})

	if err := s.sessions.AppendLLMLog(ctx, session.LLMLog{
		SessionID:    sessionID,
		Prompt:       userPrompt,
		ResponseText: out.Content,
		TokensIn:     out.TokensIn,
		TokensOut:    out.TokensOut,
		LatencyMs:    out.LatencyMs,
		Status:       session.LogSuccess,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("append llm log: %w", err)
	}
	s.emit(sessionID, Event{SessionID: sessionID, State: session.StateProcessing, Stage: StageReport, Progress: 70}, false)

	html := RenderReportHTML(pctx, out.Content)
	if err := s.sessions.AppendReport(ctx, session.Report{
		SessionID: sessionID,
		Kind:      "html",
		HTML:      html,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("append report: %w", err)
	}

	s.emit(sessionID, Event{SessionID: sessionID, State: session.StateProcessing, Stage: StageDelivery, Progress: 90}, false)
	if s.artifacts != nil {
		if err := s.artifacts.Put(ctx, sessionID, ReportArtifactPath, []byte(html)); err != nil {
			// The report is already persisted; losing the mirror copy is
			// not fatal for the session.
			s.logger.Printf("processor: mirror report for session %s: %v", sessionID, err)
		}
	}

	if err := s.sessions.UpdateSessionState(ctx, sessionID, session.StateFinalized); err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	return nil
}

// failSession flips the session into the error state and records a failed
// llm log entry. Both writes are best effort: the task record already
// carries the failure.
func (s *Service) failSession(ctx context.Context, sessionID string, cause error) {
	if err := s.sessions.UpdateSessionState(ctx, sessionID, session.StateError); err != nil {
		s.logger.Printf("processor: mark session %s errored: %v", sessionID, err)
	}
	if err := s.sessions.AppendLLMLog(ctx, session.LLMLog{
		SessionID:    sessionID,
		Status:       session.LogError,
		ErrorMessage: cause.Error(),
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		s.logger.Printf("processor: append error log for session %s: %v", sessionID, err)
	}
}

func (s *Service) setTask(ctx context.Context, sessionID, state, errMsg string) {
	if err := s.sessions.PutTask(ctx, session.Task{
		SessionID: sessionID,
		State:     state,
		Error:     errMsg,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Printf("processor: update task for session %s to %s: %v", sessionID, state, err)
	}
}

func (s *Service) clearActive(sessionID string) {
	s.mu.Lock()
	delete(s.active, sessionID)
	s.mu.Unlock()
}
