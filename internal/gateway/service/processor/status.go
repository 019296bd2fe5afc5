package processor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"maturix/internal/gateway/repository/session"
)

// StageStatus is one pipeline stage with its completion flag.
type StageStatus struct {
	Name      string `json:"nombre"`
	Completed bool   `json:"completada"`
}

// Status is the pipeline position of a session as seen by the status
// endpoint.
type Status struct {
	SessionID    string
	State        string
	Progress     int
	CurrentStage string
	Stages       []StageStatus
	Error        string
}

// Status derives the session's stage breakdown from its persisted records
// rather than from in-memory run state, so it stays correct across restarts.
// Progress is the share of completed stages; the current stage is the first
// incomplete one.
func (s *Service) Status(ctx context.Context, sessionID string) (Status, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Status{}, fmt.Errorf("session %s: %w", sessionID, err)
	}

	results, err := s.sessions.ListDimensionResults(ctx, sessionID)
	if err != nil {
		return Status{}, fmt.Errorf("list dimension results: %w", err)
	}
	lastLog, hasLog, err := s.sessions.LatestLLMLog(ctx, sessionID, "")
	if err != nil {
		return Status{}, fmt.Errorf("latest llm log: %w", err)
	}
	_, hasReport, err := s.sessions.LatestReport(ctx, sessionID)
	if err != nil {
		return Status{}, fmt.Errorf("latest report: %w", err)
	}

	stages := []StageStatus{
		{Name: StageScoring, Completed: len(results) > 0},
		{Name: StageAnalysis, Completed: hasLog && lastLog.Status == session.LogSuccess},
		{Name: StageReport, Completed: hasReport},
		{Name: StageDelivery, Completed: sess.State == session.StateFinalized},
	}

	completed := 0
	current := StageFinalized
	for _, st := range stages {
		if st.Completed {
			completed++
		} else if current == StageFinalized {
			current = st.Name
		}
	}

	out := Status{
		SessionID:    sessionID,
		State:        sess.State,
		Progress:     int(math.Round(float64(completed) / float64(len(stages)) * 100)),
		CurrentStage: current,
		Stages:       stages,
	}
	if sess.State == session.StateError {
		if task, ok, terr := s.sessions.GetTask(ctx, sessionID); terr == nil && ok {
			out.Error = task.Error
		}
	}
	return out, nil
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, session.ErrNotFound)
}
