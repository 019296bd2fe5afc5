package processor

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"maturix/internal/gateway/repository/artifact"
	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
	"maturix/internal/llm"
)

type fixture struct {
	defs      *evaluation.MemoryStore
	sessions  *session.MemoryStore
	artifacts *artifact.MemoryStore
	svc       *Service
	sessionID string
}

type boomClient struct{}

func (boomClient) Name() string { return "boom" }
func (boomClient) Generate(context.Context, llm.Request) (llm.Response, error) {
	return llm.Response{}, errors.New("provider down")
}
func (boomClient) Close() error { return nil }

func newFixture(t *testing.T, client llm.Client) *fixture {
	t.Helper()
	ctx := context.Background()
	defs := evaluation.NewMemoryStore()
	sessions := session.NewMemoryStore()

	require.NoError(t, defs.PutEvaluation(ctx, evaluation.Evaluation{
		ID: "eval-1", Name: "Evaluación de Madurez Digital", Active: true,
	}))
	require.NoError(t, defs.PutDimension(ctx, evaluation.Dimension{
		ID: "dim-1", EvaluationID: "eval-1", Name: "Tecnología", Weight: 1, Order: 1,
	}))
	require.NoError(t, defs.PutQuestion(ctx, evaluation.Question{
		ID: "q-1", DimensionID: "dim-1", Text: "¿Usa herramientas digitales?",
		Type: evaluation.QuestionSingle, Weight: 1, Order: 1, Active: true,
		Options: []evaluation.Option{
			{ID: "o-1", QuestionID: "q-1", Text: "Siempre", Score: 100, Order: 1},
			{ID: "o-2", QuestionID: "q-1", Text: "Nunca", Score: 0, Order: 2},
		},
	}))
	require.NoError(t, defs.PutBand(ctx, evaluation.RecommendationBand{
		ID: "band-1", DimensionID: "dim-1", ScoreMin: 80, ScoreMax: 100,
		Level: "Líder", Description: "Mantener el liderazgo tecnológico.",
	}))

	company, err := sessions.UpsertCompany(ctx, "Acme SA", "ops@acme.test", "")
	require.NoError(t, err)
	sessionID := "sess-1"
	require.NoError(t, sessions.CreateSession(ctx, session.Session{
		ID: sessionID, CompanyID: company.ID, EvaluationID: "eval-1",
		State: session.StateCompleted, StartedAt: time.Now().UTC(),
	}))
	require.NoError(t, sessions.CreateResponse(ctx, session.Response{
		ID: "resp-1", SessionID: sessionID, QuestionID: "q-1",
		SelectedOptionIDs: []string{"o-1"},
	}))

	artifacts := artifact.NewMemoryStore()
	svc := New(sessions, defs, llm.NewGenerator(client), artifacts, log.New(log.Writer(), "test ", 0))
	return &fixture{defs: defs, sessions: sessions, artifacts: artifacts, svc: svc, sessionID: sessionID}
}

func waitForTask(t *testing.T, f *fixture, states ...string) session.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		task, ok, err := f.sessions.GetTask(context.Background(), f.sessionID)
		require.NoError(t, err)
		if ok {
			for _, s := range states {
				if task.State == s {
					return task
				}
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never reached %v, last = %+v (ok=%v)", states, task, ok)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEnqueueFinalizesSessionWithFallbackReport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, f.sessionID))
	waitForTask(t, f, session.TaskDone)

	sess, err := f.sessions.GetSession(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, session.StateFinalized, sess.State)
	require.NotNil(t, sess.GlobalScore)
	require.Equal(t, 100.0, *sess.GlobalScore)

	logEntry, ok, err := f.sessions.LatestLLMLog(ctx, f.sessionID, session.LogSuccess)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, llm.FallbackReport, logEntry.ResponseText)
	require.Zero(t, logEntry.TokensIn)
	require.Zero(t, logEntry.TokensOut)

	report, ok, err := f.sessions.LatestReport(ctx, f.sessionID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, report.HTML, "Acme SA")
	require.Contains(t, report.HTML, "Tecnología")

	mirrored, err := f.artifacts.Get(ctx, f.sessionID, ReportArtifactPath)
	require.NoError(t, err)
	require.Equal(t, report.HTML, string(mirrored))
}

func TestProviderFailureStillFinalizesWithFallback(t *testing.T) {
	f := newFixture(t, boomClient{})
	ctx := context.Background()

	require.NoError(t, f.svc.Enqueue(ctx, f.sessionID))
	waitForTask(t, f, session.TaskDone)

	sess, err := f.sessions.GetSession(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, session.StateFinalized, sess.State)

	logEntry, ok, err := f.sessions.LatestLLMLog(ctx, f.sessionID, session.LogSuccess)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, llm.FallbackReport, logEntry.ResponseText)
}

func TestMissingSessionMarksTaskFailed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	orphan := "sess-missing"
	require.NoError(t, f.svc.Enqueue(ctx, orphan))

	deadline := time.Now().Add(2 * time.Second)
	for {
		task, ok, err := f.sessions.GetTask(ctx, orphan)
		require.NoError(t, err)
		if ok && task.State == session.TaskFailed {
			require.NotEmpty(t, task.Error)
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("task for %s never failed, last = %+v", orphan, task)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecoverRelaunchesUnfinishedTasks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// Simulate a crash after intake: task recorded, run never started.
	require.NoError(t, f.sessions.PutTask(ctx, session.Task{
		SessionID: f.sessionID,
		State:     session.TaskPending,
		UpdatedAt: time.Now().UTC(),
	}))

	require.NoError(t, f.svc.Recover(ctx))
	waitForTask(t, f, session.TaskDone)

	sess, err := f.sessions.GetSession(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, session.StateFinalized, sess.State)
}

func TestStatusDerivesStagesFromRecords(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	st, err := f.svc.Status(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, session.StateCompleted, st.State)
	require.Equal(t, StageScoring, st.CurrentStage)
	require.Equal(t, 0, st.Progress)

	require.NoError(t, f.sessions.UpdateSessionState(ctx, f.sessionID, session.StateProcessing))
	require.NoError(t, f.sessions.UpsertDimensionResult(ctx, session.DimensionResult{
		SessionID: f.sessionID, DimensionID: "dim-1", Score: 100, Level: "Líder",
	}))
	st, err = f.svc.Status(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, StageAnalysis, st.CurrentStage)
	require.Equal(t, 25, st.Progress)

	require.NoError(t, f.sessions.AppendLLMLog(ctx, session.LLMLog{
		SessionID: f.sessionID, Status: session.LogSuccess, CreatedAt: time.Now().UTC(),
	}))
	st, err = f.svc.Status(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, StageReport, st.CurrentStage)
	require.Equal(t, 50, st.Progress)

	require.NoError(t, f.sessions.AppendReport(ctx, session.Report{
		SessionID: f.sessionID, Kind: "html", HTML: "<html></html>", CreatedAt: time.Now().UTC(),
	}))
	st, err = f.svc.Status(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, StageDelivery, st.CurrentStage)
	require.Equal(t, 75, st.Progress)

	require.NoError(t, f.sessions.UpdateSessionState(ctx, f.sessionID, session.StateFinalized))
	st, err = f.svc.Status(ctx, f.sessionID)
	require.NoError(t, err)
	require.Equal(t, StageFinalized, st.CurrentStage)
	require.Equal(t, 100, st.Progress)
	require.Len(t, st.Stages, 4)
}

func TestStatusMissingSessionReturnsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Status(context.Background(), "no-such-session")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestWatchersReceiveTerminalEvent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	ch := f.svc.Subscribe(f.sessionID)
	require.NoError(t, f.svc.Enqueue(ctx, f.sessionID))

	var last Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, open := <-ch:
			if !open {
				require.Equal(t, session.StateFinalized, last.State)
				require.Equal(t, 100.0, last.Progress)
				return
			}
			last = ev
		case <-timeout:
			t.Fatal("watcher channel never closed")
		}
	}
}
