package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
)

type fixture struct {
	defs    *evaluation.MemoryStore
	records *session.MemoryStore
	engine  *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	defs := evaluation.NewMemoryStore()
	records := session.NewMemoryStore()
	return &fixture{defs: defs, records: records, engine: NewEngine(defs, records)}
}

func (f *fixture) seedEvaluation(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.defs.PutEvaluation(ctx, evaluation.Evaluation{ID: "eval-1", Name: "Madurez Digital", Version: "1.0", Active: true}))
}

func (f *fixture) seedDimension(t *testing.T, id string, weight float64, order int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.defs.PutDimension(ctx, evaluation.Dimension{
		ID: id, EvaluationID: "eval-1", Name: "Dim " + id, Weight: weight, Order: order,
	}))
	levels := []struct {
		min, max float64
		level    string
	}{
		{0, 20, "Incipiente"},
		{20, 40, "Inicial"},
		{40, 60, "En Desarrollo"},
		{60, 80, "Maduro"},
		{80, 100, "Líder"},
	}
	for i, l := range levels {
		// Non-overlapping inclusive ranges: shift the lower edge of every band
		// after the first so boundary scores resolve to exactly one band.
		min := l.min
		if i > 0 {
			min += 0.01
		}
		require.NoError(t, f.defs.PutBand(ctx, evaluation.RecommendationBand{
			ID: fmt.Sprintf("band-%s-%d", id, i), DimensionID: id,
			ScoreMin: min, ScoreMax: l.max, Level: l.level,
		}))
	}
}

func (f *fixture) seedQuestion(t *testing.T, id, dimensionID, qType string, weight float64, scores ...float64) []string {
	t.Helper()
	q := evaluation.Question{
		ID: id, DimensionID: dimensionID, Text: "q " + id,
		Type: qType, Weight: weight, Active: true,
	}
	var optionIDs []string
	for i, sc := range scores {
		oid := fmt.Sprintf("%s-opt-%d", id, i)
		q.Options = append(q.Options, evaluation.Option{ID: oid, QuestionID: id, Score: sc, Order: i})
		optionIDs = append(optionIDs, oid)
	}
	require.NoError(t, f.defs.PutQuestion(context.Background(), q))
	return optionIDs
}

func (f *fixture) seedSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	c, err := f.records.UpsertCompany(ctx, "Acme", "acme@example.com", "")
	require.NoError(t, err)
	sess := session.Session{ID: "sess-1", CompanyID: c.ID, EvaluationID: "eval-1", State: session.StateProcessing}
	require.NoError(t, f.records.CreateSession(ctx, sess))
	return sess.ID
}

func (f *fixture) answer(t *testing.T, sessionID, questionID string, optionIDs ...string) {
	t.Helper()
	require.NoError(t, f.records.CreateResponse(context.Background(), session.Response{
		SessionID: sessionID, QuestionID: questionID, SelectedOptionIDs: optionIDs,
	}))
}

func TestSingleQuestionTopOptionScoresHundred(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)
	opts := f.seedQuestion(t, "q1", "dim-1", evaluation.QuestionSingle, 1.0, 0, 50, 100)
	sid := f.seedSession(t)
	f.answer(t, sid, "q1", opts[2])

	summary, err := f.engine.ComputeAllScores(context.Background(), sid)
	require.NoError(t, err)
	require.Equal(t, 100.0, summary.GlobalScore)
	require.Len(t, summary.Dimensions, 1)
	require.Equal(t, 100.0, summary.Dimensions[0].Score)
	require.Equal(t, "Líder", summary.Dimensions[0].Level)
}

func TestMultipleQuestionAveragesSelectedOptions(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)
	opts := f.seedQuestion(t, "q1", "dim-1", evaluation.QuestionMultiple, 1.0, 0, 40, 80)
	sid := f.seedSession(t)
	f.answer(t, sid, "q1", opts[1], opts[2])

	score, err := f.engine.ComputeDimensionScore(context.Background(), sid, "dim-1")
	require.NoError(t, err)
	require.Equal(t, 60.0, score.Score)

	// The per-question score is written back onto the response.
	responses, err := f.records.ListResponses(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].ComputedScore)
	require.Equal(t, 60.0, *responses[0].ComputedScore)
}

func TestGlobalScoreWeightsDimensions(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)
	f.seedDimension(t, "dim-2", 3.0, 1)
	o1 := f.seedQuestion(t, "q1", "dim-1", evaluation.QuestionSingle, 1.0, 0, 100)
	o2 := f.seedQuestion(t, "q2", "dim-2", evaluation.QuestionSingle, 1.0, 0, 100)
	sid := f.seedSession(t)
	f.answer(t, sid, "q1", o1[1]) // 100
	f.answer(t, sid, "q2", o2[0]) // 0

	summary, err := f.engine.ComputeAllScores(context.Background(), sid)
	require.NoError(t, err)
	// (100*1 + 0*3) / (1+3)
	require.Equal(t, 25.0, summary.GlobalScore)

	sess, err := f.records.GetSession(context.Background(), sid)
	require.NoError(t, err)
	require.NotNil(t, sess.GlobalScore)
	require.Equal(t, 25.0, *sess.GlobalScore)
}

func TestUnansweredQuestionsAreExcluded(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)
	opts := f.seedQuestion(t, "q1", "dim-1", evaluation.QuestionSingle, 1.0, 0, 80)
	f.seedQuestion(t, "q2", "dim-1", evaluation.QuestionSingle, 5.0, 0, 100)
	sid := f.seedSession(t)
	f.answer(t, sid, "q1", opts[1])

	// q2 is unanswered: it contributes to neither sum, so q1 alone decides.
	score, err := f.engine.ComputeDimensionScore(context.Background(), sid, "dim-1")
	require.NoError(t, err)
	require.Equal(t, 80.0, score.Score)
}

func TestAllQuestionsUnansweredYieldsZero(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)
	f.seedQuestion(t, "q1", "dim-1", evaluation.QuestionSingle, 1.0, 0, 100)
	sid := f.seedSession(t)

	score, err := f.engine.ComputeDimensionScore(context.Background(), sid, "dim-1")
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.Equal(t, "Incipiente", score.Level)
}

func TestUnknownSelectedOptionScoresZero(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)
	f.seedQuestion(t, "q1", "dim-1", evaluation.QuestionSingle, 1.0, 0, 100)
	sid := f.seedSession(t)
	f.answer(t, sid, "q1", "no-such-option")

	score, err := f.engine.ComputeDimensionScore(context.Background(), sid, "dim-1")
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
}

func TestComputeAllScoresIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)
	f.seedDimension(t, "dim-2", 1.0, 1)
	o1 := f.seedQuestion(t, "q1", "dim-1", evaluation.QuestionSingle, 1.0, 0, 50, 100)
	o2 := f.seedQuestion(t, "q2", "dim-2", evaluation.QuestionSingle, 1.0, 0, 50, 100)
	sid := f.seedSession(t)
	f.answer(t, sid, "q1", o1[1])
	f.answer(t, sid, "q2", o2[2])

	first, err := f.engine.ComputeAllScores(context.Background(), sid)
	require.NoError(t, err)
	second, err := f.engine.ComputeAllScores(context.Background(), sid)
	require.NoError(t, err)
	require.Equal(t, first, second)

	results, err := f.records.ListDimensionResults(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestBandBoundariesResolveDeterministically(t *testing.T) {
	f := newFixture(t)
	f.seedEvaluation(t)
	f.seedDimension(t, "dim-1", 1.0, 0)

	bands, err := f.defs.ListBands(context.Background(), "dim-1")
	require.NoError(t, err)
	for _, score := range []float64{20, 40, 60, 80} {
		var matches int
		for _, b := range bands {
			if b.Contains(score) {
				matches++
			}
		}
		require.Equalf(t, 1, matches, "score %v must match exactly one band", score)
	}
}

func TestMissingSessionFails(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ComputeAllScores(context.Background(), "nope")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestGlobalLevelThresholds(t *testing.T) {
	cases := map[float64]string{
		0:     "Incipiente",
		19.99: "Incipiente",
		20:    "Inicial",
		40:    "En Desarrollo",
		60:    "Maduro",
		79.99: "Maduro",
		80:    "Líder",
		100:   "Líder",
	}
	for score, want := range cases {
		require.Equal(t, want, GlobalLevel(score), "score %v", score)
	}
}
