package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"maturix/internal/gateway/repository/artifact"
	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
	"maturix/internal/gateway/service/processor"
	"maturix/internal/llm"
)

type testEnv struct {
	defs     *evaluation.MemoryStore
	sessions *session.MemoryStore
	proc     *processor.Service
	server   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	defs := evaluation.NewMemoryStore()
	sessions := session.NewMemoryStore()
	artifacts := artifact.NewMemoryStore()

	require.NoError(t, defs.PutEvaluation(ctx, evaluation.Evaluation{
		ID: "eval-1", Name: "Evaluación de Madurez Digital", Version: "1.0", Active: true,
	}))
	require.NoError(t, defs.PutEvaluation(ctx, evaluation.Evaluation{
		ID: "eval-off", Name: "Evaluación retirada", Version: "0.9", Active: false,
	}))
	require.NoError(t, defs.PutCharacterizationField(ctx, evaluation.CharacterizationField{
		ID: "campo-sector", EvaluationID: "eval-1", Name: "sector", Label: "Sector",
		Type: "select", Options: []string{"Comercio", "Servicios"}, Required: true, Order: 1,
	}))
	require.NoError(t, defs.PutDimension(ctx, evaluation.Dimension{
		ID: "dim-1", EvaluationID: "eval-1", Name: "Tecnología", Weight: 1, Order: 1, Color: "#2563eb",
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

	proc := processor.New(sessions, defs, llm.NewGenerator(nil), artifacts, log.New(log.Writer(), "test ", 0))
	svc := NewService(defs, sessions, proc, artifacts, log.New(log.Writer(), "test ", 0))
	server := httptest.NewServer(BuildMux(svc))
	t.Cleanup(server.Close)

	return &testEnv{defs: defs, sessions: sessions, proc: proc, server: server}
}

func intakeBody() map[string]any {
	return map[string]any{
		"evaluacionId": "eval-1",
		"empresa": map[string]any{
			"nombre":   "Acme SA",
			"email":    "Ops@Acme.Test",
			"telefono": "+57 300 000 0000",
		},
		"caracterizacion": []map[string]any{
			{"campoId": "campo-sector", "valor": "Comercio"},
		},
		"respuestas": []map[string]any{
			{"preguntaId": "q-1", "opcionesSeleccionadas": []string{"o-1"}, "justificacion": "Usamos ERP en la nube"},
		},
		"metadata": map[string]any{
			"startedAt":   time.Now().UTC().Add(-5 * time.Minute).Format(time.RFC3339),
			"completedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func waitFinalized(t *testing.T, env *testEnv, sessionID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		sess, err := env.sessions.GetSession(context.Background(), sessionID)
		require.NoError(t, err)
		if sess.State == session.StateFinalized || sess.State == session.StateError {
			require.Equal(t, session.StateFinalized, sess.State)
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session %s never finalized, state = %s", sessionID, sess.State)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestIntakeAcceptsAndProcessesSession(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/cuestionario/enviar", intakeBody())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack struct {
		Status               string `json:"status"`
		SessionID            string `json:"sesionId"`
		Message              string `json:"message"`
		EstimatedTimeSeconds int    `json:"estimatedTimeSeconds"`
		PollingEndpoint      string `json:"pollingEndpoint"`
	}
	decodeJSON(t, resp, &ack)
	require.Equal(t, "accepted", ack.Status)
	require.NotEmpty(t, ack.SessionID)
	require.Equal(t, "Tu evaluación está siendo procesada", ack.Message)
	require.Equal(t, 45, ack.EstimatedTimeSeconds)
	require.Equal(t, "/api/cuestionario/"+ack.SessionID+"/estado", ack.PollingEndpoint)

	// Email is lowercase-normalized on upsert.
	sess, err := env.sessions.GetSession(context.Background(), ack.SessionID)
	require.NoError(t, err)
	company, err := env.sessions.GetCompany(context.Background(), sess.CompanyID)
	require.NoError(t, err)
	require.Equal(t, "ops@acme.test", company.Email)

	waitFinalized(t, env, ack.SessionID)
}

func TestIntakeRejectsUnknownOrInactiveEvaluation(t *testing.T) {
	env := newTestEnv(t)

	body := intakeBody()
	body["evaluacionId"] = "eval-nope"
	resp := postJSON(t, env.server.URL+"/api/cuestionario/enviar", body)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	body = intakeBody()
	body["evaluacionId"] = "eval-off"
	resp = postJSON(t, env.server.URL+"/api/cuestionario/enviar", body)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestIntakeValidatesRequiredFields(t *testing.T) {
	env := newTestEnv(t)

	body := intakeBody()
	body["empresa"] = map[string]any{"nombre": "", "email": ""}
	resp := postJSON(t, env.server.URL+"/api/cuestionario/enviar", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	body = intakeBody()
	body["respuestas"] = []map[string]any{}
	resp = postJSON(t, env.server.URL+"/api/cuestionario/enviar", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestStatusReportsPipelineStages(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/cuestionario/enviar", intakeBody())
	var ack struct {
		SessionID string `json:"sesionId"`
	}
	decodeJSON(t, resp, &ack)
	waitFinalized(t, env, ack.SessionID)

	stResp, err := http.Get(env.server.URL + "/api/cuestionario/" + ack.SessionID + "/estado")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, stResp.StatusCode)

	var st statusJSON
	decodeJSON(t, stResp, &st)
	require.Equal(t, session.StateFinalized, st.State)
	require.Equal(t, 100, st.Progress)
	require.Equal(t, "Completado", st.CurrentStage)
	require.Len(t, st.Stages, 4)
	for _, stage := range st.Stages {
		require.True(t, stage.Completed, "stage %s", stage.Name)
	}
}

func TestStatusUnknownSessionIs404(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/api/cuestionario/no-such/estado")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestResultsNotReadyReturns400WithState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	company, err := env.sessions.UpsertCompany(ctx, "Acme SA", "ops@acme.test", "")
	require.NoError(t, err)
	require.NoError(t, env.sessions.CreateSession(ctx, session.Session{
		ID: "sess-busy", CompanyID: company.ID, EvaluationID: "eval-1",
		State: session.StateProcessing,
	}))

	resp, err := http.Get(env.server.URL + "/api/cuestionario/sess-busy/resultados")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
		State string `json:"estado"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, "La evaluación aún no ha sido procesada", body.Error)
	require.Equal(t, session.StateProcessing, body.State)
}

func TestResultsReturnScorecardAndAnalysis(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/cuestionario/enviar", intakeBody())
	var ack struct {
		SessionID string `json:"sesionId"`
	}
	decodeJSON(t, resp, &ack)
	waitFinalized(t, env, ack.SessionID)

	rResp, err := http.Get(env.server.URL + "/api/cuestionario/" + ack.SessionID + "/resultados")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rResp.StatusCode)

	var out resultsJSON
	decodeJSON(t, rResp, &out)
	require.Equal(t, session.StateFinalized, out.State)
	require.Equal(t, 100.0, out.Results.GlobalScore)
	require.Equal(t, "Líder", out.Results.GlobalLevel)
	require.Len(t, out.Results.Dimensions, 1)
	require.Equal(t, "Tecnología", out.Results.Dimensions[0].Name)
	require.Equal(t, 100.0, out.Results.Dimensions[0].Score)
	require.Equal(t, "Líder", out.Results.Dimensions[0].Level)
	require.Equal(t, "Mantener el liderazgo tecnológico.", out.Results.Dimensions[0].Recommendation)
	require.Equal(t, llm.FallbackReport, out.Analysis)
	require.NotNil(t, out.Report)
	require.Equal(t, "/api/cuestionario/"+ack.SessionID+"/reporte", out.Report.URL)
	require.Equal(t, "ops@acme.test", out.Report.SentTo)
}

func TestReportServesLatestHTML(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/cuestionario/enviar", intakeBody())
	var ack struct {
		SessionID string `json:"sesionId"`
	}
	decodeJSON(t, resp, &ack)
	waitFinalized(t, env, ack.SessionID)

	rResp, err := http.Get(env.server.URL + "/api/cuestionario/" + ack.SessionID + "/reporte")
	require.NoError(t, err)
	defer rResp.Body.Close()
	require.Equal(t, http.StatusOK, rResp.StatusCode)
	require.Contains(t, rResp.Header.Get("Content-Type"), "text/html")
}

func TestEvaluationPayloadShape(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/evaluaciones/eval-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out evaluationJSON
	decodeJSON(t, resp, &out)
	require.Equal(t, "eval-1", out.Evaluation.ID)
	require.Equal(t, "Evaluación de Madurez Digital", out.Evaluation.Name)
	require.Len(t, out.Characterization.Fields, 1)
	require.Len(t, out.Dimensions, 1)
	require.Len(t, out.Dimensions[0].Questions, 1)
	require.Len(t, out.Dimensions[0].Questions[0].Options, 2)
	require.Equal(t, 1, out.Metadata.TotalQuestions)
	require.Equal(t, 1, out.Metadata.TotalDimensions)
	require.Equal(t, 1, out.Metadata.EstimatedMinutes)

	offResp, err := http.Get(env.server.URL + "/api/evaluaciones/eval-off")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, offResp.StatusCode)
	offResp.Body.Close()
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/cuestionario/enviar", intakeBody())
	var ack struct {
		SessionID string `json:"sesionId"`
	}
	decodeJSON(t, resp, &ack)
	waitFinalized(t, env, ack.SessionID)

	sResp, err := http.Get(env.server.URL + "/api/admin/sesiones")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, sResp.StatusCode)
	var listed struct {
		Sessions []adminSessionJSON `json:"sesiones"`
		Total    int                `json:"total"`
	}
	decodeJSON(t, sResp, &listed)
	require.Equal(t, 1, listed.Total)
	require.Equal(t, "Acme SA", listed.Sessions[0].CompanyName)
	require.Equal(t, session.StateFinalized, listed.Sessions[0].State)
	require.NotNil(t, listed.Sessions[0].GlobalScore)

	stResp, err := http.Get(env.server.URL + "/api/admin/estadisticas")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, stResp.StatusCode)
	var stats struct {
		Total  int            `json:"totalSesiones"`
		By     map[string]int `json:"sesionesPorEstado"`
		AvgGlb float64        `json:"puntajeGlobalPromedio"`
	}
	decodeJSON(t, stResp, &stats)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.By[session.StateFinalized])
	require.Equal(t, 100.0, stats.AvgGlb)
}
