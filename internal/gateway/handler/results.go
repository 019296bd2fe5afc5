package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"maturix/internal/gateway/repository/session"
	"maturix/internal/gateway/service/processor"
	"maturix/internal/scoring"
)

type dimensionResultJSON struct {
	Name           string  `json:"nombre"`
	Score          float64 `json:"puntaje"`
	Level          string  `json:"nivel"`
	Color          string  `json:"color,omitempty"`
	Recommendation string  `json:"recomendacion,omitempty"`
}

type reportJSON struct {
	URL    string `json:"url"`
	SentTo string `json:"enviadoA"`
	SentAt string `json:"enviadoAt"`
}

type resultsJSON struct {
	SessionID string `json:"sesionId"`
	State     string `json:"estado"`
	Results   struct {
		GlobalScore float64               `json:"puntajeGlobal"`
		GlobalLevel string                `json:"nivelGlobal"`
		Dimensions  []dimensionResultJSON `json:"dimensiones"`
	} `json:"resultados"`
	Report   *reportJSON `json:"reporte,omitempty"`
	Analysis string      `json:"analisisIa,omitempty"`
}

// presignedStore is satisfied by the S3 artifact backend, which can hand out
// temporary download links.
type presignedStore interface {
	GetURL(ctx context.Context, sessionID, path string) (string, error)
}

// HandleResults returns the final scorecard and analysis of a finalized
// session. Sessions still in flight get 400 with their current state.
func (s *Service) HandleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.PathValue("sesionId"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sesionId es requerido")
		return
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sesión no encontrada")
			return
		}
		s.logger.Printf("results: session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if sess.State != session.StateFinalized {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "La evaluación aún no ha sido procesada",
			"estado": sess.State,
		})
		return
	}

	globalScore := 0.0
	if sess.GlobalScore != nil {
		globalScore = *sess.GlobalScore
	}

	out := resultsJSON{SessionID: sessionID, State: sess.State}
	out.Results.GlobalScore = globalScore
	out.Results.GlobalLevel = scoring.GlobalLevel(globalScore)

	dims, err := s.dimensionResults(ctx, sess)
	if err != nil {
		s.logger.Printf("results: session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	out.Results.Dimensions = dims

	if _, ok, err := s.sessions.LatestReport(ctx, sessionID); err != nil {
		s.logger.Printf("results: latest report for %s: %v", sessionID, err)
	} else if ok {
		company, cerr := s.sessions.GetCompany(ctx, sess.CompanyID)
		if cerr != nil {
			s.logger.Printf("results: company %s: %v", sess.CompanyID, cerr)
		}
		out.Report = &reportJSON{
			URL:    s.reportURL(ctx, sessionID),
			SentTo: company.Email,
		}
	}

	if logEntry, ok, err := s.sessions.LatestLLMLog(ctx, sessionID, session.LogSuccess); err != nil {
		s.logger.Printf("results: latest llm log for %s: %v", sessionID, err)
	} else if ok {
		out.Analysis = logEntry.ResponseText
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Service) dimensionResults(ctx context.Context, sess session.Session) ([]dimensionResultJSON, error) {
	results, err := s.sessions.ListDimensionResults(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list dimension results: %w", err)
	}
	dims, err := s.defs.ListDimensions(ctx, sess.EvaluationID)
	if err != nil {
		return nil, fmt.Errorf("list dimensions: %w", err)
	}

	out := make([]dimensionResultJSON, 0, len(results))
	for _, d := range dims {
		for _, r := range results {
			if r.DimensionID != d.ID {
				continue
			}
			entry := dimensionResultJSON{
				Name:  d.Name,
				Score: r.Score,
				Level: r.Level,
				Color: d.Color,
			}
			if entry.Level == "" {
				entry.Level = scoring.LevelUnclassified
			}
			if r.BandID != "" {
				bands, berr := s.defs.ListBands(ctx, d.ID)
				if berr != nil {
					return nil, fmt.Errorf("list bands for %s: %w", d.ID, berr)
				}
				for _, b := range bands {
					if b.ID == r.BandID {
						entry.Recommendation = b.Description
						break
					}
				}
			}
			out = append(out, entry)
		}
	}
	return out, nil
}

// reportURL prefers a presigned object-store link and falls back to the
// gateway's own report route.
func (s *Service) reportURL(ctx context.Context, sessionID string) string {
	if ps, ok := s.artifacts.(presignedStore); ok {
		if url, err := ps.GetURL(ctx, sessionID, processor.ReportArtifactPath); err == nil && url != "" {
			return url
		}
	}
	return fmt.Sprintf("/api/cuestionario/%s/reporte", sessionID)
}

// HandleReport serves the latest rendered HTML report of a session.
func (s *Service) HandleReport(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("sesionId"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sesionId es requerido")
		return
	}

	report, ok, err := s.sessions.LatestReport(r.Context(), sessionID)
	if err != nil {
		s.logger.Printf("report: session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Reporte no encontrado")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.HTML))
}
