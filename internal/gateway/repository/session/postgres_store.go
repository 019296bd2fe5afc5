package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists sessions and run artifacts in Postgres.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreDB wraps an already-open handle; the caller owns its lifecycle.
func NewPostgresStoreDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL REFERENCES companies (id),
  evaluation_id TEXT NOT NULL,
  state TEXT NOT NULL,
  global_score DOUBLE PRECISION,
  started_at TIMESTAMP WITH TIME ZONE,
  completed_at TIMESTAMP WITH TIME ZONE,
  ip_address TEXT NOT NULL DEFAULT '',
  user_agent TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_sessions_company ON sessions (company_id);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES sessions (id),
  question_id TEXT NOT NULL,
  selected_option_ids JSONB NOT NULL DEFAULT '[]',
  justification TEXT NOT NULL DEFAULT '',
  computed_score DOUBLE PRECISION,
  UNIQUE (session_id, question_id)
);
CREATE INDEX IF NOT EXISTS idx_responses_session ON responses (session_id);

CREATE TABLE IF NOT EXISTS dimension_results (
  session_id TEXT NOT NULL REFERENCES sessions (id),
  dimension_id TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL,
  level TEXT NOT NULL,
  band_id TEXT NOT NULL DEFAULT '',
  UNIQUE (session_id, dimension_id)
);
CREATE INDEX IF NOT EXISTS idx_dimension_results_session ON dimension_results (session_id);

CREATE TABLE IF NOT EXISTS characterization_values (
  company_id TEXT NOT NULL REFERENCES companies (id),
  evaluation_id TEXT NOT NULL,
  field_id TEXT NOT NULL,
  value TEXT NOT NULL DEFAULT '',
  UNIQUE (company_id, field_id)
);

CREATE TABLE IF NOT EXISTS llm_logs (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES sessions (id),
  prompt TEXT NOT NULL DEFAULT '',
  response_text TEXT NOT NULL DEFAULT '',
  tokens_in INTEGER NOT NULL DEFAULT 0,
  tokens_out INTEGER NOT NULL DEFAULT 0,
  latency_ms BIGINT NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  error_message TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_llm_logs_session ON llm_logs (session_id);

CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES sessions (id),
  kind TEXT NOT NULL DEFAULT 'html',
  html TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_reports_session ON reports (session_id);

CREATE TABLE IF NOT EXISTS processing_tasks (
  session_id TEXT PRIMARY KEY REFERENCES sessions (id),
  state TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, name, email, phone string) (Company, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Company{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx, `
INSERT INTO companies (id, name, email, phone)
VALUES ($1,$2,$3,$4)
ON CONFLICT (email)
DO UPDATE SET name=EXCLUDED.name
RETURNING id, name, email, phone, created_at`,
		uuid.NewString(), name, email, phone)
	var c Company
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
		return Company{}, err
	}
	return c, nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (Company, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Company{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, name, email, phone, created_at FROM companies WHERE id = $1`, id)
	var c Company
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess Session) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, company_id, evaluation_id, state, global_score, started_at, completed_at, ip_address, user_agent)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sess.ID, sess.CompanyID, sess.EvaluationID, sess.State, sess.GlobalScore,
		nullTime(sess.StartedAt), nullTime(sess.CompletedAt), sess.IPAddress, sess.UserAgent)
	return err
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Session{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, company_id, evaluation_id, state, global_score, started_at, completed_at, ip_address, user_agent, created_at
FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (s *PostgresStore) UpdateSessionState(ctx context.Context, id, state string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET state = $2 WHERE id = $1`, id, state)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetSessionGlobalScore(ctx context.Context, id string, score float64) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET global_score = $2 WHERE id = $1`, id, score)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, company_id, evaluation_id, state, global_score, started_at, completed_at, ip_address, user_agent, created_at
FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateResponse(ctx context.Context, r Response) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	selected, err := json.Marshal(r.SelectedOptionIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO responses (id, session_id, question_id, selected_option_ids, justification, computed_score)
VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.SessionID, r.QuestionID, selected, r.Justification, r.ComputedScore)
	return err
}

func (s *PostgresStore) ListResponses(ctx context.Context, sessionID string) ([]Response, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, session_id, question_id, selected_option_ids, justification, computed_score
FROM responses WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Response
	for rows.Next() {
		var r Response
		var selected []byte
		if err := rows.Scan(&r.ID, &r.SessionID, &r.QuestionID, &selected, &r.Justification, &r.ComputedScore); err != nil {
			return nil, err
		}
		if len(selected) > 0 {
			if err := json.Unmarshal(selected, &r.SelectedOptionIDs); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetResponseScore(ctx context.Context, responseID string, score float64) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE responses SET computed_score = $2 WHERE id = $1`, responseID, score)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpsertDimensionResult(ctx context.Context, r DimensionResult) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO dimension_results (session_id, dimension_id, score, level, band_id)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (session_id, dimension_id)
DO UPDATE SET score=EXCLUDED.score, level=EXCLUDED.level, band_id=EXCLUDED.band_id`,
		r.SessionID, r.DimensionID, r.Score, r.Level, r.BandID)
	return err
}

func (s *PostgresStore) ListDimensionResults(ctx context.Context, sessionID string) ([]DimensionResult, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, dimension_id, score, level, band_id
FROM dimension_results WHERE session_id = $1 ORDER BY dimension_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DimensionResult
	for rows.Next() {
		var r DimensionResult
		if err := rows.Scan(&r.SessionID, &r.DimensionID, &r.Score, &r.Level, &r.BandID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertCharacterizationValue(ctx context.Context, v CharacterizationValue) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO characterization_values (company_id, evaluation_id, field_id, value)
VALUES ($1,$2,$3,$4)
ON CONFLICT (company_id, field_id)
DO UPDATE SET value=EXCLUDED.value, evaluation_id=EXCLUDED.evaluation_id`,
		v.CompanyID, v.EvaluationID, v.FieldID, v.Value)
	return err
}

func (s *PostgresStore) ListCharacterizationValues(ctx context.Context, companyID string) ([]CharacterizationValue, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT company_id, evaluation_id, field_id, value
FROM characterization_values WHERE company_id = $1 ORDER BY field_id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CharacterizationValue
	for rows.Next() {
		var v CharacterizationValue
		if err := rows.Scan(&v.CompanyID, &v.EvaluationID, &v.FieldID, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendLLMLog(ctx context.Context, l LLMLog) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO llm_logs (id, session_id, prompt, response_text, tokens_in, tokens_out, latency_ms, status, error_message)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		l.ID, l.SessionID, l.Prompt, l.ResponseText, l.TokensIn, l.TokensOut, l.LatencyMs, l.Status, l.ErrorMessage)
	return err
}

func (s *PostgresStore) LatestLLMLog(ctx context.Context, sessionID, status string) (LLMLog, bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return LLMLog{}, false, err
	}
	q := `SELECT id, session_id, prompt, response_text, tokens_in, tokens_out, latency_ms, status, error_message, created_at
FROM llm_logs WHERE session_id = $1`
	args := []any{sessionID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, q, args...)
	var l LLMLog
	if err := row.Scan(&l.ID, &l.SessionID, &l.Prompt, &l.ResponseText, &l.TokensIn, &l.TokensOut, &l.LatencyMs, &l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LLMLog{}, false, nil
		}
		return LLMLog{}, false, err
	}
	return l, true, nil
}

func (s *PostgresStore) AppendReport(ctx context.Context, r Report) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO reports (id, session_id, kind, html)
VALUES ($1,$2,$3,$4)`,
		r.ID, r.SessionID, r.Kind, r.HTML)
	return err
}

func (s *PostgresStore) LatestReport(ctx context.Context, sessionID string) (Report, bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Report{}, false, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, session_id, kind, html, created_at
FROM reports WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1`, sessionID)
	var r Report
	if err := row.Scan(&r.ID, &r.SessionID, &r.Kind, &r.HTML, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, false, nil
		}
		return Report{}, false, err
	}
	return r, true, nil
}

func (s *PostgresStore) PutTask(ctx context.Context, t Task) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO processing_tasks (session_id, state, error, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (session_id)
DO UPDATE SET state=EXCLUDED.state, error=EXCLUDED.error, updated_at=NOW()`,
		t.SessionID, t.State, t.Error)
	return err
}

func (s *PostgresStore) GetTask(ctx context.Context, sessionID string) (Task, bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Task{}, false, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT session_id, state, error, updated_at
FROM processing_tasks WHERE session_id = $1`, sessionID)
	var t Task
	if err := row.Scan(&t.SessionID, &t.State, &t.Error, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, false, nil
		}
		return Task{}, false, err
	}
	return t, true, nil
}

func (s *PostgresStore) ListUnfinishedTasks(ctx context.Context) ([]Task, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, state, error, updated_at
FROM processing_tasks WHERE state IN ('pending','running') ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.SessionID, &t.State, &t.Error, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var started, completed, created sql.NullTime
	err := row.Scan(&sess.ID, &sess.CompanyID, &sess.EvaluationID, &sess.State,
		&sess.GlobalScore, &started, &completed, &sess.IPAddress, &sess.UserAgent, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	sess.StartedAt = started.Time
	sess.CompletedAt = completed.Time
	sess.CreatedAt = created.Time
	return sess, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
