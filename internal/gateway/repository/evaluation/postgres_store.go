package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists questionnaire definitions in Postgres via database/sql.
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
CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  version TEXT NOT NULL DEFAULT '1.0',
  active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS characterization_fields (
  id TEXT PRIMARY KEY,
  evaluation_id TEXT NOT NULL REFERENCES evaluations (id),
  name TEXT NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  field_type TEXT NOT NULL DEFAULT 'text',
  options JSONB NOT NULL DEFAULT '[]',
  required BOOLEAN NOT NULL DEFAULT FALSE,
  ord INTEGER NOT NULL DEFAULT 0,
  placeholder TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_characterization_fields_evaluation ON characterization_fields (evaluation_id);

CREATE TABLE IF NOT EXISTS dimensions (
  id TEXT PRIMARY KEY,
  evaluation_id TEXT NOT NULL REFERENCES evaluations (id),
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  weight DOUBLE PRECISION NOT NULL DEFAULT 1.0,
  ord INTEGER NOT NULL DEFAULT 0,
  icon TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_dimensions_evaluation ON dimensions (evaluation_id);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  dimension_id TEXT NOT NULL REFERENCES dimensions (id),
  text TEXT NOT NULL,
  question_type TEXT NOT NULL DEFAULT 'single',
  weight DOUBLE PRECISION NOT NULL DEFAULT 1.0,
  ord INTEGER NOT NULL DEFAULT 0,
  requires_justification BOOLEAN NOT NULL DEFAULT FALSE,
  justification_mandatory BOOLEAN NOT NULL DEFAULT FALSE,
  active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_questions_dimension ON questions (dimension_id);

CREATE TABLE IF NOT EXISTS question_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES questions (id),
  text TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  ord INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_question_options_question ON question_options (question_id);

CREATE TABLE IF NOT EXISTS recommendation_bands (
  id TEXT PRIMARY KEY,
  dimension_id TEXT NOT NULL REFERENCES dimensions (id),
  score_min DOUBLE PRECISION NOT NULL,
  score_max DOUBLE PRECISION NOT NULL,
  level TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  suggested_actions TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_recommendation_bands_dimension ON recommendation_bands (dimension_id);

CREATE TABLE IF NOT EXISTS llm_configs (
  evaluation_id TEXT PRIMARY KEY REFERENCES evaluations (id),
  provider TEXT NOT NULL,
  model TEXT NOT NULL,
  system_prompt TEXT NOT NULL DEFAULT '',
  temperature DOUBLE PRECISION NOT NULL DEFAULT 0.7,
  max_tokens INTEGER NOT NULL DEFAULT 4000
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Evaluation{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, name, description, version, active
FROM evaluations WHERE id = $1`, strings.TrimSpace(id))
	var e Evaluation
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Version, &e.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Evaluation{}, ErrNotFound
		}
		return Evaluation{}, err
	}
	return e, nil
}

func (s *PostgresStore) ListCharacterizationFields(ctx context.Context, evaluationID string) ([]CharacterizationField, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, evaluation_id, name, label, field_type, options, required, ord, placeholder
FROM characterization_fields WHERE evaluation_id = $1 ORDER BY ord`, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CharacterizationField
	for rows.Next() {
		var f CharacterizationField
		var opts []byte
		if err := rows.Scan(&f.ID, &f.EvaluationID, &f.Name, &f.Label, &f.Type, &opts, &f.Required, &f.Order, &f.Placeholder); err != nil {
			return nil, err
		}
		if len(opts) > 0 {
			if err := json.Unmarshal(opts, &f.Options); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListDimensions(ctx context.Context, evaluationID string) ([]Dimension, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, evaluation_id, name, description, weight, ord, icon, color
FROM dimensions WHERE evaluation_id = $1 ORDER BY ord`, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Dimension
	for rows.Next() {
		var d Dimension
		if err := rows.Scan(&d.ID, &d.EvaluationID, &d.Name, &d.Description, &d.Weight, &d.Order, &d.Icon, &d.Color); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListQuestions(ctx context.Context, dimensionID string) ([]Question, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, dimension_id, text, question_type, weight, ord, requires_justification, justification_mandatory, active
FROM questions WHERE dimension_id = $1 AND active ORDER BY ord`, dimensionID)
	if err != nil {
		return nil, err
	}
	var out []Question
	byID := make(map[string]int)
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.DimensionID, &q.Text, &q.Type, &q.Weight, &q.Order, &q.RequiresJustification, &q.JustificationMandatory, &q.Active); err != nil {
			rows.Close()
			return nil, err
		}
		byID[q.ID] = len(out)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	optRows, err := s.db.QueryContext(ctx, `SELECT o.id, o.question_id, o.text, o.score, o.ord
FROM question_options o
JOIN questions q ON q.id = o.question_id
WHERE q.dimension_id = $1
ORDER BY o.ord`, dimensionID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()
	for optRows.Next() {
		var o Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Score, &o.Order); err != nil {
			return nil, err
		}
		if i, ok := byID[o.QuestionID]; ok {
			out[i].Options = append(out[i].Options, o)
		}
	}
	return out, optRows.Err()
}

func (s *PostgresStore) ListBands(ctx context.Context, dimensionID string) ([]RecommendationBand, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, dimension_id, score_min, score_max, level, title, description, suggested_actions
FROM recommendation_bands WHERE dimension_id = $1 ORDER BY score_min`, dimensionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecommendationBand
	for rows.Next() {
		var b RecommendationBand
		if err := rows.Scan(&b.ID, &b.DimensionID, &b.ScoreMin, &b.ScoreMax, &b.Level, &b.Title, &b.Description, &b.SuggestedActions); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetLLMConfig(ctx context.Context, evaluationID string) (LLMConfig, bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return LLMConfig{}, false, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT evaluation_id, provider, model, system_prompt, temperature, max_tokens
FROM llm_configs WHERE evaluation_id = $1`, evaluationID)
	var c LLMConfig
	if err := row.Scan(&c.EvaluationID, &c.Provider, &c.Model, &c.SystemPrompt, &c.Temperature, &c.MaxTokens); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LLMConfig{}, false, nil
		}
		return LLMConfig{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) PutEvaluation(ctx context.Context, e Evaluation) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO evaluations (id, name, description, version, active)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id)
DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description,
  version=EXCLUDED.version, active=EXCLUDED.active`,
		e.ID, e.Name, e.Description, e.Version, e.Active)
	return err
}

func (s *PostgresStore) PutCharacterizationField(ctx context.Context, f CharacterizationField) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	opts, err := json.Marshal(f.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO characterization_fields (id, evaluation_id, name, label, field_type, options, required, ord, placeholder)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id)
DO UPDATE SET name=EXCLUDED.name, label=EXCLUDED.label, field_type=EXCLUDED.field_type,
  options=EXCLUDED.options, required=EXCLUDED.required, ord=EXCLUDED.ord,
  placeholder=EXCLUDED.placeholder`,
		f.ID, f.EvaluationID, f.Name, f.Label, f.Type, opts, f.Required, f.Order, f.Placeholder)
	return err
}

func (s *PostgresStore) PutDimension(ctx context.Context, d Dimension) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO dimensions (id, evaluation_id, name, description, weight, ord, icon, color)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id)
DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description,
  weight=EXCLUDED.weight, ord=EXCLUDED.ord, icon=EXCLUDED.icon, color=EXCLUDED.color`,
		d.ID, d.EvaluationID, d.Name, d.Description, d.Weight, d.Order, d.Icon, d.Color)
	return err
}

func (s *PostgresStore) PutQuestion(ctx context.Context, q Question) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO questions (id, dimension_id, text, question_type, weight, ord, requires_justification, justification_mandatory, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id)
DO UPDATE SET text=EXCLUDED.text, question_type=EXCLUDED.question_type,
  weight=EXCLUDED.weight, ord=EXCLUDED.ord,
  requires_justification=EXCLUDED.requires_justification,
  justification_mandatory=EXCLUDED.justification_mandatory,
  active=EXCLUDED.active`,
		q.ID, q.DimensionID, q.Text, q.Type, q.Weight, q.Order, q.RequiresJustification, q.JustificationMandatory, q.Active)
	if err != nil {
		return err
	}
	for _, o := range q.Options {
		_, err = tx.ExecContext(ctx, `
INSERT INTO question_options (id, question_id, text, score, ord)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id)
DO UPDATE SET text=EXCLUDED.text, score=EXCLUDED.score, ord=EXCLUDED.ord`,
			o.ID, q.ID, o.Text, o.Score, o.Order)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) PutBand(ctx context.Context, b RecommendationBand) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO recommendation_bands (id, dimension_id, score_min, score_max, level, title, description, suggested_actions)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id)
DO UPDATE SET score_min=EXCLUDED.score_min, score_max=EXCLUDED.score_max,
  level=EXCLUDED.level, title=EXCLUDED.title, description=EXCLUDED.description,
  suggested_actions=EXCLUDED.suggested_actions`,
		b.ID, b.DimensionID, b.ScoreMin, b.ScoreMax, b.Level, b.Title, b.Description, b.SuggestedActions)
	return err
}

func (s *PostgresStore) PutLLMConfig(ctx context.Context, c LLMConfig) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO llm_configs (evaluation_id, provider, model, system_prompt, temperature, max_tokens)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (evaluation_id)
DO UPDATE SET provider=EXCLUDED.provider, model=EXCLUDED.model,
  system_prompt=EXCLUDED.system_prompt, temperature=EXCLUDED.temperature,
  max_tokens=EXCLUDED.max_tokens`,
		c.EvaluationID, c.Provider, c.Model, c.SystemPrompt, c.Temperature, c.MaxTokens)
	return err
}
