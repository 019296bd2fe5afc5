package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced session-side record does not exist.
var ErrNotFound = errors.New("session: not found")

// Store is the transactional record contract over sessions and everything a
// run writes. Individual operations are atomic; the pipeline deliberately does
// not span multiple operations with one transaction.
type Store interface {
	// UpsertCompany creates the company on first submission (email is
	// lowercase-normalized) or updates its name on repeat submissions.
	UpsertCompany(ctx context.Context, name, email, phone string) (Company, error)

	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSessionState(ctx context.Context, id, state string) error
	SetSessionGlobalScore(ctx context.Context, id string, score float64) error
	ListSessions(ctx context.Context) ([]Session, error)

	CreateResponse(ctx context.Context, r Response) error
	// ListResponses returns all responses of the session, one per question.
	ListResponses(ctx context.Context, sessionID string) ([]Response, error)
	SetResponseScore(ctx context.Context, responseID string, score float64) error

	// UpsertDimensionResult is idempotent, keyed by (session, dimension).
	UpsertDimensionResult(ctx context.Context, r DimensionResult) error
	ListDimensionResults(ctx context.Context, sessionID string) ([]DimensionResult, error)

	// UpsertCharacterizationValue is idempotent, keyed by (company, field).
	UpsertCharacterizationValue(ctx context.Context, v CharacterizationValue) error
	ListCharacterizationValues(ctx context.Context, companyID string) ([]CharacterizationValue, error)

	AppendLLMLog(ctx context.Context, l LLMLog) error
	// LatestLLMLog returns the most recent log, optionally restricted to a
	// status ("" means any). ok is false when none exists.
	LatestLLMLog(ctx context.Context, sessionID, status string) (LLMLog, bool, error)

	AppendReport(ctx context.Context, r Report) error
	LatestReport(ctx context.Context, sessionID string) (Report, bool, error)

	GetCompany(ctx context.Context, id string) (Company, error)

	PutTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, sessionID string) (Task, bool, error)
	// ListUnfinishedTasks returns tasks still pending or running, oldest first.
	ListUnfinishedTasks(ctx context.Context) ([]Task, error)
}
