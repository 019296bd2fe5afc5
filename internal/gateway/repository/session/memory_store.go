package session

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps all session-side records in process memory. Backs local
// runs without a database and the test suites.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]Company
	sessions  map[string]Session
	responses map[string]Response
	results   map[string]DimensionResult // key: sessionID + "/" + dimensionID
	charVals  map[string]CharacterizationValue
	logs      []LLMLog
	reports   []Report
	tasks     map[string]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies: make(map[string]Company),
		sessions:  make(map[string]Session),
		responses: make(map[string]Response),
		results:   make(map[string]DimensionResult),
		charVals:  make(map[string]CharacterizationValue),
		tasks:     make(map[string]Task),
	}
}

func (s *MemoryStore) UpsertCompany(_ context.Context, name, email, phone string) (Company, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.companies {
		if c.Email == email {
			if c.Name != name {
				c.Name = name
				s.companies[id] = c
			}
			return c, nil
		}
	}
	c := Company{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
	s.companies[c.ID] = c
	return c, nil
}

func (s *MemoryStore) GetCompany(_ context.Context, id string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) UpdateSessionState(_ context.Context, id, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.State = state
	s.sessions[id] = sess
	return nil
}

func (s *MemoryStore) SetSessionGlobalScore(_ context.Context, id string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.GlobalScore = &score
	s.sessions[id] = sess
	return nil
}

func (s *MemoryStore) ListSessions(_ context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateResponse(_ context.Context, r Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.SelectedOptionIDs = append([]string(nil), r.SelectedOptionIDs...)
	s.responses[r.ID] = r
	return nil
}

func (s *MemoryStore) ListResponses(_ context.Context, sessionID string) ([]Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Response
	for _, r := range s.responses {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SetResponseScore(_ context.Context, responseID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[responseID]
	if !ok {
		return ErrNotFound
	}
	r.ComputedScore = &score
	s.responses[responseID] = r
	return nil
}

func (s *MemoryStore) UpsertDimensionResult(_ context.Context, r DimensionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.SessionID+"/"+r.DimensionID] = r
	return nil
}

func (s *MemoryStore) ListDimensionResults(_ context.Context, sessionID string) ([]DimensionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DimensionResult
	for _, r := range s.results {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DimensionID < out[j].DimensionID })
	return out, nil
}

func (s *MemoryStore) UpsertCharacterizationValue(_ context.Context, v CharacterizationValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charVals[v.CompanyID+"/"+v.FieldID] = v
	return nil
}

func (s *MemoryStore) ListCharacterizationValues(_ context.Context, companyID string) ([]CharacterizationValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CharacterizationValue
	for _, v := range s.charVals {
		if v.CompanyID == companyID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldID < out[j].FieldID })
	return out, nil
}

func (s *MemoryStore) AppendLLMLog(_ context.Context, l LLMLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	s.logs = append(s.logs, l)
	return nil
}

func (s *MemoryStore) LatestLLMLog(_ context.Context, sessionID, status string) (LLMLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		if l.SessionID != sessionID {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		return l, true, nil
	}
	return LLMLog{}, false, nil
}

func (s *MemoryStore) AppendReport(_ context.Context, r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.reports = append(s.reports, r)
	return nil
}

func (s *MemoryStore) LatestReport(_ context.Context, sessionID string) (Report, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].SessionID == sessionID {
			return s.reports[i], true, nil
		}
	}
	return Report{}, false, nil
}

func (s *MemoryStore) PutTask(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.UpdatedAt = time.Now()
	s.tasks[t.SessionID] = t
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, sessionID string) (Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[sessionID]
	return t, ok, nil
}

func (s *MemoryStore) ListUnfinishedTasks(_ context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Task
	for _, t := range s.tasks {
		if t.State == TaskPending || t.State == TaskRunning {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}
