package processor

// Subscribe registers a watcher for progress events of one session. The
// returned channel is buffered and closed when the run reaches a terminal
// state. Slow watchers miss intermediate events instead of blocking the run.
func (s *Service) Subscribe(sessionID string) <-chan Event {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.watchers[sessionID] = append(s.watchers[sessionID], ch)
	s.mu.Unlock()
	return ch
}

// Unsubscribe detaches a watcher channel. Safe to call after the run has
// already closed it.
func (s *Service) Unsubscribe(sessionID string, ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.watchers[sessionID]
	for i, sub := range subs {
		if sub == ch {
			s.watchers[sessionID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.watchers[sessionID]) == 0 {
		delete(s.watchers, sessionID)
	}
}

func (s *Service) emit(sessionID string, ev Event, terminal bool) {
	s.mu.Lock()
	subs := s.watchers[sessionID]
	if terminal {
		delete(s.watchers, sessionID)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
		if terminal {
			close(ch)
		}
	}
}
