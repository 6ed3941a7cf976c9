package memstore

// Test hooks: operation counters and failure injection. Production code
// never touches these.

// WriteCount reports how many writes have been attempted.
func (s *Store) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// RemoveCount reports how many removes have been attempted.
func (s *Store) RemoveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removes
}

// GenerateCount reports how many ids have been requested.
func (s *Store) GenerateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generated
}

// FailGenerateID makes every subsequent GenerateID return err. Pass nil to
// restore normal behaviour.
func (s *Store) FailGenerateID(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateErr = err
}

// FailWrites makes writes under pathPrefix return err.
func (s *Store) FailWrites(pathPrefix string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writePrefix = pathPrefix
	s.writeErr = err
}

// FailRemoves makes removes under pathPrefix return err.
func (s *Store) FailRemoves(pathPrefix string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remPrefix = pathPrefix
	s.removeErr = err
}
