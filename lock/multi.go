package lock

// MultiLocker acquires several strategies in order (e.g. dotlock plus
// flock, per spec.md §4.7's "combinations of the above"). If any
// strategy fails to acquire, the ones already held are released in
// reverse order before returning.
type MultiLocker struct {
	strategies []Locker
	held       []Locker
}

func NewMulti(strategies ...Locker) *MultiLocker {
	return &MultiLocker{strategies: strategies}
}

func (m *MultiLocker) Lock() (bool, error) {
	m.held = m.held[:0]
	for _, s := range m.strategies {
		ok, err := s.Lock()
		if err != nil {
			m.rollback()
			return false, err
		}
		if !ok {
			m.rollback()
			return false, nil
		}
		m.held = append(m.held, s)
	}
	return true, nil
}

func (m *MultiLocker) rollback() {
	for i := len(m.held) - 1; i >= 0; i-- {
		m.held[i].Unlock()
	}
	m.held = nil
}

func (m *MultiLocker) Unlock() error {
	var firstErr error
	for i := len(m.held) - 1; i >= 0; i-- {
		if err := m.held[i].Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.held = nil
	return firstErr
}

func (m *MultiLocker) HasLock() bool {
	return len(m.held) == len(m.strategies) && len(m.strategies) > 0
}

func (m *MultiLocker) IsLocked() bool {
	for _, s := range m.strategies {
		if s.IsLocked() {
			return true
		}
	}
	return false
}

func (m *MultiLocker) State() State {
	if m.HasLock() {
		return Locked
	}
	for _, s := range m.strategies {
		if s.State() == Acquiring {
			return Acquiring
		}
	}
	return Unlocked
}
