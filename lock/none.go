package lock

// NoneLocker is the no-op strategy for folder types or setups that
// forgo locking entirely (e.g. Maildir's default, per spec.md §4.7).
type NoneLocker struct{}

func NewNoneLocker() *NoneLocker { return &NoneLocker{} }

func (NoneLocker) Lock() (bool, error) { return true, nil }
func (NoneLocker) Unlock() error       { return nil }
func (NoneLocker) HasLock() bool       { return true }
func (NoneLocker) IsLocked() bool      { return false }
func (NoneLocker) State() State        { return Locked }
