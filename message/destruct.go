package message

// Destruct frees the message's head and body, keeping only its id and
// label map alive, per spec.md §3's lifecycle: "destructed ... freeing
// head and body while keeping an identity stub whose only legal
// operation is is_deleted". Destruct is idempotent.
func (m *Message) Destruct() {
	if m.destructed {
		return
	}
	m.head = nil
	m.body = nil
	m.destructed = true
}

// Destructed reports whether Destruct has been called.
func (m *Message) Destructed() bool { return m.destructed }
