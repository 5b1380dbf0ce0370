// Package thread implements the per-folder conversation tree builder
// described by spec.md §4.9: a dummy-node graph keyed by Message-Id,
// built incrementally from In-Reply-To/References headers.
package thread

import (
	"strings"

	"github.com/markov2/go-mailbox/message"
)

// Quality ranks how confidently a parent/child relation was derived.
// The total order REPLY > REFERENCE > GUESS governs which relation
// wins when the same child is linked more than once.
type Quality int

const (
	GUESS Quality = iota
	REFERENCE
	REPLY
)

// Node is one entry in the thread graph: either a real message (Msg
// set) or a dummy placeholder kept alive only by its children's
// references to it.
type Node struct {
	id            string
	Msg           *message.Message
	parent        *Node
	parentQuality Quality
	followUps     map[string]*Node
}

func newNode(id string) *Node {
	return &Node{id: id, followUps: map[string]*Node{}}
}

// ID returns the node's Message-Id.
func (n *Node) ID() string { return n.id }

// IsDummy reports whether no real message has been ingested for this
// node's id yet.
func (n *Node) IsDummy() bool { return n.Msg == nil }

// Parent returns the node's current parent, or nil at a root.
func (n *Node) Parent() *Node { return n.parent }

// FollowUps returns the node's children in no particular order; Thread
// rendering sorts them (see render.go) for stable output.
func (n *Node) FollowUps() []*Node {
	out := make([]*Node, 0, len(n.followUps))
	for _, c := range n.followUps {
		out = append(out, c)
	}
	return out
}

// Thread is one folder's conversation graph.
type Thread struct {
	byID  map[string]*Node
	roots map[string]*Node
}

// New returns an empty thread graph.
func New() *Thread {
	return &Thread{byID: map[string]*Node{}, roots: map[string]*Node{}}
}

func (t *Thread) nodeFor(id string) *Node {
	n, ok := t.byID[id]
	if !ok {
		n = newNode(id)
		t.byID[id] = n
		t.roots[id] = n
	}
	return n
}

// Ingest adds m to the graph, deriving its parent relation per
// spec.md §4.9: an In-Reply-To id wins at REPLY quality; absent that,
// the References chain is walked left-to-right at REFERENCE quality;
// absent both, m is its own root.
func (t *Thread) Ingest(m *message.Message) error {
	h, err := m.Head()
	if err != nil {
		return err
	}

	id := m.ID()
	node := t.nodeFor(id)
	node.Msg = m

	if f, err := h.Get("in-reply-to"); err == nil && f != nil {
		if ids := extractIDs(f.Body()); len(ids) > 0 {
			t.follows(ids[0], id, REPLY)
			return nil
		}
	}

	if f, err := h.Get("references"); err == nil && f != nil {
		ids := extractIDs(f.Body())
		if len(ids) > 0 {
			for i := 0; i+1 < len(ids); i++ {
				t.follows(ids[i], ids[i+1], REFERENCE)
			}
			// The leftmost id is a root candidate: it gets a node (a
			// dummy, if no message claims that id) but no parent is
			// recorded for it here.
			t.nodeFor(ids[0])
			// References never names the message's own id; it is
			// itself the reply to the chain's last entry.
			t.follows(ids[len(ids)-1], id, REFERENCE)
			return nil
		}
	}

	return nil
}

// follows records that child's parent is parent at the given quality,
// upgrading the stored relation only if quality is >= what's already
// recorded (so a REFERENCE-derived link never displaces a REPLY one).
// The child is demoted out of roots once it gains a parent.
func (t *Thread) follows(parentID, childID string, quality Quality) {
	if parentID == "" || childID == "" || parentID == childID {
		return
	}
	parent := t.nodeFor(parentID)
	child := t.nodeFor(childID)

	if child.parent != nil && quality < child.parentQuality {
		return
	}
	if child.parent == parent {
		if quality > child.parentQuality {
			child.parentQuality = quality
		}
		return
	}
	if child.parent != nil {
		delete(child.parent.followUps, childID)
	}
	child.parent = parent
	child.parentQuality = quality
	parent.followUps[childID] = child
	delete(t.roots, childID)
}

// extractIDs pulls every "<...>" angle-bracketed token out of s, in
// left-to-right order, per the In-Reply-To/References grammar.
func extractIDs(s string) []string {
	var out []string
	for {
		start := strings.IndexByte(s, '<')
		if start == -1 {
			break
		}
		end := strings.IndexByte(s[start:], '>')
		if end == -1 {
			break
		}
		id := strings.TrimSpace(s[start+1 : start+end])
		if id != "" {
			out = append(out, id)
		}
		s = s[start+end+1:]
	}
	return out
}

// ThreadStart walks m's parent chain to its root node.
func (t *Thread) ThreadStart(m *message.Message) *Node {
	n, ok := t.byID[m.ID()]
	if !ok {
		return nil
	}
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// ThreadOf is an alias for ThreadStart: spec.md §4.9 names both
// thread_start(msg) and thread(msg) as "walk to / return the root
// containing msg" — the same operation under two call sites.
func (t *Thread) ThreadOf(m *message.Message) *Node {
	return t.ThreadStart(m)
}

// Roots returns every current root node, in no particular order.
func (t *Thread) Roots() []*Node {
	out := make([]*Node, 0, len(t.roots))
	for _, n := range t.roots {
		out = append(out, n)
	}
	return out
}

// Clean removes every node whose message is deleted and has no
// follow-ups, repeatedly, until nothing more can be dropped — per
// spec.md §4.9's "deleted messages remain in the graph until clean()
// is called". A deleted message with children is kept as a dummy-like
// anchor so its follow-up structure survives.
func (t *Thread) Clean() {
	for {
		var drop []string
		for id, n := range t.byID {
			if n.Msg != nil && n.Msg.IsDeleted() && len(n.followUps) == 0 {
				drop = append(drop, id)
			}
		}
		if len(drop) == 0 {
			return
		}
		for _, id := range drop {
			n := t.byID[id]
			if n.parent != nil {
				delete(n.parent.followUps, id)
			}
			delete(t.byID, id)
			delete(t.roots, id)
		}
	}
}
