package thread

import (
	"fmt"
	"sort"
	"strings"
)

// ToString renders node and its descendants as an ASCII tree, per
// spec.md §4.9: each line is prefixed by shortSize's rendering of the
// message's size, and child lines use "|-"/"`-" for a real message,
// "*-" for a dummy, with "  " continuation indent.
func ToString(node *Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", shortSize(sizeOf(node)), subjectOf(node))
	writeChildren(&b, node, "")
	return b.String()
}

func writeChildren(b *strings.Builder, n *Node, prefix string) {
	children := n.FollowUps()
	sort.Slice(children, func(i, j int) bool { return children[i].id < children[j].id })

	for i, c := range children {
		branch := "|-"
		if i == len(children)-1 {
			branch = "`-"
		}
		if c.IsDummy() {
			branch = "*-"
		}
		fmt.Fprintf(b, "%s%s%s%s\n", prefix, shortSize(sizeOf(c)), branch, subjectOf(c))
		writeChildren(b, c, prefix+"  ")
	}
}

func sizeOf(n *Node) int {
	if n.Msg == nil {
		return 0
	}
	sz, err := n.Msg.Size()
	if err != nil {
		return 0
	}
	return sz
}

func subjectOf(n *Node) string {
	if n.Msg == nil {
		return "(" + n.id + ")"
	}
	h, err := n.Msg.Head()
	if err != nil {
		return n.id
	}
	f, err := h.Get("subject")
	if err != nil || f == nil {
		return "(no subject)"
	}
	return f.Body()
}

// shortSize formats a byte size per spec.md §4.9's fixed table:
// under 1000 bytes as "NNN ", under 10000 as "N.NK", under 100000 as
// "NNNK", and at or above 100000 as "N.NM" (or "NNM" once the value no
// longer fits three significant digits with one decimal).
func shortSize(size int) string {
	switch {
	case size < 1000:
		return fmt.Sprintf("%3d ", size)
	case size < 10000:
		return fmt.Sprintf("%.1fK", float64(size)/1000)
	case size < 100000:
		return fmt.Sprintf("%3dK", size/1000)
	case size < 10000000:
		mb := float64(size) / 1000000
		if mb < 10 {
			return fmt.Sprintf("%.1fM", mb)
		}
		return fmt.Sprintf("%2dM", size/1000000)
	default:
		return fmt.Sprintf("%2dM", size/1000000)
	}
}
