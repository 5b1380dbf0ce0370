package folder

import (
	"strconv"

	"github.com/markov2/go-mailbox/head"
)

// ExtractPolicy decides whether a freshly parsed message's body should
// be loaded eagerly, per spec.md §4.6.
type ExtractPolicy interface {
	ShouldExtract(h *head.Head, linesHint int) bool
}

type alwaysPolicy struct{}

func (alwaysPolicy) ShouldExtract(*head.Head, int) bool { return true }

// Always extracts every body eagerly.
var Always ExtractPolicy = alwaysPolicy{}

type lazyPolicy struct{}

func (lazyPolicy) ShouldExtract(*head.Head, int) bool { return false }

// Lazy never extracts until the caller accesses the body.
var Lazy ExtractPolicy = lazyPolicy{}

// SizeLimit extracts eagerly iff the guessed body size is <= N bytes.
// The guess prefers a Content-Length header, falling back to
// Lines x 40 per spec.md §4.6.
type SizeLimit int

func (n SizeLimit) ShouldExtract(h *head.Head, linesHint int) bool {
	return guessBodySize(h, linesHint) <= int(n)
}

// Predicate extracts eagerly iff fn(head) reports true.
type Predicate func(h *head.Head) bool

func (p Predicate) ShouldExtract(h *head.Head, _ int) bool { return p(h) }

func guessBodySize(h *head.Head, linesHint int) int {
	if f, err := h.Get("content-length"); err == nil && f != nil {
		if n, err := strconv.Atoi(f.Body()); err == nil && n >= 0 {
			return n
		}
	}
	if linesHint > 0 {
		return linesHint * 40
	}
	if f, err := h.Get("lines"); err == nil && f != nil {
		if n, err := strconv.Atoi(f.Body()); err == nil && n >= 0 {
			return n * 40
		}
	}
	return 0
}
