package folder

import "strings"

// FieldFilter decides which header fields survive into a message's
// Subset head when a folder is opened; anything it rejects is only
// available after the head realises from the backing file.
type FieldFilter func(name string) bool

// DefaultFieldFilter keeps exactly the fields spec.md §4.6 lists as the
// always-present Subset: the ones MUAs need for a folder listing
// without paying for a full parse.
var defaultFields = map[string]bool{
	"to":                true,
	"from":              true,
	"cc":                true,
	"bcc":               true,
	"date":              true,
	"subject":           true,
	"resent-to":         true,
	"resent-from":       true,
	"resent-cc":         true,
	"resent-date":       true,
	"resent-message-id": true,
	"message-id":        true,
	"in-reply-to":       true,
	"references":        true,
	"content-type":      true,
	"content-length":    true,
	"lines":             true,
	"status":            true,
	"x-status":          true,
}

func DefaultFieldFilter(name string) bool {
	return defaultFields[strings.ToLower(name)]
}

// ListFilter builds a FieldFilter that keeps exactly the named fields
// (case-insensitive), for callers who pass a plain list per spec.md
// §6's "field_filter: list|regex|predicate".
func ListFilter(names []string) FieldFilter {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return func(name string) bool { return set[strings.ToLower(name)] }
}
