package log

import "fmt"

// Level is the severity of a recorded Entry. It mirrors the DEBUG / PROGRESS
// / NOTICE / WARNING / ERROR taxonomy that Message, Folder and Manager
// objects use to report what happened during an operation.
type Level int

const (
	LevelDebug Level = iota
	LevelProgress
	LevelNotice
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelProgress:
		return "progress"
	case LevelNotice:
		return "notice"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one recorded event.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]interface{}
}

// Journal is a Logger that additionally keeps every message at
// LevelProgress or above in memory, so that a Message, Folder or Manager can
// later answer Errors(), Warnings() or Report(level) without re-parsing its
// own formatted log output.
//
// Journal follows the same rule as Logger: it provides no internal
// synchronization, the owning object is responsible for not sharing one
// across goroutines without its own locking.
type Journal struct {
	Logger

	entries []Entry
}

func NewJournal(out Logger) *Journal {
	return &Journal{Logger: out}
}

func (j *Journal) record(lvl Level, msg string, fields map[string]interface{}) {
	j.entries = append(j.entries, Entry{Level: lvl, Message: msg, Fields: fields})
}

// Progressf records a PROGRESS event, used for background-ish bookkeeping
// such as "loaded delayed head" that is not interesting by default but
// should be available on request.
func (j *Journal) Progressf(format string, val ...interface{}) {
	msg := fmt.Sprintf(format, val...)
	j.record(LevelProgress, msg, nil)
	j.Logger.DebugMsg(msg)
}

// Noticef records a NOTICE event: expected, non-error, worth surfacing.
func (j *Journal) Noticef(format string, val ...interface{}) {
	msg := fmt.Sprintf(format, val...)
	j.record(LevelNotice, msg, nil)
	j.Logger.Msg(msg)
}

// Warnf records a WARNING: a recovered error, e.g. a codec falling back to
// a less strict interpretation.
func (j *Journal) Warnf(format string, val ...interface{}) {
	msg := fmt.Sprintf(format, val...)
	j.record(LevelWarning, msg, nil)
	j.Logger.Msg("warning: " + msg)
}

// Errorf records an ERROR: a surfaced failure the caller must react to.
func (j *Journal) Errorf(format string, val ...interface{}) {
	msg := fmt.Sprintf(format, val...)
	j.record(LevelError, msg, nil)
	j.Logger.Msg("error: " + msg)
}

// Errors returns every recorded entry at LevelError.
func (j *Journal) Errors() []Entry {
	return j.Report(LevelError)
}

// Warnings returns every recorded entry at LevelWarning.
func (j *Journal) Warnings() []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Level == LevelWarning {
			out = append(out, e)
		}
	}
	return out
}

// Report returns every recorded entry at or above the given level, in the
// order they were recorded.
func (j *Journal) Report(level Level) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}
