package autotrade

import (
	"fmt"
	"sync"
	"time"
)

// Severity of one activity entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is one human-readable line of the tick trace.
type Entry struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

const logCapacity = 100

// ActivityLog is the bounded in-memory operational trace: newest entries
// first, the oldest evicted past 100. It is deliberately not durable.
type ActivityLog struct {
	mu      sync.Mutex
	entries []Entry
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

func (l *ActivityLog) Append(severity Severity, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = Entry{Time: time.Now(), Severity: severity, Message: message}

	if len(l.entries) > logCapacity {
		l.entries = l.entries[:logCapacity]
	}
}

func (l *ActivityLog) Appendf(severity Severity, format string, args ...any) {
	l.Append(severity, fmt.Sprintf(format, args...))
}

// Entries returns a copy, newest first.
func (l *ActivityLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *ActivityLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
