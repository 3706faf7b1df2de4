package base

import "sync"

// LogBook keeps the "[agent] message" lines reported back with each query.
type LogBook struct {
	prefix  string
	mu      sync.Mutex
	entries []string
}

func NewLogBook(name string) *LogBook {
	return &LogBook{prefix: "[" + name + "] "}
}

func (l *LogBook) Add(message string) string {
	line := l.prefix + message
	l.mu.Lock()
	l.entries = append(l.entries, line)
	l.mu.Unlock()
	return line
}

func (l *LogBook) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *LogBook) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
