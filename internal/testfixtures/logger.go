package testfixtures

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogBuffer collects JSON log lines for assertions.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Logger returns a debug-level logger writing into the buffer.
func (b *LogBuffer) Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Entries decodes every collected line.
func (b *LogBuffer) Entries() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(b.buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Find returns the first entry with the given message.
func (b *LogBuffer) Find(msg string) (map[string]any, bool) {
	for _, entry := range b.Entries() {
		if entry["msg"] == msg {
			return entry, true
		}
	}
	return nil, false
}
