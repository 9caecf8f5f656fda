// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"log/slog"
	"testing"
	"time"

	"github.com/DmarshalTU/jjzettel/internal/models"
)

// Logger returns a slog.Logger that writes through t.Log, so log output is
// attached to the failing test instead of polluting stderr.
func Logger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// NoteAt builds a note with deterministic timestamps, useful when a test
// needs a stable sort order.
func NoteAt(title, content string, at time.Time) models.Note {
	n := models.New(title, content)
	n.CreatedAt = at
	n.UpdatedAt = at
	return n
}
