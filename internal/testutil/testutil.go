// Package testutil provides shared test helpers for building seeded
// repositories and services.
package testutil

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/starford/notedeck/internal/noteservice"
	"github.com/starford/notedeck/internal/storage"
)

// Today is the date every helper-built repository stamps on writes.
const Today = "2026-03-14"

// Clock returns the fixed time behind Today.
func Clock() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

// SilentLogger discards everything.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRepo returns a repository loaded with the built-in fixture
// (notes 1 and 2 active, note 3 archived).
func TestRepo(t *testing.T) *storage.Memory {
	t.Helper()
	repo := storage.NewMemory(storage.WithClock(Clock))
	if err := repo.Seed(storage.DefaultSeed()); err != nil {
		t.Fatal(err)
	}
	return repo
}

// TestService wires a seeded repository into a service with a silent logger.
func TestService(t *testing.T, opts ...noteservice.Option) (*noteservice.Service, *storage.Memory) {
	t.Helper()
	repo := TestRepo(t)
	opts = append([]noteservice.Option{noteservice.WithLogger(SilentLogger())}, opts...)
	return noteservice.NewService(repo, opts...), repo
}

// Event is one change notification captured by Recorder.
type Event struct {
	Kind string
	ID   int
}

// Recorder is a noteservice.Publisher that remembers what it was sent.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// PublishNoteEvent records the event.
func (r *Recorder) PublishNoteEvent(kind string, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, ID: id})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
