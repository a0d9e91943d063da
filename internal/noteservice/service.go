// Package noteservice validates user input and coordinates the note
// repository with the change feed, metrics and logging.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notedeck/internal/apperr"
	"github.com/starford/notedeck/internal/checksum"
	"github.com/starford/notedeck/internal/metrics"
	"github.com/starford/notedeck/internal/models"
	"github.com/starford/notedeck/internal/parser"
	"github.com/starford/notedeck/internal/sse"
	"github.com/starford/notedeck/internal/storage"
)

// Publisher receives a notification after every successful mutation.
type Publisher interface {
	PublishNoteEvent(kind string, id int)
}

// NoteInput is the user-supplied part of a note.
type NoteInput struct {
	Title      string
	Content    string
	Categories []string
}

// Validate checks the fields the repository relies on callers to enforce.
func (in NoteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("title is required")),
		validation.Field(&in.Content, validation.Required.Error("content is required")),
	)
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the change-feed publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service coordinates repository operations for the outer surfaces.
type Service struct {
	repo    storage.Provider
	pub     Publisher
	metrics *metrics.Metrics
	log     *slog.Logger

	// mu serialises mutations so check-then-write sequences (If-Match) and
	// the read-back after a write are atomic.
	mu sync.Mutex
}

// NewService creates a new note service.
func NewService(repo storage.Provider, opts ...Option) *Service {
	s := &Service{repo: repo, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetNote returns a note, archived or not.
func (s *Service) GetNote(_ context.Context, id int) (*NoteDetail, error) {
	n, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.detail(n)
}

// CreateNote validates input and stores a new note.
func (s *Service) CreateNote(_ context.Context, in NoteInput) (*NoteDetail, error) {
	in = clean(in)
	if err := in.Validate(); err != nil {
		s.observe("create", err)
		return nil, invalid(err)
	}

	d, err := s.mutate("create", sse.KindCreated, func() (int, error) {
		return s.repo.Create(in.Title, in.Content, in.Categories), nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("note created", slog.Int("id", d.ID), slog.String("title", d.Title))
	return d, nil
}

// UpdateNote overwrites a note and reactivates it. A non-empty ifMatch must
// equal the note's current checksum.
func (s *Service) UpdateNote(_ context.Context, id int, in NoteInput, ifMatch string) (*NoteDetail, error) {
	in = clean(in)
	if err := in.Validate(); err != nil {
		s.observe("update", err)
		return nil, invalid(err)
	}

	d, err := s.mutate("update", sse.KindUpdated, func() (int, error) {
		return id, s.update(id, in, ifMatch)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("note updated", slog.Int("id", id), slog.String("title", d.Title))
	return d, nil
}

// update runs under s.mu.
func (s *Service) update(id int, in NoteInput, ifMatch string) error {
	if ifMatch != "" {
		current, err := s.repo.FindByID(id)
		if err != nil {
			return err
		}
		if checksum.Note(current) != ifMatch {
			return fmt.Errorf("noteservice: note %d changed: %w", id, apperr.ErrConflict)
		}
	}
	return s.repo.Update(id, in.Title, in.Content, in.Categories)
}

// ArchiveNote hides a note from active listings.
func (s *Service) ArchiveNote(_ context.Context, id int) (*NoteDetail, error) {
	d, err := s.mutate("archive", sse.KindArchived, func() (int, error) {
		return id, s.repo.Archive(id)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("note archived", slog.Int("id", id))
	return d, nil
}

// DuplicateNote copies a note and returns the copy.
func (s *Service) DuplicateNote(_ context.Context, id int) (*NoteDetail, error) {
	d, err := s.mutate("duplicate", sse.KindDuplicated, func() (int, error) {
		return s.repo.Duplicate(id)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("note duplicated", slog.Int("id", id), slog.Int("copy_id", d.ID))
	return d, nil
}

// DeleteNote permanently removes a note.
func (s *Service) DeleteNote(_ context.Context, id int) error {
	s.mu.Lock()
	err := s.repo.DeletePermanently(id)
	s.mu.Unlock()
	s.observe("delete", err)
	if err != nil {
		return err
	}

	s.log.Info("note permanently deleted", slog.Int("id", id))
	s.publish(sse.KindDeleted, id)
	s.metrics.SetActive(s.repo.Stats().Active)
	return nil
}

// DeletePreview returns what a confirmation prompt shows before deletion.
func (s *Service) DeletePreview(_ context.Context, id int) (*DeletePreview, error) {
	n, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return &DeletePreview{
		ID:         n.ID,
		Title:      n.Title,
		Preview:    preview(n.Content),
		Categories: nonNilSlice(n.Categories),
	}, nil
}

// ListNotes returns active notes, optionally narrowed by a search term and a
// category label. Both filters apply when both are set.
func (s *Service) ListNotes(_ context.Context, query, category string) ([]NoteDetail, error) {
	var notes []models.Note
	switch {
	case query == "" && category == "":
		notes = s.repo.ListActive()
	case category == "":
		notes = s.repo.Search(query)
	case query == "":
		notes = s.repo.FilterByCategory(category)
	default:
		for _, n := range s.repo.Search(query) {
			if n.HasCategory(category) {
				notes = append(notes, n)
			}
		}
	}
	return s.details(notes)
}

// Search returns active notes whose title or content contains term.
func (s *Service) Search(_ context.Context, term string) ([]NoteDetail, error) {
	return s.details(s.repo.Search(term))
}

// Categories returns every known label, minus any excluded ones.
func (s *Service) Categories(_ context.Context, exclude []string) []string {
	if len(exclude) == 0 {
		return nonNilSlice(s.repo.Categories())
	}
	return nonNilSlice(s.repo.AvailableCategories(exclude))
}

// Summary reports collection totals and the category registry.
func (s *Service) Summary(_ context.Context) Summary {
	return Summary{
		Stats:      s.repo.Stats(),
		Categories: nonNilSlice(s.repo.Categories()),
	}
}

// mutate runs write under s.mu and reads the written note back before
// releasing it, so a concurrent delete cannot turn a successful write into
// a not-found result.
func (s *Service) mutate(op, kind string, write func() (int, error)) (*NoteDetail, error) {
	s.mu.Lock()
	id, err := write()
	var d *NoteDetail
	if err == nil {
		var n models.Note
		if n, err = s.repo.FindByID(id); err == nil {
			d, err = s.detail(n)
		}
	}
	s.mu.Unlock()

	s.observe(op, err)
	if err != nil {
		return nil, err
	}
	s.publish(kind, id)
	s.metrics.SetActive(s.repo.Stats().Active)
	return d, nil
}

func (s *Service) publish(kind string, id int) {
	if s.pub != nil {
		s.pub.PublishNoteEvent(kind, id)
	}
}

func (s *Service) observe(op string, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		result = metrics.ResultNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		result = metrics.ResultInvalid
	case errors.Is(err, apperr.ErrConflict):
		result = metrics.ResultConflict
	default:
		result = "error"
	}
	s.metrics.ObserveOp(op, result)
	if err != nil {
		s.log.Debug("note operation failed", slog.String("op", op), slog.String("error", err.Error()))
	}
}

func (s *Service) detail(n models.Note) (*NoteDetail, error) {
	md, err := s.repo.Metadata(n.ID)
	if err != nil {
		return nil, err
	}
	d := newDetail(n, md)
	return &d, nil
}

func (s *Service) details(notes []models.Note) ([]NoteDetail, error) {
	out := make([]NoteDetail, 0, len(notes))
	for _, n := range notes {
		md, err := s.repo.Metadata(n.ID)
		if err != nil {
			// Deleted after the listing snapshot was taken.
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, newDetail(n, md))
	}
	return out, nil
}

// clean trims surrounding whitespace and normalises the category list.
// Text is otherwise stored exactly as given.
func clean(in NoteInput) NoteInput {
	return NoteInput{
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
		Categories: parser.Categories(in.Categories),
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
