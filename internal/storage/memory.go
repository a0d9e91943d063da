package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/notedeck/internal/apperr"
	"github.com/starford/notedeck/internal/models"
)

// CopySuffix is appended to the title of a duplicated note.
const CopySuffix = " (Copy)"

// MemoryOption configures a Memory repository.
type MemoryOption func(*Memory)

// WithClock overrides the clock used to stamp note dates.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// Memory is the in-process note repository.
//
// All mutations run under a single lock so the notes map and the metadata
// index are always updated together.
type Memory struct {
	now func() time.Time

	mu         sync.RWMutex // protects the fields below
	notes      map[int]*models.Note
	order      []int // insertion order of live ids
	metadata   map[int]models.Metadata
	categories map[string]struct{}
	lastID     int // highest id ever assigned
}

// NewMemory returns an empty repository.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		now:        time.Now,
		notes:      make(map[int]*models.Note),
		metadata:   make(map[int]models.Metadata),
		categories: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed loads fixture notes with their own ids and active flags. Ids must be
// positive, unique and above every id assigned so far. Dates must be
// YYYY-MM-DD; a note without a date gets today's date. Nothing is loaded
// if any note is rejected.
func (m *Memory) Seed(notes []models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int]struct{}, len(notes))
	for _, n := range notes {
		if n.ID <= 0 {
			return fmt.Errorf("storage: seed: id %d: %w", n.ID, apperr.ErrInvalidInput)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("storage: seed: duplicate id %d: %w", n.ID, apperr.ErrInvalidInput)
		}
		if n.ID <= m.lastID {
			return fmt.Errorf("storage: seed: id %d already assigned: %w", n.ID, apperr.ErrInvalidInput)
		}
		if n.Date != "" && !validDate(n.Date) {
			return fmt.Errorf("storage: seed: note %d: date %q is not %s: %w",
				n.ID, n.Date, models.DateLayout, apperr.ErrInvalidInput)
		}
		seen[n.ID] = struct{}{}
	}

	for _, n := range notes {
		note := n.Clone()
		note.Categories = withDefault(note.Categories)
		if note.Date == "" {
			note.Date = m.today()
		}
		m.insert(&note)
	}
	return nil
}

// Create stores a new active note and returns its id.
func (m *Memory) Create(title, content string, categories []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(title, content, categories)
}

func (m *Memory) create(title, content string, categories []string) int {
	note := &models.Note{
		ID:         m.lastID + 1,
		Title:      title,
		Content:    content,
		Categories: withDefault(categories),
		Date:       m.today(),
		IsActive:   true,
	}
	m.insert(note)
	return note.ID
}

// insert adds note to the store, registry and metadata index.
// The caller holds m.mu.
func (m *Memory) insert(note *models.Note) {
	m.notes[note.ID] = note
	m.order = append(m.order, note.ID)
	m.register(note.Categories)
	m.metadata[note.ID] = models.Metadata{
		WordCount: WordCount(note.Content),
		Status:    note.Status(),
	}
	if note.ID > m.lastID {
		m.lastID = note.ID
	}
}

// FindByID returns a copy of the note with the given id.
func (m *Memory) FindByID(id int) (models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, fmt.Errorf("storage: note %d: %w", id, apperr.ErrNotFound)
	}
	return n.Clone(), nil
}

// Update overwrites title, content and categories, refreshes the date and
// reactivates the note.
func (m *Memory) Update(id int, title, content string, categories []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return fmt.Errorf("storage: update note %d: %w", id, apperr.ErrNotFound)
	}
	n.Title = title
	n.Content = content
	n.Categories = withDefault(categories)
	n.Date = m.today()
	n.IsActive = true
	m.register(n.Categories)
	m.metadata[id] = models.Metadata{
		WordCount: WordCount(content),
		Status:    models.StatusActive,
	}
	return nil
}

// Archive marks the note inactive. Word count is preserved.
func (m *Memory) Archive(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return fmt.Errorf("storage: archive note %d: %w", id, apperr.ErrNotFound)
	}
	n.IsActive = false
	md := m.metadata[id]
	md.Status = models.StatusArchived
	m.metadata[id] = md
	return nil
}

// DeletePermanently removes the note and its metadata. The category
// registry keeps the note's labels.
func (m *Memory) DeletePermanently(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return fmt.Errorf("storage: delete note %d: %w", id, apperr.ErrNotFound)
	}
	delete(m.notes, id)
	delete(m.metadata, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Duplicate creates a new note from the source with a " (Copy)" title.
func (m *Memory) Duplicate(id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.notes[id]
	if !ok {
		return 0, fmt.Errorf("storage: duplicate note %d: %w", id, apperr.ErrNotFound)
	}
	cats := append([]string(nil), src.Categories...)
	return m.create(src.Title+CopySuffix, src.Content, cats), nil
}

// ListActive returns active notes in insertion order.
func (m *Memory) ListActive() []models.Note {
	return m.collect(func(*models.Note) bool { return true })
}

// Search matches term against title or content, ignoring case. An empty
// term matches every active note.
func (m *Memory) Search(term string) []models.Note {
	needle := strings.ToLower(term)
	return m.collect(func(n *models.Note) bool {
		return strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Content), needle)
	})
}

// FilterByCategory returns active notes carrying label (case-sensitive).
func (m *Memory) FilterByCategory(label string) []models.Note {
	return m.collect(func(n *models.Note) bool { return n.HasCategory(label) })
}

// collect returns copies of the active notes accepted by match, in insertion order.
func (m *Memory) collect(match func(*models.Note) bool) []models.Note {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Note, 0, len(m.order))
	for _, id := range m.order {
		n := m.notes[id]
		if n.IsActive && match(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Metadata returns the metadata index entry for a note.
func (m *Memory) Metadata(id int) (models.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md, ok := m.metadata[id]
	if !ok {
		return models.Metadata{}, fmt.Errorf("storage: metadata %d: %w", id, apperr.ErrNotFound)
	}
	return md, nil
}

// Categories returns every label ever registered, sorted.
func (m *Memory) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.categories))
	for c := range m.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AvailableCategories returns the sorted registry without the selected labels.
func (m *Memory) AvailableCategories(selected []string) []string {
	skip := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		skip[s] = struct{}{}
	}
	all := m.Categories()
	out := all[:0]
	for _, c := range all {
		if _, ok := skip[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Stats summarises the collection.
func (m *Memory) Stats() models.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := models.Stats{Total: len(m.notes), Categories: len(m.categories)}
	for _, n := range m.notes {
		if n.IsActive {
			s.Active++
		} else {
			s.Archived++
		}
	}
	return s
}

func (m *Memory) register(labels []string) {
	for _, c := range labels {
		m.categories[c] = struct{}{}
	}
}

// validDate reports whether s is a real calendar date in DateLayout.
func validDate(s string) bool {
	t, err := time.Parse(models.DateLayout, s)
	return err == nil && t.Format(models.DateLayout) == s
}

func (m *Memory) today() string {
	return m.now().Format(models.DateLayout)
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// withDefault copies labels, substituting the default category for an empty list.
func withDefault(labels []string) []string {
	if len(labels) == 0 {
		return []string{models.DefaultCategory}
	}
	return append([]string(nil), labels...)
}
