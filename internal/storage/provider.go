// Package storage holds the note repository: the note collection, the
// category registry and the derived metadata index.
package storage

import "github.com/starford/notedeck/internal/models"

// Provider is the note repository contract consumed by the service layer.
//
// Notes returned by any method are copies; mutating them (including their
// Categories slice) never affects the repository.
type Provider interface {
	// Create stores a new active note and returns its id.
	Create(title, content string, categories []string) int
	// FindByID returns the note with the given id, archived or not.
	FindByID(id int) (models.Note, error)
	// Update overwrites a note's fields and reactivates it.
	Update(id int, title, content string, categories []string) error
	// Archive marks a note inactive without removing it.
	Archive(id int) error
	// DeletePermanently removes a note and its metadata.
	DeletePermanently(id int) error
	// Duplicate creates a "(Copy)" of a note and returns the new id.
	Duplicate(id int) (int, error)

	// ListActive returns active notes in insertion order.
	ListActive() []models.Note
	// Search returns active notes whose title or content contains term, ignoring case.
	Search(term string) []models.Note
	// FilterByCategory returns active notes carrying the exact label.
	FilterByCategory(label string) []models.Note

	// Metadata returns the derived metadata for a note.
	Metadata(id int) (models.Metadata, error)
	// Categories returns every label ever seen, sorted.
	Categories() []string
	// AvailableCategories returns the registry minus the selected labels.
	AvailableCategories(selected []string) []string
	// Stats summarises the collection.
	Stats() models.Stats
}

// Verify *Memory satisfies Provider at compile time.
var _ Provider = (*Memory)(nil)
