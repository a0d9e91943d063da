// Package models defines the domain types for notedeck.
package models

// Note statuses as reported by the metadata index.
const (
	StatusActive   = "Active"
	StatusArchived = "Archived"
)

// DefaultCategory is assigned to notes created or updated without categories.
const DefaultCategory = "General"

// DateLayout is the on-note date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Note is a single note held by the repository.
type Note struct {
	ID         int      `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Content    string   `json:"content" yaml:"content"`
	Categories []string `json:"categories" yaml:"categories"`
	Date       string   `json:"date" yaml:"date"`
	IsActive   bool     `json:"is_active" yaml:"is_active"`
}

// Clone returns a copy of n that shares no backing storage with it.
func (n Note) Clone() Note {
	n.Categories = append([]string(nil), n.Categories...)
	return n
}

// HasCategory reports whether label is one of the note's categories (exact match).
func (n Note) HasCategory(label string) bool {
	for _, c := range n.Categories {
		if c == label {
			return true
		}
	}
	return false
}

// Status returns the metadata status string for the note.
func (n Note) Status() string {
	if n.IsActive {
		return StatusActive
	}
	return StatusArchived
}

// Metadata is the derived per-note record kept in the metadata index.
type Metadata struct {
	WordCount int    `json:"word_count"`
	Status    string `json:"status"`
}

// Stats summarises the repository contents.
type Stats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Archived   int `json:"archived"`
	Categories int `json:"categories"`
}
