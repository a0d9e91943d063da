package api

import (
	"github.com/starford/notedeck/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title      string   `json:"title" example:"Weekly sync" validate:"required"`
	Content    string   `json:"content" example:"Agenda and action items" validate:"required"`
	Categories []string `json:"categories" example:"Work,Meetings" validate:"omitempty,dive,max=64"`
}

// UpdateNoteRequest is the request body for updating a note. It replaces
// title, content and categories and reactivates an archived note.
type UpdateNoteRequest = CreateNoteRequest

func (r CreateNoteRequest) input() noteservice.NoteInput {
	return noteservice.NoteInput{
		Title:      r.Title,
		Content:    r.Content,
		Categories: r.Categories,
	}
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// DeletePreview is the confirmation payload for a permanent delete (aliased from the domain layer).
type DeletePreview = noteservice.DeletePreview

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteDetail `json:"notes" validate:"required"`
	Total int          `json:"total" example:"2" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []NoteDetail `json:"results" validate:"required"`
}

// CategoriesResponse wraps the category registry.
type CategoriesResponse struct {
	Categories []string `json:"categories" example:"Design,Work" validate:"required"`
}

// StatsResponse is the collection summary (aliased from the domain layer).
type StatsResponse = noteservice.Summary
