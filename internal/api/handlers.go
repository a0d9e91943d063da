package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/starford/notedeck/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *noteservice.Service
	validate *validator.Validate
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service, v *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: v}
}

// noteID parses the {id} URL parameter. On failure it writes a 400 and
// returns false.
func noteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return 0, false
	}
	return id, true
}

func writeNote(w http.ResponseWriter, status int, note *NoteDetail) {
	w.Header().Set("ETag", strconv.Quote(note.Checksum))
	writeJSON(w, status, note)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List active notes, optionally filtered
//	@Tags			notes
//	@Produce		json
//	@Param			q			query		string	false	"Case-insensitive title/content match"
//	@Param			category	query		string	false	"Exact category label"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes, err := h.svc.ListNotes(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		writeServiceError(w, "list notes", 0, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}. Archived notes are returned too.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get note", id, err)
		return
	}
	writeNote(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, "create note", 0, err)
		return
	}
	w.Header().Set("Location", "/api/notes/"+strconv.Itoa(note.ID))
	writeNote(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Replace a note and reactivate it, with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int					true	"Note id"
//	@Param			If-Match	header		string				false	"Checksum for optimistic concurrency"
//	@Param			body		body		UpdateNoteRequest	true	"New title, content and categories"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.UpdateNote(r.Context(), id, req.input(), ifMatch)
	if err != nil {
		writeServiceError(w, "update note", id, err)
		return
	}
	writeNote(w, http.StatusOK, note)
}

// ArchiveNote handles POST /api/notes/{id}/archive.
//
//	@Summary		Archive a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/archive [post]
func (h *Handler) ArchiveNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.svc.ArchiveNote(r.Context(), id)
	if err != nil {
		writeServiceError(w, "archive note", id, err)
		return
	}
	writeNote(w, http.StatusOK, note)
}

// DuplicateNote handles POST /api/notes/{id}/duplicate.
//
//	@Summary		Copy a note into a new active note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Source note id"
//	@Success		201	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/duplicate [post]
func (h *Handler) DuplicateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.svc.DuplicateNote(r.Context(), id)
	if err != nil {
		writeServiceError(w, "duplicate note", id, err)
		return
	}
	w.Header().Set("Location", "/api/notes/"+strconv.Itoa(note.ID))
	writeNote(w, http.StatusCreated, note)
}

// DeletePreview handles GET /api/notes/{id}/preview.
//
//	@Summary		Show what a permanent delete would remove
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	DeletePreview
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/preview [get]
func (h *Handler) DeletePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.DeletePreview(r.Context(), id)
	if err != nil {
		writeServiceError(w, "delete preview", id, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Permanently delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeServiceError(w, "delete note", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search. An empty q matches every active note.
//
//	@Summary		Search active notes by title or content
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	false	"Search term"
//	@Success		200	{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, "search", 0, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Categories handles GET /api/categories.
//
//	@Summary		List known categories
//	@Tags			categories
//	@Produce		json
//	@Param			exclude	query		[]string	false	"Label to leave out; repeat for several"	collectionFormat(multi)
//	@Success		200		{object}	CategoriesResponse
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	exclude := r.URL.Query()["exclude"]
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: h.svc.Categories(r.Context(), exclude)})
}

// Stats handles GET /api/stats.
//
//	@Summary		Collection totals and category registry
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Summary(r.Context()))
}
