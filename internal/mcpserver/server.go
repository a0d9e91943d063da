// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notedeck tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notedeck/internal/apperr"
	"github.com/starford/notedeck/internal/noteservice"
)

const noteFormatURI = "notedeck://note-format"

// Server wraps the MCP server with notedeck tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all notedeck tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notedeck",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	idArg := mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id"))
	categoriesArg := mcp.WithArray("categories",
		mcp.WithStringItems(),
		mcp.Description("Category labels, each kept as one label (e.g. [\"Work\", \"Q1, Q2\"]). Empty means General."))

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List active notes in creation order, optionally limited to one category."),
		mcp.WithString("category", mcp.Description("Exact, case-sensitive category label")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note by id, including archived notes, with word count and checksum."),
		idArg,
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search over active notes' title and content."),
		mcp.WithString("query", mcp.Description("Search term; empty matches every active note")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("filter_notes",
		mcp.WithDescription("List active notes carrying a category label."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Exact, case-sensitive category label")),
	), s.filterNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new active note. Follow the note contract: read it via "+
			"the get_note_contract tool or the "+noteFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Plain-text note body")),
		categoriesArg,
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace a note's title, content and categories. Archived notes become active again."),
		idArg,
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New body")),
		categoriesArg,
		mcp.WithString("checksum", mcp.Description("Checksum from read_note; the update fails if the note changed since")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("archive_note",
		mcp.WithDescription("Archive a note so it no longer appears in listings or search."),
		idArg,
	), s.archiveNote)

	s.mcp.AddTool(mcp.NewTool("duplicate_note",
		mcp.WithDescription("Copy a note into a new active note titled \"<title> (Copy)\"."),
		idArg,
	), s.duplicateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Permanently delete a note. This cannot be undone."),
		idArg,
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List every category label ever used, sorted."),
		mcp.WithArray("exclude", mcp.WithStringItems(), mcp.Description("Labels to leave out")),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the notedeck note contract. "+
			"Call this before creating or updating notes."),
	), s.getNoteContract)

	// Resource: note contract.
	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Contract",
			mcp.WithResourceDescription("Fields and rules every notedeck note follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a domain error into a tool-level error result.
func toolError(id int, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: note %d", id))
	}
	if errors.Is(err, apperr.ErrConflict) {
		return mcp.NewToolResultError(fmt.Sprintf("note %d changed since it was read; read it again", id))
	}
	return mcp.NewToolResultError(err.Error())
}

func requireID(req mcp.CallToolRequest) (int, *mcp.CallToolResult) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	if id <= 0 {
		return 0, mcp.NewToolResultError("id must be a positive integer")
	}
	return id, nil
}

func noteInput(req mcp.CallToolRequest) (noteservice.NoteInput, *mcp.CallToolResult) {
	title, err := req.RequireString("title")
	if err != nil {
		return noteservice.NoteInput{}, mcp.NewToolResultError(err.Error())
	}
	content, err := req.RequireString("content")
	if err != nil {
		return noteservice.NoteInput{}, mcp.NewToolResultError(err.Error())
	}
	return noteservice.NoteInput{
		Title:      title,
		Content:    content,
		Categories: req.GetStringSlice("categories", nil),
	}, nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.ListNotes(ctx, "", req.GetString("category", ""))
	if err != nil {
		return toolError(0, err), nil
	}
	return jsonResult(notes)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req)
	if bad != nil {
		return bad, nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(note)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.Search(ctx, req.GetString("query", ""))
	if err != nil {
		return toolError(0, err), nil
	}
	return jsonResult(notes)
}

func (s *Server) filterNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.ListNotes(ctx, "", category)
	if err != nil {
		return toolError(0, err), nil
	}
	return jsonResult(notes)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, bad := noteInput(req)
	if bad != nil {
		return bad, nil
	}
	note, err := s.svc.CreateNote(ctx, in)
	if err != nil {
		return toolError(0, err), nil
	}
	return jsonResult(note)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req)
	if bad != nil {
		return bad, nil
	}
	in, bad := noteInput(req)
	if bad != nil {
		return bad, nil
	}
	note, err := s.svc.UpdateNote(ctx, id, in, req.GetString("checksum", ""))
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(note)
}

func (s *Server) archiveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req)
	if bad != nil {
		return bad, nil
	}
	if _, err := s.svc.ArchiveNote(ctx, id); err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("archived: %d", id)), nil
}

func (s *Server) duplicateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req)
	if bad != nil {
		return bad, nil
	}
	note, err := s.svc.DuplicateNote(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(note)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req)
	if bad != nil {
		return bad, nil
	}
	if err := s.svc.DeleteNote(ctx, id); err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Categories(ctx, req.GetStringSlice("exclude", nil)))
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
