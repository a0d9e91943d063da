package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notedeck/internal/noteservice"
	"github.com/starford/notedeck/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	svc, _ := testutil.TestService(t)
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the
	// handler functions.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "filter_notes":
		result, err = srv.filterNotes(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "archive_note":
		result, err = srv.archiveNote(ctx, req)
	case "duplicate_note":
		result, err = srv.duplicateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "list_categories":
		result, err = srv.listCategories(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func resultJSON[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func ids(notes []noteservice.NoteDetail) []int {
	out := make([]int, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":      "Test",
		"content":    "Hello there",
		"categories": []interface{}{"Work", " Ideas", "Work"},
	})
	created := resultJSON[noteservice.NoteDetail](t, r)
	if created.ID != 4 {
		t.Errorf("id = %d, want 4", created.ID)
	}
	if strings.Join(created.Categories, "|") != "Work|Ideas" {
		t.Errorf("categories = %v", created.Categories)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": float64(4)})
	read := resultJSON[noteservice.NoteDetail](t, r)
	if read.Content != "Hello there" || read.WordCount != 2 {
		t.Errorf("read = %+v", read)
	}
}

func TestCreateNote_LabelWithSeparators(t *testing.T) {
	srv := testServer(t)

	created := resultJSON[noteservice.NoteDetail](t, callTool(t, srv, "create_note", map[string]interface{}{
		"title":      "Roadmap",
		"content":    "Use Vec<String> & friends",
		"categories": []interface{}{"Q1, Q2", "R;D"},
	}))
	if strings.Join(created.Categories, "|") != "Q1, Q2|R;D" {
		t.Errorf("categories = %v, want [Q1, Q2] [R;D]", created.Categories)
	}
	if created.Content != "Use Vec<String> & friends" {
		t.Errorf("content = %q", created.Content)
	}

	got := resultJSON[[]string](t, callTool(t, srv, "list_categories", map[string]interface{}{"exclude": []interface{}{"Q1, Q2"}}))
	for _, c := range got {
		if c == "Q1, Q2" {
			t.Error("excluded label still listed")
		}
	}
}

func TestCreateNoteMissingTitle(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"content": "x"})
	if !r.IsError {
		t.Error("expected error for missing title")
	}
	r = callTool(t, srv, "create_note", map[string]interface{}{"title": "  ", "content": "x"})
	if !r.IsError {
		t.Error("expected error for blank title")
	}
}

func TestListNotes(t *testing.T) {
	srv := testServer(t)

	got := ids(resultJSON[[]noteservice.NoteDetail](t, callTool(t, srv, "list_notes", map[string]interface{}{})))
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("list = %v, want [1 2]", got)
	}

	got = ids(resultJSON[[]noteservice.NoteDetail](t, callTool(t, srv, "list_notes", map[string]interface{}{"category": "Planning"})))
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("list Planning = %v, want [1]", got)
	}
}

func TestSearchAndFilter(t *testing.T) {
	srv := testServer(t)

	got := ids(resultJSON[[]noteservice.NoteDetail](t, callTool(t, srv, "search_notes", map[string]interface{}{"query": "design"})))
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("search design = %v, want [1]", got)
	}

	got = ids(resultJSON[[]noteservice.NoteDetail](t, callTool(t, srv, "filter_notes", map[string]interface{}{"category": "Design"})))
	if len(got) != 0 {
		t.Errorf("filter Design = %v, archived note must be hidden", got)
	}

	if r := callTool(t, srv, "filter_notes", map[string]interface{}{}); !r.IsError {
		t.Error("filter_notes without category should fail")
	}
}

func TestUpdateNoteChecksum(t *testing.T) {
	srv := testServer(t)

	current := resultJSON[noteservice.NoteDetail](t, callTool(t, srv, "read_note", map[string]interface{}{"id": float64(3)}))

	r := callTool(t, srv, "update_note", map[string]interface{}{
		"id":       float64(3),
		"title":    "Revived",
		"content":  "back in use",
		"checksum": current.Checksum,
	})
	updated := resultJSON[noteservice.NoteDetail](t, r)
	if !updated.IsActive || updated.Categories[0] != "General" {
		t.Errorf("updated = %+v", updated)
	}

	r = callTool(t, srv, "update_note", map[string]interface{}{
		"id":       float64(3),
		"title":    "Again",
		"content":  "stale",
		"checksum": current.Checksum,
	})
	if !r.IsError || !strings.Contains(resultText(r), "changed") {
		t.Errorf("stale checksum result = %q", resultText(r))
	}
}

func TestArchiveDuplicateDelete(t *testing.T) {
	srv := testServer(t)

	if r := callTool(t, srv, "archive_note", map[string]interface{}{"id": float64(1)}); resultText(r) != "archived: 1" {
		t.Errorf("archive = %q", resultText(r))
	}

	dup := resultJSON[noteservice.NoteDetail](t, callTool(t, srv, "duplicate_note", map[string]interface{}{"id": float64(1)}))
	if dup.ID != 4 || !dup.IsActive {
		t.Errorf("duplicate of archived note = %+v", dup)
	}

	if r := callTool(t, srv, "delete_note", map[string]interface{}{"id": float64(1)}); resultText(r) != "deleted: 1" {
		t.Errorf("delete = %q", resultText(r))
	}
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": float64(1)})
	if !r.IsError || resultText(r) != "not found: note 1" {
		t.Errorf("read deleted = %q", resultText(r))
	}
}

func TestBadID(t *testing.T) {
	srv := testServer(t)
	if r := callTool(t, srv, "read_note", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing id")
	}
	if r := callTool(t, srv, "delete_note", map[string]interface{}{"id": float64(0)}); !r.IsError {
		t.Error("expected error for id 0")
	}
}

func TestListCategories(t *testing.T) {
	srv := testServer(t)
	got := resultJSON[[]string](t, callTool(t, srv, "list_categories", map[string]interface{}{"exclude": []interface{}{"UX", "Work"}}))
	want := "Design|Meetings|Planning|Review"
	if strings.Join(got, "|") != want {
		t.Errorf("categories = %v, want %s", got, want)
	}
}

func TestNoteContract(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_note_contract", map[string]interface{}{}))
	if !strings.Contains(text, "Ids are never reused") {
		t.Error("contract text missing id rule")
	}

	contents, err := srv.readNoteFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != noteFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
