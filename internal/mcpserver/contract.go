package mcpserver

// NoteFormatContract describes the note model that LLM consumers should
// follow when creating or updating notes.
const NoteFormatContract = `# notedeck Note Contract

Every note in notedeck has the same shape.

## Fields

| field        | type            | set by            |
|--------------|-----------------|-------------------|
| id           | integer >= 1    | server, immutable |
| title        | string          | caller, REQUIRED  |
| content      | string          | caller, REQUIRED  |
| categories   | list of strings | caller, OPTIONAL  |
| date         | YYYY-MM-DD      | server            |
| is_active    | boolean         | server            |

## Rules

1. **Title and content are required.** Blank values (after trimming) are rejected.
2. **Text is stored as given.** Surrounding whitespace is trimmed; nothing
   else is changed, so ` + "`" + `<` + "`" + `, ` + "`" + `&` + "`" + ` and entity-like text round-trip unchanged.
3. **Categories** are passed to tools as a list of strings
   (e.g. ` + "`" + `["Work", "Planning"]` + "`" + `). Each entry is one label, commas included.
   Labels are trimmed, blanks are dropped and repeats are removed.
   Matching is exact and case-sensitive.
   A note saved without categories gets ` + "`" + `General` + "`" + `.
4. **Ids are never reused.** A new note gets one more than the highest id
   ever assigned.
5. **Date** is refreshed to today on create, update and duplicate.
6. **Archiving** hides a note from ` + "`" + `list_notes` + "`" + `, ` + "`" + `search_notes` + "`" + ` and
   ` + "`" + `filter_notes` + "`" + `; ` + "`" + `read_note` + "`" + ` still returns it. Updating an archived
   note makes it active again.
7. **Duplicating** copies title (with a ` + "`" + ` (Copy)` + "`" + ` suffix), content and
   categories into a new active note.
8. **Deleting is permanent.** Categories the note used stay in the registry.
9. **Search** is a case-insensitive substring match on title or content.
   An empty query matches every active note.

## Example

` + "```" + `json
{
  "id": 4,
  "title": "Weekly standup",
  "content": "Alice reviews the design doc. Bob updates the roadmap.",
  "categories": ["Meetings", "Work"],
  "date": "2025-06-25",
  "is_active": true
}
` + "```" + `
`
