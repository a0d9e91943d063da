package noteservice

import (
	"unicode/utf8"

	"github.com/starford/notedeck/internal/checksum"
	"github.com/starford/notedeck/internal/models"
)

const (
	wordsPerMinute = 200
	previewRunes   = 200
)

// NoteDetail is a note plus everything a view needs to render it.
type NoteDetail struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Categories     []string `json:"categories"`
	Date           string   `json:"date"`
	IsActive       bool     `json:"is_active"`
	WordCount      int      `json:"word_count"`
	Status         string   `json:"status"`
	Characters     int      `json:"characters"`
	ReadingMinutes int      `json:"reading_minutes"`
	Checksum       string   `json:"checksum"`
}

// DeletePreview is shown before a permanent delete is confirmed.
type DeletePreview struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Preview    string   `json:"preview"`
	Categories []string `json:"categories"`
}

// Summary reports collection totals and the category registry.
type Summary struct {
	models.Stats
	Categories []string `json:"category_list"`
}

func newDetail(n models.Note, md models.Metadata) NoteDetail {
	return NoteDetail{
		ID:             n.ID,
		Title:          n.Title,
		Content:        n.Content,
		Categories:     nonNilSlice(n.Categories),
		Date:           n.Date,
		IsActive:       n.IsActive,
		WordCount:      md.WordCount,
		Status:         md.Status,
		Characters:     utf8.RuneCountInString(n.Content),
		ReadingMinutes: readingMinutes(md.WordCount),
		Checksum:       checksum.Note(n),
	}
}

// readingMinutes rounds up at 200 words per minute.
func readingMinutes(words int) int {
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// preview returns the first 200 runes of content followed by an ellipsis.
func preview(content string) string {
	if utf8.RuneCountInString(content) > previewRunes {
		content = string([]rune(content)[:previewRunes])
	}
	return content + "..."
}
