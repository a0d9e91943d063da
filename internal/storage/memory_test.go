package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notedeck/internal/apperr"
	"github.com/starford/notedeck/internal/models"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func seeded(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(WithClock(fixedClock))
	require.NoError(t, m.Seed(DefaultSeed()))
	return m
}

func ids(notes []models.Note) []int {
	out := make([]int, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestScenario_SeedThenCreate(t *testing.T) {
	m := seeded(t)

	assert.Equal(t, []int{1, 2}, ids(m.ListActive()))

	id := m.Create("Test", "Test content", []string{"Testing", "Demo"})
	assert.Equal(t, 4, id)
	assert.Equal(t, []int{1, 2, 4}, ids(m.ListActive()))
}

func TestCreate_EmptyStoreStartsAtOne(t *testing.T) {
	m := NewMemory(WithClock(fixedClock))
	assert.Equal(t, 1, m.Create("a", "b", nil))
	assert.Equal(t, 2, m.Create("c", "d", nil))
}

func TestCreate_Defaults(t *testing.T) {
	m := NewMemory(WithClock(fixedClock))
	id := m.Create("Title", "one two  three", nil)

	n, err := m.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, []string{models.DefaultCategory}, n.Categories)
	assert.Equal(t, "2026-03-14", n.Date)
	assert.True(t, n.IsActive)

	md, err := m.Metadata(id)
	require.NoError(t, err)
	assert.Equal(t, 3, md.WordCount)
	assert.Equal(t, models.StatusActive, md.Status)
	assert.Contains(t, m.Categories(), models.DefaultCategory)
}

func TestCreate_DoesNotAliasCallerSlice(t *testing.T) {
	m := NewMemory()
	cats := []string{"A", "B"}
	id := m.Create("t", "c", cats)
	cats[0] = "changed"

	n, err := m.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, n.Categories)
}

func TestIDs_UniqueAndMonotonic(t *testing.T) {
	f := gofakeit.New(42)
	m := NewMemory()

	last := 0
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		if i > 0 && f.Bool() {
			// Delete a random live note, sometimes the newest one.
			active := m.ListActive()
			victim := active[f.IntRange(0, len(active)-1)].ID
			require.NoError(t, m.DeletePermanently(victim))
		}
		id := m.Create(f.Sentence(3), f.Paragraph(1, 2, 8, " "), []string{f.Word()})
		assert.False(t, seen[id], "id %d reused", id)
		assert.Greater(t, id, last)
		seen[id] = true
		last = id
	}
}

func TestFindByID_NotFound(t *testing.T) {
	m := seeded(t)
	_, err := m.FindByID(99)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	m := seeded(t)
	n, err := m.FindByID(1)
	require.NoError(t, err)
	n.Title = "mutated"
	n.Categories[0] = "mutated"

	again, err := m.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Plans for future and other directions", again.Title)
	assert.Equal(t, []string{"Work", "Planning"}, again.Categories)
}

func TestUpdate_RoundTrip(t *testing.T) {
	m := seeded(t)
	require.NoError(t, m.Update(2, "New title", "alpha beta", []string{"X", "Y"}))

	n, err := m.FindByID(2)
	require.NoError(t, err)
	assert.Equal(t, "New title", n.Title)
	assert.Equal(t, "alpha beta", n.Content)
	assert.Equal(t, []string{"X", "Y"}, n.Categories)
	assert.Equal(t, "2026-03-14", n.Date)
	assert.True(t, n.IsActive)
	assert.Equal(t, 2, n.ID)

	md, err := m.Metadata(2)
	require.NoError(t, err)
	assert.Equal(t, models.Metadata{WordCount: 2, Status: models.StatusActive}, md)
	assert.Subset(t, m.Categories(), []string{"X", "Y"})
}

func TestUpdate_EmptyCategoriesDefault(t *testing.T) {
	m := seeded(t)
	require.NoError(t, m.Update(1, "T", "C", []string{}))
	n, err := m.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, []string{models.DefaultCategory}, n.Categories)
}

func TestUpdate_NotFound(t *testing.T) {
	m := seeded(t)
	err := m.Update(42, "T", "C", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestArchiveThenUpdateReactivates(t *testing.T) {
	m := seeded(t)
	before, err := m.Metadata(1)
	require.NoError(t, err)

	require.NoError(t, m.Archive(1))
	n, err := m.FindByID(1)
	require.NoError(t, err)
	assert.False(t, n.IsActive)
	assert.Equal(t, "2025-04-27", n.Date, "archive must not touch the date")

	md, err := m.Metadata(1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, md.Status)
	assert.Equal(t, before.WordCount, md.WordCount)
	assert.NotContains(t, ids(m.ListActive()), 1)

	require.NoError(t, m.Update(1, "Back", "again here", nil))
	n, err = m.FindByID(1)
	require.NoError(t, err)
	assert.True(t, n.IsActive)
	md, err = m.Metadata(1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, md.Status)
	assert.Equal(t, []int{1, 2}, ids(m.ListActive()))
}

func TestArchive_NotFound(t *testing.T) {
	m := seeded(t)
	assert.ErrorIs(t, m.Archive(7), apperr.ErrNotFound)
}

func TestDeletePermanently(t *testing.T) {
	m := seeded(t)
	require.NoError(t, m.DeletePermanently(2))

	_, err := m.FindByID(2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = m.Metadata(2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, m.DeletePermanently(2), apperr.ErrNotFound)

	// Deleting the archived note works too.
	require.NoError(t, m.DeletePermanently(3))
	assert.Equal(t, []int{1}, ids(m.ListActive()))
}

func TestDeletePermanently_NewestIDNotReused(t *testing.T) {
	m := seeded(t)
	id := m.Create("t", "c", nil)
	require.NoError(t, m.DeletePermanently(id))
	assert.Equal(t, id+1, m.Create("t", "c", nil))
}

func TestDeletePermanently_KeepsCategories(t *testing.T) {
	m := seeded(t)
	id := m.Create("only", "one", []string{"X"})
	require.NoError(t, m.DeletePermanently(id))
	assert.Contains(t, m.Categories(), "X")
}

func TestDuplicate(t *testing.T) {
	m := seeded(t)
	newID, err := m.Duplicate(1)
	require.NoError(t, err)
	assert.Equal(t, 4, newID)

	dup, err := m.FindByID(newID)
	require.NoError(t, err)
	assert.Equal(t, "Plans for future and other directions (Copy)", dup.Title)
	assert.True(t, dup.IsActive)
	assert.Equal(t, "2026-03-14", dup.Date)

	src, err := m.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, src.Content, dup.Content)
	assert.Equal(t, src.Categories, dup.Categories)
}

func TestDuplicate_Independence(t *testing.T) {
	m := seeded(t)
	newID, err := m.Duplicate(1)
	require.NoError(t, err)

	src, dup := m.notes[1].Categories, m.notes[newID].Categories
	require.Equal(t, src, dup)
	dup[0] = "scribble"
	dup = append(dup, "extra")
	m.notes[newID].Categories = dup

	assert.Equal(t, []string{"Work", "Planning"}, m.notes[1].Categories)
	assert.Equal(t, []string{"scribble", "Planning", "extra"}, m.notes[newID].Categories)
}

func TestDuplicate_ArchivedSourceYieldsActiveCopy(t *testing.T) {
	m := seeded(t)
	newID, err := m.Duplicate(3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, newID}, ids(m.ListActive()))
}

func TestDuplicate_NotFound(t *testing.T) {
	m := seeded(t)
	_, err := m.Duplicate(100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearch(t *testing.T) {
	m := seeded(t)

	// Note 1 mentions "Design" in its content; note 3 has it in the title but is archived.
	assert.Equal(t, []int{1}, ids(m.Search("design")))
	assert.Equal(t, []int{1}, ids(m.Search("DESIGN")))

	require.NoError(t, m.Update(3, "Design exploration techniques", "methods", nil))
	assert.Equal(t, []int{1, 3}, ids(m.Search("design")))

	assert.Equal(t, ids(m.ListActive()), ids(m.Search("")))
	assert.Empty(t, m.Search("no such words"))
}

func TestSearch_Fuzz(t *testing.T) {
	f := gofakeit.New(7)
	m := NewMemory()
	for i := 0; i < 50; i++ {
		m.Create(f.Sentence(4), f.Paragraph(1, 3, 10, " "), nil)
	}
	for i := 0; i < 20; i++ {
		word := f.Word()
		for _, n := range m.Search(word) {
			assert.True(t,
				containsFold(n.Title, word) || containsFold(n.Content, word),
				"note %d does not contain %q", n.ID, word)
		}
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func TestFilterByCategory(t *testing.T) {
	m := NewMemory()
	a := m.Create("A", "a", []string{"Work", "Planning"})
	m.Create("B", "b", []string{"Design", "UX"})

	assert.Equal(t, []int{a}, ids(m.FilterByCategory("Work")))
	assert.Empty(t, m.FilterByCategory("work"), "labels are case-sensitive")

	require.NoError(t, m.Archive(a))
	assert.Empty(t, m.FilterByCategory("Work"))
}

func TestListActive_Snapshot(t *testing.T) {
	m := seeded(t)
	list := m.ListActive()
	m.Create("later", "later", nil)
	assert.Len(t, list, 2)
}

func TestAvailableCategories(t *testing.T) {
	m := seeded(t)
	got := m.AvailableCategories([]string{"Work", "UX"})
	assert.Equal(t, []string{"Design", "Meetings", "Planning", "Review"}, got)
}

func TestStats(t *testing.T) {
	m := seeded(t)
	assert.Equal(t, models.Stats{Total: 3, Active: 2, Archived: 1, Categories: 6}, m.Stats())
}

func TestSeed_Rejects(t *testing.T) {
	m := NewMemory()
	err := m.Seed([]models.Note{{ID: 0, Title: "x", Content: "y"}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	err = m.Seed([]models.Note{{ID: 1}, {ID: 1}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	for _, date := range []string{"27/04/2025", "2025-4-27", "2025-02-30", "2025-04-27T10:00:00Z"} {
		err = m.Seed([]models.Note{{ID: 9, Title: "t", Content: "c", Date: date}})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "date %q", date)
	}
	assert.Zero(t, m.Stats().Total, "a rejected seed must not load any note")

	require.NoError(t, m.Seed([]models.Note{{ID: 5, Title: "t", Content: "c", Date: "2025-04-27", IsActive: true}}))
	err = m.Seed([]models.Note{{ID: 3}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, 6, m.Create("next", "one", nil))
}

func TestMetadataBijection(t *testing.T) {
	f := gofakeit.New(3)
	m := seeded(t)
	for i := 0; i < 100; i++ {
		switch f.IntRange(0, 3) {
		case 0:
			m.Create(f.Word(), f.Sentence(5), nil)
		case 1:
			if active := m.ListActive(); len(active) > 0 {
				_ = m.Archive(active[0].ID)
			}
		case 2:
			if active := m.ListActive(); len(active) > 0 {
				_ = m.DeletePermanently(active[len(active)-1].ID)
			}
		case 3:
			if active := m.ListActive(); len(active) > 0 {
				_, _ = m.Duplicate(active[0].ID)
			}
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	require.Equal(t, len(m.notes), len(m.metadata))
	for id, n := range m.notes {
		md, ok := m.metadata[id]
		require.True(t, ok, "missing metadata for %d", id)
		assert.Equal(t, n.Status(), md.Status)
		assert.Equal(t, WordCount(n.Content), md.WordCount)
		for _, c := range n.Categories {
			_, ok := m.categories[c]
			assert.True(t, ok, "category %q not registered", c)
		}
	}
}
