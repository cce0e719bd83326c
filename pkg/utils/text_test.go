package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateBookIdDeterministic(t *testing.T) {
	a := GenerateBookId("Dune", "Frank Herbert")
	b := GenerateBookId("  dune ", "FRANK HERBERT")

	assert.Equal(t, a, b, "id must ignore case and surrounding whitespace")
	assert.Len(t, a, 12)
}

func TestGenerateBookIdDistinct(t *testing.T) {
	assert.NotEqual(t,
		GenerateBookId("Dune", "Frank Herbert"),
		GenerateBookId("Dune Messiah", "Frank Herbert"),
	)
}

func TestGenerateDynamicBookIdPrefix(t *testing.T) {
	id := GenerateDynamicBookId()
	assert.True(t, strings.HasPrefix(id, "dyn_"))
	assert.NotEqual(t, id, GenerateDynamicBookId())
}

func TestCleanDescriptionStripsHTML(t *testing.T) {
	got := CleanDescription("<p>A  <b>classic</b>\n tale.</p>", 1000)
	assert.Equal(t, "A classic tale.", got)
}

func TestCleanDescriptionTruncatesAtSentence(t *testing.T) {
	text := strings.Repeat("Sentence one here. ", 10)
	got := CleanDescription(text, 100)

	assert.LessOrEqual(t, len(got), 100)
	assert.True(t, strings.HasSuffix(got, "."))
}

func TestCleanDescriptionEllipsisWhenNoBoundary(t *testing.T) {
	text := strings.Repeat("word ", 60)
	got := CleanDescription(text, 50)

	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestNormalizeGenre(t *testing.T) {
	cases := map[string]string{
		"sci-fi":      "Science Fiction",
		"SCIFI":       "Science Fiction",
		" self-help ": "Self-Help",
		"nonfiction":  "Non-Fiction",
		"cozy crime":  "Cozy Crime",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeGenre(in), "input %q", in)
	}
}
