package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-bookrec-be/internal/constant"
	"ai-bookrec-be/internal/entity"
)

func TestDeriveSessionTitle(t *testing.T) {
	assert.Equal(t, "books about the sea", deriveSessionTitle("books about the sea"))
	assert.Equal(t, constant.ChatSessionDefaultTitle, deriveSessionTitle("   "))

	long := strings.Repeat("a", 100)
	title := deriveSessionTitle(long)
	assert.True(t, strings.HasSuffix(title, "..."))
	assert.LessOrEqual(t, len(title), 63)
}

func TestToRecommendationDTOs(t *testing.T) {
	assert.Nil(t, toRecommendationDTOs(nil))

	dtos := toRecommendationDTOs([]entity.Recommendation{
		{BookId: "b1", Title: "T", Author: "A", Score: 0.7, Reason: "fits"},
	})
	assert.Len(t, dtos, 1)
	assert.Equal(t, "b1", dtos[0].BookId)
	assert.Equal(t, "fits", dtos[0].Reason)
}

func TestBuildBookDocumentShape(t *testing.T) {
	book := &entity.Book{
		Title:       "The Sea",
		Author:      "A. Writer",
		Genre:       "Fiction",
		Description: "Waves and salt.",
	}

	doc := BuildBookDocument(book)
	assert.Contains(t, doc, "The Sea by A. Writer.")
	assert.Contains(t, doc, "Genre: Fiction.")
	assert.Contains(t, doc, "Waves and salt.")
}
