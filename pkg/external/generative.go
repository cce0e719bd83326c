package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/utils"
)

const generativeTimeout = 10 * time.Second

// generativeLabel marks descriptions that came from the model rather than
// a bibliographic source. Mandatory on every generative result.
const generativeLabel = "(Source: AI Generated)"

// GenerativeSource is the last-resort tier: it asks the LLM for real
// published books matching the query. Only invoked after both
// bibliographic tiers produced nothing.
type GenerativeSource struct {
	provider llm.LLMProvider
}

var _ Source = &GenerativeSource{}

func NewGenerativeSource(provider llm.LLMProvider) *GenerativeSource {
	return &GenerativeSource{provider: provider}
}

func (s *GenerativeSource) Name() string {
	return "generative"
}

type generativeBook struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Description   string  `json:"description"`
	Genre         string  `json:"genre"`
	YearPublished int     `json:"year_published"`
	Rating        float64 `json:"rating"`
}

func (s *GenerativeSource) Search(ctx context.Context, query string, maxResults int) ([]entity.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, generativeTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`You are a book database assistant. The user is looking for: "%s"

Find %d REAL books that best match this query. These must be actual published books.

For each book, provide accurate details in this exact JSON format:
[
  {
    "title": "Exact Book Title",
    "author": "Author Name",
    "description": "A compelling 2-3 sentence description of the book",
    "genre": "Primary genre (e.g., Self-Help, Fiction, Science Fiction, Romance, Biography)",
    "year_published": 2020,
    "rating": 4.5
  }
]

CRITICAL RULES:
- Only include books that ACTUALLY EXIST
- Be accurate with author names and publication years
- Rating should be a reasonable estimate (1.0 to 5.0)
- If the query mentions a specific book, prioritize finding exactly that book
- Return ONLY the JSON array, no other text`, query, maxResults)

	raw, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("generative: %w", err)
	}

	var parsed []generativeBook
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("generative: decode model output: %w", err)
	}

	books := make([]entity.Book, 0, len(parsed))
	for _, gb := range parsed {
		if gb.Title == "" {
			continue
		}
		author := gb.Author
		if author == "" {
			author = "Unknown"
		}
		rating := gb.Rating
		if rating <= 0 {
			rating = 4.0
		}
		if rating > 5 {
			rating = 5
		}
		description := strings.TrimSpace(gb.Description)
		if description != "" && !strings.HasSuffix(description, generativeLabel) {
			description = description + " " + generativeLabel
		}

		book := entity.Book{
			Id:          utils.GenerateDynamicBookId(),
			Title:       gb.Title,
			Author:      author,
			Description: description,
			Genre:       utils.NormalizeGenre(gb.Genre),
			Rating:      rating,
			Source:      entity.BookSourceGenerative,
			IsDynamic:   true,
		}
		if gb.YearPublished > 0 {
			year := gb.YearPublished
			book.YearPublished = &year
		}

		books = append(books, book)
		if len(books) >= maxResults {
			break
		}
	}

	return books, nil
}

// extractJSONArray pulls the JSON array out of model output that may be
// wrapped in code fences or surrounding prose.
func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}
