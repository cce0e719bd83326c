package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/utils"
)

const openLibraryTimeout = 5 * time.Second

// OpenLibrarySource queries the free Open Library search API. First tier
// of the waterfall: no key, no quota.
type OpenLibrarySource struct {
	BaseURL string
	Client  *http.Client
}

var _ Source = &OpenLibrarySource{}

func NewOpenLibrarySource() *OpenLibrarySource {
	return &OpenLibrarySource{
		BaseURL: "https://openlibrary.org",
		Client:  &http.Client{Timeout: openLibraryTimeout},
	}
}

func (s *OpenLibrarySource) Name() string {
	return "openlibrary"
}

type openLibraryDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Subject          []string `json:"subject"`
	CoverId          int      `json:"cover_i"`
	RatingsAverage   float64  `json:"ratings_average"`
}

type openLibraryResponse struct {
	Docs []openLibraryDoc `json:"docs"`
}

func (s *OpenLibrarySource) Search(ctx context.Context, query string, maxResults int) ([]entity.Book, error) {
	endpoint := fmt.Sprintf("%s/search.json?q=%s&limit=%d", s.BaseURL, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: create request: %w", err)
	}

	res, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openlibrary: status %d", res.StatusCode)
	}

	var parsed openLibraryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openlibrary: decode response: %w", err)
	}

	books := make([]entity.Book, 0, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		if doc.Title == "" {
			continue
		}
		author := "Unknown"
		if len(doc.AuthorName) > 0 {
			author = doc.AuthorName[0]
		}
		genre := "General"
		if len(doc.Subject) > 0 {
			genre = utils.NormalizeGenre(doc.Subject[0])
		}
		rating := doc.RatingsAverage
		if rating <= 0 {
			rating = 4.0
		}
		if rating > 5 {
			rating = 5
		}

		book := entity.Book{
			Id:        utils.GenerateBookId(doc.Title, author),
			Title:     doc.Title,
			Author:    author,
			Genre:     genre,
			Rating:    rating,
			Source:    entity.BookSourceOpenLibrary,
			IsDynamic: true,
		}
		if doc.FirstPublishYear > 0 {
			year := doc.FirstPublishYear
			book.YearPublished = &year
		}
		if doc.CoverId > 0 {
			book.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverId)
		}

		books = append(books, book)
		if len(books) >= maxResults {
			break
		}
	}

	return books, nil
}
