package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/utils"
)

const (
	googleBooksTimeout = 5 * time.Second

	// maxDescriptionLength bounds descriptions pulled from Google Books.
	maxDescriptionLength = 800
)

// GoogleBooksSource is the second bibliographic tier. It also serves the
// description enricher via FetchDescription.
type GoogleBooksSource struct {
	BaseURL string
	ApiKey  string
	Client  *http.Client
}

var _ Source = &GoogleBooksSource{}

func NewGoogleBooksSource(apiKey string) *GoogleBooksSource {
	return &GoogleBooksSource{
		BaseURL: "https://www.googleapis.com/books/v1",
		ApiKey:  apiKey,
		Client:  &http.Client{Timeout: googleBooksTimeout},
	}
}

func (s *GoogleBooksSource) Name() string {
	return "googlebooks"
}

type googleVolumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
	AverageRating float64  `json:"averageRating"`
	PublishedDate string   `json:"publishedDate"`
	ImageLinks    struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

type googleSearchInfo struct {
	TextSnippet string `json:"textSnippet"`
}

type googleVolume struct {
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
	SearchInfo googleSearchInfo `json:"searchInfo"`
}

type googleVolumesResponse struct {
	Items []googleVolume `json:"items"`
}

func (s *GoogleBooksSource) fetch(ctx context.Context, query string, maxResults int) (*googleVolumesResponse, error) {
	endpoint := fmt.Sprintf("%s/volumes?q=%s&maxResults=%d&printType=books", s.BaseURL, url.QueryEscape(query), maxResults)
	if s.ApiKey != "" {
		endpoint += "&key=" + url.QueryEscape(s.ApiKey)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("googlebooks: create request: %w", err)
	}

	res, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("googlebooks: request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("googlebooks: read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("googlebooks: status %d", res.StatusCode)
	}

	var parsed googleVolumesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("googlebooks: decode response: %w", err)
	}
	return &parsed, nil
}

func (s *GoogleBooksSource) Search(ctx context.Context, query string, maxResults int) ([]entity.Book, error) {
	parsed, err := s.fetch(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	books := make([]entity.Book, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		info := item.VolumeInfo
		if info.Title == "" {
			continue
		}
		author := "Unknown"
		if len(info.Authors) > 0 {
			author = info.Authors[0]
		}
		genre := "General"
		if len(info.Categories) > 0 {
			genre = utils.NormalizeGenre(info.Categories[0])
		}
		rating := info.AverageRating
		if rating <= 0 {
			rating = 4.0
		}

		book := entity.Book{
			Id:          utils.GenerateBookId(info.Title, author),
			Title:       info.Title,
			Author:      author,
			Description: utils.CleanDescription(info.Description, maxDescriptionLength),
			Genre:       genre,
			Rating:      rating,
			CoverURL:    info.ImageLinks.Thumbnail,
			Source:      entity.BookSourceGoogleBooks,
			IsDynamic:   true,
		}
		if year := parseYear(info.PublishedDate); year > 0 {
			book.YearPublished = &year
		}

		books = append(books, book)
		if len(books) >= maxResults {
			break
		}
	}

	return books, nil
}

// FetchDescription looks up a description for one known book: strict
// intitle/inauthor query first, then a loose query, with the search
// snippet as a final in-response fallback. Empty string means not found.
func (s *GoogleBooksSource) FetchDescription(ctx context.Context, title, author string) (string, error) {
	strict := "intitle:" + title
	if author != "" && author != "Unknown" {
		strict += "+inauthor:" + author
	}

	parsed, err := s.fetch(ctx, strict, 1)
	if err != nil || parsed == nil || len(parsed.Items) == 0 {
		parsed, err = s.fetch(ctx, title+" "+author, 1)
		if err != nil {
			return "", err
		}
	}
	if len(parsed.Items) == 0 {
		return "", nil
	}

	description := parsed.Items[0].VolumeInfo.Description
	if description == "" {
		description = parsed.Items[0].SearchInfo.TextSnippet
	}
	if description == "" {
		return "", nil
	}

	return utils.CleanDescription(description, maxDescriptionLength), nil
}

func parseYear(publishedDate string) int {
	if len(publishedDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(publishedDate[:4])
	if err != nil {
		return 0
	}
	return year
}
