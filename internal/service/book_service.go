package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/enrich"
	"ai-bookrec-be/pkg/events"
	pktNats "ai-bookrec-be/pkg/nats"
)

// Finder matches the discovery waterfall so the service can be tested
// with a stub.
type Finder interface {
	Find(ctx context.Context, query string, maxResults int) ([]entity.Book, error)
}

type IBookService interface {
	Browse(ctx context.Context, req *dto.BrowseBooksRequest) ([]*dto.BookResponse, error)
	Detail(ctx context.Context, id string) (*dto.BookResponse, error)
	Discover(ctx context.Context, req *dto.DiscoverBooksRequest) ([]*dto.BookResponse, error)

	// SaveDiscovered persists waterfall results and queues them for
	// embedding. It backs the discovery pipeline's sink.
	SaveDiscovered(ctx context.Context, books []entity.Book) error

	// FindByTitle is the fuzzy catalog lookup used when the reader names
	// an exact book.
	FindByTitle(ctx context.Context, title string) (*entity.Book, error)
}

type bookService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	enricher         *enrich.Enricher
	waterfall        Finder
}

func NewBookService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	enricher *enrich.Enricher,
	waterfall Finder,
) IBookService {
	return &bookService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		enricher:         enricher,
		waterfall:        waterfall,
	}
}

func (s *bookService) Browse(ctx context.Context, req *dto.BrowseBooksRequest) ([]*dto.BookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "rating", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	}
	if req.Search != "" {
		specs = append(specs, specification.TitleLike{Title: req.Search})
	}
	if req.Genre != "" {
		specs = append(specs, specification.ByGenre{Genre: req.Genre})
	}
	if req.MinRating > 0 {
		specs = append(specs, specification.MinRating{Rating: req.MinRating})
	}

	books, err := uow.BookRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.BookResponse, len(books))
	for i, book := range books {
		responses[i] = toBookResponse(book)
	}
	return responses, nil
}

func (s *bookService) Detail(ctx context.Context, id string) (*dto.BookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	book, err := uow.BookRepository().FindOne(ctx, specification.ByBookID{BookID: id})
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, nil
	}

	// Just-in-time enrichment for books that arrived without a blurb.
	if book.Description == "" {
		description := s.enricher.GetOrGenerate(ctx, book.Id, book.Title, book.Author, book.Genre)
		if description != "" && description != enrich.Sentinel {
			book.Description = description
			if err := uow.BookRepository().Update(ctx, book); err != nil {
				// The reader still gets the description this turn.
				fmt.Printf("[WARN] Failed to persist enriched description for %s: %v\n", book.Id, err)
			}
		} else {
			book.Description = description
		}
	}

	return toBookResponse(book), nil
}

func (s *bookService) Discover(ctx context.Context, req *dto.DiscoverBooksRequest) ([]*dto.BookResponse, error) {
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	books, err := s.waterfall.Find(ctx, req.Query, maxResults)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.BookResponse, len(books))
	for i := range books {
		responses[i] = toBookResponse(&books[i])
	}
	return responses, nil
}

func (s *bookService) SaveDiscovered(ctx context.Context, books []entity.Book) error {
	if len(books) == 0 {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	refs := make([]*entity.Book, len(books))
	for i := range books {
		refs[i] = &books[i]
	}
	if err := uow.BookRepository().UpsertBulk(ctx, refs); err != nil {
		return err
	}

	for i := range books {
		payload, err := json.Marshal(dto.PublishEmbedBookMessage{BookId: books[i].Id})
		if err != nil {
			return err
		}
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			return err
		}

		// Auxiliary: downstream consumers learn about catalog growth.
		if s.eventPublisher != nil {
			if err := s.eventPublisher.Publish(ctx, events.NewBookDiscoveredEvent(books[i])); err != nil {
				fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeBookDiscovered, err)
			}
		}
	}

	return nil
}

func (s *bookService) FindByTitle(ctx context.Context, title string) (*entity.Book, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	book, err := uow.BookRepository().FindOne(ctx,
		specification.TitleLike{Title: title},
		specification.OrderBy{Field: "rating", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("no catalog match for title %q", title)
	}
	return book, nil
}

func toBookResponse(book *entity.Book) *dto.BookResponse {
	return &dto.BookResponse{
		Id:              book.Id,
		Title:           book.Title,
		Author:          book.Author,
		Description:     book.Description,
		Genre:           book.Genre,
		Rating:          book.Rating,
		PopularityScore: book.PopularityScore,
		CoverURL:        book.CoverURL,
		YearPublished:   book.YearPublished,
		IsDynamic:       book.IsDynamic,
		Source:          book.Source,
		CreatedAt:       book.CreatedAt,
	}
}

// descriptionStore adapts the durable cache repository to the enricher.
type descriptionStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDescriptionStore(uowFactory unitofwork.RepositoryFactory) enrich.Store {
	return &descriptionStore{uowFactory: uowFactory}
}

func (d *descriptionStore) Get(ctx context.Context, bookId string) (string, error) {
	uow := d.uowFactory.NewUnitOfWork(ctx)
	cache, err := uow.DescriptionCacheRepository().Get(ctx, bookId)
	if err != nil {
		return "", err
	}
	if cache == nil {
		return "", nil
	}
	return cache.Description, nil
}

func (d *descriptionStore) Put(ctx context.Context, bookId, description, source string) error {
	uow := d.uowFactory.NewUnitOfWork(ctx)
	return uow.DescriptionCacheRepository().Put(ctx, &entity.DescriptionCache{
		BookId:      bookId,
		Description: description,
		Source:      source,
		CreatedAt:   time.Now(),
	})
}
