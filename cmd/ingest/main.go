package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/internal/service"
	"ai-bookrec-be/pkg/database"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/utils"
	"ai-bookrec-be/pkg/vectorindex"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// batchSize bounds how many documents go to the embedding provider at
// once, keeping request sizes well under provider limits.
const batchSize = 32

type datasetBook struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Description     string  `json:"description"`
	Genre           string  `json:"genre"`
	Rating          float64 `json:"rating"`
	PopularityScore float64 `json:"popularity_score"`
	CoverURL        string  `json:"cover_url"`
	YearPublished   *int    `json:"year_published"`
}

func main() {
	filePath := flag.String("file", "data/books.json", "path to the book dataset (JSON array)")
	flag.Parse()

	color.Cyan("📚 Book catalog ingestion\n")

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		color.Red("Failed to read dataset %s: %v", *filePath, err)
		os.Exit(1)
	}

	var records []datasetBook
	if err := json.Unmarshal(raw, &records); err != nil {
		color.Red("Failed to parse dataset: %v", err)
		os.Exit(1)
	}
	color.Yellow("Loaded %d records from %s", len(records), *filePath)

	books := make([]entity.Book, 0, len(records))
	seen := make(map[string]bool, len(records))
	now := time.Now()
	for _, rec := range records {
		if rec.Title == "" || rec.Author == "" {
			continue
		}
		id := utils.GenerateBookId(rec.Title, rec.Author)
		if seen[id] {
			continue
		}
		seen[id] = true

		books = append(books, entity.Book{
			Id:              id,
			Title:           rec.Title,
			Author:          rec.Author,
			Description:     utils.CleanDescription(rec.Description, 2000),
			Genre:           utils.NormalizeGenre(rec.Genre),
			Rating:          rec.Rating,
			PopularityScore: rec.PopularityScore,
			CoverURL:        rec.CoverURL,
			YearPublished:   rec.YearPublished,
			Source:          entity.BookSourceCatalog,
			CreatedAt:       now,
		})
	}
	color.Yellow("Prepared %d unique books", len(books))

	ctx := context.Background()
	uow := uowFactory.NewUnitOfWork(ctx)

	refs := make([]*entity.Book, len(books))
	for i := range books {
		refs[i] = &books[i]
	}
	if err := uow.BookRepository().UpsertBulk(ctx, refs); err != nil {
		color.Red("Failed to upsert books: %v", err)
		os.Exit(1)
	}
	color.Green("✅ Catalog rows upserted")

	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}

	index, err := vectorindex.New(cfg.Index.Dimension)
	if err != nil {
		color.Red("Failed to create index: %v", err)
		os.Exit(1)
	}

	color.Cyan("\nEmbedding %d books (batch size %d)...", len(books), batchSize)
	var mirrors []*entity.BookEmbedding
	for start := 0; start < len(books); start += batchSize {
		end := start + batchSize
		if end > len(books) {
			end = len(books)
		}
		batch := books[start:end]

		docs := make([]string, len(batch))
		for i := range batch {
			docs[i] = service.BuildBookDocument(&batch[i])
		}

		vectors, err := embeddingProvider.GenerateBatch(docs, embedding.TaskRetrievalDocument)
		if err != nil {
			color.Red("Embedding batch %d-%d failed: %v", start, end, err)
			os.Exit(1)
		}

		ids, err := index.AddBatch(batch, vectors)
		if err != nil {
			color.Red("Index insert for batch %d-%d failed: %v", start, end, err)
			os.Exit(1)
		}

		for i := range batch {
			books[start+i].EmbeddingId = &ids[i]
			mirrors = append(mirrors, &entity.BookEmbedding{
				Id:        uuid.New(),
				BookId:    batch[i].Id,
				Document:  docs[i],
				Embedding: vectors[i],
				CreatedAt: now,
			})
		}

		fmt.Printf("  embedded %d/%d\r", end, len(books))
	}
	fmt.Println()
	color.Green("✅ %d books embedded and indexed", index.Count())

	// Record index slots and mirror the vectors durably.
	if err := uow.Begin(ctx); err != nil {
		color.Red("Failed to begin transaction: %v", err)
		os.Exit(1)
	}
	for i := range books {
		if err := uow.BookRepository().Update(ctx, &books[i]); err != nil {
			uow.Rollback()
			color.Red("Failed to record embedding slot for %s: %v", books[i].Id, err)
			os.Exit(1)
		}
	}
	if err := uow.BookEmbeddingRepository().UpsertBulk(ctx, mirrors); err != nil {
		uow.Rollback()
		color.Red("Failed to mirror embeddings: %v", err)
		os.Exit(1)
	}
	if err := uow.Commit(); err != nil {
		color.Red("Failed to commit: %v", err)
		os.Exit(1)
	}

	if err := index.Save(cfg.Index.Path); err != nil {
		color.Red("Failed to save index to %s: %v", cfg.Index.Path, err)
		os.Exit(1)
	}
	color.Green("✅ Index saved to %s", cfg.Index.Path)
	color.Cyan("\nDone. %d books ready for retrieval.", index.Count())
}
