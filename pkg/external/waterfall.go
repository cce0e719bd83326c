package external

import (
	"context"
	"time"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/pkg/logger"
)

// tierTimeout bounds every tier independently so one slow upstream never
// starves the rest of the chain.
const tierTimeout = 5 * time.Second

// Waterfall tries its sources in order until one yields books. Discovered
// books are pushed through the sink so the next identical query resolves
// locally. A tier error means "tier produced nothing", never a failure of
// the whole chain.
type Waterfall struct {
	sources []Source
	sink    Sink
	log     logger.ILogger
}

func NewWaterfall(sources []Source, sink Sink, log logger.ILogger) *Waterfall {
	return &Waterfall{
		sources: sources,
		sink:    sink,
		log:     log,
	}
}

// AttachSink wires the catalog sink after construction. The sink itself
// depends on the waterfall for ad-hoc discovery, so the cycle is closed
// here instead of in the constructor.
func (w *Waterfall) AttachSink(sink Sink) {
	w.sink = sink
}

func (w *Waterfall) Find(ctx context.Context, query string, maxResults int) ([]entity.Book, error) {
	if maxResults <= 0 {
		return []entity.Book{}, nil
	}

	for _, source := range w.sources {
		tierCtx, cancel := context.WithTimeout(ctx, tierTimeout)
		books, err := source.Search(tierCtx, query, maxResults)
		cancel()

		if err != nil {
			w.log.Warn("waterfall", "tier failed, trying next", map[string]interface{}{
				"tier":  source.Name(),
				"query": query,
				"error": err.Error(),
			})
			continue
		}
		if len(books) == 0 {
			continue
		}

		w.log.Info("waterfall", "tier produced results", map[string]interface{}{
			"tier":  source.Name(),
			"query": query,
			"count": len(books),
		})

		if w.sink != nil {
			if err := w.sink.SaveDiscovered(ctx, books); err != nil {
				// The user still gets their answer; the catalog just
				// missed this batch.
				w.log.Error("waterfall", "failed to persist discovered books", map[string]interface{}{
					"tier":  source.Name(),
					"count": len(books),
					"error": err.Error(),
				})
			}
		}

		return books, nil
	}

	return []entity.Book{}, nil
}
