package composite

import (
	"context"
	"sync"

	"github.com/microfabric/composite-gateway/internal/gateway/upstream"
)

// Executor fans independent upstream fetches out over a bounded worker pool
// and joins the results. Results arrive in completion order; a failed fetch
// is dropped without aborting its siblings.
type Executor struct {
	workers int
}

// NewExecutor creates an executor running at most workers fetches at a time.
func NewExecutor(workers int) *Executor {
	if workers < 1 {
		workers = 4
	}
	return &Executor{workers: workers}
}

// Collect runs fetch for every id and returns the successful documents in
// completion order. Per-task errors are isolated; callers that care about
// partial failure can compare result and input lengths.
func (e *Executor) Collect(ctx context.Context, ids []string, fetch func(ctx context.Context, id string) (upstream.Document, error)) []upstream.Document {
	if len(ids) == 0 {
		return nil
	}

	jobs := make(chan string)
	results := make(chan upstream.Document, len(ids))

	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(ids) {
		workers = len(ids)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				doc, err := fetch(ctx, id)
				if err != nil {
					continue
				}
				results <- doc
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	close(results)

	docs := make([]upstream.Document, 0, len(ids))
	for doc := range results {
		docs = append(docs, doc)
	}
	return docs
}
