package tiptop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jackc/puddle/v2"
)

// BatchRunner runs many simulations concurrently with a bounded number of
// in-flight requests. Each concurrency slot owns its own http.Client, so a
// wedged connection in one slot cannot stall the others.
type BatchRunner struct {
	client *Client
	pool   *puddle.Pool[*http.Client]
}

// NewBatchRunner creates a runner that keeps at most maxConcurrent
// exchanges in flight against the client's endpoint.
func NewBatchRunner(client *Client, maxConcurrent int32) (*BatchRunner, error) {
	if maxConcurrent <= 0 {
		return nil, fmt.Errorf("tiptop: maxConcurrent must be > 0, got %d", maxConcurrent)
	}

	pool, err := puddle.NewPool(&puddle.Config[*http.Client]{
		Constructor: func(ctx context.Context) (*http.Client, error) {
			return &http.Client{Transport: &http.Transport{}}, nil
		},
		Destructor: func(hc *http.Client) {
			hc.CloseIdleConnections()
		},
		MaxSize: maxConcurrent,
	})
	if err != nil {
		return nil, err
	}
	return &BatchRunner{client: client, pool: pool}, nil
}

// SimulateAll runs one simulation per document. The returned slice has one
// entry per document, nil where that document's exchange failed; the error
// joins every per-document failure. Documents must not be mutated while
// the call is in flight.
//
// The runner bypasses the client's circuit breaker: a batch is typically a
// parameter sweep where the caller wants every outcome, not an early trip.
// The client's cache and stats still apply.
func (b *BatchRunner) SimulateAll(ctx context.Context, docs []*Document) ([]*Result, error) {
	results := make([]*Result, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, iniText string) {
			defer wg.Done()

			slot, err := b.pool.Acquire(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("document %d: %w", i, err)
				return
			}
			defer slot.Release()

			f, err := b.client.send(ctx, slot.Value(), iniText)
			if err != nil {
				errs[i] = fmt.Errorf("document %d: %w", i, err)
				return
			}
			results[i] = NewResult(f)
		}(i, doc.Serialize())
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// Close releases the runner's slots. The underlying Client stays usable.
func (b *BatchRunner) Close() {
	b.pool.Close()
}
