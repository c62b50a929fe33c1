package chunker

import (
	"context"
	"sync"
)

// Pool chunks documents with a fixed number of workers, one batch at a time.
type Pool struct {
	Workers   int
	BatchSize int
}

// DefaultPool returns 4 workers over batches of 4 documents.
func DefaultPool() Pool {
	return Pool{Workers: 4, BatchSize: 4}
}

// Result is the outcome for one input path.
type Result struct {
	Path   string
	Chunks []Chunk
	Err    error
}

// ChunkFunc produces the chunks of one document.
type ChunkFunc func(ctx context.Context, path string) ([]Chunk, error)

// Run applies fn to every path and returns one Result per path in input
// order. A failing path does not stop the others. Once ctx is done the
// remaining paths are reported with ctx.Err().
func (p Pool) Run(ctx context.Context, paths []string, fn ChunkFunc) []Result {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	batch := p.BatchSize
	if batch <= 0 {
		batch = len(paths)
	}

	results := make([]Result, len(paths))
	for start := 0; start < len(paths); start += batch {
		end := min(start+batch, len(paths))

		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for i := start; i < end; i++ {
			results[i].Path = paths[i]
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				continue
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i].Chunks, results[i].Err = fn(ctx, paths[i])
			}(i)
		}
		wg.Wait()
	}
	return results
}
