// Package ingest batches enriched records into the Postgres writer so the
// sink sees a few large inserts instead of one round trip per row.
package ingest

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"example.com/offerpipeline/internal/domain"
	spg "example.com/offerpipeline/internal/storage/postgres"
)

type Ingestor struct {
	queue        chan domain.EnrichedRecord
	writer       *spg.Writer
	batchMaxSize int
	batchMaxWait time.Duration
	done         chan struct{}
	inserted     atomic.Int64
	failed       atomic.Int64
}

func NewIngestor(writer *spg.Writer, queueMaxSize, batchMaxSize int, batchMaxWait time.Duration) *Ingestor {
	return &Ingestor{
		queue:        make(chan domain.EnrichedRecord, queueMaxSize),
		writer:       writer,
		batchMaxSize: batchMaxSize,
		batchMaxWait: batchMaxWait,
		done:         make(chan struct{}),
	}
}

func (ig *Ingestor) Start(ctx context.Context) {
	go func() {
		defer close(ig.done)

		batch := make([]domain.EnrichedRecord, 0, ig.batchMaxSize)
		t := time.NewTimer(ig.batchMaxWait)
		defer t.Stop()

		resetTimer := func() {
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(ig.batchMaxWait)
		}

		flush := func() {
			if len(batch) == 0 {
				resetTimer()
				return
			}
			affected, err := ig.writer.InsertBatch(ctx, batch)
			if err != nil {
				ig.failed.Add(int64(len(batch)))
				log.Printf("[ingest] batch insert FAILED: err=%v dropped=%d", err, len(batch))
			} else {
				ig.inserted.Add(affected)
				log.Printf("[ingest] batch insert OK: inserted=%d size=%d", affected, len(batch))
			}
			batch = batch[:0]
			resetTimer()
		}

		for {
			select {
			case <-ctx.Done():
				flush()
				return
			case rec, ok := <-ig.queue:
				if !ok {
					flush()
					return
				}
				batch = append(batch, rec)
				if len(batch) >= ig.batchMaxSize {
					flush()
				}
			case <-t.C:
				flush()
			}
		}
	}()
}

// Enqueue blocks when the queue is full; the producer is a batch loop, not
// a request handler, so backpressure is fine.
func (ig *Ingestor) Enqueue(rec domain.EnrichedRecord) {
	ig.queue <- rec
}

// Close signals end of input and waits for the final flush.
func (ig *Ingestor) Close() (inserted, failed int64) {
	close(ig.queue)
	<-ig.done
	return ig.inserted.Load(), ig.failed.Load()
}
