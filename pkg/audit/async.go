package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncOptions tunes the batching writer. Zero values pick defaults
// sized for a single decision service replica.
type AsyncOptions struct {
	BufferSize     int           // queued records before Store starts failing
	BatchSize      int           // target records per storage call
	BatchTimeout   time.Duration // max wait before flushing a partial batch
	StorageTimeout time.Duration // per-batch storage budget
}

// AsyncWriter buffers records and writes them to a BatchStorage from
// a background goroutine, keeping storage latency off the decision
// path. When the buffer is full, Store fails instead of blocking; the
// Recorder logs the loss and the decision proceeds.
type AsyncWriter struct {
	storage BatchStorage
	ch      chan Record
	done    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool
	options AsyncOptions
}

// NewAsyncWriter starts the background worker. The returned close
// function drains the buffer; give it a context with a deadline.
func NewAsyncWriter(storage BatchStorage, opts AsyncOptions) (*AsyncWriter, func(context.Context) error) {
	if storage == nil {
		panic("audit: batch storage cannot be nil")
	}

	if opts.BufferSize == 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout == 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout == 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	aw := &AsyncWriter{
		storage: storage,
		ch:      make(chan Record, opts.BufferSize),
		done:    make(chan struct{}),
		options: opts,
	}

	aw.wg.Add(1)
	go aw.worker()

	return aw, aw.Close
}

// Store implements Storage. It never blocks: a full buffer or a
// closed writer returns an error immediately.
func (aw *AsyncWriter) Store(_ context.Context, record Record) error {
	if aw.closed.Load() {
		return ErrWriterClosed
	}
	select {
	case aw.ch <- record:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting records and drains the buffer. Returns
// ErrFlushTimeout if the context expires before the drain completes.
func (aw *AsyncWriter) Close(ctx context.Context) error {
	if aw.closed.Swap(true) {
		return nil
	}
	close(aw.done)

	drained := make(chan struct{})
	go func() {
		aw.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ErrFlushTimeout
	}
}

func (aw *AsyncWriter) worker() {
	defer aw.wg.Done()

	batch := make([]Record, 0, aw.options.BatchSize)
	timer := time.NewTimer(aw.options.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), aw.options.StorageTimeout)
		// Storage faults are the backend's to report; the writer has
		// nowhere to return them once the caller is gone.
		_ = aw.storage.StoreBatch(ctx, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case record := <-aw.ch:
			batch = append(batch, record)
			if len(batch) >= aw.options.BatchSize {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(aw.options.BatchTimeout)
		case <-aw.done:
			// Drain whatever was buffered before shutdown.
			for {
				select {
				case record := <-aw.ch:
					batch = append(batch, record)
					if len(batch) >= aw.options.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
