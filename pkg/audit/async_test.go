package audit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/audit"
)

func TestAsyncWriter_FlushesOnClose(t *testing.T) {
	storage := audit.NewMemory()
	writer, closeWriter := audit.NewAsyncWriter(storage, audit.AsyncOptions{})

	for i := range 10 {
		err := writer.Store(context.Background(), audit.Record{
			ID:          uuid.New(),
			PrincipalID: fmt.Sprintf("u%d", i),
			Action:      "edit",
		})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, closeWriter(ctx))

	assert.Equal(t, 10, storage.Len())
}

func TestAsyncWriter_FlushesOnBatchTimeout(t *testing.T) {
	storage := audit.NewMemory()
	writer, closeWriter := audit.NewAsyncWriter(storage, audit.AsyncOptions{
		BatchTimeout: 10 * time.Millisecond,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = closeWriter(ctx)
	})

	require.NoError(t, writer.Store(context.Background(), audit.Record{ID: uuid.New()}))

	assert.Eventually(t, func() bool { return storage.Len() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestAsyncWriter_RejectsAfterClose(t *testing.T) {
	storage := audit.NewMemory()
	writer, closeWriter := audit.NewAsyncWriter(storage, audit.AsyncOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, closeWriter(ctx))

	err := writer.Store(context.Background(), audit.Record{ID: uuid.New()})
	assert.ErrorIs(t, err, audit.ErrWriterClosed)

	// Close is idempotent.
	assert.NoError(t, closeWriter(ctx))
}

func TestAsyncWriter_FullBufferFailsFast(t *testing.T) {
	block := make(chan struct{})
	storage := &blockingStorage{release: block}
	writer, closeWriter := audit.NewAsyncWriter(storage, audit.AsyncOptions{
		BufferSize: 1,
		BatchSize:  1,
	})
	defer close(block)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = closeWriter(ctx)
	})

	// First record occupies the worker, subsequent ones the buffer;
	// eventually Store must fail instead of blocking the caller.
	deadline := time.Now().Add(time.Second)
	var sawFull bool
	for time.Now().Before(deadline) {
		if err := writer.Store(context.Background(), audit.Record{ID: uuid.New()}); err != nil {
			assert.ErrorIs(t, err, audit.ErrBufferFull)
			sawFull = true
			break
		}
	}
	assert.True(t, sawFull)
}

type blockingStorage struct {
	release chan struct{}
}

func (s *blockingStorage) StoreBatch(context.Context, []audit.Record) error {
	<-s.release
	return nil
}
