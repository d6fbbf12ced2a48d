package audit

import "errors"

var (
	// ErrWriterClosed is returned when storing through a writer that
	// has already been shut down.
	ErrWriterClosed = errors.New("audit.writer_closed")

	// ErrBufferFull is returned when the async buffer cannot accept
	// another record without blocking.
	ErrBufferFull = errors.New("audit.buffer_full")

	// ErrFlushTimeout is returned when Close cannot drain the buffer
	// before its context expires.
	ErrFlushTimeout = errors.New("audit.flush_timeout")
)
