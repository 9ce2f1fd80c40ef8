package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// MultiSink fans every record out to each sink and joins their errors
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) RecordLog(ctx context.Context, entry DiagnosticLog) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.RecordLog(ctx, entry))
	}
	return errors.Join(errs...)
}

func (m multiSink) RecordAutoFix(ctx context.Context, fix AutoFix) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.RecordAutoFix(ctx, fix))
	}
	return errors.Join(errs...)
}

// Sink writes are queued so a slow store never stalls a tick
const (
	SinkQueueSize      = 256
	DefaultSinkTimeout = 5 * time.Second
)

type sinkWrite struct {
	log     *DiagnosticLog
	fix     *AutoFix
	barrier chan struct{}
}

// sinkWriter drains queued records into a Sink on its own goroutine,
// preserving order. Records are dropped when the queue is full.
type sinkWriter struct {
	sink    Sink
	timeout time.Duration
	logger  *slog.Logger

	queue     chan sinkWrite
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func newSinkWriter(sink Sink, timeout time.Duration, logger *slog.Logger) *sinkWriter {
	w := &sinkWriter{
		sink:    sink,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan sinkWrite, SinkQueueSize),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *sinkWriter) enqueue(item sinkWrite) {
	select {
	case <-w.quit:
		return
	default:
	}
	select {
	case w.queue <- item:
	default:
		w.logger.Warn("diagnostic sink backed up, dropping record")
	}
}

func (w *sinkWriter) run() {
	defer close(w.stopped)
	for {
		select {
		case item := <-w.queue:
			w.write(item)
		case <-w.quit:
			for {
				select {
				case item := <-w.queue:
					w.write(item)
				default:
					return
				}
			}
		}
	}
}

func (w *sinkWriter) write(item sinkWrite) {
	if item.barrier != nil {
		close(item.barrier)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	switch {
	case item.log != nil:
		if err := w.sink.RecordLog(ctx, *item.log); err != nil {
			w.logger.Warn("failed to persist diagnostic", "error", err)
		}
	case item.fix != nil:
		if err := w.sink.RecordAutoFix(ctx, *item.fix); err != nil {
			w.logger.Warn("failed to persist auto-fix", "error", err)
		}
	}
}

// flush waits until everything queued before the call has been written
func (w *sinkWriter) flush(ctx context.Context) error {
	barrier := make(chan struct{})
	select {
	case w.queue <- sinkWrite{barrier: barrier}:
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-barrier:
		return nil
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close writes what is already queued and stops the goroutine
func (w *sinkWriter) close() {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.stopped
}
