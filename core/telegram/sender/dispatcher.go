// Package sender runs outbound Telegram calls on a small worker pool with
// bounded retries, so a slow Bot API never stalls an inbound handler.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/cemtembot/core/logger"
)

var (
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	ErrQueueFull   = errors.New("telegram sender: queue full")
)

// Options tunes the pool. Zero values select the defaults.
type Options struct {
	QueueSize    int           // 256
	Workers      int           // 4
	MaxRetries   int           // extra attempts after the first, 0 by default
	RetryBackoff time.Duration // grows linearly per attempt; 2s
	MaxDuration  time.Duration // budget for one job including retries; 12s
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

// Job is one outbound call. Run must be safe to repeat.
type Job struct {
	Action string
	ChatID int64
	Run    func() error
}

type queued struct {
	ctx context.Context
	Job
}

// Dispatcher executes jobs asynchronously and counts the ones that finally fail.
type Dispatcher struct {
	opts Options
	jobs chan queued
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	failed atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{opts: opts.withDefaults()}
	d.jobs = make(chan queued, d.opts.QueueSize)
	d.wg.Add(d.opts.Workers)
	for i := 0; i < d.opts.Workers; i++ {
		go func() {
			defer d.wg.Done()
			for q := range d.jobs {
				d.execute(q)
			}
		}()
	}
	return d
}

// Enqueue schedules j without blocking. ErrQueueFull leaves the decision to
// run it inline with the caller.
func (d *Dispatcher) Enqueue(ctx context.Context, j Job) error {
	if j.Run == nil {
		return errors.New("telegram sender: nil job")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- queued{ctx: context.WithoutCancel(ctx), Job: j}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount reports jobs that failed after every attempt.
func (d *Dispatcher) ErrorCount() uint64 { return d.failed.Load() }

// Close stops accepting jobs and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) execute(q queued) {
	ctx, cancel := context.WithTimeout(q.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attrs := []slog.Attr{slog.String("action", q.Action)}
	if q.ChatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", q.ChatID))
	}

	var err error
	attempt := 1
retry:
	for ; ; attempt++ {
		if err = q.Run(); err == nil {
			logger.Debug(ctx, logger.CompTG, "send.ok", append(attrs,
				slog.Int("attempts", attempt),
				slog.Duration("duration", time.Since(start)),
			)...)
			return
		}
		if !Transient(err) || attempt > d.opts.MaxRetries {
			break
		}
		wait := d.opts.RetryBackoff * time.Duration(attempt)
		if flood := floodWait(err); flood > wait {
			wait = flood
		}
		select {
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
			break retry
		case <-time.After(wait):
		}
		logger.Debug(ctx, logger.CompTG, "send.retry", append(attrs,
			slog.Int("attempts", attempt),
			slog.Duration("backoff", wait),
		)...)
	}

	d.failed.Add(1)
	logger.Error(ctx, logger.CompTG, "send.fail", append(attrs,
		slog.String("status", "fail"),
		slog.String("err", Redact(err)),
		slog.String("err_code", Kind(err)),
		slog.Int("attempts", attempt),
		slog.Duration("duration", time.Since(start)),
	)...)
}
