package logger

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
)

// lineWriter hands complete lines to a background goroutine that copies
// them to every destination. Close drains the queue.
type lineWriter struct {
	lines chan []byte
	done  chan struct{}
	dests []io.Writer

	sendMu sync.RWMutex
	closed bool

	mu  sync.Mutex
	err error
}

func newLineWriter(dests []io.Writer) *lineWriter {
	w := &lineWriter{
		lines: make(chan []byte, 512),
		done:  make(chan struct{}),
		dests: dests,
	}
	go w.run()
	return w
}

func (w *lineWriter) run() {
	defer close(w.done)
	for line := range w.lines {
		for _, d := range w.dests {
			if _, err := d.Write(line); err != nil {
				w.fail(err)
			}
		}
	}
}

func (w *lineWriter) fail(err error) {
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

// Write queues a copy of line, blocking when the queue is full so no line
// is dropped. It reports the first destination error seen so far.
func (w *lineWriter) Write(line []byte) error {
	w.mu.Lock()
	err := w.err
	w.mu.Unlock()
	if err != nil || len(line) == 0 {
		return err
	}
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return errors.New("logger: writer closed")
	}
	w.lines <- append([]byte(nil), line...)
	return nil
}

func (w *lineWriter) Close() error {
	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.sendMu.Unlock()
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// sampler lets n out of every d calls through; d == 0 lets everything through.
type sampler struct {
	mu   sync.Mutex
	n, d int
	seq  int
}

func newSampler(n, d int) *sampler {
	s := &sampler{}
	s.set(n, d)
	return s
}

func (s *sampler) set(n, d int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || d <= 0 {
		n, d = 0, 0
	}
	s.n, s.d, s.seq = min(n, d), d, 0
}

func (s *sampler) allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d == 0 {
		return true
	}
	s.seq = s.seq%s.d + 1
	return s.seq <= s.n
}

// parseRatio reads "n/d" or "d" (meaning 1/d). Empty selects 1/50; zero or
// garbage disables sampling.
func parseRatio(raw string) (int, int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, 50
	}
	num, den, ok := strings.Cut(raw, "/")
	if !ok {
		num, den = "1", raw
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return n, d
}
