package messenger

import (
	"context"
	"sync"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// Sent is one message captured by Recorder.
type Sent struct {
	To      domain.Address
	Text    string
	Options []domain.Option
}

// Recorder is an in-memory Messenger that keeps every send. Addresses listed
// in Fail return the mapped error instead.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Fail map[string]error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Fail: make(map[string]error)}
}

func (r *Recorder) Send(_ context.Context, to domain.Address, text string, opts ...Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.Fail[to.Key()]; ok {
		return err
	}
	r.sent = append(r.sent, Sent{To: to, Text: text, Options: Resolve(opts...).QuickReplies})
	return nil
}

// Messages returns a copy of every captured message.
func (r *Recorder) Messages() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// To returns the messages sent to addr.
func (r *Recorder) To(addr domain.Address) []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sent
	for _, s := range r.sent {
		if s.To == addr {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the most recent message sent to addr.
func (r *Recorder) Last(addr domain.Address) (Sent, bool) {
	msgs := r.To(addr)
	if len(msgs) == 0 {
		return Sent{}, false
	}
	return msgs[len(msgs)-1], true
}

// Reset drops captured messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
