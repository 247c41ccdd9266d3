package capture

import "sync/atomic"

// Holder is the live reference async callers (voice tool handlers) dereference on
// every call, so they never act on a session captured when they were registered.
type Holder struct {
	p atomic.Pointer[Session]
}

func NewHolder(s *Session) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

func (h *Holder) Current() *Session {
	if h == nil {
		return nil
	}
	return h.p.Load()
}

// Swap installs s and returns the previous session.
func (h *Holder) Swap(s *Session) *Session { return h.p.Swap(s) }
