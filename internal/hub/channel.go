package hub

import "sync"

// DefaultChannelSize is the per-session outbound buffer depth.
const DefaultChannelSize = 32

// Sink is the producer side of a session's delivery channel.
type Sink interface {
	// Send hands payload to the session without blocking and reports whether
	// it was accepted.
	Send(payload []byte) bool
	Close()
}

// Channel is a bounded, non-blocking hand-off into one session's write loop.
// When the buffer is full the newest payload is dropped. Sends after Close are
// dropped as well.
type Channel struct {
	mu     sync.RWMutex
	ch     chan []byte
	closed bool
}

func NewChannel(size int) *Channel {
	if size <= 0 {
		size = DefaultChannelSize
	}
	return &Channel{ch: make(chan []byte, size)}
}

func (c *Channel) Send(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.ch <- payload:
		return true
	default:
		return false
	}
}

// Close is idempotent. The consumer observes it as a closed receive channel
// after draining whatever was already buffered.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// C returns the consumer side.
func (c *Channel) C() <-chan []byte { return c.ch }

func (c *Channel) Len() int { return len(c.ch) }

func (c *Channel) Cap() int { return cap(c.ch) }
