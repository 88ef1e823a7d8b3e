package hub

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Stats is a point-in-time copy of the registry counters.
type Stats struct {
	Online     int
	Broadcasts int64
	Routed     int64
	Delivered  int64
	Dropped    int64
	Replaced   int64
}

// Registry tracks the live session of every connected user. A user has at
// most one registered sink; registering again replaces it (last connection
// wins) without closing the previous one.
//
// All methods are safe for concurrent use. The lock is never held while
// handing payloads to sinks. The sessions gauge is only written under the
// lock so it always matches the last committed map size.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Sink

	log *zap.Logger

	broadcasts atomic.Int64
	routed     atomic.Int64
	delivered  atomic.Int64
	dropped    atomic.Int64
	replaced   atomic.Int64
}

func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]Sink),
		log:      logger,
	}
}

func (r *Registry) Register(userID string, sink Sink) {
	r.mu.Lock()
	_, existed := r.sessions[userID]
	r.sessions[userID] = sink
	online := len(r.sessions)
	metricSessions.Set(float64(online))
	r.mu.Unlock()

	if existed {
		r.replaced.Add(1)
		metricReplaced.Inc()
		r.log.Debug("session replaced", zap.String("user_id", userID))
		return
	}
	r.log.Debug("session registered", zap.String("user_id", userID), zap.Int("online", online))
}

// Unregister removes whatever sink is registered for userID. Calling it for an
// absent user is a no-op.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	_, ok := r.sessions[userID]
	delete(r.sessions, userID)
	online := len(r.sessions)
	metricSessions.Set(float64(online))
	r.mu.Unlock()

	if ok {
		r.log.Debug("session unregistered", zap.String("user_id", userID), zap.Int("online", online))
	}
}

// Release unregisters userID only while sink is still the registered one, so
// a session that was replaced cannot evict its successor. It reports whether
// an entry was removed.
func (r *Registry) Release(userID string, sink Sink) bool {
	r.mu.Lock()
	current, ok := r.sessions[userID]
	if !ok || current != sink {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, userID)
	online := len(r.sessions)
	metricSessions.Set(float64(online))
	r.mu.Unlock()

	r.log.Debug("session released", zap.String("user_id", userID), zap.Int("online", online))
	return true
}

// RouteToUser hands payload to userID's session. Offline users and full or
// closed channels are silently skipped.
func (r *Registry) RouteToUser(userID string, payload []byte) {
	r.mu.RLock()
	sink, ok := r.sessions[userID]
	r.mu.RUnlock()

	r.routed.Add(1)
	if !ok {
		r.log.Debug("user offline, payload dropped", zap.String("user_id", userID))
		return
	}
	r.deliver(userID, sink, payload)
}

// Broadcast hands payload to every session registered at the time of the
// call. Sessions registering while the broadcast is in flight may miss it.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.RLock()
	targets := make(map[string]Sink, len(r.sessions))
	for userID, sink := range r.sessions {
		targets[userID] = sink
	}
	r.mu.RUnlock()

	r.broadcasts.Add(1)
	metricBroadcasts.Inc()
	for userID, sink := range targets {
		r.deliver(userID, sink, payload)
	}
}

func (r *Registry) deliver(userID string, sink Sink, payload []byte) {
	if sink.Send(payload) {
		r.delivered.Add(1)
		metricDeliveries.WithLabelValues("delivered").Inc()
		return
	}
	r.dropped.Add(1)
	metricDeliveries.WithLabelValues("dropped").Inc()
	r.log.Debug("payload dropped", zap.String("user_id", userID))
}

func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Stats() Stats {
	return Stats{
		Online:     r.Count(),
		Broadcasts: r.broadcasts.Load(),
		Routed:     r.routed.Load(),
		Delivered:  r.delivered.Load(),
		Dropped:    r.dropped.Load(),
		Replaced:   r.replaced.Load(),
	}
}

// Shutdown empties the registry and closes every sink it held, which tells
// the owning sessions to send a close frame and exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sinks := make([]Sink, 0, len(r.sessions))
	for userID, sink := range r.sessions {
		sinks = append(sinks, sink)
		delete(r.sessions, userID)
	}
	metricSessions.Set(0)
	r.mu.Unlock()

	for _, sink := range sinks {
		sink.Close()
	}
	r.log.Info("registry shut down", zap.Int("closed", len(sinks)))
}
