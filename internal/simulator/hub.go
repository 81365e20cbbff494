package simulator

import (
	"sync"

	"go.uber.org/zap"
)

// Hub fans collection snapshots out to the subscribers of each path.
// Every mutation broadcasts the complete current collection, never a diff.
type Hub struct {
	lg      *zap.Logger
	metrics *Metrics

	mu   sync.Mutex
	subs map[string]map[*HubSubscription]struct{}
}

// NewHub returns an empty Hub.
func NewHub(lg *zap.Logger, metrics *Metrics) *Hub {
	return &Hub{
		lg:      lg.Named("hub"),
		metrics: metrics,
		subs:    make(map[string]map[*HubSubscription]struct{}),
	}
}

// HubSubscription receives snapshots for one path until Cancel is called.
type HubSubscription struct {
	path string
	ch   chan []Document

	once sync.Once
	hub  *Hub

	// sendMu orders sends against close: Broadcast may still hold a
	// reference to a subscription that Cancel has already detached.
	sendMu sync.Mutex
	closed bool
}

// C is the snapshot delivery channel. It is closed by Cancel.
func (s *HubSubscription) C() <-chan []Document {
	return s.ch
}

// Cancel detaches the subscription from the hub and closes its channel.
// It is idempotent.
func (s *HubSubscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.path]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.path)
			}
		}
		s.hub.mu.Unlock()

		s.sendMu.Lock()
		s.closed = true
		close(s.ch)
		s.sendMu.Unlock()

		s.hub.metrics.SubscriberGone()
	})
}

type deliveryResult int

const (
	delivered deliveryResult = iota
	deliveryLagged
	deliveryCancelled
)

// deliver attempts a non-blocking send. A concurrently cancelled
// subscription swallows the delivery instead of panicking on its closed
// channel.
func (s *HubSubscription) deliver(docs []Document) deliveryResult {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed {
		return deliveryCancelled
	}
	select {
	case s.ch <- docs:
		return delivered
	default:
		return deliveryLagged
	}
}

// Subscribe registers a new subscriber for path.
func (h *Hub) Subscribe(path string) *HubSubscription {
	sub := &HubSubscription{
		path: path,
		ch:   make(chan []Document, 16),
		hub:  h,
	}

	h.mu.Lock()
	set, ok := h.subs[path]
	if !ok {
		set = make(map[*HubSubscription]struct{})
		h.subs[path] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	h.metrics.SubscriberJoined()
	return sub
}

// Broadcast delivers docs to every subscriber of path. A subscriber whose
// buffer is full misses this delivery; the next broadcast carries the full
// collection again, so nothing is permanently lost.
func (h *Hub) Broadcast(path string, docs []Document) {
	h.mu.Lock()
	targets := make([]*HubSubscription, 0, len(h.subs[path]))
	for sub := range h.subs[path] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		switch sub.deliver(docs) {
		case delivered:
			h.metrics.SnapshotPushed()
		case deliveryLagged:
			h.lg.Warn("subscriber lagging, snapshot skipped", zap.String("path", path))
		case deliveryCancelled:
		}
	}
}
