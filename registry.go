package fanout

import (
	"strings"
	"sync"
)

// Registry owns the topic -> subscriber-endpoint mapping. A topic exists
// implicitly once a subscription to it exists; there is no unsubscribe.
//
// The reference system relied on all registry calls running in one request
// thread; here the guarantee is explicit - a RWMutex guards the map, so the
// registry is safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	subscriptions map[string]map[string]struct{}
}

// NewRegistry creates an empty subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		subscriptions: make(map[string]map[string]struct{}),
	}
}

// Subscribe records that endpoint wants messages published to topic.
// Both arguments are trimmed; if either is empty after trimming, nothing is
// mutated and false is returned. Subscribing an already-present pair is an
// idempotent no-op that still returns true.
func (r *Registry) Subscribe(topic, endpoint string) bool {
	topic = strings.TrimSpace(topic)
	endpoint = strings.TrimSpace(endpoint)
	if topic == "" || endpoint == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subscriptions[topic]
	if !ok {
		set = make(map[string]struct{})
		r.subscriptions[topic] = set
	}
	set[endpoint] = struct{}{}
	return true
}

// Subscribers returns the endpoints subscribed to topic, in no particular
// order. A topic with no subscriptions yields an empty slice, never an
// error.
func (r *Registry) Subscribers(topic string) []string {
	topic = strings.TrimSpace(topic)

	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.subscriptions[topic]
	endpoints := make([]string, 0, len(set))
	for endpoint := range set {
		endpoints = append(endpoints, endpoint)
	}
	return endpoints
}

// Topics returns the topics that currently have at least one subscriber.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.subscriptions))
	for topic := range r.subscriptions {
		topics = append(topics, topic)
	}
	return topics
}
