package publisher

import (
	"context"
	"sync"
)

// Event is one record captured by the in-memory sink.
type Event struct {
	Key     string
	Payload any
}

// Memory is an in-process event sink for tests and broker-less local runs.
type Memory struct {
	mu     sync.Mutex
	events map[string][]Event
}

// NewMemory constructs an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{events: make(map[string][]Event)}
}

func (m *Memory) Publish(_ context.Context, topic, key string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[topic] = append(m.events[topic], Event{Key: key, Payload: payload})
	return nil
}

// Events returns everything published to the topic, in order.
func (m *Memory) Events(topic string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events[topic]...)
}
