package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryBackend struct {
	mu     sync.RWMutex
	data   map[string][]byte
	subs   map[int]*memorySubscription
	nextID int
}

// MemoryRepository keeps values in process memory. Handles created with Fork
// share data and change feed but carry their own origin, which is how tests
// and single-process deployments model two independent page contexts.
type MemoryRepository struct {
	backend *memoryBackend
	origin  string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		backend: &memoryBackend{
			data: make(map[string][]byte),
			subs: make(map[int]*memorySubscription),
		},
		origin: uuid.NewString(),
	}
}

// Fork returns a new handle onto the same data with a fresh origin.
func (m *MemoryRepository) Fork() *MemoryRepository {
	return &MemoryRepository{backend: m.backend, origin: uuid.NewString()}
}

func (m *MemoryRepository) Origin() string {
	return m.origin
}

func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.backend.mu.RLock()
	defer m.backend.mu.RUnlock()

	value, ok := m.backend.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemoryRepository) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.backend.mu.Lock()
	m.backend.data[key] = stored
	subs := m.backend.subscribers()
	m.backend.mu.Unlock()

	for _, sub := range subs {
		sub.push(Change{Key: key, Origin: m.origin})
	}
	return nil
}

func (m *MemoryRepository) Del(ctx context.Context, keys ...string) error {
	m.backend.mu.Lock()
	for _, key := range keys {
		delete(m.backend.data, key)
	}
	subs := m.backend.subscribers()
	m.backend.mu.Unlock()

	for _, key := range keys {
		for _, sub := range subs {
			sub.push(Change{Key: key, Origin: m.origin})
		}
	}
	return nil
}

func (m *MemoryRepository) Watch(ctx context.Context) (<-chan Change, error) {
	sub := &memorySubscription{
		signal: make(chan struct{}, 1),
		out:    make(chan Change),
	}

	m.backend.mu.Lock()
	id := m.backend.nextID
	m.backend.nextID++
	m.backend.subs[id] = sub
	m.backend.mu.Unlock()

	go func() {
		sub.pump(ctx)
		m.backend.mu.Lock()
		delete(m.backend.subs, id)
		m.backend.mu.Unlock()
	}()

	return sub.out, nil
}

func (m *MemoryRepository) Close() error {
	return nil
}

// subscribers must be called with mu held.
func (b *memoryBackend) subscribers() []*memorySubscription {
	subs := make([]*memorySubscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	return subs
}

// memorySubscription queues changes without bound so writers never block on
// a slow reader; only pump sends on or closes out.
type memorySubscription struct {
	mu     sync.Mutex
	queue  []Change
	signal chan struct{}
	out    chan Change
}

func (s *memorySubscription) push(c Change) {
	s.mu.Lock()
	s.queue = append(s.queue, c)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *memorySubscription) pump(ctx context.Context) {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
		}

		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, c := range pending {
			select {
			case s.out <- c:
			case <-ctx.Done():
				return
			}
		}
	}
}
