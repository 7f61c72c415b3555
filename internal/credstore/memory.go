package credstore

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Provider for development and tests.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]string
	fail error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

// FailWith makes every later operation fail with err wrapped in ErrStorage.
// A nil err restores normal behaviour.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *Memory) For(clientID string) Store {
	return &memoryStore{owner: m, id: clientID}
}

func (m *Memory) Clients(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, storageErr("scan clients", m.fail)
	}
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memoryStore struct {
	owner *Memory
	id    string
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.owner.fail != nil {
		return "", false, storageErr("get "+key, s.owner.fail)
	}
	val, ok := s.owner.data[s.id][key]
	return val, ok, nil
}

func (s *memoryStore) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.owner.fail != nil {
		return nil, storageErr("get many", s.owner.fail)
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := s.owner.data[s.id][key]; ok {
			out[key] = val
		}
	}
	return out, nil
}

func (s *memoryStore) Set(ctx context.Context, values map[string]string) error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.owner.fail != nil {
		return storageErr("set", s.owner.fail)
	}
	if len(values) == 0 {
		return nil
	}
	fields, ok := s.owner.data[s.id]
	if !ok {
		fields = make(map[string]string, len(values))
		s.owner.data[s.id] = fields
	}
	for key, val := range values {
		fields[key] = val
	}
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, keys ...string) error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.owner.fail != nil {
		return storageErr("delete", s.owner.fail)
	}
	fields, ok := s.owner.data[s.id]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(fields, key)
	}
	if len(fields) == 0 {
		delete(s.owner.data, s.id)
	}
	return nil
}
