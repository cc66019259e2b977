package repository

import (
	"context"
	"sync"
)

// MemoryStore 进程内存储。新记录插在最前面；
// 锁只保证单个集合内 map/slice 的一致性，并发更新仍是后写覆盖。
type MemoryStore[T Record] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewMemoryStore[T Record]() *MemoryStore[T] {
	return &MemoryStore[T]{items: make(map[string]T)}
}

func (s *MemoryStore[T]) Create(ctx context.Context, item *T) error {
	id := (*item).GetID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		return ErrDuplicate
	}
	s.items[id] = *item
	s.order = append([]string{id}, s.order...)
	return nil
}

func (s *MemoryStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (s *MemoryStore[T]) Update(ctx context.Context, item *T) error {
	id := (*item).GetID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	s.items[id] = *item
	return nil
}

func (s *MemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore[T]) FindAll(ctx context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}
