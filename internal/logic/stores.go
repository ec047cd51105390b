package logic

import (
	"sort"
	"sync"

	"scrollwatch/internal/domain"
)

// MemoryChainStore is an in-memory implementation of ChainStore
type MemoryChainStore struct {
	mu     sync.RWMutex
	chains map[string]*domain.Chain
}

// NewMemoryChainStore creates a new memory-based chain store
func NewMemoryChainStore() *MemoryChainStore {
	return &MemoryChainStore{
		chains: make(map[string]*domain.Chain),
	}
}

func (s *MemoryChainStore) GetChain(surface string) *domain.Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chains[surface]
}

// PutChain replaces the stored chain. Chains are treated as values: callers build
// a new *domain.Chain for every update instead of mutating the stored one.
func (s *MemoryChainStore) PutChain(chain *domain.Chain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains[chain.Surface] = chain
}

func (s *MemoryChainStore) RemoveChain(surface string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chains, surface)
}

// Surfaces returns the names of all stored chains in sorted order
func (s *MemoryChainStore) Surfaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.chains))
	for name := range s.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
