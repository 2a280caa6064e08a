package vector

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sayu/sayu-backend/internal/apperr"
)

// MemoryStore is an in-process Store. Nearest is a linear scan.
type MemoryStore struct {
	mu   sync.RWMutex
	dim  int
	data map[Key]Vector
}

// NewMemoryStore returns an empty store accepting vectors of dim dimensions.
func NewMemoryStore(dim int) *MemoryStore {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &MemoryStore{dim: dim, data: make(map[Key]Vector)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, apperr.NotFound("vector", key)
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, key Key, v Vector) error {
	if _, _, err := key.Split(); err != nil {
		return err
	}
	if err := CheckDim(v, s.dim); err != nil {
		return err
	}
	cp := make(Vector, len(v))
	copy(cp, v)

	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Nearest(_ context.Context, kind Kind, query Vector, limit int) ([]Match, error) {
	if err := CheckDim(query, s.dim); err != nil {
		return nil, err
	}
	prefix := string(kind) + ":"

	s.mu.RLock()
	matches := make([]Match, 0, len(s.data))
	for k, v := range s.data {
		if !strings.HasPrefix(string(k), prefix) {
			continue
		}
		matches = append(matches, Match{Key: k, Vector: v, Similarity: CosineSimilarity(query, v)})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Key < matches[j].Key
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Len is the number of stored vectors.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
