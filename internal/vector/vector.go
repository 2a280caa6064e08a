// Package vector holds the shared embedding space for personality archetypes and
// content items: the key scheme, the store contract and cosine similarity.
package vector

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/personality"
)

// DefaultDim is the embedding dimensionality used when none is configured.
const DefaultDim = 768

// Vector is a fixed-dimension embedding.
type Vector []float32

// Kind is the namespace of a vector key.
type Kind string

const (
	KindArchetype Kind = "archetype"
	KindContent   Kind = "content"
)

// Key addresses one stored vector, e.g. "archetype:LAEF" or "content:42".
type Key string

// ArchetypeKey is the key of a type code's archetype vector.
func ArchetypeKey(code personality.TypeCode) Key {
	return Key(string(KindArchetype) + ":" + string(code))
}

// ContentKey is the key of a content item's vector.
func ContentKey(itemID string) Key {
	return Key(string(KindContent) + ":" + itemID)
}

// Split returns the namespace and id of k.
func (k Key) Split() (Kind, string, error) {
	kind, id, ok := strings.Cut(string(k), ":")
	if !ok || id == "" {
		return "", "", apperr.Invalid("malformed vector key %q", k)
	}
	switch Kind(kind) {
	case KindArchetype:
		if _, err := personality.ParseTypeCode(id); err != nil {
			return "", "", err
		}
	case KindContent:
	default:
		return "", "", apperr.Invalid("unknown vector namespace %q", kind)
	}
	return Kind(kind), id, nil
}

// Match is one result of a nearest-neighbour query.
type Match struct {
	Key        Key
	Vector     Vector
	Similarity float64
}

// Store holds vectors for archetypes and content items.
type Store interface {
	// Get fails with apperr.ErrNotFound for unknown keys.
	Get(ctx context.Context, key Key) (Vector, error)
	// Upsert overwrites any existing vector under key.
	Upsert(ctx context.Context, key Key, v Vector) error
	// Nearest returns up to limit vectors of kind ordered by descending similarity.
	Nearest(ctx context.Context, kind Kind, query Vector, limit int) ([]Match, error)
}

// CheckDim rejects vectors whose length differs from dim.
func CheckDim(v Vector, dim int) error {
	if len(v) != dim {
		return apperr.Invalid("vector has %d dimensions, expected %d", len(v), dim)
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b in [-1, 1]. Zero
// vectors and mismatched lengths yield 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	// One square root keeps sim(v, v) exactly 1: dot equals normA and
	// sqrt(n*n) rounds back to n.
	sim := dot / math.Sqrt(normA*normB)
	return math.Max(-1, math.Min(1, sim))
}

// Normalize returns v scaled to unit length. A zero vector is returned unchanged.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make(Vector, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	n := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

func (v Vector) String() string {
	return fmt.Sprintf("vector(%d)", len(v))
}
