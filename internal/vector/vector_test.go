package vector

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/personality"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{1, 2, 3}, Vector{1, 2, 3}, 1},
		{"scaled", Vector{1, 2, 3}, Vector{2, 4, 6}, 1},
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0},
		{"opposite", Vector{1, -1}, Vector{-1, 1}, -1},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 2, 3}, 0},
		{"length mismatch", Vector{1, 2}, Vector{1, 2, 3}, 0},
		{"empty", Vector{}, Vector{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetricAndSelf(t *testing.T) {
	vectors := []Vector{
		{0.1, 0.7, -0.3, 0.9},
		{1e-3, 2e-3, 5, -7},
		{3, 3, 3, 3},
		{-0.5, 0.25, 0.125, 0.0625},
		{1, 1},
		{0.3, -0.3, 0.3},
	}
	for i, a := range vectors {
		if got := CosineSimilarity(a, a); got != 1 {
			t.Errorf("sim(v%d, v%d) = %v, want 1", i, i, got)
		}
		for j, b := range vectors {
			if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
				t.Errorf("sim(v%d, v%d) not symmetric", i, j)
			}
		}
	}
}

func TestKeySplit(t *testing.T) {
	tests := []struct {
		key     Key
		kind    Kind
		id      string
		wantErr error
	}{
		{ArchetypeKey("LAEF"), KindArchetype, "LAEF", nil},
		{ContentKey("art-9"), KindContent, "art-9", nil},
		{"archetype:XXXX", "", "", apperr.ErrInvalidType},
		{"user:1", "", "", apperr.ErrValidation},
		{"content:", "", "", apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			kind, id, err := tt.key.Split()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || kind != tt.kind || id != tt.id {
				t.Errorf("Split = %s, %s, %v", kind, id, err)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	if _, err := s.Get(ctx, ArchetypeKey("LAEF")); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Upsert(ctx, ArchetypeKey("LAEF"), Vector{1, 2}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected dimension error, got %v", err)
	}

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.Upsert(ctx, ArchetypeKey("LAEF"), Vector{1, 0, 0}))
	must(s.Upsert(ctx, ArchetypeKey("LAEF"), Vector{0, 1, 0}))
	must(s.Upsert(ctx, ContentKey("a"), Vector{0, 1, 0}))
	must(s.Upsert(ctx, ContentKey("b"), Vector{0, 1, 1}))
	must(s.Upsert(ctx, ContentKey("c"), Vector{1, 0, 0}))

	got, err := s.Get(ctx, ArchetypeKey("LAEF"))
	must(err)
	if got[1] != 1 {
		t.Errorf("upsert did not overwrite: %v", got)
	}
	if s.Len() != 4 {
		t.Errorf("len = %d, want 4", s.Len())
	}

	matches, err := s.Nearest(ctx, KindContent, Vector{0, 1, 0}, 2)
	must(err)
	if len(matches) != 2 || matches[0].Key != ContentKey("a") || matches[1].Key != ContentKey("b") {
		t.Errorf("unexpected nearest order: %+v", matches)
	}
}

func TestArchetypeKeysCoverAllTypes(t *testing.T) {
	for _, code := range personality.AllTypeCodes() {
		kind, id, err := ArchetypeKey(code).Split()
		if err != nil || kind != KindArchetype || id != string(code) {
			t.Errorf("%s: %s %s %v", code, kind, id, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	n := Normalize(Vector{3, 4})
	if math.Abs(float64(n[0])-0.6) > 1e-6 || math.Abs(float64(n[1])-0.8) > 1e-6 {
		t.Errorf("Normalize = %v", n)
	}
	z := Normalize(Vector{0, 0})
	if z[0] != 0 || z[1] != 0 {
		t.Errorf("zero vector changed: %v", z)
	}
}
