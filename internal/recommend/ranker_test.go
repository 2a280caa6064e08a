package recommend

import (
	"math"
	"testing"

	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/vector"
)

func item(id string, v vector.Vector, creator string, tags ...string) model.ContentVector {
	return model.ContentVector{
		ItemID: id,
		Kind:   model.ContentKindArtwork,
		Vector: v,
		Metadata: model.ContentMetadata{
			CreatorID: creator,
			StyleTags: tags,
		},
	}
}

func ids(rs []Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Item.ItemID
	}
	return out
}

func TestDisplayScore(t *testing.T) {
	tests := []struct {
		sim, want float64
	}{
		{1, 100},
		{0, 50},
		{-1, 0},
		{0.5, 75},
	}
	for _, tt := range tests {
		if got := DisplayScore(tt.sim); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DisplayScore(%v) = %v, want %v", tt.sim, got, tt.want)
		}
	}
}

func TestRankUnpersonalized(t *testing.T) {
	base := vector.Vector{1, 0}
	candidates := []model.ContentVector{
		item("far", vector.Vector{-1, 0}, ""),
		item("near", vector.Vector{1, 0.1}, ""),
		item("mid", vector.Vector{0, 1}, ""),
	}

	got := ids(NewRanker(DefaultAdjustments).Rank(base, candidates, nil))
	want := []string{"near", "mid", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRankPersonalization(t *testing.T) {
	base := vector.Vector{1, 0}
	same := vector.Vector{0, 1} // display score 50 for every candidate

	history := model.NewPersonalizationHistory()
	history.ViewedItems["seen"] = struct{}{}
	history.LikedCreators["monet"] = struct{}{}
	history.LikedStyles["impressionism"] = struct{}{}

	candidates := []model.ContentVector{
		item("plain", same, ""),
		item("seen", same, ""),
		item("style", same, "", "cubism", "impressionism", "impressionism"),
		item("creator", same, "monet"),
		item("both", same, "monet", "impressionism"),
	}

	ranked := NewRanker(DefaultAdjustments).Rank(base, candidates, history)

	wantScores := map[string]float64{
		"both":    70,
		"creator": 65,
		"style":   55,
		"plain":   50,
		"seen":    20,
	}
	wantOrder := []string{"both", "creator", "style", "plain", "seen"}
	for i, r := range ranked {
		if r.Item.ItemID != wantOrder[i] {
			t.Fatalf("order = %v, want %v", ids(ranked), wantOrder)
		}
		if math.Abs(r.Score-wantScores[r.Item.ItemID]) > 1e-9 {
			t.Errorf("%s: score %v, want %v", r.Item.ItemID, r.Score, wantScores[r.Item.ItemID])
		}
	}
}

func TestRankClampsScores(t *testing.T) {
	history := model.NewPersonalizationHistory()
	history.ViewedItems["low"] = struct{}{}
	history.LikedCreators["c"] = struct{}{}

	ranked := NewRanker(DefaultAdjustments).Rank(vector.Vector{1, 0}, []model.ContentVector{
		item("low", vector.Vector{-1, 0}, ""),
		item("high", vector.Vector{1, 0}, "c"),
	}, history)

	for _, r := range ranked {
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("%s: score %v out of range", r.Item.ItemID, r.Score)
		}
	}
	if ranked[0].Score != 100 || ranked[1].Score != 0 {
		t.Errorf("scores = %v, %v", ranked[0].Score, ranked[1].Score)
	}
}

func TestRankIsStablePermutation(t *testing.T) {
	base := vector.Vector{1, 0, 0}
	candidates := []model.ContentVector{
		item("a", vector.Vector{1, 0, 0}, ""),
		item("b", vector.Vector{0, 0, 1}, ""),
		item("c", vector.Vector{3, 0, 0}, ""),
		item("d", vector.Vector{0, 0, 3}, ""),
		item("e", vector.Vector{0, 0, 0}, ""),
	}

	ranked := NewRanker(DefaultAdjustments).Rank(base, candidates, nil)
	if len(ranked) != len(candidates) {
		t.Fatalf("got %d results, want %d", len(ranked), len(candidates))
	}

	seen := map[string]int{}
	for i, r := range ranked {
		seen[r.Item.ItemID]++
		if i > 0 && ranked[i-1].Score < r.Score {
			t.Errorf("not sorted at %d: %v < %v", i, ranked[i-1].Score, r.Score)
		}
	}
	for _, c := range candidates {
		if seen[c.ItemID] != 1 {
			t.Errorf("%s appears %d times", c.ItemID, seen[c.ItemID])
		}
	}

	// a and c tie at 100, b, d and e tie at 50; ties keep input order.
	want := []string{"a", "c", "b", "d", "e"}
	got := ids(ranked)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
