// Package recommend orders content items for a user by embedding similarity, adjusted
// by what the user has already viewed and liked.
package recommend

import (
	"math"
	"sort"

	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/vector"
)

// Adjustments are the fixed personalization terms, in display-score points.
type Adjustments struct {
	ViewedPenalty     float64
	LikedCreatorBonus float64
	StyleBonus        float64
}

// DefaultAdjustments penalise already-seen items hardest; a liked creator outweighs a
// matching style.
var DefaultAdjustments = Adjustments{
	ViewedPenalty:     30,
	LikedCreatorBonus: 15,
	StyleBonus:        5,
}

// Ranked is one scored candidate.
type Ranked struct {
	Item       model.ContentVector
	Similarity float64
	MatchScore float64
	Score      float64
}

// Ranker scores and orders candidates.
type Ranker struct {
	adj Adjustments
}

// NewRanker returns a ranker using adj.
func NewRanker(adj Adjustments) *Ranker {
	return &Ranker{adj: adj}
}

// DisplayScore maps a cosine similarity in [-1, 1] onto [0, 100].
func DisplayScore(sim float64) float64 {
	return clamp((sim+1)/2*100, 0, 100)
}

// Rank scores every candidate against base and returns them sorted by descending final
// score. Equal scores keep their input order. A nil history ranks on similarity alone.
func (r *Ranker) Rank(base vector.Vector, candidates []model.ContentVector, history *model.PersonalizationHistory) []Ranked {
	out := make([]Ranked, len(candidates))
	for i, c := range candidates {
		sim := vector.CosineSimilarity(base, c.Vector)
		match := DisplayScore(sim)
		out[i] = Ranked{
			Item:       c,
			Similarity: sim,
			MatchScore: match,
			Score:      clamp(match+r.adjustment(c, history), 0, 100),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (r *Ranker) adjustment(c model.ContentVector, h *model.PersonalizationHistory) float64 {
	if h == nil {
		return 0
	}
	var delta float64
	if _, ok := h.ViewedItems[c.ItemID]; ok {
		delta -= r.adj.ViewedPenalty
	}
	if c.Metadata.CreatorID != "" {
		if _, ok := h.LikedCreators[c.Metadata.CreatorID]; ok {
			delta += r.adj.LikedCreatorBonus
		}
	}
	for _, tag := range c.Metadata.StyleTags {
		if _, ok := h.LikedStyles[tag]; ok {
			delta += r.adj.StyleBonus
			break
		}
	}
	return delta
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
