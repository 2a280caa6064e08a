package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
)

// DefaultMaxLearningAdjustment bounds the learned term in either direction.
const DefaultMaxLearningAdjustment = 20.0

// Host is the requesting user's side of a match.
type Host struct {
	UserID   string
	TypeCode personality.TypeCode
	Location model.Coordinates
}

// Engine ranks candidates against a match request.
type Engine struct {
	matrix   *Matrix
	adjuster Adjuster
	maxAdj   float64
}

// NewEngine returns an engine scoring with matrix and adjuster. A nil adjuster means
// NoAdjustment; maxAdj <= 0 uses DefaultMaxLearningAdjustment.
func NewEngine(matrix *Matrix, adjuster Adjuster, maxAdj float64) *Engine {
	if adjuster == nil {
		adjuster = NoAdjustment
	}
	if maxAdj <= 0 {
		maxAdj = DefaultMaxLearningAdjustment
	}
	return &Engine{matrix: matrix, adjuster: adjuster, maxAdj: maxAdj}
}

// Matrix returns the compatibility table the engine scores with.
func (e *Engine) Matrix() *Matrix { return e.matrix }

// Rank filters candidates by the request's hard constraints, scores the survivors and
// orders them by descending score, then ascending distance, then user id.
func (e *Engine) Rank(ctx context.Context, req *model.MatchRequest, host Host, candidates []model.CandidateSignal) ([]model.CandidateMatch, error) {
	if _, err := e.matrix.Row(host.TypeCode); err != nil {
		return nil, err
	}

	out := make([]model.CandidateMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID == host.UserID {
			continue
		}
		dist := DistanceKm(host.Location, c.Location)
		if !Eligible(req.Filters, c, dist) {
			continue
		}

		candType := personality.TypeCode(strings.ToUpper(c.TypeCode))
		base, err := e.matrix.Score(host.TypeCode, candType)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.UserID, err)
		}

		adj := e.adjuster.Adjust(ctx, PairID{
			HostUserID:      host.UserID,
			CandidateUserID: c.UserID,
			HostType:        host.TypeCode,
			CandidateType:   candType,
		})
		adj = math.Max(-e.maxAdj, math.Min(e.maxAdj, adj))

		out = append(out, model.CandidateMatch{
			UserID:             c.UserID,
			TypeCode:           string(candType),
			BaseScore:          base,
			LearningAdjustment: adj,
			Score:              float64(base) + adj,
			DistanceKm:         dist,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// Eligible reports whether c at distKm passes the hard filters.
func Eligible(f model.MatchFilters, c model.CandidateSignal, distKm float64) bool {
	if f.AgeMin > 0 && c.Age < f.AgeMin {
		return false
	}
	if f.AgeMax > 0 && c.Age > f.AgeMax {
		return false
	}
	if f.Gender != "" && !strings.EqualFold(f.Gender, model.GenderAny) && !strings.EqualFold(f.Gender, c.Gender) {
		return false
	}
	if len(f.Languages) > 0 && !overlaps(f.Languages, c.Languages) {
		return false
	}
	if f.MaxDistanceKm > 0 && distKm > f.MaxDistanceKm {
		return false
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}
