package matching

import (
	"context"
	"fmt"

	"github.com/sayu/sayu-backend/internal/personality"
)

// PairID identifies a host/candidate pairing for the learning hook.
type PairID struct {
	HostUserID      string
	CandidateUserID string
	HostType        personality.TypeCode
	CandidateType   personality.TypeCode
}

func (p PairID) String() string {
	return fmt.Sprintf("%s(%s)->%s(%s)", p.HostUserID, p.HostType, p.CandidateUserID, p.CandidateType)
}

// Adjuster supplies the learned score delta for a pairing. The engine clamps whatever
// it returns.
type Adjuster interface {
	Adjust(ctx context.Context, pair PairID) float64
}

// AdjusterFunc adapts a function to Adjuster.
type AdjusterFunc func(ctx context.Context, pair PairID) float64

func (f AdjusterFunc) Adjust(ctx context.Context, pair PairID) float64 { return f(ctx, pair) }

// NoAdjustment leaves every base score unchanged.
var NoAdjustment Adjuster = AdjusterFunc(func(context.Context, PairID) float64 { return 0 })
