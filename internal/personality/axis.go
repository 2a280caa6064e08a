// Package personality holds the axis model behind the 16 art-viewing personality types:
// score accumulation over the eight axis letters and the reduction of those scores to a
// four-letter type code.
package personality

// Axis is one pole of a bipolar personality dimension.
type Axis string

const (
	Lone         Axis = "L"
	Shared       Axis = "S"
	Atmospheric  Axis = "A"
	Realistic    Axis = "R"
	Emotional    Axis = "E"
	Meaning      Axis = "M"
	Flow         Axis = "F"
	Constructive Axis = "C"
)

// Pair is a bipolar dimension. First is the letter that wins ties.
type Pair struct {
	First  Axis
	Second Axis
}

// Pairs lists the four dimensions in type-code order.
var Pairs = [4]Pair{
	{Lone, Shared},
	{Atmospheric, Realistic},
	{Emotional, Meaning},
	{Flow, Constructive},
}

// Axes lists all eight letters.
var Axes = [8]Axis{Lone, Shared, Atmospheric, Realistic, Emotional, Meaning, Flow, Constructive}

// Valid reports whether a is one of the eight axis letters.
func (a Axis) Valid() bool {
	for _, x := range Axes {
		if x == a {
			return true
		}
	}
	return false
}

// Weights is the per-axis delta contributed by one answer choice.
type Weights map[Axis]float64

// Scores is the running total for each axis letter.
type Scores map[Axis]float64

// NewScores returns a score map with every letter at zero.
func NewScores() Scores {
	s := make(Scores, len(Axes))
	for _, a := range Axes {
		s[a] = 0
	}
	return s
}

// Clone returns an independent copy of s.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Apply folds w into current and returns the new totals. current is not modified.
// Letters outside the axis set are ignored; values are never clamped.
func Apply(current Scores, w Weights) Scores {
	next := NewScores()
	for a, v := range current {
		if a.Valid() {
			next[a] = v
		}
	}
	for a, delta := range w {
		if !a.Valid() {
			continue
		}
		next[a] += delta
	}
	return next
}

// Accumulator applies weights one answer at a time and keeps every intermediate total.
// Snapshot 0 is the all-zero start; snapshot i is the total after i answers.
type Accumulator struct {
	snapshots []Scores
}

// NewAccumulator starts from start, or from zero when start is nil.
func NewAccumulator(start Scores) *Accumulator {
	if start == nil {
		start = NewScores()
	}
	return &Accumulator{snapshots: []Scores{Apply(start, nil)}}
}

// Replay rebuilds an accumulator from an ordered answer log.
func Replay(weights ...Weights) *Accumulator {
	acc := NewAccumulator(nil)
	for _, w := range weights {
		acc.Add(w)
	}
	return acc
}

// Add applies w and returns the new total.
func (a *Accumulator) Add(w Weights) Scores {
	next := Apply(a.Current(), w)
	a.snapshots = append(a.snapshots, next)
	return next.Clone()
}

// Current returns a copy of the latest total.
func (a *Accumulator) Current() Scores {
	return a.snapshots[len(a.snapshots)-1].Clone()
}

// At returns a copy of the total after i answers.
func (a *Accumulator) At(i int) (Scores, bool) {
	if i < 0 || i >= len(a.snapshots) {
		return nil, false
	}
	return a.snapshots[i].Clone(), true
}

// Len is the number of answers applied.
func (a *Accumulator) Len() int { return len(a.snapshots) - 1 }

// Snapshots returns copies of every total, starting with the zero state.
func (a *Accumulator) Snapshots() []Scores {
	out := make([]Scores, len(a.snapshots))
	for i, s := range a.snapshots {
		out[i] = s.Clone()
	}
	return out
}
