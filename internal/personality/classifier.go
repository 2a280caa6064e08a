package personality

import "math"

// DefaultSaturationMargin is the average per-axis margin at which confidence reaches 1.
// Two decisive three-point answers on each axis saturate it.
const DefaultSaturationMargin = 6.0

// AxisResult describes how one pair resolved.
type AxisResult struct {
	Pair     Pair    `json:"pair"`
	Winner   Axis    `json:"winner"`
	Margin   float64 `json:"margin"`
	Tied     bool    `json:"tied"`
	Strength string  `json:"strength"`
}

// Result is the classification of a score map.
type Result struct {
	TypeCode   TypeCode      `json:"type_code"`
	Confidence float64       `json:"confidence"`
	Axes       [4]AxisResult `json:"axes"`
}

// Classifier reduces axis totals to a type code and confidence.
type Classifier struct {
	saturation float64
}

// NewClassifier returns a classifier saturating at margin. margin <= 0 uses the default.
func NewClassifier(margin float64) *Classifier {
	if margin <= 0 {
		margin = DefaultSaturationMargin
	}
	return &Classifier{saturation: margin}
}

// Classify picks the strictly higher letter of each pair. A tie goes to the pair's first
// letter (L, A, E, F). Missing letters count as zero.
func (c *Classifier) Classify(scores Scores) Result {
	var res Result
	code := make([]byte, 0, 4)
	total := 0.0

	for i, p := range Pairs {
		a, b := scores[p.First], scores[p.Second]
		winner := p.First
		if b > a {
			winner = p.Second
		}
		margin := math.Abs(a - b)
		total += margin

		res.Axes[i] = AxisResult{
			Pair:     p,
			Winner:   winner,
			Margin:   margin,
			Tied:     a == b,
			Strength: strengthLabel(axisPercent(a, b)),
		}
		code = append(code, winner[0])
	}

	res.TypeCode = TypeCode(code)
	res.Confidence = math.Min(total/4/c.saturation, 1)
	return res
}

// Classify uses a default classifier.
func Classify(scores Scores) Result {
	return NewClassifier(0).Classify(scores)
}

// axisPercent is the share of the pair's combined weight held by the winning side's lead.
func axisPercent(a, b float64) float64 {
	sum := math.Abs(a) + math.Abs(b)
	if sum == 0 {
		return 0
	}
	return math.Abs(a-b) / sum * 100
}

func strengthLabel(pct float64) string {
	switch {
	case pct >= 80:
		return "Very Strong"
	case pct >= 60:
		return "Strong"
	case pct >= 40:
		return "Moderate"
	case pct >= 20:
		return "Mild"
	default:
		return "Balanced"
	}
}
