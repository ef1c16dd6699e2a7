// Package scoring turns a completed answer set into normalized dimension
// scores, a recommendation and a ranked list of improvement priorities.
package scoring

import (
	"log/slog"
	"math"

	"github.com/onevent/flowscore/internal/catalog"
	"github.com/onevent/flowscore/internal/model"
)

// numberCap bounds a single numeric-question contribution and is the amount
// added to the denominator for every answered numeric question. Without it
// an outlier like "100 hours per week" would drown out every other answer.
const numberCap = 50

// Score computes the five dimension scores from the answers, each normalized
// to [0, 100]. Unanswered questions contribute neither to the numerator nor
// the denominator, so partial answer sets still produce meaningful scores.
// A dimension that accumulates no denominator at all scores zero.
func Score(cat *catalog.Catalog, answers map[string]model.Answer) model.Scores {
	type acc struct{ score, max float64 }
	accs := make(map[model.Dimension]*acc, len(model.Dimensions))
	for _, d := range model.Dimensions {
		accs[d] = &acc{}
	}

	for _, q := range cat.Questions() {
		ans, ok := answers[q.ID]
		if !ok || !q.HasWeights() {
			continue
		}
		for dim, w := range q.Weights {
			a, ok := accs[dim]
			if !ok {
				continue
			}
			contrib, max, ok := contribution(q, w, ans.Value)
			if !ok {
				continue
			}
			a.score += contrib
			a.max += max
		}
	}

	scores := make(model.Scores, len(model.Dimensions))
	for _, d := range model.Dimensions {
		a := accs[d]
		if a.max <= 0 {
			scores[d] = 0
			continue
		}
		scores[d] = clamp(int(math.Round(100*a.score/a.max)), 0, 100)
	}
	return scores
}

// contribution returns the raw score and denominator contribution of one
// answer for one dimension. ok is false when the value shape does not match
// the weight shape; such answers are ignored rather than scored as zero so
// they do not dilute the denominator.
func contribution(q model.Question, w model.Weight, v model.Value) (contrib, max float64, ok bool) {
	switch {
	case w.Levels != nil:
		if v.Kind != model.ValueNumber {
			return 0, 0, false
		}
		idx := clamp(v.Number-q.ScaleMin, 0, len(w.Levels)-1)
		return w.Levels[idx], maxOf(w.Levels), true

	case w.Options != nil:
		switch v.Kind {
		case model.ValueToken:
			return w.Options[v.Token], maxOptions(w.Options), true
		case model.ValueTokens:
			var sum float64
			for _, tok := range v.Tokens {
				sum += w.Options[tok]
			}
			return sum, maxOptions(w.Options) * float64(len(v.Tokens)), true
		}
		return 0, 0, false

	case w.Formula != nil:
		if v.Kind != model.ValueNumber {
			return 0, 0, false
		}
		return evalFormula(*w.Formula, float64(v.Number)), numberCap, true
	}
	return 0, 0, false
}

func evalFormula(f model.Formula, value float64) float64 {
	if f.Kind != model.FormulaLinear {
		slog.Warn("unknown formula kind", "kind", f.Kind)
		return 0
	}
	c := value * f.Multiplier
	if f.Cap > 0 && c > f.Cap {
		c = f.Cap
	}
	if c > numberCap {
		c = numberCap
	}
	if c < 0 {
		c = 0
	}
	return c
}

func maxOf(vals []float64) float64 {
	var m float64
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

func maxOptions(opts map[string]float64) float64 {
	var m float64
	for _, v := range opts {
		if v > m {
			m = v
		}
	}
	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
