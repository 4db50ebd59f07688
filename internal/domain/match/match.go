// Package match turns raw nearest-neighbour distances into accept/reject decisions.
package match

import "math"

// DefaultMinScore is the lowest score a match may have and still be recommended.
const DefaultMinScore = 0.22

// scoreEpsilon absorbs float error so that a distance which maps exactly to the
// threshold (e.g. 1.56 → 0.22) is accepted.
const scoreEpsilon = 1e-9

// Match is a single nearest-neighbour hit from the catalog.
type Match struct {
	title    string
	document string
	distance float64
}

// New creates a Match. distance is the store's cosine distance in [0, 2].
func New(title, document string, distance float64) Match {
	return Match{title: title, document: document, distance: distance}
}

// Title returns the matched book title.
func (m Match) Title() string { return m.title }

// Document returns the matched document text.
func (m Match) Document() string { return m.document }

// Distance returns the raw cosine distance.
func (m Match) Distance() float64 { return m.distance }

// Score returns the normalised similarity of the match.
func (m Match) Score() float64 { return Score(m.distance) }

// Score maps a cosine distance in [0, 2] to a score in [0, 1]:
// clamp(1 - d/2, 0, 1). Non-increasing in d.
func Score(distance float64) float64 {
	return max(0, min(1, 1-distance/2))
}

// Round2 rounds a score to two decimals.
func Round2(score float64) float64 {
	return math.Round(score*100) / 100
}

// Decision is the accepted outcome of the gate.
type Decision struct {
	title    string
	document string
	score    float64
}

// Title returns the accepted book title.
func (d Decision) Title() string { return d.title }

// Document returns the matched document text.
func (d Decision) Document() string { return d.document }

// Score returns the unrounded score.
func (d Decision) Score() float64 { return d.score }

// RoundedScore returns the score rounded to two decimals, as reported to clients.
func (d Decision) RoundedScore() float64 { return Round2(d.score) }

// Gate accepts matches whose score reaches a fixed threshold.
type Gate struct {
	minScore float64
}

// NewGate creates a gate with the given threshold.
func NewGate(minScore float64) Gate {
	return Gate{minScore: minScore}
}

// MinScore returns the threshold.
func (g Gate) MinScore() float64 { return g.minScore }

// Accepts reports whether score clears the threshold (inclusive).
func (g Gate) Accepts(score float64) bool {
	return score+scoreEpsilon >= g.minScore
}

// Evaluate decides on the nearest match. matches must be ordered nearest first;
// only the first is considered. Returns false when there are no matches or the
// nearest one scores below the threshold.
func (g Gate) Evaluate(matches []Match) (Decision, bool) {
	if len(matches) == 0 {
		return Decision{}, false
	}
	best := matches[0]
	score := best.Score()
	if !g.Accepts(score) {
		return Decision{}, false
	}
	return Decision{title: best.title, document: best.document, score: score}, true
}
