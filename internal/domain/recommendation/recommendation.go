package recommendation

// Recommendation is the outcome of an accepted query.
type Recommendation struct {
	title       string
	explanation string
	fullSummary string
	score       float64
	image       []byte
}

// New creates a Recommendation. score is expected to be rounded already.
func New(title, explanation, fullSummary string, score float64) Recommendation {
	return Recommendation{
		title:       title,
		explanation: explanation,
		fullSummary: fullSummary,
		score:       score,
	}
}

// WithImage returns a copy carrying a cover illustration.
func (r Recommendation) WithImage(img []byte) Recommendation {
	r.image = img
	return r
}

// Title returns the recommended book title.
func (r Recommendation) Title() string { return r.title }

// Explanation returns the generated reason the book fits the query.
func (r Recommendation) Explanation() string { return r.explanation }

// FullSummary returns the long-form summary.
func (r Recommendation) FullSummary() string { return r.fullSummary }

// Score returns the similarity score, two decimals.
func (r Recommendation) Score() float64 { return r.score }

// Image returns the cover illustration bytes, nil when none was produced.
func (r Recommendation) Image() []byte { return r.image }

// HasImage reports whether a cover illustration is attached.
func (r Recommendation) HasImage() bool { return len(r.image) > 0 }
