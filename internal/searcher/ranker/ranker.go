package ranker

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Angle float64 `json:"angle"`
}

// Candidate is a document vector waiting to be scored.
type Candidate struct {
	DocID  int
	Vector []float64
}

// Angle returns the angle between a and b in degrees. 0 means same
// direction, 90 means no shared terms.
func Angle(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", apperrors.ErrDimensionMismatch, len(a), len(b))
	}
	normA := norm(a)
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0, apperrors.ErrZeroNorm
	}
	cos := dot(a, b) / (normA * normB)
	// Rounding can push identical directions just past 1.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, nil
}

// Rank scores every candidate against query and orders them by ascending
// angle. Equal angles keep candidate order.
func Rank(query []float64, candidates []Candidate) ([]ScoredDoc, error) {
	result := make([]ScoredDoc, 0, len(candidates))
	for _, c := range candidates {
		angle, err := Angle(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("scoring document %d: %w", c.DocID, err)
		}
		result = append(result, ScoredDoc{DocID: c.DocID, Angle: angle})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Angle < result[j].Angle
	})
	return result, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
