package audit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

var (
	ErrMissingCategory = errors.New("audit: score set is missing a category")
	ErrUnknownCategory = errors.New("audit: unknown score category")
	ErrScoreOutOfRange = errors.New("audit: score must be between 0 and 100")
)

// ScoreSet maps every category to an integer score in [0, 100].
type ScoreSet map[Category]int

// Validate ensures the set holds exactly the eight categories with in-range values.
func (s ScoreSet) Validate() error {
	for key, score := range s {
		if !key.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, key)
		}
		if score < 0 || score > 100 {
			return fmt.Errorf("%w: %s=%d", ErrScoreOutOfRange, key, score)
		}
	}
	for _, c := range Categories {
		if _, ok := s[c]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingCategory, c)
		}
	}
	return nil
}

// Notes returns the advisory text attached to each category's score.
func (s ScoreSet) Notes() map[Category]string {
	notes := make(map[Category]string, len(Categories))
	for _, c := range Categories {
		if score, ok := s[c]; ok {
			notes[c] = c.Note(score)
		}
	}
	return notes
}

// Clone returns an independent copy.
func (s ScoreSet) Clone() ScoreSet {
	out := make(ScoreSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ScoreGenerator produces the sub-scores for a site. Implementations may perform real
// measurements; downstream code depends only on the ScoreSet shape.
type ScoreGenerator interface {
	Generate(ctx context.Context, input AuditInput) (ScoreSet, error)
}

// RandomGenerator fabricates scores uniformly inside each category's configured range.
type RandomGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomGenerator seeds the generator. A zero seed uses the current time.
func NewRandomGenerator(seed uint64) *RandomGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomGenerator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *RandomGenerator) Generate(ctx context.Context, _ AuditInput) (ScoreSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	scores := make(ScoreSet, len(Categories))
	for _, c := range Categories {
		spec := categorySpecs[c]
		scores[c] = g.rng.IntN(spec.width) + spec.floor
	}
	return scores, nil
}

var _ ScoreGenerator = (*RandomGenerator)(nil)
