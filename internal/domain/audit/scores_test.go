package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGenerator_ScoresWithinRanges(t *testing.T) {
	gen := NewRandomGenerator(42)
	for i := 0; i < 500; i++ {
		scores, err := gen.Generate(context.Background(), AuditInput{})
		require.NoError(t, err)
		require.NoError(t, scores.Validate())
		for _, c := range Categories {
			lo, hi := c.Range()
			assert.GreaterOrEqual(t, scores[c], lo, c)
			assert.LessOrEqual(t, scores[c], hi, c)
		}
	}
}

func TestRandomGenerator_SeedIsDeterministic(t *testing.T) {
	a, err := NewRandomGenerator(99).Generate(context.Background(), AuditInput{})
	require.NoError(t, err)
	b, err := NewRandomGenerator(99).Generate(context.Background(), AuditInput{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRandomGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRandomGenerator(1).Generate(ctx, AuditInput{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCategory_Ranges(t *testing.T) {
	lo, hi := MobileBooking.Range()
	assert.Equal(t, 50, lo)
	assert.Equal(t, 79, hi)
	lo, hi = UrgencySignals.Range()
	assert.Equal(t, 40, lo)
	assert.Equal(t, 74, hi)
}

func TestScoreSet_Notes(t *testing.T) {
	notes := ScoreSet{LoadSpeed: 69, TrustSignals: 70}.Notes()
	assert.Equal(t, "Page load time exceeds 3 seconds. Optimize images and scripts.", notes[LoadSpeed])
	assert.Equal(t, "Trust signals are well displayed.", notes[TrustSignals])
	assert.Len(t, notes, 2)
}

func TestScoreSet_Validate(t *testing.T) {
	assert.NoError(t, sampleScores().Validate())

	missing := sampleScores()
	delete(missing, LoadSpeed)
	assert.ErrorIs(t, missing.Validate(), ErrMissingCategory)

	high := sampleScores()
	high[LoadSpeed] = 101
	assert.ErrorIs(t, high.Validate(), ErrScoreOutOfRange)

	unknown := sampleScores()
	unknown[Category("checkoutColor")] = 50
	assert.ErrorIs(t, unknown.Validate(), ErrUnknownCategory)
}
