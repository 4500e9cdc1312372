package service

import (
	"context"
	"testing"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDifficultyInstruction(t *testing.T) {
	cases := map[int]string{
		0:   InstructionFoundational,
		24:  InstructionFoundational,
		25:  InstructionAverage,
		50:  InstructionAverage,
		75:  InstructionAverage,
		76:  InstructionChallenging,
		100: InstructionChallenging,
	}
	for rating, want := range cases {
		assert.Equal(t, want, DeriveDifficultyInstruction(rating), "rating %d", rating)
	}
}

func TestReviewRatingDelta(t *testing.T) {
	for score, want := range map[int]int{1: -20, 2: -10, 3: 0, 4: 10, 5: 20} {
		got, err := ReviewRatingDelta(score)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for _, score := range []int{0, 6, -1} {
		_, err := ReviewRatingDelta(score)
		assert.ErrorIs(t, err, util.ErrValidation)
	}
}

func TestScoringService_ApplyReviewOutcome(t *testing.T) {
	cases := []struct {
		name       string
		rating     int
		score      int
		wantRating int
	}{
		{"top score near max clamps", 95, 5, 100},
		{"bottom score near min clamps", 5, 1, 0},
		{"average score keeps rating", 50, 3, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.learner(t, "ada", tc.rating)

			require.NoError(t, f.scoring.ApplyReviewOutcome(context.Background(), nil, "ada", tc.score))

			l := f.reload(t, "ada")
			assert.Equal(t, 50, l.XP)
			assert.Equal(t, tc.wantRating, l.PerformanceRating)
		})
	}
}

func TestScoringService_ApplyReviewOutcomeRejectsBadScore(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)

	err := f.scoring.ApplyReviewOutcome(context.Background(), nil, "ada", 7)
	assert.ErrorIs(t, err, util.ErrValidation)
	assert.Zero(t, f.reload(t, "ada").XP)
}

func TestScoringService_ApplyMilestoneDelta(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	ctx := context.Background()

	require.NoError(t, f.scoring.ApplyMilestoneDelta(ctx, nil, "ada", 0))
	require.NoError(t, f.scoring.ApplyMilestoneDelta(ctx, nil, "ada", -3))
	assert.Zero(t, f.reload(t, "ada").XP)

	require.NoError(t, f.scoring.ApplyMilestoneDelta(ctx, nil, "ada", 3))
	assert.Equal(t, 30, f.reload(t, "ada").XP)
}

func TestScoringService_ReviewOutcomeIncludesMilestones(t *testing.T) {
	s := NewScoringService(nil, config.ScoringConfig{MilestoneXP: 10, CompletionBonusXP: 50})

	o, err := s.ReviewOutcome(4, 2)
	require.NoError(t, err)
	assert.Equal(t, repository.Outcome{XP: 70, RatingDelta: 10}, o)
}
