package model

import (
	"testing"

	"skillforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStatusNext(t *testing.T) {
	next, err := ProjectInProgress.Next(ProjectSubmit)
	require.NoError(t, err)
	assert.Equal(t, ProjectCompleted, next)

	_, err = ProjectCompleted.Next(ProjectSubmit)
	assert.ErrorIs(t, err, util.ErrInvalidTransition)
}

func TestChallengeStatusNext(t *testing.T) {
	cases := []struct {
		from    ChallengeStatus
		event   ChallengeEvent
		want    ChallengeStatus
		wantErr bool
	}{
		{"", ChallengeStart, ChallengeInProgress, false},
		{ChallengeNotStarted, ChallengeStart, ChallengeInProgress, false},
		{ChallengeInProgress, ChallengeStart, ChallengeInProgress, false},
		{ChallengeFailed, ChallengeStart, ChallengeInProgress, false},
		{ChallengeCompleted, ChallengeStart, "", true},
		{ChallengeInProgress, ChallengeSubmit, ChallengeCompleted, false},
		{ChallengeNotStarted, ChallengeSubmit, "", true},
		{ChallengeCompleted, ChallengeSubmit, "", true},
		{ChallengeFailed, ChallengeSubmit, "", true},
		{ChallengeInProgress, ChallengeAbandon, ChallengeFailed, false},
		{ChallengeCompleted, ChallengeAbandon, "", true},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.event), func(t *testing.T) {
			got, err := tc.from.Next(tc.event)
			if tc.wantErr {
				assert.ErrorIs(t, err, util.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewlyCompleted(t *testing.T) {
	prev := Milestones{{Text: "a"}, {Text: "b", Completed: true}, {Text: "c"}}

	assert.Equal(t, 2, NewlyCompleted(prev, Milestones{{Text: "a", Completed: true}, {Text: "b", Completed: true}, {Text: "c", Completed: true}}))
	assert.Equal(t, 0, NewlyCompleted(prev, prev))
	assert.Equal(t, 0, NewlyCompleted(prev, Milestones{{Text: "a"}, {Text: "b"}, {Text: "c"}}))
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(199))
	assert.Equal(t, 2, LevelForXP(200))
	assert.Equal(t, 6, LevelForXP(1000))
	assert.Equal(t, 400, NextLevelXP(2))
}

func TestDifficultyTable(t *testing.T) {
	assert.Equal(t, 50, Beginner.XP())
	assert.Equal(t, 150, Intermediate.XP())
	assert.Equal(t, 300, Expert.XP())
	assert.Equal(t, "~90 mins", Intermediate.EstimatedTime())
	assert.False(t, Difficulty("Hard").Valid())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []ChallengeStatus{ChallengeNotStarted, ChallengeInProgress, ChallengeCompleted, ChallengeFailed} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ChallengeStatus("archived").Valid())
	assert.False(t, ChallengeStatus("").Valid())

	assert.True(t, ProjectInProgress.Valid())
	assert.True(t, ProjectCompleted.Valid())
	assert.False(t, ProjectStatus("failed").Valid())
}
