package service

import (
	"context"
	"testing"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewProject(t *testing.T, f *fixture, learnerID string, score int) *model.Project {
	t.Helper()
	p := generateProject(t, f, learnerID)
	f.llm.AddJSON(reviewJSON(score))
	reviewed, err := f.projects.SubmitForReview(context.Background(), learnerID, p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	require.NoError(t, err)
	return reviewed
}

func TestProgressService_TopSkills(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	ctx := context.Background()

	top, err := f.progress.TopSkills(ctx, "ada", 3)
	require.NoError(t, err)
	assert.Empty(t, top)

	hist, err := f.progress.SkillHistogram(ctx, "ada")
	require.NoError(t, err)
	assert.NotNil(t, hist)
	assert.Empty(t, hist)

	f.linkGitHub(t, "ada")
	reviewProject(t, f, "ada", 3)

	// 第二个项目只使用 React
	f.llm.AddJSON(`{"title": "t", "description": "d", "milestones": ["m"], "skillsUsed": ["React"]}`)
	p, err := f.projects.GenerateProject(ctx, "ada", GenerateProjectRequest{Skills: []string{"React"}, ProjectType: model.ProjectMicro})
	require.NoError(t, err)
	f.llm.AddJSON(reviewJSON(3))
	_, err = f.projects.SubmitForReview(ctx, "ada", p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	require.NoError(t, err)

	top, err = f.progress.TopSkills(ctx, "ada", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"React"}, top)

	hist, err = f.progress.SkillHistogram(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, []model.SkillCount{{Name: "TypeScript", Count: 1}, {Name: "React", Count: 2}}, hist)
}

func TestProgressService_Dashboard(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.linkGitHub(t, "ada")
	generateProject(t, f, "ada")
	reviewProject(t, f, "ada", 5)
	ch := seedChallenge(t, f, "Flexbox Gallery", model.Expert)
	require.NoError(t, f.challenge.StartChallenge(context.Background(), "ada", ch.ID))

	d, err := f.progress.Dashboard(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 50, d.XP)
	assert.Equal(t, 1, d.Level)
	assert.Equal(t, 200, d.NextLevelXP)
	assert.Equal(t, 70, d.PerformanceRating)
	assert.EqualValues(t, 1, d.Projects[model.ProjectInProgress])
	assert.EqualValues(t, 1, d.Projects[model.ProjectCompleted])
	assert.EqualValues(t, 1, d.Challenges[model.ChallengeInProgress])
	assert.Len(t, d.Skills, 2)

	_, err = f.progress.Dashboard(context.Background(), "ghost")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestProgressService_Portfolio(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.linkGitHub(t, "ada")
	ctx := context.Background()

	_, err := f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: "ada", IsPublic: false})
	require.NoError(t, err)

	_, err = f.progress.Portfolio(ctx, "ada")
	assert.ErrorIs(t, err, util.ErrPortfolioNotFound)
	_, err = f.progress.Portfolio(ctx, "nobody")
	assert.ErrorIs(t, err, util.ErrPortfolioNotFound)

	_, err = f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: "ada", IsPublic: true})
	require.NoError(t, err)
	reviewProject(t, f, "ada", 4)

	ch := seedChallenge(t, f, "Grid Layout", model.Beginner)
	require.NoError(t, f.challenge.StartChallenge(ctx, "ada", ch.ID))
	require.NoError(t, f.challenge.SubmitChallengeSolution(ctx, "ada", ch.ID, testRepoURL))

	p, err := f.progress.Portfolio(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Profile.Username)
	assert.Equal(t, 100, p.Profile.XP)
	require.Len(t, p.Projects, 1)
	assert.Equal(t, []string{"React", "TypeScript"}, p.Projects[0].Skills)
	require.Len(t, p.Challenges, 1)
	assert.Equal(t, []string{"CSS"}, p.Challenges[0].Skills)
	require.Len(t, p.Journey, 2)
	assert.False(t, p.Journey[1].Date.Before(p.Journey[0].Date))

	// 命中缓存：直接改库不影响结果，直到写操作触发失效
	require.NoError(t, f.db.Exec("UPDATE users SET headline = ? WHERE id = ?", "cached?", "ada").Error)
	cached, err := f.progress.Portfolio(ctx, "ada")
	require.NoError(t, err)
	assert.Empty(t, cached.Profile.Headline)

	_, err = f.profile.UpdateProfile(ctx, "ada", UpdateProfileRequest{Bio: strPtr("bio")})
	require.NoError(t, err)
	fresh, err := f.progress.Portfolio(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "cached?", fresh.Profile.Headline)
	assert.Equal(t, "bio", fresh.Profile.Bio)
}

func TestProgressService_PortfolioRefreshedAfterMilestoneXP(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	ctx := context.Background()
	_, err := f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: "ada_l", IsPublic: true})
	require.NoError(t, err)
	p := generateProject(t, f, "ada")

	before, err := f.progress.Portfolio(ctx, "ada_l")
	require.NoError(t, err)
	assert.Zero(t, before.Profile.XP)

	_, err = f.projects.UpdateMilestones(ctx, "ada", p.ID, completed(p, 2))
	require.NoError(t, err)
	assert.Contains(t, f.views.paths(), util.PortfolioView("ada_l"))
	assert.Contains(t, f.views.paths(), util.ViewDashboard)

	after, err := f.progress.Portfolio(ctx, "ada_l")
	require.NoError(t, err)
	assert.Equal(t, 20, after.Profile.XP)
}

func TestChallengeService_InvalidatesCatalogAndDashboard(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	ctx := context.Background()
	_, err := f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: "ada_l", IsPublic: true})
	require.NoError(t, err)

	f.views.reset()
	f.llm.AddJSON(`{"title": "Debounce It", "description": "Write a debounce hook.", "category": "Web Dev", "skillsUsed": ["React"]}`)
	_, err = f.challenge.GenerateChallenge(ctx, "ada", GenerateChallengeRequest{Skills: []string{"React"}, Difficulty: model.Beginner})
	require.NoError(t, err)
	assert.Equal(t, []string{util.ViewChallenges}, f.views.paths())

	ch := seedChallenge(t, f, "Grid Layout", model.Beginner)
	require.NoError(t, f.challenge.StartChallenge(ctx, "ada", ch.ID))
	f.views.reset()
	require.NoError(t, f.challenge.AbandonChallenge(ctx, "ada", ch.ID))
	assert.ElementsMatch(t, []string{util.ViewChallenges, util.ViewDashboard, util.PortfolioView("ada_l")}, f.views.paths())
}
