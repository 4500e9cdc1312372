package service

import (
	"context"
	"testing"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateProject(t *testing.T, f *fixture, learnerID string) *model.Project {
	t.Helper()
	f.llm.AddJSON(projectBriefJSON)
	p, err := f.projects.GenerateProject(context.Background(), learnerID, GenerateProjectRequest{
		Skills:      []string{"React", "TypeScript"},
		ProjectType: model.ProjectMicro,
	})
	require.NoError(t, err)
	return p
}

func completed(p *model.Project, n int) model.Milestones {
	ms := append(model.Milestones(nil), p.Milestones.Data()...)
	for i := range ms {
		ms[i].Completed = i < n
	}
	return ms
}

func TestProjectService_GenerateProject(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 80)

	p := generateProject(t, f, "ada")

	prompt := f.llm.LastCall().Messages[0].Content
	assert.Contains(t, prompt, InstructionChallenging)
	assert.Contains(t, prompt, "Micro-Project")

	assert.Equal(t, "Forge Dashboard", p.Title)
	assert.Equal(t, model.ProjectInProgress, p.Status)
	assert.Equal(t, []string{"React", "TypeScript"}, p.Skills)
	require.Len(t, p.Milestones.Data(), 4)
	for _, m := range p.Milestones.Data() {
		assert.False(t, m.Completed)
	}

	stored, err := f.projects.GetProject(context.Background(), "ada", p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"React", "TypeScript"}, stored.Skills)
	assert.Nil(t, stored.Feedback.Data())
	assert.Contains(t, f.views.paths(), util.ViewDashboard)
}

func TestProjectService_GenerateProjectDifficultyFollowsRating(t *testing.T) {
	for rating, want := range map[int]string{10: InstructionFoundational, 50: InstructionAverage} {
		f := newFixture(t)
		f.learner(t, "ada", rating)
		generateProject(t, f, "ada")
		assert.Contains(t, f.llm.LastCall().Messages[0].Content, want)
	}
}

func TestProjectService_GenerateProjectValidation(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	ctx := context.Background()

	_, err := f.projects.GenerateProject(ctx, "ada", GenerateProjectRequest{Skills: []string{" "}, ProjectType: model.ProjectMicro})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.projects.GenerateProject(ctx, "ada", GenerateProjectRequest{Skills: []string{"Go"}, ProjectType: "huge"})
	assert.ErrorIs(t, err, util.ErrValidation)

	assert.Zero(t, f.llm.CallCount())
}

func TestProjectService_GenerateProjectMalformedPersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.llm.AddJSON(`{"title": "missing fields"}`)

	_, err := f.projects.GenerateProject(context.Background(), "ada", GenerateProjectRequest{
		Skills:      []string{"Go"},
		ProjectType: model.ProjectRealWorld,
	})
	assert.ErrorIs(t, err, util.ErrMalformedPayload)

	var projects, skills int64
	require.NoError(t, f.db.Model(&model.Project{}).Count(&projects).Error)
	require.NoError(t, f.db.Model(&model.Skill{}).Count(&skills).Error)
	assert.Zero(t, projects)
	assert.Zero(t, skills)
}

func TestProjectService_UpdateMilestonesAwardsOnlyNewCompletions(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	p := generateProject(t, f, "ada")
	ctx := context.Background()

	_, err := f.projects.UpdateMilestones(ctx, "ada", p.ID, completed(p, 2))
	require.NoError(t, err)
	assert.Equal(t, 20, f.reload(t, "ada").XP)

	// 同一状态再次提交不加分
	_, err = f.projects.UpdateMilestones(ctx, "ada", p.ID, completed(p, 2))
	require.NoError(t, err)
	assert.Equal(t, 20, f.reload(t, "ada").XP)

	// 取消勾选不扣分
	_, err = f.projects.UpdateMilestones(ctx, "ada", p.ID, completed(p, 1))
	require.NoError(t, err)
	assert.Equal(t, 20, f.reload(t, "ada").XP)

	stored, err := f.projects.GetProject(ctx, "ada", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Milestones.Data().CompletedCount())
	assert.Equal(t, 50, f.reload(t, "ada").PerformanceRating)
}

func TestProjectService_UpdateMilestonesRejectsShapeChanges(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	p := generateProject(t, f, "ada")
	ctx := context.Background()

	short := completed(p, 1)[:2]
	_, err := f.projects.UpdateMilestones(ctx, "ada", p.ID, short)
	assert.ErrorIs(t, err, util.ErrValidation)

	renamed := completed(p, 1)
	renamed[0].Text = "Something else"
	_, err = f.projects.UpdateMilestones(ctx, "ada", p.ID, renamed)
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.projects.UpdateMilestones(ctx, "bob", p.ID, completed(p, 1))
	assert.ErrorIs(t, err, util.ErrProjectNotFound)

	assert.Zero(t, f.reload(t, "ada").XP)
}

func TestProjectService_SubmitForReview(t *testing.T) {
	f := newFixture(t)
	l := f.learner(t, "ada", 90)
	require.NoError(t, f.db.Model(l).Update("username", "ada").Error)
	f.linkGitHub(t, "ada")
	p := generateProject(t, f, "ada")
	ctx := context.Background()

	_, err := f.projects.UpdateMilestones(ctx, "ada", p.ID, completed(p, 1))
	require.NoError(t, err)

	f.llm.AddJSON(reviewJSON(5))
	reviewed, err := f.projects.SubmitForReview(ctx, "ada", p.ID, SubmitProjectRequest{
		RepoURL:    " " + testRepoURL + " ",
		Milestones: completed(p, 4),
	})
	require.NoError(t, err)

	prompt := f.llm.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "// FILE: src/app.tsx")
	assert.Contains(t, prompt, "Forge Dashboard")

	assert.Equal(t, model.ProjectCompleted, reviewed.Status)
	assert.Equal(t, testRepoURL, reviewed.RepoURL)
	require.NotNil(t, reviewed.Feedback.Data())
	assert.Equal(t, 5, reviewed.Feedback.Data().Score)

	// 10 (第一个里程碑) + 30 (提交时新完成的三个) + 50 完成奖励
	learner := f.reload(t, "ada")
	assert.Equal(t, 90, learner.XP)
	assert.Equal(t, 100, learner.PerformanceRating)

	stored, err := f.projects.GetProject(ctx, "ada", p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectCompleted, stored.Status)
	assert.Equal(t, 4, stored.Milestones.Data().CompletedCount())
	assert.Equal(t, "Solid work.", stored.Feedback.Data().Overall)

	paths := f.views.paths()
	assert.Contains(t, paths, util.ViewDashboardProjects)
	assert.Contains(t, paths, util.PortfolioView("ada"))

	skills, err := f.progress.SkillHistogram(ctx, "ada")
	require.NoError(t, err)
	assert.Len(t, skills, 2)
}

func TestProjectService_SubmitTwiceIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.linkGitHub(t, "ada")
	p := generateProject(t, f, "ada")
	ctx := context.Background()

	f.llm.AddJSON(reviewJSON(3))
	_, err := f.projects.SubmitForReview(ctx, "ada", p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	require.NoError(t, err)
	calls := f.llm.CallCount()
	requests := f.gh.requestCount()

	_, err = f.projects.SubmitForReview(ctx, "ada", p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	assert.ErrorIs(t, err, util.ErrInvalidTransition)
	assert.Equal(t, calls, f.llm.CallCount())
	assert.Equal(t, requests, f.gh.requestCount())

	_, err = f.projects.UpdateMilestones(ctx, "ada", p.ID, completed(p, 1))
	assert.ErrorIs(t, err, util.ErrInvalidTransition)

	learner := f.reload(t, "ada")
	assert.Equal(t, 50, learner.XP)
	assert.Equal(t, 50, learner.PerformanceRating)
}

func TestProjectService_SubmitMalformedReviewLeavesProjectOpen(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.linkGitHub(t, "ada")
	p := generateProject(t, f, "ada")
	ctx := context.Background()

	f.llm.AddJSON(`{"overall": "ok", "strengths": [], "areasForImprovement": [], "score": 9}`)
	_, err := f.projects.SubmitForReview(ctx, "ada", p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	assert.ErrorIs(t, err, util.ErrMalformedPayload)

	stored, err := f.projects.GetProject(ctx, "ada", p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectInProgress, stored.Status)
	assert.Empty(t, stored.RepoURL)
	assert.Zero(t, f.reload(t, "ada").XP)
}

func TestProjectService_SubmitWithoutLinkedIdentity(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	p := generateProject(t, f, "ada")
	calls := f.llm.CallCount()

	_, err := f.projects.SubmitForReview(context.Background(), "ada", p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	assert.ErrorIs(t, err, util.ErrIdentityNotLinked)
	assert.Equal(t, calls, f.llm.CallCount())

	stored, err := f.projects.GetProject(context.Background(), "ada", p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectInProgress, stored.Status)
}

func TestProjectService_SubmitEmptyEvidence(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.linkGitHub(t, "ada")
	p := generateProject(t, f, "ada")

	f.gh.mu.Lock()
	f.gh.files = []string{"README.md"}
	f.gh.mu.Unlock()

	_, err := f.projects.SubmitForReview(context.Background(), "ada", p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	assert.ErrorIs(t, err, util.ErrEmptyEvidence)
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestProjectService_SubmitUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.linkGitHub(t, "ada")
	p := generateProject(t, f, "ada")
	f.gh.respondWith(0, true)

	_, err := f.projects.SubmitForReview(context.Background(), "ada", p.ID, SubmitProjectRequest{RepoURL: testRepoURL})
	assert.ErrorIs(t, err, util.ErrUpstreamUnavailable)
	assert.Zero(t, f.reload(t, "ada").XP)
}

func TestProjectService_ProjectHint(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	p := generateProject(t, f, "ada")
	ctx := context.Background()

	_, err := f.projects.UpdateMilestones(ctx, "ada", p.ID, completed(p, 1))
	require.NoError(t, err)

	f.llm.AddJSON(`{"hint": "Start with a router."}`)
	hint, err := f.projects.ProjectHint(ctx, "ada", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Start with a router.", hint)
	assert.Contains(t, f.llm.LastCall().Messages[0].Content, `"Add routing"`)
}

func TestProjectService_ListProjects(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.learner(t, "bob", 50)
	generateProject(t, f, "ada")
	generateProject(t, f, "ada")
	generateProject(t, f, "bob")

	list, err := f.projects.ListProjects(context.Background(), "ada", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, p := range list {
		assert.Equal(t, "ada", p.LearnerID)
		assert.Equal(t, []string{"React", "TypeScript"}, p.Skills)
	}

	done, err := f.projects.ListProjects(context.Background(), "ada", model.ProjectCompleted)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestProjectService_RealWorldProjectForStrongLearner(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 80)
	f.llm.AddJSON(projectBriefJSON)

	p, err := f.projects.GenerateProject(context.Background(), "ada", GenerateProjectRequest{
		Skills:      []string{"React", "TypeScript"},
		ProjectType: model.ProjectRealWorld,
	})
	require.NoError(t, err)

	prompt := f.llm.LastCall().Messages[0].Content
	assert.Contains(t, prompt, InstructionChallenging)
	assert.Contains(t, prompt, "Real-World Project")
	assert.Equal(t, model.ProjectInProgress, p.Status)

	var links int64
	require.NoError(t, f.db.Model(&model.ProjectSkill{}).Where("project_id = ?", p.ID).Count(&links).Error)
	assert.EqualValues(t, 2, links)
}

func TestProjectService_GenerateProjectRejectsBlankTitle(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.llm.AddJSON(`{"title": "   ", "description": "d", "milestones": ["Scaffold"], "skillsUsed": ["Go"]}`)

	_, err := f.projects.GenerateProject(context.Background(), "ada", GenerateProjectRequest{
		Skills:      []string{"Go"},
		ProjectType: model.ProjectMicro,
	})
	assert.ErrorIs(t, err, util.ErrMalformedPayload)

	var count int64
	require.NoError(t, f.db.Model(&model.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProjectService_ListProjectsRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)

	_, err := f.projects.ListProjects(context.Background(), "ada", "archived")
	assert.ErrorIs(t, err, util.ErrValidation)
}
