package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/github"
	"skillforge_backend/internal/llm"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testRepoURL = "https://github.com/ada/forge"

// fakeGitHub 内存中的单仓库 GitHub API
type fakeGitHub struct {
	mu       sync.Mutex
	files    []string
	contents map[string]string
	failBlob bool
	status   int
	requests []string
}

func newFakeGitHub(t *testing.T, files map[string]string, order ...string) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	gh := &fakeGitHub{files: order, contents: files}
	srv := httptest.NewServer(http.HandlerFunc(gh.serve))
	t.Cleanup(srv.Close)
	return gh, srv
}

func (g *fakeGitHub) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.requests = append(g.requests, r.URL.Path)
	status, failBlob := g.status, g.failBlob
	g.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if r.Header.Get("Authorization") != "Bearer gh-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/repos/ada/forge":
		_ = json.NewEncoder(w).Encode(map[string]any{"full_name": "ada/forge", "default_branch": "main"})
	case r.URL.Path == "/repos/ada/forge/git/trees/main":
		entries := []map[string]any{{"path": "src", "type": "tree", "sha": "dir"}}
		for _, p := range g.files {
			entries = append(entries, map[string]any{"path": p, "type": "blob", "sha": "sha-" + p})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sha": "root", "tree": entries})
	case strings.HasPrefix(r.URL.Path, "/repos/ada/forge/git/blobs/"):
		if failBlob {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		p := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/repos/ada/forge/git/blobs/"), "sha-")
		content, ok := g.contents[p]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Accept") != "application/vnd.github.v3.raw" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		_, _ = w.Write([]byte(content))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *fakeGitHub) respondWith(status int, failBlob bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status, g.failBlob = status, failBlob
}

func (g *fakeGitHub) blobRequests() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.requests {
		if strings.Contains(p, "/git/blobs/") {
			n++
		}
	}
	return n
}

func (g *fakeGitHub) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// recordingViews 记录失效路径，并提供内存缓存
type recordingViews struct {
	mu          sync.Mutex
	invalidated []string
	cache       map[string][]byte
}

func newRecordingViews() *recordingViews {
	return &recordingViews{cache: map[string][]byte{}}
}

func (v *recordingViews) Invalidate(_ context.Context, paths ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invalidated = append(v.invalidated, paths...)
	for _, p := range paths {
		delete(v.cache, p)
	}
}

func (v *recordingViews) Get(_ context.Context, path string, out any) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	data, ok := v.cache[path]
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (v *recordingViews) Set(_ context.Context, path string, val any) {
	data, _ := json.Marshal(val)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache[path] = data
}

func (v *recordingViews) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invalidated = nil
}

func (v *recordingViews) paths() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.invalidated...)
}

type fixture struct {
	db        *gorm.DB
	llm       *llm.MockProvider
	gh        *fakeGitHub
	views     *recordingViews
	identity  *IdentityService
	evidence  *EvidenceService
	scoring   *ScoringService
	progress  *ProgressService
	projects  *ProjectService
	challenge *ChallengeService
	profile   *ProfileService
	repos     struct {
		learner   *repository.LearnerRepository
		project   *repository.ProjectRepository
		challenge *repository.ChallengeRepository
		skill     *repository.SkillRepository
	}
}

// newFixture 组装全部服务：内存数据库、模拟预测服务与假 GitHub
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenTestDB(t)
	gh, srv := newFakeGitHub(t, map[string]string{
		"README.md":     "# forge",
		"src/app.tsx":   "export const App = () => null",
		"src/style.css": "body { margin: 0 }",
	}, "README.md", "src/app.tsx", "src/style.css")

	f := &fixture{db: db, llm: llm.NewMockProvider(), gh: gh, views: newRecordingViews()}
	f.repos.learner = repository.NewLearnerRepository(db)
	f.repos.project = repository.NewProjectRepository(db)
	f.repos.challenge = repository.NewChallengeRepository(db)
	f.repos.skill = repository.NewSkillRepository(db)

	cipher, err := NewTokenCipher("test-identity-key")
	require.NoError(t, err)
	f.identity = NewIdentityService(repository.NewIdentityRepository(db), cipher)

	client, err := github.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	f.evidence = NewEvidenceService(
		client,
		f.identity,
		config.GitHubConfig{Host: "github.com", TimeoutSeconds: 5},
		config.EvidenceConfig{MaxFiles: 5, Extensions: []string{".js", ".jsx", ".ts", ".tsx", ".css", ".py", ".go"}},
	)
	f.scoring = NewScoringService(repository.NewScoreAccumulator(db), config.ScoringConfig{})

	ai := NewAIService(f.llm)
	normalizer := NewSkillNormalizer(f.repos.skill)
	f.progress = NewProgressService(f.repos.learner, f.repos.project, f.repos.challenge, f.repos.skill, f.views)
	f.projects = NewProjectService(db, f.repos.project, f.repos.learner, f.repos.skill, normalizer, f.scoring, f.evidence, ai, f.views)
	f.challenge = NewChallengeService(db, f.repos.challenge, f.repos.skill, normalizer, f.scoring, f.evidence, f.progress, ai, f.views)
	f.profile = NewProfileService(f.repos.learner, nil, f.views)
	return f
}

func (f *fixture) learner(t *testing.T, id string, rating int) *model.Learner {
	t.Helper()
	return testutil.SeedLearner(t, f.db, id, rating)
}

func (f *fixture) linkGitHub(t *testing.T, learnerID string) {
	t.Helper()
	require.NoError(t, f.identity.Link(context.Background(), learnerID, "github", "gh-token"))
}

func (f *fixture) reload(t *testing.T, id string) *model.Learner {
	t.Helper()
	l, err := f.repos.learner.FindByID(context.Background(), id)
	require.NoError(t, err)
	return l
}

const projectBriefJSON = `{
	"title": "Forge Dashboard",
	"description": "A dashboard for tracking builds.",
	"milestones": ["Scaffold the app", "Add routing", "Fetch data", "Deploy"],
	"skillsUsed": ["React", " TypeScript ", "React", ""]
}`

func reviewJSON(score int) string {
	b, _ := json.Marshal(map[string]any{
		"overall":             "Solid work.",
		"strengths":           []string{"Clear structure"},
		"areasForImprovement": []string{"Add tests"},
		"score":               score,
	})
	return string(b)
}
