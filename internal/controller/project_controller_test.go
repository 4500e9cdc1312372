package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/llm"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/testutil"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code  int             `json:"code"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func newProjectRouter(t *testing.T) (*gin.Engine, *llm.MockProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenTestDB(t)
	testutil.SeedLearner(t, db, "ada", 50)

	mock := llm.NewMockProvider()
	skills := repository.NewSkillRepository(db)
	learners := repository.NewLearnerRepository(db)
	projects := repository.NewProjectRepository(db)
	views := service.NoopViews{}
	svc := service.NewProjectService(db, projects, learners, skills,
		service.NewSkillNormalizer(skills),
		service.NewScoringService(repository.NewScoreAccumulator(db), config.ScoringConfig{}),
		nil, service.NewAIService(mock), views)
	progress := service.NewProgressService(learners, projects, repository.NewChallengeRepository(db), skills, views)

	pc := NewProjectController(svc)
	prc := NewProgressController(progress)

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		if id := c.GetHeader("X-Learner"); id != "" {
			claims := &util.Claims{}
			claims.Subject = id
			c.Set(util.ClaimsKey, claims)
		}
		c.Next()
	})
	api.POST("/projects", pc.GenerateProject)
	api.GET("/projects/:id", pc.GetProject)
	api.PUT("/projects/:id/milestones", pc.UpdateMilestones)
	api.GET("/dashboard", prc.GetDashboard)
	return r, mock
}

func do(r http.Handler, method, path, learner, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if learner != "" {
		req.Header.Set("X-Learner", learner)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestProjectController_GenerateAndGet(t *testing.T) {
	r, mock := newProjectRouter(t)
	mock.AddJSON(`{"title": "Forge", "description": "d", "milestones": ["One", "Two"], "skillsUsed": ["Go"]}`)

	w, env := do(r, http.MethodPost, "/api/projects", "ada", `{"skills": ["Go"], "projectType": "micro"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Project
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Forge", created.Title)
	assert.Equal(t, []string{"Go"}, created.Skills)

	path := "/api/projects/" + jsonNumber(created.ID)
	w, env = do(r, http.MethodGet, path, "ada", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(r, http.MethodGet, path, "bob", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, util.CodeNotFound, env.Error)

	w, env = do(r, http.MethodPut, path+"/milestones", "ada",
		`{"milestones": [{"text": "One", "completed": true}, {"text": "Two", "completed": false}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = do(r, http.MethodGet, "/api/dashboard", "ada", "")
	require.Equal(t, http.StatusOK, w.Code)
	var dash service.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 10, dash.XP)
}

func TestProjectController_Errors(t *testing.T) {
	r, mock := newProjectRouter(t)

	w, _ := do(r, http.MethodPost, "/api/projects", "", `{"skills": ["Go"], "projectType": "micro"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := do(r, http.MethodPost, "/api/projects", "ada", `{"skills": ["Go"], "projectType": "huge"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, util.CodeValidation, env.Error)

	w, _ = do(r, http.MethodGet, "/api/projects/abc", "ada", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mock.AddJSON(`not json`)
	w, env = do(r, http.MethodPost, "/api/projects", "ada", `{"skills": ["Go"], "projectType": "micro"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, util.CodeMalformedUpstreamPayload, env.Error)

	// 队列为空时 mock 返回不可用
	w, env = do(r, http.MethodPost, "/api/projects", "ada", `{"skills": ["Go"], "projectType": "micro"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, util.CodeUpstreamUnavailable, env.Error)
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
