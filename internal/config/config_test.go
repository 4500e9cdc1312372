package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	yaml := `server:
  port: "9090"
  mode: debug
database:
  driver: sqlite
  path: ` + filepath.Join(dir, "test.db") + `
jwt:
  secret: short
  expire_hours: 2
storage:
  type: local
  local_path: ` + uploads + `
evidence:
  max_files: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("AI_PROVIDER", "mock")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "mock", cfg.AI.Provider)
	assert.Equal(t, 3, cfg.Evidence.MaxFiles)
	assert.Contains(t, cfg.Evidence.Extensions, ".tsx")
	assert.Equal(t, 10, cfg.Scoring.MilestoneXP)
	assert.Equal(t, 50, cfg.Scoring.CompletionBonusXP)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Equal(t, 20*time.Second, cfg.GitHub.Timeout())

	_, err = os.Stat(uploads)
	assert.NoError(t, err)
}

func TestTimeoutDefaults(t *testing.T) {
	assert.Equal(t, 60*time.Second, AIConfig{}.Timeout())
	assert.Equal(t, 5*time.Second, AIConfig{TimeoutSeconds: 5}.Timeout())
	assert.Equal(t, 20*time.Second, GitHubConfig{}.Timeout())
}
