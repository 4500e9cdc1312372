package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProfileService_EnsureLearnerDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims := &util.Claims{Email: "ada@example.com", Name: "Ada"}
	claims.Subject = "ada"

	require.NoError(t, f.profile.EnsureLearner(ctx, claims))
	require.NoError(t, f.profile.EnsureLearner(ctx, claims))

	l := f.reload(t, "ada")
	assert.Equal(t, "Ada", l.Name)
	assert.Zero(t, l.XP)
	assert.Equal(t, 50, l.PerformanceRating)
	assert.False(t, l.IsPublic)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	ctx := context.Background()

	l, err := f.profile.UpdateProfile(ctx, "ada", UpdateProfileRequest{Headline: strPtr(" Frontend dev "), Bio: strPtr("Hi")})
	require.NoError(t, err)
	assert.Equal(t, "Frontend dev", l.Headline)
	assert.Equal(t, "Hi", l.Bio)
	assert.Equal(t, "ada", l.Name)

	_, err = f.profile.UpdateProfile(ctx, "ada", UpdateProfileRequest{Name: strPtr("  ")})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.profile.UpdateProfile(ctx, "ghost", UpdateProfileRequest{Bio: strPtr("x")})
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestProfileService_UpdateVisibility(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	f.learner(t, "bob", 50)
	ctx := context.Background()

	for _, bad := range []string{"ab", "has space", "semi;colon", strings.Repeat("x", 51)} {
		_, err := f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: bad, IsPublic: true})
		assert.ErrorIs(t, err, util.ErrInvalidUsername, bad)
	}

	l, err := f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: "ada_l", IsPublic: true})
	require.NoError(t, err)
	require.NotNil(t, l.Username)
	assert.Equal(t, "ada_l", *l.Username)
	assert.True(t, l.IsPublic)

	_, err = f.profile.UpdateVisibility(ctx, "bob", UpdateVisibilityRequest{Username: "ada_l"})
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	// 同一学习者重复设置自己的用户名不算冲突
	_, err = f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: "ada_l", IsPublic: false})
	require.NoError(t, err)

	_, err = f.profile.UpdateVisibility(ctx, "ada", UpdateVisibilityRequest{Username: "ada-new", IsPublic: true})
	require.NoError(t, err)
	paths := f.views.paths()
	assert.Contains(t, paths, util.PortfolioView("ada-new"))
	assert.Contains(t, paths, util.PortfolioView("ada_l"))
}

func TestProfileService_UploadFile(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "ada", 50)
	dir := t.TempDir()
	f.profile.Storage = NewStorageService(&config.StorageConfig{Type: util.StorageLocal, LocalPath: dir})
	ctx := context.Background()

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 600)...)
	l, err := f.profile.UploadFile(ctx, "ada", UploadAvatar, "Me.PNG", bytes.NewReader(png), int64(len(png)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(l.AvatarURL, "/uploads/avatar/"))
	assert.True(t, strings.HasSuffix(l.AvatarURL, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(l.AvatarURL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, png, written)

	pdf := []byte("%PDF-1.4\n%test resume\n")
	l, err = f.profile.UploadFile(ctx, "ada", UploadResume, "cv.pdf", bytes.NewReader(pdf), int64(len(pdf)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(l.ResumeURL, "/uploads/resume/"))

	_, err = f.profile.UploadFile(ctx, "ada", UploadResume, "cv.pdf", bytes.NewReader(png), int64(len(png)))
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.profile.UploadFile(ctx, "ada", UploadAvatar, "big.png", bytes.NewReader(png), util.MaxUploadBytes+1)
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.profile.UploadFile(ctx, "ada", "video", "a.mp4", bytes.NewReader(png), int64(len(png)))
	assert.ErrorIs(t, err, util.ErrValidation)
}
