package service

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

type UploadKind string

const (
	UploadAvatar UploadKind = "avatar"
	UploadResume UploadKind = "resume"
)

type ProfileService struct {
	LearnerRepo *repository.LearnerRepository
	Storage     *StorageService
	Views       ViewInvalidator
}

func NewProfileService(learnerRepo *repository.LearnerRepository, storage *StorageService, views ViewInvalidator) *ProfileService {
	return &ProfileService{LearnerRepo: learnerRepo, Storage: storage, Views: views}
}

type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Headline *string `json:"headline" binding:"omitempty,max=200"`
	Bio      *string `json:"bio"`
}

type UpdateVisibilityRequest struct {
	Username string `json:"username" binding:"required"`
	IsPublic bool   `json:"isPublic"`
}

// EnsureLearner 首次认证的学习者以默认 XP 和评分入库
func (s *ProfileService) EnsureLearner(ctx context.Context, claims *util.Claims) error {
	return s.LearnerRepo.Ensure(ctx, &model.Learner{
		ID:                claims.Subject,
		Email:             claims.Email,
		Name:              claims.Name,
		PerformanceRating: model.DefaultRating,
	})
}

func (s *ProfileService) GetProfile(ctx context.Context, learnerID string) (*model.Learner, error) {
	return s.LearnerRepo.FindByID(ctx, learnerID)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, learnerID string, req UpdateProfileRequest) (*model.Learner, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, util.Validationf("name cannot be empty")
		}
		fields["name"] = name
	}
	if req.Headline != nil {
		fields["headline"] = strings.TrimSpace(*req.Headline)
	}
	if req.Bio != nil {
		fields["bio"] = strings.TrimSpace(*req.Bio)
	}

	if err := s.LearnerRepo.UpdateFields(ctx, learnerID, fields); err != nil {
		return nil, err
	}
	return s.refreshed(ctx, learnerID, "")
}

// UpdateVisibility 设置作品集用户名与公开状态
func (s *ProfileService) UpdateVisibility(ctx context.Context, learnerID string, req UpdateVisibilityRequest) (*model.Learner, error) {
	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		return nil, util.ErrInvalidUsername
	}

	current, err := s.LearnerRepo.FindByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	taken, err := s.LearnerRepo.UsernameTaken(ctx, username, learnerID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrUsernameTaken
	}

	err = s.LearnerRepo.UpdateFields(ctx, learnerID, map[string]interface{}{
		"username":  username,
		"is_public": req.IsPublic,
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Portfolio visibility updated",
		zap.String("learner_id", learnerID),
		zap.String("username", username),
		zap.Bool("is_public", req.IsPublic),
	)

	old := ""
	if current.Username != nil && *current.Username != username {
		old = *current.Username
	}
	return s.refreshed(ctx, learnerID, old)
}

// UploadFile 上传头像（图片）或简历（PDF），并把地址写回学习者资料
func (s *ProfileService) UploadFile(ctx context.Context, learnerID string, kind UploadKind, filename string, file io.Reader, size int64) (*model.Learner, error) {
	var allowed []string
	column := ""
	switch kind {
	case UploadAvatar:
		allowed, column = []string{util.MimeImage}, "avatar_url"
	case UploadResume:
		allowed, column = []string{util.MimePDF}, "resume_url"
	default:
		return nil, util.Validationf("unknown upload kind %q", kind)
	}
	if size <= 0 || size > util.MaxUploadBytes {
		return nil, util.Validationf("file must be between 1 byte and %d bytes", util.MaxUploadBytes)
	}

	mimeType, body, err := util.SniffUpload(file, allowed)
	if err != nil {
		return nil, err
	}

	key := string(kind) + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	url, err := s.Storage.Upload(ctx, key, body, size, mimeType)
	if err != nil {
		return nil, err
	}

	if err := s.LearnerRepo.UpdateFields(ctx, learnerID, map[string]interface{}{column: url}); err != nil {
		return nil, err
	}
	return s.refreshed(ctx, learnerID, "")
}

// refreshed 重新读取学习者并让其作品集视图失效；oldUsername 为改名前的路径
func (s *ProfileService) refreshed(ctx context.Context, learnerID, oldUsername string) (*model.Learner, error) {
	learner, err := s.LearnerRepo.FindByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	var paths []string
	if learner.Username != nil {
		paths = append(paths, util.PortfolioView(*learner.Username))
	}
	if oldUsername != "" {
		paths = append(paths, util.PortfolioView(oldUsername))
	}
	if len(paths) > 0 {
		s.Views.Invalidate(ctx, paths...)
	}
	return learner, nil
}
