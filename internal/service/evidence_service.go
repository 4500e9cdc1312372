package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/github"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TokenSource 提供学习者在外部平台的访问令牌；未关联时返回 ErrIdentityNotLinked
type TokenSource interface {
	AccessToken(ctx context.Context, learnerID, provider string) (string, error)
}

// EvidenceService 从代码仓库拉取有限数量的源文件作为评审证据
type EvidenceService struct {
	Client  *github.Client
	Tokens  TokenSource
	Host    string
	Timeout time.Duration

	mu         sync.RWMutex
	maxFiles   int
	extensions map[string]struct{}
}

func NewEvidenceService(client *github.Client, tokens TokenSource, gh config.GitHubConfig, ev config.EvidenceConfig) *EvidenceService {
	s := &EvidenceService{
		Client:  client,
		Tokens:  tokens,
		Host:    gh.Host,
		Timeout: gh.Timeout(),
	}
	if s.Host == "" {
		s.Host = "github.com"
	}
	s.Reload(ev)
	return s
}

// Reload 热更新文件上限与扩展名白名单
func (s *EvidenceService) Reload(ev config.EvidenceConfig) {
	exts := make(map[string]struct{}, len(ev.Extensions))
	for _, e := range ev.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	if len(exts) == 0 {
		for _, e := range []string{".js", ".jsx", ".ts", ".tsx", ".css", ".py", ".go"} {
			exts[e] = struct{}{}
		}
	}
	maxFiles := ev.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 5
	}

	s.mu.Lock()
	s.maxFiles = maxFiles
	s.extensions = exts
	s.mu.Unlock()
}

func (s *EvidenceService) limits() (int, map[string]struct{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxFiles, s.extensions
}

type evidenceFile struct {
	path    string
	sha     string
	content []byte
}

// FetchEvidence 校验地址与身份后，在同一时间预算内拉取仓库元数据、文件树和选中文件，
// 按树顺序拼接。任一文件失败则整体失败。
func (s *EvidenceService) FetchEvidence(ctx context.Context, repoURL, learnerID string) (string, error) {
	owner, repo, ok := github.ParseRepoURL(s.Host, repoURL)
	if !ok {
		return "", fmt.Errorf("%w: %q", util.ErrInvalidRepositoryURL, repoURL)
	}

	token, err := s.Tokens.AccessToken(ctx, learnerID, util.ProviderGitHub)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "evidence.fetch",
		attribute.String("repo.owner", owner),
		attribute.String("repo.name", repo),
	)
	var spanErr error
	defer func() { tracing.EndSpan(span, spanErr) }()

	files, err := s.selectFiles(ctx, token, owner, repo)
	if err != nil {
		spanErr = err
		return "", err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		f := &files[i]
		g.Go(func() error {
			content, err := s.Client.GetBlob(gctx, token, owner, repo, f.sha)
			if err != nil {
				return unreachable(owner, repo, "fetch "+f.path, err)
			}
			f.content = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		spanErr = err
		return "", err
	}

	var b strings.Builder
	for _, f := range files {
		b.WriteString("// FILE: ")
		b.WriteString(f.path)
		b.WriteString("\n\n")
		b.Write(f.content)
		b.WriteString("\n\n---\n\n")
	}

	logger.Log.Info("Evidence retrieved",
		zap.String("learner_id", learnerID),
		zap.String("repo", owner+"/"+repo),
		zap.Int("files", len(files)),
		zap.Int("bytes", b.Len()),
	)
	return b.String(), nil
}

func (s *EvidenceService) selectFiles(ctx context.Context, token, owner, repo string) ([]evidenceFile, error) {
	meta, err := s.Client.GetRepository(ctx, token, owner, repo)
	if err != nil {
		return nil, unreachable(owner, repo, "repository", err)
	}
	branch := meta.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	tree, err := s.Client.GetTree(ctx, token, owner, repo, branch)
	if err != nil {
		return nil, unreachable(owner, repo, "tree", err)
	}

	maxFiles, exts := s.limits()
	files := make([]evidenceFile, 0, maxFiles)
	for _, entry := range tree.Entries {
		if len(files) == maxFiles {
			break
		}
		if entry.Type != "blob" {
			continue
		}
		if _, ok := exts[strings.ToLower(path.Ext(entry.Path))]; !ok {
			continue
		}
		files = append(files, evidenceFile{path: entry.Path, sha: entry.SHA})
	}
	return files, nil
}

// unreachable 统一包装为 ErrRepositoryUnreachable，并记录上游状态码
func unreachable(owner, repo, step string, err error) error {
	logger.Log.Warn("Repository fetch failed",
		zap.String("repo", owner+"/"+repo),
		zap.String("step", step),
		zap.Int("status", github.StatusCode(err)),
		zap.Bool("rate_limited", github.RateLimited(err)),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", util.ErrRepositoryUnreachable, step, err)
}
