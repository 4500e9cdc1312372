package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v74/github"
)

// Client 代码托管平台客户端，只覆盖证据拉取需要的三个接口
type Client struct {
	api *gh.Client
}

// NewClient baseURL 为空时使用公共 API；测试中指向 httptest 服务
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	api := gh.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		api.BaseURL = u
	}
	return &Client{api: api}, nil
}

type Repository struct {
	FullName      string
	DefaultBranch string
	Private       bool
}

type TreeEntry struct {
	Path string
	Type string // blob | tree | commit
	SHA  string
	Size int
}

type Tree struct {
	SHA       string
	Entries   []TreeEntry
	Truncated bool
}

// as 每次调用按学习者令牌派生客户端，共享底层连接
func (c *Client) as(token string) *gh.Client {
	if token == "" {
		return c.api
	}
	return c.api.WithAuthToken(token)
}

func (c *Client) GetRepository(ctx context.Context, token, owner, repo string) (*Repository, error) {
	r, _, err := c.as(token).Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return &Repository{
		FullName:      r.GetFullName(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
	}, nil
}

// GetTree 递归获取分支的完整文件树
func (c *Client) GetTree(ctx context.Context, token, owner, repo, ref string) (*Tree, error) {
	t, _, err := c.as(token).Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, err
	}
	out := &Tree{SHA: t.GetSHA(), Truncated: t.GetTruncated()}
	out.Entries = make([]TreeEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		out.Entries = append(out.Entries, TreeEntry{
			Path: e.GetPath(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
			Size: e.GetSize(),
		})
	}
	return out, nil
}

// GetBlob 以 raw 媒体类型获取文件内容
func (c *Client) GetBlob(ctx context.Context, token, owner, repo, sha string) ([]byte, error) {
	data, _, err := c.as(token).Git.GetBlobRaw(ctx, owner, repo, sha)
	return data, err
}

// StatusCode 取出接口错误的 HTTP 状态码，非接口错误返回 0
func StatusCode(err error) int {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}

// RateLimited 主限流或次级限流
func RateLimited(err error) bool {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	return errors.As(err, &rateErr) || errors.As(err, &abuseErr)
}
