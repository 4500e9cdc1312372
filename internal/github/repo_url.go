package github

import (
	"net/url"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ParseRepoURL 解析 https://<host>/<owner>/<repo>[/|.git]，不符合时 ok=false
func ParseRepoURL(host, raw string) (owner, repo string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme != "https" || !strings.EqualFold(u.Host, host) {
		return "", "", false
	}
	if u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", "", false
	}

	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return "", "", false
	}
	owner, repo = parts[0], parts[1]
	if !namePattern.MatchString(owner) || !namePattern.MatchString(repo) || repo == "." || repo == ".." {
		return "", "", false
	}
	return owner, repo, true
}
