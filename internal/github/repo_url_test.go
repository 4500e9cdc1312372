package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		raw   string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/octo/hello", "octo", "hello", true},
		{"https://github.com/octo/hello/", "octo", "hello", true},
		{"https://github.com/octo/hello.git", "octo", "hello", true},
		{"  https://GitHub.com/octo/hello  ", "octo", "hello", true},
		{"http://github.com/octo/hello", "", "", false},
		{"https://gitlab.com/octo/hello", "", "", false},
		{"https://github.com/octo", "", "", false},
		{"https://github.com/octo/hello/tree/main", "", "", false},
		{"https://github.com/octo/hello?tab=readme", "", "", false},
		{"not a url", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range cases {
		owner, repo, ok := ParseRepoURL("github.com", tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.owner, owner, tc.raw)
		assert.Equal(t, tc.repo, repo, tc.raw)
	}
}
