package mock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/collab/mock"
)

func TestRepositoryIndexSearchFiltersByScoreAndSubstring(t *testing.T) {
	idx := mock.NewRepositoryIndex([]collab.SearchResult{
		{ID: "a", Path: "internal/auth/login.go", Snippet: "func Login", Score: 0.9},
		{ID: "b", Path: "internal/auth/logout.go", Snippet: "func Logout", Score: 0.2},
		{ID: "c", Path: "internal/billing/charge.go", Snippet: "func Charge", Score: 0.8},
	})
	require.NoError(t, idx.Initialize(context.Background()))

	results, err := idx.Search(context.Background(), "auth", collab.SearchOptions{Limit: 10, ScoreThreshold: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)

	stats, err := idx.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DocumentsIndexed)
}

func TestGitSourceFiltersByPathAndAuthor(t *testing.T) {
	now := time.Now()
	src := mock.NewGitSource([]collab.GitCommit{
		{Hash: "h1", Author: collab.CommitAuthor{Name: "alice", Date: now}, Files: []collab.FileChange{{Path: "internal/auth/login.go"}}},
		{Hash: "h2", Author: collab.CommitAuthor{Name: "bob", Date: now}, Files: []collab.FileChange{{Path: "internal/billing/charge.go"}}},
	})

	commits, err := src.GetCommits(context.Background(), collab.GitLogOptions{Path: "internal/auth", Limit: 10})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "h1", commits[0].Hash)

	commits, err = src.GetCommits(context.Background(), collab.GitLogOptions{Author: "bob", Limit: 10})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "h2", commits[0].Hash)
}

func TestGitHubSourceContextAndRelated(t *testing.T) {
	src := mock.NewGitHubSource([]collab.Document{
		{Type: collab.DocumentTypeIssue, Number: 1, Title: "login bug", State: collab.DocumentStateOpen},
		{Type: collab.DocumentTypePullRequest, Number: 2, Title: "fix login bug", State: collab.DocumentStateOpen, RelatedNums: []int{1}},
	})

	doc, err := src.GetContext(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "login bug", doc.Title)

	_, err = src.GetContext(context.Background(), 999)
	assert.Error(t, err)

	related, err := src.FindRelated(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, 2, related[0].Metadata["number"])
}

func TestGitHubSourceSearchRespectsTypeFilter(t *testing.T) {
	src := mock.NewGitHubSource([]collab.Document{
		{Type: collab.DocumentTypeIssue, Number: 1, Title: "login bug"},
		{Type: collab.DocumentTypePullRequest, Number: 2, Title: "login fix"},
	})

	results, err := src.Search(context.Background(), "login", collab.GitHubSearchOptions{Type: collab.DocumentTypeIssue, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "issue-1", results[0].ID)
}
