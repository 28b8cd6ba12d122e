// Package collab declares the collaborator contracts that back the
// indexer, git, and github tool adapters: a repository search index, a
// git history source, and a GitHub issue/PR context source. No concrete
// client lives here — collab/mock carries the in-memory fakes the demo
// wiring and tests run against.
package collab

import (
	"context"
	"time"
)

// SearchResult is one hit from a RepositoryIndex or GitHubSource search.
type SearchResult struct {
	ID       string                 `json:"id"`
	Path     string                 `json:"path,omitempty"`
	Snippet  string                 `json:"snippet,omitempty"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IndexStats summarizes the most recent indexing pass.
type IndexStats struct {
	FilesScanned     int       `json:"files_scanned"`
	DocumentsIndexed int       `json:"documents_indexed"`
	VectorsStored    int       `json:"vectors_stored"`
	Errors           []string  `json:"errors,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// Duration is the wall-clock time the indexing pass took.
func (s IndexStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// SearchOptions bounds a RepositoryIndex.Search call.
type SearchOptions struct {
	Limit          int
	ScoreThreshold float64
}

// RepositoryIndex is the shared handle installed in the context manager's
// index slot. Tools and the indexer agent both search through it; nothing
// else in the orchestration substrate knows how it's implemented.
type RepositoryIndex interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
	GetStats(ctx context.Context) (IndexStats, error)
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error
}

// CommitAuthor is a single commit's attribution.
type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// FileChange is one file touched by a commit.
type FileChange struct {
	Path      string `json:"path"`
	Status    string `json:"status"` // "added", "modified", "deleted", "renamed"
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CommitStats aggregates a commit's FileChanges.
type CommitStats struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	FilesChanged int `json:"files_changed"`
}

// CommitRefs is the issue/PR numbers a commit message references.
type CommitRefs struct {
	IssueRefs []int `json:"issue_refs,omitempty"`
	PRRefs    []int `json:"pr_refs,omitempty"`
}

// GitCommit is one entry in a git log.
type GitCommit struct {
	Hash      string       `json:"hash"`
	ShortHash string       `json:"short_hash"`
	Subject   string       `json:"subject"`
	Body      string       `json:"body,omitempty"`
	Author    CommitAuthor `json:"author"`
	Files     []FileChange `json:"files,omitempty"`
	Stats     CommitStats  `json:"stats"`
	Refs      CommitRefs   `json:"refs"`
}

// GitLogOptions bounds a GitSource.GetCommits call.
type GitLogOptions struct {
	Path     string
	Author   string
	Limit    int
	Since    *time.Time
	NoMerges bool
}

// GitSource exposes repository commit history.
type GitSource interface {
	GetCommits(ctx context.Context, opts GitLogOptions) ([]GitCommit, error)
}

// DocumentType distinguishes a GitHubSource Document's origin.
type DocumentType string

const (
	DocumentTypeIssue       DocumentType = "issue"
	DocumentTypePullRequest DocumentType = "pull_request"
)

// DocumentState is a Document's open/closed/merged lifecycle state.
type DocumentState string

const (
	DocumentStateOpen   DocumentState = "open"
	DocumentStateClosed DocumentState = "closed"
	DocumentStateMerged DocumentState = "merged"
)

// Document is one issue or pull request.
type Document struct {
	Type        DocumentType  `json:"type"`
	Number      int           `json:"number"`
	Title       string        `json:"title"`
	Body        string        `json:"body,omitempty"`
	State       DocumentState `json:"state"`
	Labels      []string      `json:"labels,omitempty"`
	Author      string        `json:"author"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	URL         string        `json:"url,omitempty"`
	Repository  string        `json:"repository,omitempty"`
	RelatedNums []int         `json:"related_numbers,omitempty"`
	LinkedFiles []string      `json:"linked_files,omitempty"`
}

// GitHubSearchOptions bounds a GitHubSource.Search call.
type GitHubSearchOptions struct {
	Limit int
	Type  DocumentType // zero value matches both issues and pull requests
}

// GitHubIndexOptions bounds a GitHubSource.Index call.
type GitHubIndexOptions struct {
	Since *time.Time
	Limit int
}

// GitHubSource exposes issue/PR search and context lookup for a repository.
type GitHubSource interface {
	Search(ctx context.Context, query string, opts GitHubSearchOptions) ([]SearchResult, error)
	GetContext(ctx context.Context, number int) (Document, error)
	FindRelated(ctx context.Context, number int, limit int) ([]SearchResult, error)
	Index(ctx context.Context, opts GitHubIndexOptions) (IndexStats, error)
}
