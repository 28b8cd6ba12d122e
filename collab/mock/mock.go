// Package mock provides hand-written in-memory fakes for collab's
// RepositoryIndex, GitSource, and GitHubSource. They exist so the demo
// entrypoint and tests can exercise the tool adapters and agents without
// pulling in a real indexing pipeline, go-git, or the GitHub API; this
// module imports none of those.
package mock

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coderift/toolmind/collab"
)

// RepositoryIndex is a fixed, in-memory collab.RepositoryIndex. Seed holds
// the fixture set Search filters by substring match against Path and
// Snippet; it is not a real vector index.
type RepositoryIndex struct {
	mu    sync.RWMutex
	seed  []collab.SearchResult
	stats collab.IndexStats
	ready bool
}

var _ collab.RepositoryIndex = (*RepositoryIndex)(nil)

// NewRepositoryIndex builds a RepositoryIndex pre-loaded with seed results.
func NewRepositoryIndex(seed []collab.SearchResult) *RepositoryIndex {
	return &RepositoryIndex{seed: seed}
}

// Initialize marks the index ready and records a synthetic indexing pass
// over the seeded fixtures.
func (r *RepositoryIndex) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := time.Now()
	r.ready = true
	r.stats = collab.IndexStats{
		FilesScanned:     len(r.seed),
		DocumentsIndexed: len(r.seed),
		VectorsStored:    len(r.seed),
		StartedAt:        start,
		FinishedAt:       start,
	}
	return nil
}

// Close marks the index no longer ready.
func (r *RepositoryIndex) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = false
	return nil
}

// Search filters the seeded fixtures by a case-insensitive substring match
// against Path and Snippet, then ranks by Score.
func (r *RepositoryIndex) Search(ctx context.Context, query string, opts collab.SearchOptions) ([]collab.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	matches := make([]collab.SearchResult, 0, len(r.seed))
	for _, s := range r.seed {
		if needle == "" || s.ID == query || strings.Contains(strings.ToLower(s.Path), needle) || strings.Contains(strings.ToLower(s.Snippet), needle) {
			if s.Score >= opts.ScoreThreshold {
				matches = append(matches, s)
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetStats returns the last recorded indexing pass.
func (r *RepositoryIndex) GetStats(ctx context.Context) (collab.IndexStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats, nil
}

// GitSource is a fixed, in-memory collab.GitSource.
type GitSource struct {
	mu      sync.RWMutex
	commits []collab.GitCommit
}

var _ collab.GitSource = (*GitSource)(nil)

// NewGitSource builds a GitSource pre-loaded with commits, newest first.
func NewGitSource(commits []collab.GitCommit) *GitSource {
	return &GitSource{commits: commits}
}

// GetCommits filters the seeded commits by path/author/since/no-merges and
// returns at most opts.Limit, preserving seed order (newest first).
func (g *GitSource) GetCommits(ctx context.Context, opts collab.GitLogOptions) ([]collab.GitCommit, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	out := make([]collab.GitCommit, 0, limit)
	for _, c := range g.commits {
		if opts.Path != "" && !commitTouches(c, opts.Path) {
			continue
		}
		if opts.Author != "" && !strings.EqualFold(c.Author.Name, opts.Author) {
			continue
		}
		if opts.Since != nil && c.Author.Date.Before(*opts.Since) {
			continue
		}
		if opts.NoMerges && len(c.Files) == 0 {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func commitTouches(c collab.GitCommit, path string) bool {
	for _, f := range c.Files {
		if strings.HasPrefix(f.Path, path) {
			return true
		}
	}
	return false
}

// GitHubSource is a fixed, in-memory collab.GitHubSource keyed by issue/PR
// number.
type GitHubSource struct {
	mu   sync.RWMutex
	docs map[int]collab.Document
}

var _ collab.GitHubSource = (*GitHubSource)(nil)

// NewGitHubSource builds a GitHubSource pre-loaded with docs.
func NewGitHubSource(docs []collab.Document) *GitHubSource {
	m := make(map[int]collab.Document, len(docs))
	for _, d := range docs {
		m[d.Number] = d
	}
	return &GitHubSource{docs: m}
}

// Search filters the seeded documents by a case-insensitive substring match
// against Title and Body, optionally restricted to opts.Type.
func (s *GitHubSource) Search(ctx context.Context, query string, opts collab.GitHubSearchOptions) ([]collab.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	numbers := sortedNumbers(s.docs)
	results := make([]collab.SearchResult, 0, limit)
	for _, n := range numbers {
		d := s.docs[n]
		if opts.Type != "" && d.Type != opts.Type {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(d.Title), needle) && !strings.Contains(strings.ToLower(d.Body), needle) {
			continue
		}
		results = append(results, documentToResult(d))
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// GetContext returns the document at number, or collab's zero Document and
// an error when it isn't seeded.
func (s *GitHubSource) GetContext(ctx context.Context, number int) (collab.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[number]
	if !ok {
		return collab.Document{}, errNotFound(number)
	}
	return d, nil
}

// FindRelated returns documents that cross-reference number via
// RelatedNums, in either direction.
func (s *GitHubSource) FindRelated(ctx context.Context, number int, limit int) ([]collab.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}

	numbers := sortedNumbers(s.docs)
	results := make([]collab.SearchResult, 0, limit)
	for _, n := range numbers {
		if n == number {
			continue
		}
		d := s.docs[n]
		if containsInt(d.RelatedNums, number) {
			results = append(results, documentToResult(d))
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// Index records a synthetic indexing pass over the seeded documents
// filtered by opts.Since.
func (s *GitHubSource) Index(ctx context.Context, opts collab.GitHubIndexOptions) (collab.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := time.Now()
	count := 0
	for _, d := range s.docs {
		if opts.Since != nil && d.UpdatedAt.Before(*opts.Since) {
			continue
		}
		count++
		if opts.Limit > 0 && count >= opts.Limit {
			break
		}
	}
	return collab.IndexStats{
		DocumentsIndexed: count,
		StartedAt:        start,
		FinishedAt:       start,
	}, nil
}

func documentToResult(d collab.Document) collab.SearchResult {
	return collab.SearchResult{
		ID:      documentID(d),
		Snippet: d.Title,
		Score:   1,
		Metadata: map[string]interface{}{
			"type":   string(d.Type),
			"number": d.Number,
			"state":  string(d.State),
		},
	}
}

func documentID(d collab.Document) string {
	prefix := "issue"
	if d.Type == collab.DocumentTypePullRequest {
		prefix = "pr"
	}
	return prefix + "-" + strconv.Itoa(d.Number)
}

func sortedNumbers(docs map[int]collab.Document) []int {
	numbers := make([]int, 0, len(docs))
	for n := range docs {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

type notFoundError struct{ number int }

func (e *notFoundError) Error() string {
	return "github document not found: " + strconv.Itoa(e.number)
}

func errNotFound(number int) error { return &notFoundError{number: number} }
