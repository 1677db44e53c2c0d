// Package fuzzy ranks card names against a free-text query.
package fuzzy

import (
	"sort"
	"strings"
)

// Match is a ranked candidate.
type Match struct {
	Index int // position in the candidate list
	Score int // 0-100
}

// Options configures ranking.
type Options struct {
	// MaxResults limits the number of matches (0 = unlimited).
	MaxResults int
	// MinScore drops candidates scoring below the threshold (0-100).
	MinScore int
}

// DefaultOptions returns the options used by catalog search.
func DefaultOptions() Options {
	return Options{
		MaxResults: 50,
		MinScore:   40,
	}
}

// Rank scores every candidate against query, case-insensitively, and returns
// matches sorted by score then by original position.
func Rank(query string, candidates []string, opts Options) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	matches := make([]Match, 0)
	for i, candidate := range candidates {
		score := Score(query, strings.ToLower(candidate))
		if score >= opts.MinScore {
			matches = append(matches, Match{Index: i, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if opts.MaxResults > 0 && len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches
}

// Score returns the similarity of query and target (0-100). Inputs are
// compared as given; callers lowercase them first.
func Score(query, target string) int {
	if query == target {
		return 100
	}
	if query == "" || target == "" {
		return 0
	}

	if strings.HasPrefix(target, query) {
		return 90 + len([]rune(query))*9/len([]rune(target))
	}
	if strings.Contains(target, query) {
		return 80 + len([]rune(query))*9/len([]rune(target))
	}

	q, t := []rune(query), []rune(target)
	distance := levenshtein(q, t)
	return max(0, 100-distance*100/max(len(q), len(t)))
}

// levenshtein returns the edit distance between a and b using two rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
