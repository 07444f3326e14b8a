package library

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MinTokenLength is the shortest query word that takes part in matching.
const MinTokenLength = 3

// Result is a matching chunk with its score. Results are copies; changing
// one never affects the index.
type Result struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Score   int    `json:"score"`
}

type cacheKey struct {
	query      string
	generation uint64
}

// Tokenize lower-cases query, splits it on whitespace and keeps the distinct
// words of at least MinTokenLength characters, in order of first appearance.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLength {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// Score counts how many tokens occur in content, case-insensitively. Each
// token counts once however often it occurs; matches inside longer words
// count.
func Score(content string, tokens []string) int {
	lower := strings.ToLower(content)
	score := 0
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			score++
		}
	}
	return score
}

// Search returns up to TopK chunks matching query, best first. Chunks with
// equal scores keep their index order. The result is empty (never nil) when
// the query has no usable words or nothing matches.
func (ix *Index) Search(query string) []Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []Result{}
	}
	normalized := strings.Join(tokens, " ")

	if ix.cache != nil {
		key := cacheKey{query: normalized, generation: ix.generation.Load()}
		if cached, ok := ix.cache.Get(key); ok {
			return append(make([]Result, 0, len(cached)), cached...)
		}
	}

	ix.mu.RLock()
	generation := ix.generation.Load()
	results := rank(ix.chunks, tokens, ix.opts.TopK)
	ix.mu.RUnlock()

	if ix.cache != nil {
		ix.cache.Add(cacheKey{query: normalized, generation: generation}, results)
		return append(make([]Result, 0, len(results)), results...)
	}
	return results
}

// rank scores every chunk and returns the best topK in stable order.
func rank(chunks []Chunk, tokens []string, topK int) []Result {
	results := make([]Result, 0, topK)
	for _, c := range chunks {
		if s := Score(c.Content, tokens); s > 0 {
			results = append(results, Result{Content: c.Content, Source: c.Source, Score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
