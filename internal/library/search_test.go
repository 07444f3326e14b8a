package library

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"lower-cases", "Alpha BUDGET", []string{"alpha", "budget"}},
		{"drops short words", "a an the cat", []string{"the", "cat"}},
		{"only short words", "a an", []string{}},
		{"empty", "   ", []string{}},
		{"collapses duplicates", "alpha Alpha ALPHA budget", []string{"alpha", "budget"}},
		{"splits on any whitespace", "alpha\tbudget\nreview", []string{"alpha", "budget", "review"}},
		{"keeps punctuation", "q1, alpha.", []string{"q1,", "alpha."}},
		{"counts characters not bytes", "né 日本 été 東京都", []string{"été", "東京都"}},
		{"only short non-ascii words", "né 日本", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.query))
		})
	}
}

func TestSearch_ShortNonASCIIQueryMatchesNothing(t *testing.T) {
	// Given: a chunk containing a two-letter accented word
	dir := t.TempDir()
	path := writeFile(t, dir, "paris.txt", "Il est né à Paris en 1900.")
	ix := newTestIndex(t, Options{Dir: dir})
	require.NoError(t, ix.Ingest(context.Background(), path))

	// When/Then: the short word is not a search term
	assert.Empty(t, ix.Search("né"))
	assert.Len(t, ix.Search("Paris"), 1)
}

func TestScore_CountsContainmentNotFrequency(t *testing.T) {
	tokens := Tokenize("cat")

	assert.Equal(t, 1, Score("cat cat cat cat cat", tokens))
	assert.Equal(t, 1, Score("one cat", tokens))
	assert.Equal(t, 1, Score("we concatenate strings", tokens), "substring matches count")
	assert.Equal(t, 0, Score("dog", tokens))
	assert.Equal(t, 2, Score("The CAT sat on the Mat", Tokenize("cat mat")))
}

func TestSearch_RankingIsStableForEqualScores(t *testing.T) {
	// Given: chunks that all score the same
	ix := newTestIndex(t, Options{TopK: 5})
	ix.replace("a.txt", toChunks("a.txt", []string{"first alpha", "second alpha"}))
	ix.replace("b.txt", toChunks("b.txt", []string{"third alpha"}))

	// When: searched
	results := ix.Search("alpha")

	// Then: insertion order is kept
	require.Len(t, results, 3)
	assert.Equal(t, "first alpha", results[0].Content)
	assert.Equal(t, "second alpha", results[1].Content)
	assert.Equal(t, "third alpha", results[2].Content)
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	// Given: ten matching chunks, two of which match more tokens
	ix := newTestIndex(t, Options{})
	var pieces []string
	for i := 0; i < 10; i++ {
		pieces = append(pieces, fmt.Sprintf("alpha paragraph %d", i))
	}
	pieces[7] = "alpha budget paragraph 7"
	pieces[9] = "alpha budget paragraph 9"
	ix.replace("a.txt", toChunks("a.txt", pieces))

	// When: searched with the default K
	results := ix.Search("alpha budget")

	// Then: three results, best first
	require.Len(t, results, DefaultTopK)
	assert.Equal(t, "alpha budget paragraph 7", results[0].Content)
	assert.Equal(t, "alpha budget paragraph 9", results[1].Content)
	assert.Equal(t, "alpha paragraph 0", results[2].Content)
	assert.Equal(t, 2, results[0].Score)
	assert.Equal(t, 1, results[2].Score)
}

func TestSearch_NoMatches(t *testing.T) {
	ix := newTestIndex(t, Options{})

	t.Run("empty index", func(t *testing.T) {
		results := ix.Search("alpha")
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	ix.replace("a.txt", toChunks("a.txt", []string{"alpha and an aardvark"}))

	t.Run("only short tokens", func(t *testing.T) {
		results := ix.Search("a an")
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("no token matches", func(t *testing.T) {
		assert.Empty(t, ix.Search("zebra"))
	})
}

func TestSearch_ResultsAreCopies(t *testing.T) {
	for _, cacheSize := range []int{0, 16} {
		t.Run(fmt.Sprintf("cache=%d", cacheSize), func(t *testing.T) {
			ix := newTestIndex(t, Options{CacheSize: cacheSize})
			ix.replace("a.txt", toChunks("a.txt", []string{"alpha paragraph"}))

			first := ix.Search("alpha")
			require.Len(t, first, 1)
			first[0].Content = "mutated"

			assert.Equal(t, "alpha paragraph", ix.Search("alpha")[0].Content)
			assert.Equal(t, "alpha paragraph", ix.Chunks()[0].Content)
		})
	}
}

func TestSearch_CacheInvalidatedByMutation(t *testing.T) {
	// Given: a cached query result
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha version one")
	ix := newTestIndex(t, Options{Dir: dir, CacheSize: 16})
	ctx := context.Background()
	require.NoError(t, ix.Ingest(ctx, path))
	require.Equal(t, "alpha version one", ix.Search("alpha")[0].Content)
	assert.Equal(t, 1, ix.cache.Len())

	// When: the file changes
	writeFile(t, dir, "a.txt", "alpha version two")
	require.NoError(t, ix.Ingest(ctx, path))

	// Then: the next search sees the new content
	assert.Equal(t, "alpha version two", ix.Search("ALPHA")[0].Content)

	// And: removal is visible too
	ix.Remove("a.txt")
	assert.Empty(t, ix.Search("alpha"))
}

func TestSearch_EquivalentQueriesShareCacheEntry(t *testing.T) {
	ix := newTestIndex(t, Options{CacheSize: 16})
	ix.replace("a.txt", toChunks("a.txt", []string{"alpha budget review"}))

	ix.Search("alpha budget")
	ix.Search("  ALPHA   budget alpha ")

	assert.Equal(t, 1, ix.cache.Len())
}
