package match

import (
	"testing"

	"github.com/kamusis/answerhub/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T, entries ...catalog.Entry) *Matcher {
	t.Helper()
	cat, err := catalog.New(entries)
	require.NoError(t, err)
	m, err := New(cat)
	require.NoError(t, err)
	return m
}

func sampleEntries() []catalog.Entry {
	return []catalog.Entry{
		{Key: "q-uv-http", Description: "send a HTTP request with uv run httpie and show the JSON body"},
		{Key: "q-weekdays", Description: "how many Wednesdays are there between two dates"},
		{Key: "q-csv-zip", Description: "convert a zip of CSV files to JSON"},
		{Key: "q-sha256", Description: "compute the sha256 hash of some text"},
	}
}

func TestNew_EmptyCatalog(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	var m *Matcher
	_, err = m.Match("anything")
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestMatch_PicksClosestEntry(t *testing.T) {
	m := newTestMatcher(t, sampleEntries()...)

	tests := []struct {
		question string
		want     string
	}{
		{"How many Wednesdays are in the date range 1990-01-01 to 2010-12-31?", "q-weekdays"},
		{"What is the sha256 hash of the text hello?", "q-sha256"},
		{"Use uv to run httpie against httpbin and report the JSON", "q-uv-http"},
		{"I have CSV files in a zip, convert them", "q-csv-zip"},
	}
	for _, tt := range tests {
		r, err := m.Match(tt.question)
		require.NoError(t, err)
		assert.Equal(t, tt.want, r.Key, "question %q", tt.question)
		assert.Greater(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestMatch_TotalOverAnyInput(t *testing.T) {
	m := newTestMatcher(t, sampleEntries()...)

	for _, q := range []string{"", "   ", "zzqx plorb", "!!!"} {
		r, err := m.Match(q)
		require.NoError(t, err)
		assert.Equal(t, "q-uv-http", r.Key, "first entry wins on all-zero scores for %q", q)
		assert.Equal(t, 0.0, r.Score)
		assert.Equal(t, 0, r.Position)
	}
}

func TestMatch_SingleEntryAlwaysWins(t *testing.T) {
	m := newTestMatcher(t, catalog.Entry{Key: "only", Description: "the one and only"})

	for _, q := range []string{"", "the one", "something else entirely"} {
		r, err := m.Match(q)
		require.NoError(t, err)
		assert.Equal(t, "only", r.Key)
	}
}

func TestMatch_IdenticalDescriptionsEarlierWins(t *testing.T) {
	m := newTestMatcher(t,
		catalog.Entry{Key: "other", Description: "count the lines in a file"},
		catalog.Entry{Key: "first", Description: "sort a JSON array by age"},
		catalog.Entry{Key: "second", Description: "sort a JSON array by age"},
	)

	r, err := m.Match("sort this JSON array by age please")
	require.NoError(t, err)
	assert.Equal(t, "first", r.Key)
	assert.Equal(t, 1, r.Position)
}

func TestMatch_RebuildIsDeterministic(t *testing.T) {
	queries := []string{
		"convert CSV to JSON",
		"hash some text",
		"count Wednesdays",
		"",
	}
	a := newTestMatcher(t, sampleEntries()...)
	b := newTestMatcher(t, sampleEntries()...)

	for _, q := range queries {
		ra, err := a.Rank(q, 0)
		require.NoError(t, err)
		rb, err := b.Rank(q, 0)
		require.NoError(t, err)
		assert.Equal(t, ra, rb, "query %q", q)
	}
}

func TestRank_OrderAndLimit(t *testing.T) {
	m := newTestMatcher(t, sampleEntries()...)

	all, err := m.Rank("convert the JSON", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.Score == cur.Score {
			assert.Less(t, prev.Position, cur.Position)
		} else {
			assert.Greater(t, prev.Score, cur.Score)
		}
	}

	top, err := m.Rank("convert the JSON", 2)
	require.NoError(t, err)
	assert.Equal(t, all[:2], top)

	best, err := m.Match("convert the JSON")
	require.NoError(t, err)
	assert.Equal(t, best, all[0])
}

func TestMatch_ZippedCSVScenario(t *testing.T) {
	m := newTestMatcher(t, catalog.Entry{Key: "Q1", Description: "convert a zip of CSV files to JSON"})

	r, err := m.Match("please turn my zipped CSVs into JSON")
	require.NoError(t, err)
	assert.Equal(t, "Q1", r.Key)
	assert.Equal(t, "Q1", r.Handler)
}
