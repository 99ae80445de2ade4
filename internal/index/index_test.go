package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katarogu/katarogu/api"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildOrdering(t *testing.T) {
	works := []api.Work{
		{ID: "old", ReleasedAt: day(1)},
		{ID: "undated-a"},
		{ID: "new", ReleasedAt: day(20)},
		{ID: "undated-b"},
		{ID: "mid", ReleasedAt: day(10)},
	}
	snap := Build(works)

	var ids []string
	for _, w := range snap.Sorted() {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old", "undated-a", "undated-b"}, ids,
		"newest first, unknown dates last in input order")
	assert.Equal(t, 5, snap.Len())
	assert.Equal(t, "old", works[0].ID, "input slice untouched")
}

func TestBuildDerivesReleasedAt(t *testing.T) {
	snap := Build([]api.Work{
		{ID: "a", ReleaseDate: "2024-01-02"},
		{ID: "b", ReleaseDate: "2024-03-02"},
	})
	assert.Equal(t, "b", snap.Sorted()[0].ID, "release date string parsed when ReleasedAt unset")
}

func TestGroup(t *testing.T) {
	works := []api.Work{
		{ID: "a", ReleasedAt: day(1), Tags: []string{"x", "y"}, Publisher: "P"},
		{ID: "b", ReleasedAt: day(3), Tags: []string{"x"}, Performers: []string{"Ann"}},
		{ID: "c", ReleasedAt: day(2), Publisher: "P", Series: "S"},
	}
	snap := Build(works)

	xs := snap.Group(Tag, "x")
	require.Len(t, xs, 2)
	assert.Equal(t, "b", xs[0].ID, "group preserves global newest-first order")
	assert.Equal(t, "a", xs[1].ID)

	assert.Equal(t, 2, snap.GroupSize(Publisher, "P"))
	assert.Len(t, snap.Group(Performer, "Ann"), 1)
	assert.Nil(t, snap.Group(Series, "missing"))
	assert.Equal(t, 0, snap.GroupSize(Series, "missing"))
}

func TestGroupSkipsBlankKeys(t *testing.T) {
	snap := Build([]api.Work{
		{ID: "a", Tags: []string{"", "  ", "real"}},
	})
	assert.Equal(t, []string{"real"}, snap.Keys(Tag))
}

func TestKeysSortedCaseInsensitive(t *testing.T) {
	snap := Build([]api.Work{
		{ID: "a", Tags: []string{"beta", "Alpha", "alpha", "Gamma"}},
	})
	assert.Equal(t, []string{"Alpha", "alpha", "beta", "Gamma"}, snap.Keys(Tag))
}
