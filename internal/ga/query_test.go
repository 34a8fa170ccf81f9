package ga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQuerier struct {
	queries []Query
	rows    []Row
}

func (r *recordingQuerier) Query(_ context.Context, q Query) ([]Row, error) {
	r.queries = append(r.queries, q)
	return r.rows, nil
}

func TestQueryStrings(t *testing.T) {
	q := Query{
		Version:    V11,
		Metric:     Users,
		Dimensions: []CustomDimension{Os, Gpu},
		Filters:    PaidOnly.Filter(),
	}
	assert.Equal(t, "ga:dimension16;ga:dimension18", q.DimensionString())
	assert.Equal(t, "ga:appVersion=@X-Plane 11;ga:dimension8!@Demo", q.FilterString())
	assert.Equal(t, "2016-11-24", q.StartDate())

	q.Filters = ""
	q.StartOverride = "2019-04-01"
	assert.Equal(t, "ga:appVersion=@X-Plane 11", q.FilterString())
	assert.Equal(t, "2019-04-01", q.StartDate())
}

func TestCacheKeyCoversEveryField(t *testing.T) {
	base := Query{Version: V11, Metric: Users, Dimensions: []CustomDimension{Ram}}
	variants := []Query{
		{Version: V10, Metric: Users, Dimensions: []CustomDimension{Ram}},
		{Version: V11, Metric: Events, Dimensions: []CustomDimension{Ram}},
		{Version: V11, Metric: Users, Dimensions: []CustomDimension{Gpu}},
		{Version: V11, Metric: Users, Dimensions: []CustomDimension{Ram}, Filters: "x"},
		{Version: V11, Metric: Users, Dimensions: []CustomDimension{Ram}, StartOverride: "2019-01-01"},
		{Version: V11, Metric: Users, Dimensions: []CustomDimension{Ram}, Strict: true},
	}

	assert.Equal(t, base.CacheKey(), Query{Version: V11, Metric: Users, Dimensions: []CustomDimension{Ram}}.CacheKey())
	for _, v := range variants {
		assert.NotEqual(t, base.CacheKey(), v.CacheKey())
	}
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("12,345")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), n)

	_, err = ParseCount("many")
	assert.Error(t, err)
}

func TestVersionQueriesTotals(t *testing.T) {
	q := &recordingQuerier{rows: []Row{{"1,000"}}}
	vq := NewVersionQueries(q, V11, true)

	total, ok, err := vq.TotalUsers(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), total)

	crashes, err := vq.TotalCrashes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), crashes)

	require.Len(t, q.queries, 2)
	assert.Equal(t, Users, q.queries[0].Metric)
	assert.True(t, q.queries[0].Strict)
	assert.Equal(t, Crashes, q.queries[1].Metric)
}

func TestVersionQueriesEmpty(t *testing.T) {
	vq := NewVersionQueries(&recordingQuerier{}, V11, false)

	_, ok, err := vq.TotalUsers(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = vq.TotalSessions(context.Background())
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestSimpleQueries(t *testing.T) {
	q := &recordingQuerier{rows: []Row{{"8", "10"}}}
	sq := NewSimpleQueries(NewVersionQueries(q, V11, false), Users, PaidOnly.Filter())

	rows, err := sq.Query(context.Background(), Ram, "2018-05-02")
	require.NoError(t, err)
	assert.Equal(t, []Row{{"8", "10"}}, rows)

	require.Len(t, q.queries, 1)
	got := q.queries[0]
	assert.Equal(t, []CustomDimension{Ram}, got.Dimensions)
	assert.Equal(t, PaidOnly.Filter(), got.Filters)
	assert.Equal(t, "2018-05-02", got.StartOverride)
	assert.Equal(t, Users, got.Metric)
}
