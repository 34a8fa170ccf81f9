package reports

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/X-Plane/dashboard/internal/ga"
)

type fakeQuerier struct {
	rows    map[ga.CustomDimension][]ga.Row
	err     error
	queries []ga.Query
}

func (f *fakeQuerier) Query(_ context.Context, q ga.Query) ([]ga.Row, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if len(q.Dimensions) == 0 {
		return nil, nil
	}
	return f.rows[q.Dimensions[0]], nil
}

func newTestGenerator(q ga.Querier) *Generator {
	g := NewGenerator(ga.NewVersionQueries(q, ga.V11, false), ga.PaidOnly, nil)
	g.now = func() time.Time { return time.Date(2019, 6, 3, 0, 0, 0, 0, time.UTC) }
	return g
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Aircraft ")
	require.NoError(t, err)
	assert.Equal(t, KindAircraft, k)

	_, err = ParseKind("scenery")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestGenerateAircraft(t *testing.T) {
	q := &fakeQuerier{rows: map[ga.CustomDimension][]ga.Row{
		ga.Aircraft: {
			{"Cessna 172SP - Class: General Aviation - Studio: Laminar Research - Engines: 1", "1,200"},
			{"Truncated aircraft name", "5"},
		},
	}}

	report, err := newTestGenerator(q).Generate(context.Background(), KindAircraft, false)
	require.NoError(t, err)
	assert.Equal(t, "aircraft_analysis - 2019-06.xlsx", report.Name)
	assert.Equal(t, ContentTypeXLSX, report.ContentType)

	require.Len(t, q.queries, 1)
	assert.Equal(t, ga.Events, q.queries[0].Metric)
	assert.Equal(t, ga.PaidOnly.Filter(), q.queries[0].Filters)

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(sheetName, "A7")
	require.NoError(t, err)
	assert.Equal(t, "Cessna Skyhawk", v)
}

func TestGenerateHardware(t *testing.T) {
	q := &fakeQuerier{rows: map[ga.CustomDimension][]ga.Row{
		ga.Cpu: {{"Intel Core i7 - Cores: 8", "10"}},
	}}

	report, err := newTestGenerator(q).Generate(context.Background(), KindHardware, true)
	require.NoError(t, err)
	assert.Equal(t, "hardware_analysis_11_PaidOnly_2019_6_3.csv", report.Name)
	assert.Equal(t, ContentTypeCSV, report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Data), "NUMBER OF CPU CORES\nCPU Cores,Num Machines,% of All Machines\n"))
	for _, query := range q.queries {
		assert.Equal(t, ga.Users, query.Metric)
	}
}

func TestGeneratePropagatesErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := newTestGenerator(&fakeQuerier{err: boom}).Generate(context.Background(), KindHardware, false)
	assert.ErrorIs(t, err, boom)

	_, err = newTestGenerator(&fakeQuerier{}).Generate(context.Background(), Kind("scenery"), false)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
