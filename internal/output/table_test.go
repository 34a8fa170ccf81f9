package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTableFormatter(&buf)

	require.NoError(t, formatter.WriteHeader("Rank", "Location", "% Flights"))
	require.NoError(t, formatter.WriteRow("1", "Europe", "12.5000%"))
	require.NoError(t, formatter.Flush())

	want := "Rank  Location  % Flights\n" +
		"----  --------  ---------\n" +
		"1     Europe    12.5000%\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, FormatJSON, Table{
		Headers: []string{"Month", "Count"},
		Rows:    [][]string{{"2019-04", "10"}, {"2019-05", "12"}},
	})
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]string{
		{"Month": "2019-04", "Count": "10"},
		{"Month": "2019-05", "Count": "12"},
	}, got)
}

func TestWriteEmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, Table{Headers: []string{"Month"}}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}
