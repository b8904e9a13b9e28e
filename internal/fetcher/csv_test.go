package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

const samplesCSV = "timestamp,u,v\n2024-01-01T00:00:00Z,3.0,4.0\n2024-01-01T01:00:00Z,-1.5,2.0\n"

func TestStreamCSV_Basic(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(samplesCSV), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"timestamp", "u", "v"}, rows[0])
	assert.Equal(t, []string{"2024-01-01T01:00:00Z", "-1.5", "2.0"}, rows[2])
}

func TestStreamCSV_WithHeader(t *testing.T) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(samplesCSV), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"timestamp", "u", "v"}, <-headerCh)
}

func TestStreamCSV_HeaderWithoutChannel(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(samplesCSV), CSVOptions{HasHeader: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestStreamCSV_OptionsApplied(t *testing.T) {
	input := "# station 42\n u ; v \n 1 ; 2 \n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
		Comment:   '#',
		TrimSpace: true,
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"u", "v"}, {"1", "2"}}, rows)
}

func TestStreamCSV_MalformedQuotes(t *testing.T) {
	input := "u,v\n1,\"bad \"quote\"\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)

	rowCh, errCh = StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{LazyQuotes: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestStreamCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader(samplesCSV), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestColumnIndex(t *testing.T) {
	header := []string{"Time", " U10 ", "v10", "extra"}
	idx, err := ColumnIndex(header, map[string][]string{
		"time": {"timestamp", "time"},
		"u":    {"u", "u10"},
		"v":    {"v", "v10"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"time": 0, "u": 1, "v": 2}, idx)

	_, err = ColumnIndex(header, map[string][]string{"speed": {"speed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "speed"`)
}
