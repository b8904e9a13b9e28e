package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSample struct {
	Timestamp string  `json:"timestamp"`
	U         float64 `json:"u"`
	V         float64 `json:"v"`
}

func collectJSON(t *testing.T, input string) ([]testSample, error) {
	t.Helper()
	var items []testSample
	_, err := EachJSON(context.Background(), strings.NewReader(input), func(s testSample) error {
		items = append(items, s)
		return nil
	})
	return items, err
}

func TestEachJSON(t *testing.T) {
	items, err := collectJSON(t, `[{"timestamp":"2024-01-01T00:00:00Z","u":3,"v":4},{"timestamp":"2024-01-01T01:00:00Z","u":-1,"v":0.5}]`)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3.0, items[0].U)
	assert.Equal(t, 0.5, items[1].V)
}

func TestEachJSON_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "[]", "  [ ]\n"} {
		items, err := collectJSON(t, input)
		require.NoError(t, err, "%q", input)
		assert.Empty(t, items)
	}
}

func TestEachJSON_NotAnArray(t *testing.T) {
	_, err := collectJSON(t, `{"u":1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestEachJSON_BadElement(t *testing.T) {
	items, err := collectJSON(t, `[{"u":1},{"u":"fast"}]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode element 1")
	assert.Len(t, items, 1)
}

func TestEachJSON_CallbackError(t *testing.T) {
	stop := errors.New("stop")
	n, err := EachJSON(context.Background(), strings.NewReader(`[{"u":1},{"u":2},{"u":3}]`), func(s testSample) error {
		if s.U == 2 {
			return stop
		}
		return nil
	})
	assert.True(t, errors.Is(err, stop))
	assert.Equal(t, 1, n)
}

func TestEachJSON_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EachJSON(ctx, strings.NewReader(`[{"u":1}]`), func(testSample) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDecodeJSON(t *testing.T) {
	obj, err := DecodeJSON[testSample](strings.NewReader(`{"timestamp":"t","u":1.5,"v":2}`))
	require.NoError(t, err)
	assert.Equal(t, 1.5, obj.U)

	_, err = DecodeJSON[testSample](strings.NewReader(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode document")
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	big := `{"timestamp":"` + strings.Repeat("x", MaxJSONBytes+10) + `"}`
	_, err := DecodeJSON[testSample](strings.NewReader(big))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}
