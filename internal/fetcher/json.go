package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// MaxJSONBytes caps a single decoded document. A year of hourly forecast
// data for one point is well under 1 MiB.
const MaxJSONBytes = 32 << 20

// EachJSON calls fn for every element of a top-level JSON array, one element
// at a time. Empty input and "[]" yield no calls. It returns the number of
// elements handed to fn.
func EachJSON[T any](ctx context.Context, r io.Reader, fn func(T) error) (int, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "json: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, eris.Errorf("json: expected '[', got %v", tok)
	}

	n := 0
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return n, eris.Wrap(err, "json: context cancelled")
		}
		var item T
		if err := dec.Decode(&item); err != nil {
			return n, eris.Wrapf(err, "json: decode element %d", n)
		}
		if err := fn(item); err != nil {
			return n, eris.Wrapf(err, "json: element %d", n)
		}
		n++
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return n, eris.Wrap(err, "json: read closing token")
	}
	return n, nil
}

// DecodeJSON decodes one JSON document of at most MaxJSONBytes.
func DecodeJSON[T any](r io.Reader) (*T, error) {
	lr := &io.LimitedReader{R: r, N: MaxJSONBytes + 1}
	var obj T
	if err := json.NewDecoder(lr).Decode(&obj); err != nil {
		if lr.N <= 0 {
			return nil, eris.Errorf("json: document exceeds %d bytes", MaxJSONBytes)
		}
		return nil, eris.Wrap(err, "json: decode document")
	}
	return &obj, nil
}
