// Package ingest consumes wind samples from Kafka and bulk-loads them into
// the wind.samples table.
package ingest

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/wind"
)

// Message is one wind sample as published on the topic.
type Message struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	U         float64   `json:"u"`
	V         float64   `json:"v"`
}

// Point returns the grid location of the sample.
func (m Message) Point() wind.Point {
	return wind.Point{Lat: m.Lat, Lng: m.Lng}
}

// Sample returns the u/v observation.
func (m Message) Sample() wind.WindSample {
	return wind.WindSample{Time: m.Timestamp, U: m.U, V: m.V}
}

// Decode parses and validates a message payload.
func Decode(value []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(value, &m); err != nil {
		return m, eris.Wrap(err, "ingest: decode message")
	}
	if err := m.Point().Validate(); err != nil {
		return m, eris.Wrap(err, "ingest: invalid point")
	}
	if m.Timestamp.IsZero() {
		return m, eris.New("ingest: missing timestamp")
	}
	return m, nil
}
