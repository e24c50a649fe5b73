package amqp

import (
	"encoding/json"
	"fmt"

	"tally/internal/realtime"
)

// encodeChange serializes a change event as the message body.
func encodeChange(ev realtime.ChangeEvent) ([]byte, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// decodeChange parses and validates a message body.
func decodeChange(body []byte) (realtime.ChangeEvent, error) {
	var ev realtime.ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return realtime.ChangeEvent{}, fmt.Errorf("unmarshal change event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return realtime.ChangeEvent{}, err
	}
	return ev, nil
}
