package events

import (
	"encoding/json"
	"time"
)

// Encode renders an event as the flat JSON record pushed to clients:
// type, ticket_id, event_id, occurred_at, actor and the payload fields
// side by side.
func Encode(event Event) ([]byte, error) {
	record := map[string]any{}
	if event.Payload != nil {
		raw, err := json.Marshal(event.Payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
	}
	record["type"] = event.Type
	record["ticket_id"] = event.TicketID
	record["event_id"] = event.ID
	record["occurred_at"] = event.Timestamp.UTC().Format(time.RFC3339Nano)
	record["actor"] = event.Actor
	return json.Marshal(record)
}
