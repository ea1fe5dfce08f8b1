package notifications

import (
	"encoding/json"
	"fmt"
)

// Event types pushed on the realtime feed.
const (
	EventPostCreated         = "post_created"
	EventPostReactionUpdated = "post_reaction_updated"
	EventMessagesDropped     = "messages_dropped"
)

// Event is the JSON envelope sent to feed clients.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// PostCreated announces a new post.
func PostCreated(postID, authorID uint) Event {
	return Event{Type: EventPostCreated, Payload: map[string]any{
		"id":        postID,
		"usuarioId": authorID,
	}}
}

// PostReactionUpdated carries the committed like counter of a post.
func PostReactionUpdated(postID uint, likes int) Event {
	return Event{Type: EventPostReactionUpdated, Payload: map[string]any{
		"id":       postID,
		"curtidas": likes,
	}}
}

// Encode marshals e to its wire form.
func (e Event) Encode() (string, error) {
	if e.Type == "" {
		return "", fmt.Errorf("event type is required")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(data), nil
}
