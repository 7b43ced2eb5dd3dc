package models

import "time"

// LiveUpdate is the payload pushed to subscribers of a conversation topic.
type LiveUpdate struct {
	Type      string         `json:"type"`
	Topic     string         `json:"topic"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}
