package models

import "time"

// EventType names a lifecycle event fanned out to the panel feed.
type EventType string

const (
	EventCaseSubmitted    EventType = "case.submitted"
	EventCaseDecided      EventType = "case.decided"
	EventBlacklistAdded   EventType = "blacklist.added"
	EventBlacklistRemoved EventType = "blacklist.removed"
	EventBlacklistExpired EventType = "blacklist.expired"
	EventAuditRecorded    EventType = "audit.recorded"
)

// Event is one lifecycle notification published on the event channel.
type Event struct {
	Type       EventType `json:"type"`
	Subject    string    `json:"subject"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
