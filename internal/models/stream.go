package models

// Stream event names.
const (
	EventConnectionStatus = "connection_status"
	EventNewAnnouncement  = "new_announcement"
	EventPing             = "ping"
)

// StreamMessage is one event queued for a subscriber.
type StreamMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ConnectionStatus greets a freshly connected subscriber.
type ConnectionStatus struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	SubscriberID string `json:"subscriber_id"`
	Timestamp    string `json:"timestamp"`
}
