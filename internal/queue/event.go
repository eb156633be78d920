// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// PageSavedEvent is published after a journal page save is committed. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type PageSavedEvent struct {
	PageID     uint64 `json:"page_id"`
	TicketID   uint64 `json:"ticket_id"`
	PageNumber uint32 `json:"page_number"`
	UserID     uint64 `json:"user_id"`
	HasImage   bool   `json:"has_image"`
	SavedAt    string `json:"saved_at"`
}
