package models

import "time"

// ConversationItem is one row of the conversation list. Conversations are
// derived from the message log, never stored: the pair's most recent
// message plus the peer's profile.
type ConversationItem struct {
	Peer          Profile   `json:"peer"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
}
