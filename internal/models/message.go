package models

import "time"

// Message is a direct message between two users. Rows are immutable once
// created except for the Seen flag, which moves false->true exactly once
// when the receiver views the conversation.
type Message struct {
	ID            int       `db:"id" json:"id"`
	SenderID      int       `db:"sender_id" json:"sender_id"`
	ReceiverID    int       `db:"receiver_id" json:"receiver_id"`
	Body          *string   `db:"body" json:"body"`
	AttachmentURL *string   `db:"attachment_url" json:"attachment_url"`
	Seen          bool      `db:"seen" json:"seen"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TypingSignal is an ephemeral broadcast payload. It is never persisted;
// receivers expire it locally when no follow-up arrives.
type TypingSignal struct {
	UserID     int       `json:"user_id"`
	ReceiverID int       `json:"receiver_id"`
	IsTyping   bool      `json:"is_typing"`
	Timestamp  time.Time `json:"timestamp"`
}

// SeenReceipt notifies the opposite side of a conversation that messages
// addressed to By from Peer have been marked seen.
type SeenReceipt struct {
	By   int `json:"by"`
	Peer int `json:"peer"`
}

// DMEvent is the envelope written to direct-message websocket clients.
type DMEvent struct {
	Type          string             `json:"type"`
	Message       *Message           `json:"message,omitempty"`
	History       []Message          `json:"history,omitempty"`
	Typing        *TypingSignal      `json:"typing,omitempty"`
	Seen          *SeenReceipt       `json:"seen,omitempty"`
	Presence      *PresenceRecord    `json:"presence,omitempty"`
	Conversations []ConversationItem `json:"conversations,omitempty"`
	PeerID        int                `json:"peer_id,omitempty"`
	Error         string             `json:"error,omitempty"`
}
