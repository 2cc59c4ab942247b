package model

import (
	"errors"
	"time"
)

// Conversation is a two-party chat. Participants are stored as an ordered
// pair (UserAID < UserBID) so lookup and creation are idempotent for either
// order of the pair.
type Conversation struct {
	ID        int64     `db:"id" json:"id"`
	UserAID   int64     `db:"user_a_id" json:"-"`
	UserBID   int64     `db:"user_b_id" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	LastMessage *MessagePreview `json:"last_message,omitempty"`

	// Joined fields
	Participants []int64      `json:"participants"`
	Peer         *UserSummary `json:"peer,omitempty"` // The other participant, from the viewer's side
	UnreadCount  int          `json:"unread_count"`
}

// MessagePreview is the denormalized last-message snapshot on a conversation.
type MessagePreview struct {
	Text      string    `db:"last_message_text" json:"text"`
	SenderID  int64     `db:"last_message_sender_id" json:"sender_id"`
	Timestamp time.Time `db:"last_message_at" json:"timestamp"`
}

// Message is a single chat message. IsRead transitions false -> true only.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversation_id"`
	SenderID       int64     `db:"sender_id" json:"sender_id"`
	Text           string    `db:"text" json:"text"`
	MediaURL       *string   `db:"media_url" json:"media_url,omitempty"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Text     string  `json:"text"`
	MediaURL *string `json:"media_url"`
}

// ConversationListResponse lists the viewer's conversations.
type ConversationListResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// MessageListResponse is the full message history of a conversation.
type MessageListResponse struct {
	Messages []Message `json:"messages"`
}

const MaxMessageLength = 5000

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrMessageTextRequired  = errors.New("message text is required")
	ErrMessageTooLong       = errors.New("message text too long")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)

// OrderedPair returns the two user IDs in canonical (ascending) order.
func OrderedPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
