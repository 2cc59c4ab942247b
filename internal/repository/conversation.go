package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/model"
)

type conversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// GetOrCreate finds the conversation for the (canonically ordered) pair or
// creates it. ON CONFLICT DO NOTHING plus the follow-up select makes the
// operation race-free when two first messages arrive at once.
func (r *conversationRepository) GetOrCreate(ctx context.Context, userA, userB int64) (*model.Conversation, error) {
	a, b := model.OrderedPair(userA, userB)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (user_a_id, user_b_id)
		VALUES ($1, $2)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING
	`, a, b)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	var conv model.Conversation
	err = r.db.GetContext(ctx, &conv, `
		SELECT id, user_a_id, user_b_id, updated_at, created_at
		FROM conversations
		WHERE user_a_id = $1 AND user_b_id = $2
	`, a, b)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	conv.Participants = []int64{conv.UserAID, conv.UserBID}
	return &conv, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	var row struct {
		model.Conversation
		LastText     *string      `db:"last_message_text"`
		LastSenderID *int64       `db:"last_message_sender_id"`
		LastAt       sql.NullTime `db:"last_message_at"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT id, user_a_id, user_b_id, updated_at, created_at,
		       last_message_text, last_message_sender_id, last_message_at
		FROM conversations
		WHERE id = $1
	`, conversationID)
	if err == sql.ErrNoRows {
		return nil, model.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	conv := row.Conversation
	conv.Participants = []int64{conv.UserAID, conv.UserBID}
	if row.LastText != nil && row.LastSenderID != nil && row.LastAt.Valid {
		conv.LastMessage = &model.MessagePreview{
			Text:      *row.LastText,
			SenderID:  *row.LastSenderID,
			Timestamp: row.LastAt.Time,
		}
	}
	return &conv, nil
}

// GetForUser lists a user's conversations, most recently active first.
func (r *conversationRepository) GetForUser(ctx context.Context, userID int64) ([]model.Conversation, error) {
	type row struct {
		model.Conversation
		LastText     *string      `db:"last_message_text"`
		LastSenderID *int64       `db:"last_message_sender_id"`
		LastAt       sql.NullTime `db:"last_message_at"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_a_id, user_b_id, updated_at, created_at,
		       last_message_text, last_message_sender_id, last_message_at
		FROM conversations
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY updated_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("get conversations: %w", err)
	}

	conversations := make([]model.Conversation, len(rows))
	for i, rw := range rows {
		conv := rw.Conversation
		conv.Participants = []int64{conv.UserAID, conv.UserBID}
		if rw.LastText != nil && rw.LastSenderID != nil && rw.LastAt.Valid {
			conv.LastMessage = &model.MessagePreview{
				Text:      *rw.LastText,
				SenderID:  *rw.LastSenderID,
				Timestamp: rw.LastAt.Time,
			}
		}
		conversations[i] = conv
	}
	return conversations, nil
}

// InsertMessage appends the message and overwrites the conversation's
// last-message preview in one transaction, keeping the preview consistent
// with the newest message.
func (r *conversationRepository) InsertMessage(ctx context.Context, message *model.Message) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowxContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, text, media_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`, message.ConversationID, message.SenderID, message.Text, message.MediaURL)
	if err := row.Scan(&message.ID, &message.IsRead, &message.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET last_message_text = $1, last_message_sender_id = $2, last_message_at = $3, updated_at = $3
		WHERE id = $4
	`, message.Text, message.SenderID, message.CreatedAt, message.ConversationID)
	if err != nil {
		return fmt.Errorf("update conversation preview: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrConversationNotFound
	}

	return tx.Commit()
}

func (r *conversationRepository) GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, conversation_id, sender_id, text, media_url, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return messages, nil
}

// MarkRead flips every message not sent by userID to read and returns how
// many flipped. Already-read messages stay read.
func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return result.RowsAffected()
}

func (r *conversationRepository) CountUnread(ctx context.Context, conversationID, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
