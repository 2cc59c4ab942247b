package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"travelthreads/internal/model"
	"travelthreads/internal/repository"
)

// MessageService handles direct messaging between user pairs.
type MessageService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
}

func NewMessageService(convRepo repository.ConversationRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{
		convRepo: convRepo,
		userRepo: userRepo,
	}
}

// Send delivers a message to the peer, creating the conversation on first
// contact. The conversation's last-message preview moves with it.
func (s *MessageService) Send(ctx context.Context, senderID, peerID int64, req model.SendMessageRequest) (*model.Message, error) {
	if senderID == peerID {
		return nil, model.ErrSelfConversation
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, model.ErrMessageTextRequired
	}
	if len(text) > model.MaxMessageLength {
		return nil, model.ErrMessageTooLong
	}

	if _, err := s.userRepo.GetByID(ctx, peerID); err != nil {
		return nil, err
	}

	conv, err := s.convRepo.GetOrCreate(ctx, senderID, peerID)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}

	message := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		MediaURL:       req.MediaURL,
	}
	if err := s.convRepo.InsertMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return message, nil
}

// ListConversations returns the viewer's conversations, most recently
// active first, with peer profiles and unread counts.
func (s *MessageService) ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error) {
	conversations, err := s.convRepo.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	peerIDs := make([]int64, 0, len(conversations))
	for _, conv := range conversations {
		peerIDs = append(peerIDs, peerOf(&conv, userID))
	}

	summaries, err := s.userRepo.GetSummariesByIDs(ctx, peerIDs)
	if err != nil {
		log.Printf("[MessageService] get peers FAILED: %v", err)
		summaries = map[int64]model.UserSummary{}
	}

	for i := range conversations {
		peerID := peerOf(&conversations[i], userID)
		if summary, ok := summaries[peerID]; ok {
			p := summary
			conversations[i].Peer = &p
		}

		unread, err := s.convRepo.CountUnread(ctx, conversations[i].ID, userID)
		if err != nil {
			log.Printf("[MessageService] count unread FAILED: conv=%d err=%v", conversations[i].ID, err)
			continue
		}
		conversations[i].UnreadCount = unread
	}

	return conversations, nil
}

// GetMessages returns the full history of a conversation the viewer
// participates in, oldest first.
func (s *MessageService) GetMessages(ctx context.Context, conversationID, viewerID int64) ([]model.Message, error) {
	if err := s.requireParticipant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	return s.convRepo.GetMessages(ctx, conversationID)
}

// MarkRead flips every message from the peer to read and returns how many
// flipped. Marking twice is a no-op the second time.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, viewerID int64) (int64, error) {
	if err := s.requireParticipant(ctx, conversationID, viewerID); err != nil {
		return 0, err
	}
	return s.convRepo.MarkRead(ctx, conversationID, viewerID)
}

func (s *MessageService) requireParticipant(ctx context.Context, conversationID, userID int64) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.UserAID != userID && conv.UserBID != userID {
		return model.ErrNotParticipant
	}
	return nil
}

func peerOf(conv *model.Conversation, viewerID int64) int64 {
	if conv.UserAID == viewerID {
		return conv.UserBID
	}
	return conv.UserAID
}
