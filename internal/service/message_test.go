package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"travelthreads/internal/model"
)

func messagePeerMock() *mockUserRepository {
	return &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "peer"}, nil
		},
	}
}

func TestMessageService_Send_Validation(t *testing.T) {
	svc := NewMessageService(&mockConversationRepository{}, messagePeerMock())

	t.Run("self conversation", func(t *testing.T) {
		_, err := svc.Send(context.Background(), 1, 1, model.SendMessageRequest{Text: "hi"})
		if !errors.Is(err, model.ErrSelfConversation) {
			t.Fatalf("expected ErrSelfConversation, got %v", err)
		}
	})

	t.Run("text required", func(t *testing.T) {
		_, err := svc.Send(context.Background(), 1, 2, model.SendMessageRequest{Text: "   "})
		if !errors.Is(err, model.ErrMessageTextRequired) {
			t.Fatalf("expected ErrMessageTextRequired, got %v", err)
		}
	})

	t.Run("text too long", func(t *testing.T) {
		long := strings.Repeat("a", model.MaxMessageLength+1)
		_, err := svc.Send(context.Background(), 1, 2, model.SendMessageRequest{Text: long})
		if !errors.Is(err, model.ErrMessageTooLong) {
			t.Fatalf("expected ErrMessageTooLong, got %v", err)
		}
	})

	t.Run("unknown peer", func(t *testing.T) {
		svc := NewMessageService(&mockConversationRepository{}, &mockUserRepository{})
		_, err := svc.Send(context.Background(), 1, 404, model.SendMessageRequest{Text: "hi"})
		if !errors.Is(err, model.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestMessageService_Send_UsesCanonicalPair(t *testing.T) {
	convRepo := &mockConversationRepository{}
	svc := NewMessageService(convRepo, messagePeerMock())

	// Sender id greater than peer id; the pair still resolves to the same
	// conversation as the reverse direction would.
	msg, err := svc.Send(context.Background(), 9, 3, model.SendMessageRequest{Text: "  see you at the hostel  "})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if len(convRepo.getOrCreateCalls) != 1 {
		t.Fatalf("expected one GetOrCreate call, got %d", len(convRepo.getOrCreateCalls))
	}
	if msg.ConversationID != 1 {
		t.Errorf("expected conversation 1, got %d", msg.ConversationID)
	}
	if msg.SenderID != 9 {
		t.Errorf("expected sender 9, got %d", msg.SenderID)
	}
	if msg.Text != "see you at the hostel" {
		t.Errorf("expected trimmed text, got %q", msg.Text)
	}
}

func TestMessageService_ParticipantGating(t *testing.T) {
	convRepo := &mockConversationRepository{
		getByIDFn: func(ctx context.Context, conversationID int64) (*model.Conversation, error) {
			return &model.Conversation{ID: conversationID, UserAID: 3, UserBID: 9}, nil
		},
	}
	svc := NewMessageService(convRepo, &mockUserRepository{})

	if _, err := svc.GetMessages(context.Background(), 1, 5); !errors.Is(err, model.ErrNotParticipant) {
		t.Errorf("GetMessages: expected ErrNotParticipant, got %v", err)
	}
	if _, err := svc.MarkRead(context.Background(), 1, 5); !errors.Is(err, model.ErrNotParticipant) {
		t.Errorf("MarkRead: expected ErrNotParticipant, got %v", err)
	}

	// Either participant passes the gate.
	if _, err := svc.GetMessages(context.Background(), 1, 9); err != nil {
		t.Errorf("GetMessages as participant: unexpected error %v", err)
	}
}

func TestMessageService_ListConversations_PeersAndUnread(t *testing.T) {
	convRepo := &mockConversationRepository{
		getForUserFn: func(ctx context.Context, userID int64) ([]model.Conversation, error) {
			return []model.Conversation{
				{ID: 1, UserAID: 3, UserBID: 9},
				{ID: 2, UserAID: 9, UserBID: 12},
			}, nil
		},
		countUnreadFn: func(ctx context.Context, conversationID, userID int64) (int, error) {
			if conversationID == 2 {
				return 4, nil
			}
			return 0, nil
		},
	}
	userRepo := &mockUserRepository{
		getSummariesByIDsFn: func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
			return map[int64]model.UserSummary{
				3:  {ID: 3, Username: "ana"},
				12: {ID: 12, Username: "liam"},
			}, nil
		},
	}
	svc := NewMessageService(convRepo, userRepo)

	conversations, err := svc.ListConversations(context.Background(), 9)
	if err != nil {
		t.Fatalf("ListConversations returned error: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}

	if conversations[0].Peer == nil || conversations[0].Peer.Username != "ana" {
		t.Errorf("conversation 1: expected peer ana, got %+v", conversations[0].Peer)
	}
	if conversations[1].Peer == nil || conversations[1].Peer.Username != "liam" {
		t.Errorf("conversation 2: expected peer liam, got %+v", conversations[1].Peer)
	}
	if conversations[1].UnreadCount != 4 {
		t.Errorf("conversation 2: expected 4 unread, got %d", conversations[1].UnreadCount)
	}
}
