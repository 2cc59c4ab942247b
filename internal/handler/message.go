package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"travelthreads/internal/httputil"
	"travelthreads/internal/model"
	"travelthreads/internal/service"
	"travelthreads/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// Send handles POST /users/{id}/messages
// Creates the conversation on first contact.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	peerID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	message, err := h.messageService.Send(r.Context(), senderID, peerID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSelfConversation):
			httputil.WriteBadRequest(w, "Cannot message yourself")
		case errors.Is(err, model.ErrMessageTextRequired):
			httputil.WriteBadRequest(w, "Message text is required")
		case errors.Is(err, model.ErrMessageTooLong):
			httputil.WriteBadRequest(w, "Message too long (max 5000 characters)")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] Send message handler: sender=%d peer=%d err=%v", senderID, peerID, err)
			httputil.WriteInternalError(w, "Failed to send message")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, message)
}

// ListConversations handles GET /conversations
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	conversations, err := h.messageService.ListConversations(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] ListConversations handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list conversations")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.ConversationListResponse{Conversations: conversations})
}

// GetMessages handles GET /conversations/{id}/messages
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	conversationID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid conversation ID")
		return
	}

	messages, err := h.messageService.GetMessages(r.Context(), conversationID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrConversationNotFound):
			httputil.WriteNotFound(w, "Conversation not found")
		case errors.Is(err, model.ErrNotParticipant):
			httputil.WriteForbidden(w, "Not a participant of this conversation")
		default:
			log.Printf("[ERROR] GetMessages handler: user=%d conversation=%d err=%v", userID, conversationID, err)
			httputil.WriteInternalError(w, "Failed to get messages")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.MessageListResponse{Messages: messages})
}

// MarkRead handles POST /conversations/{id}/read
// Marks the peer's messages as read and reports how many were flipped.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	conversationID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid conversation ID")
		return
	}

	marked, err := h.messageService.MarkRead(r.Context(), conversationID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrConversationNotFound):
			httputil.WriteNotFound(w, "Conversation not found")
		case errors.Is(err, model.ErrNotParticipant):
			httputil.WriteForbidden(w, "Not a participant of this conversation")
		default:
			log.Printf("[ERROR] MarkRead handler: user=%d conversation=%d err=%v", userID, conversationID, err)
			httputil.WriteInternalError(w, "Failed to mark messages as read")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"marked_read": marked,
	})
}
