package service

import (
	"context"
	"fmt"

	"travelthreads/internal/model"
	"travelthreads/internal/repository"
)

// NotificationService manages per-user notification records. Delivery is
// polling only; clients read the list and the badge counter.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
	}
}

// List returns the newest notifications plus the unread badge count.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	notifications, err := s.notifRepo.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.notifRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

// MarkAsRead marks specific notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	return s.notifRepo.MarkAsRead(ctx, userID, notificationIDs)
}

// MarkAllAsRead marks every notification for a user as read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

// Delete removes one of the viewer's notifications.
func (s *NotificationService) Delete(ctx context.Context, notificationID, userID int64) error {
	return s.notifRepo.Delete(ctx, notificationID, userID)
}

// GetUnreadCount returns the badge counter.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifRepo.GetUnreadCount(ctx, userID)
}

// CreateNotification records a notification for interaction events,
// snapshotting the actor's display name and avatar at creation time.
// Called by other services and by the activity workers.
func (s *NotificationService) CreateNotification(
	ctx context.Context,
	recipientID, actorID int64,
	notifType string,
	entityID *int64,
	entityType *string,
) error {
	// Never notify yourself
	if recipientID == actorID {
		return nil
	}

	n := &model.Notification{
		UserID:     recipientID,
		ActorID:    &actorID,
		Type:       notifType,
		EntityID:   entityID,
		EntityType: entityType,
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("get actor: %w", err)
	}
	n.ActorDisplayName = actor.DisplayName
	n.ActorAvatarURL = actor.AvatarURL
	n.Message = notificationMessage(notifType, actorName(actor))

	return s.notifRepo.Create(ctx, n)
}

// CreateSystemNotification records a notification with no actor, used by
// moderation flows.
func (s *NotificationService) CreateSystemNotification(
	ctx context.Context,
	recipientID int64,
	notifType, message string,
	entityID *int64,
	entityType *string,
) error {
	n := &model.Notification{
		UserID:     recipientID,
		Type:       notifType,
		Message:    message,
		EntityID:   entityID,
		EntityType: entityType,
	}
	return s.notifRepo.Create(ctx, n)
}

func actorName(actor *model.User) string {
	if actor.DisplayName != nil && *actor.DisplayName != "" {
		return *actor.DisplayName
	}
	return actor.Username
}

func notificationMessage(notifType, actor string) string {
	switch notifType {
	case model.NotificationTypeFollow:
		return fmt.Sprintf("%s started following you", actor)
	case model.NotificationTypeLike:
		return fmt.Sprintf("%s liked your post", actor)
	case model.NotificationTypeComment:
		return fmt.Sprintf("%s commented on your post", actor)
	case model.NotificationTypeShare:
		return fmt.Sprintf("%s shared your post", actor)
	case model.NotificationTypeEventAttend:
		return fmt.Sprintf("%s is attending your event", actor)
	default:
		return actor
	}
}
