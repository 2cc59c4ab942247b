package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/cache"
	"travelthreads/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	// GetSummariesByIDs batch-resolves profile summaries, avoiding N+1 reads.
	GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	UpdateProfile(ctx context.Context, userID int64, displayName, bio *string) error
	// UpdateAvatar swaps the avatar and returns the previous object key so
	// the caller can clean up storage.
	UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) (*string, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	// Moderation flags
	SetBlocked(ctx context.Context, tx *sqlx.Tx, userID int64, blocked bool, reason *string) error
	SetAdmin(ctx context.Context, tx *sqlx.Tx, userID int64, isAdmin bool) error
	// DeleteAccount removes the user and all owned data in one transaction.
	DeleteAccount(ctx context.Context, userID int64) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
}

type PostRepository interface {
	// Create inserts the post and bumps the author's thread_count in one tx.
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	// List returns the newest posts across all authors.
	List(ctx context.Context, limit int) ([]model.Post, error)
	GetUserPosts(ctx context.Context, userID int64, limit int) ([]model.Post, error)
	// Search matches title, content, location name and location keywords.
	Search(ctx context.Context, query string, limit int) ([]model.Post, error)
	// GetByAuthorIDs is the fan-out-on-read query behind the following feed.
	GetByAuthorIDs(ctx context.Context, authorIDs []int64, limit int) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	// Delete removes the post, its comments, shares and likes, and decrements
	// the author's thread_count, all in one tx.
	Delete(ctx context.Context, postID, userID int64) error
	GetAuthorID(ctx context.Context, postID int64) (int64, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	// Like methods
	Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error
	Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	GetPostLikers(ctx context.Context, postID int64, cursor *string, limit int) ([]model.UserSummary, *string, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	IncrementShareCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	// Feed cache warming
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	GetFeedPostIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	// GetTopLevel returns root comments for a post, newest first.
	GetTopLevel(ctx context.Context, postID int64) ([]model.Comment, error)
	// GetReplies returns replies to a comment, oldest first.
	GetReplies(ctx context.Context, commentID int64) ([]model.Comment, error)
	// Delete removes a comment and its reply cascade regardless of owner
	// (moderation path). It returns the post it belonged to and the number
	// of comment rows removed, so comment_count moves by the full cascade.
	Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) (postID, removed int64, err error)
	Like(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) error
	Unlike(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) error
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) error
}

type ShareRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, share *model.Share) error
	GetByPostID(ctx context.Context, postID int64) ([]model.Share, error)
}

type EventRepository interface {
	// Create inserts the event and auto-adds the creator to attendees.
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, eventID int64) (*model.Event, error)
	// List applies category and date-range filters server-side.
	List(ctx context.Context, category *string, from, to *time.Time) ([]model.Event, error)
	GetByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error)
	Upcoming(ctx context.Context, limit int) ([]model.Event, error)
	GetAttending(ctx context.Context, userID int64) ([]model.Event, error)
	GetInterested(ctx context.Context, userID int64) ([]model.Event, error)
	Delete(ctx context.Context, tx *sqlx.Tx, eventID int64) error
	GetAuthorID(ctx context.Context, eventID int64) (int64, error)
	// Membership sets. Attend/MarkInterested swap sets inside one tx in the
	// service so the exclusion invariant holds.
	AddAttendee(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error
	RemoveAttendee(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error
	AddInterest(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error
	RemoveInterest(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error
	CountAttendees(ctx context.Context, tx *sqlx.Tx, eventID int64) (int, error)
}

type ConversationRepository interface {
	// GetOrCreate is idempotent for either order of the pair.
	GetOrCreate(ctx context.Context, userA, userB int64) (*model.Conversation, error)
	GetByID(ctx context.Context, conversationID int64) (*model.Conversation, error)
	GetForUser(ctx context.Context, userID int64) ([]model.Conversation, error)
	// InsertMessage appends the message and overwrites the conversation
	// preview in one tx.
	InsertMessage(ctx context.Context, message *model.Message) error
	GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error)
	// MarkRead flips every message not sent by userID to read.
	MarkRead(ctx context.Context, conversationID, userID int64) (int64, error)
	CountUnread(ctx context.Context, conversationID, userID int64) (int, error)
}

type NotificationRepository interface {
	// Create inserts the notification and bumps the recipient's unread
	// counter in one tx.
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	// Delete removes the record, decrementing the unread counter only when
	// the record was unread.
	Delete(ctx context.Context, notificationID, userID int64) error
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, reportID int64) (*model.Report, error)
	List(ctx context.Context, status *string) ([]model.Report, error)
	UpdateStatus(ctx context.Context, reportID int64, status string, reviewedBy int64) error
}

type AuditLogRepository interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]model.AuditLog, error)
}
