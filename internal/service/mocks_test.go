package service

// Function-field mocks for the repository interfaces. Each test overrides
// only the calls it cares about; everything else returns a zero value or a
// not-found error.

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/cache"
	"travelthreads/internal/model"
	"travelthreads/internal/queue"
)

// ---------------------------------------------------------------------------
// UserRepository

type mockUserRepository struct {
	createFn            func(ctx context.Context, user *model.User) error
	getByIDFn           func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn        func(ctx context.Context, email string) (*model.User, error)
	getByUsernameFn     func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn  func(ctx context.Context, username string) (bool, error)
	existsByEmailFn     func(ctx context.Context, email string) (bool, error)
	searchFn            func(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	getSummariesByIDsFn func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockUserRepository) GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if m.getSummariesByIDsFn != nil {
		return m.getSummariesByIDsFn(ctx, ids)
	}
	return map[int64]model.UserSummary{}, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, userID int64, displayName, bio *string) error {
	return nil
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) (*string, error) {
	return nil, nil
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepository) SetBlocked(ctx context.Context, tx *sqlx.Tx, userID int64, blocked bool, reason *string) error {
	return nil
}

func (m *mockUserRepository) SetAdmin(ctx context.Context, tx *sqlx.Tx, userID int64, isAdmin bool) error {
	return nil
}

func (m *mockUserRepository) DeleteAccount(ctx context.Context, userID int64) error {
	return nil
}

// ---------------------------------------------------------------------------
// FollowRepository

type mockFollowRepository struct {
	existsFn         func(ctx context.Context, followerID, followeeID int64) (bool, error)
	getFollowersFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	getFollowingFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	checkFollowsFn   func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	getFollowerIDsFn func(ctx context.Context, userID int64) ([]int64, error)
	getFolloweeIDsFn func(ctx context.Context, userID int64) ([]int64, error)
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error {
	return nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followeeIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFollowerIDsFn != nil {
		return m.getFollowerIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFollowRepository) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFolloweeIDsFn != nil {
		return m.getFolloweeIDsFn(ctx, userID)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// PostRepository

type mockPostRepository struct {
	createFn          func(ctx context.Context, post *model.Post) error
	getByIDFn         func(ctx context.Context, postID int64) (*model.Post, error)
	getByIDsFn        func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	searchFn          func(ctx context.Context, query string, limit int) ([]model.Post, error)
	getByAuthorIDsFn  func(ctx context.Context, authorIDs []int64, limit int) ([]model.Post, error)
	existsFn          func(ctx context.Context, postID int64) (bool, error)
	getAuthorIDFn     func(ctx context.Context, postID int64) (int64, error)
	checkLikesFn      func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	getPostLikersFn   func(ctx context.Context, postID int64, cursor *string, limit int) ([]model.UserSummary, *string, error)
	getFeedPostIDsFn  func(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error)
	getUserPostsFn    func(ctx context.Context, userID int64, limit int) ([]model.Post, error)
	getRecentByUserFn func(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	listFn            func(ctx context.Context, limit int) ([]model.Post, error)

	createCalls        []*model.Post
	commentCountDeltas []int
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	m.createCalls = append(m.createCalls, post)
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	post.ID = int64(len(m.createCalls))
	post.CreatedAt = time.Now()
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	return nil, nil
}

func (m *mockPostRepository) List(ctx context.Context, limit int) ([]model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) GetUserPosts(ctx context.Context, userID int64, limit int) ([]model.Post, error) {
	if m.getUserPostsFn != nil {
		return m.getUserPostsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) Search(ctx context.Context, query string, limit int) ([]model.Post, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) GetByAuthorIDs(ctx context.Context, authorIDs []int64, limit int) ([]model.Post, error) {
	if m.getByAuthorIDsFn != nil {
		return m.getByAuthorIDsFn(ctx, authorIDs, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) Update(ctx context.Context, post *model.Post) error {
	return nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID, userID int64) error {
	return nil
}

func (m *mockPostRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	if m.getAuthorIDFn != nil {
		return m.getAuthorIDFn(ctx, postID)
	}
	return 0, model.ErrPostNotFound
}

func (m *mockPostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return false, nil
}

func (m *mockPostRepository) Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	return nil
}

func (m *mockPostRepository) Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	return nil
}

func (m *mockPostRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, postIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockPostRepository) GetPostLikers(ctx context.Context, postID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	if m.getPostLikersFn != nil {
		return m.getPostLikersFn(ctx, postID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockPostRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return nil
}

func (m *mockPostRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	m.commentCountDeltas = append(m.commentCountDeltas, delta)
	return nil
}

func (m *mockPostRepository) IncrementShareCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return nil
}

func (m *mockPostRepository) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	if m.getRecentByUserFn != nil {
		return m.getRecentByUserFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) GetFeedPostIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error) {
	if m.getFeedPostIDsFn != nil {
		return m.getFeedPostIDsFn(ctx, followeeIDs, limit)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// CommentRepository

type mockCommentRepository struct {
	getByIDFn func(ctx context.Context, commentID int64) (*model.Comment, error)
	deleteFn  func(ctx context.Context, tx *sqlx.Tx, commentID int64) (int64, int64, error)
}

func (m *mockCommentRepository) Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error {
	comment.ID = 1
	comment.CreatedAt = time.Now()
	return nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) GetTopLevel(ctx context.Context, postID int64) ([]model.Comment, error) {
	return nil, nil
}

func (m *mockCommentRepository) GetReplies(ctx context.Context, commentID int64) ([]model.Comment, error) {
	return nil, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) (int64, int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, commentID)
	}
	return 0, 1, nil
}

func (m *mockCommentRepository) Like(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) error {
	return nil
}

func (m *mockCommentRepository) Unlike(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) error {
	return nil
}

func (m *mockCommentRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) error {
	return nil
}

// ---------------------------------------------------------------------------
// ShareRepository

type mockShareRepository struct {
	getByPostIDFn func(ctx context.Context, postID int64) ([]model.Share, error)
}

func (m *mockShareRepository) Create(ctx context.Context, tx *sqlx.Tx, share *model.Share) error {
	share.ID = 1
	share.CreatedAt = time.Now()
	return nil
}

func (m *mockShareRepository) GetByPostID(ctx context.Context, postID int64) ([]model.Share, error) {
	if m.getByPostIDFn != nil {
		return m.getByPostIDFn(ctx, postID)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// EventRepository

type mockEventRepository struct {
	createFn         func(ctx context.Context, event *model.Event) error
	getByIDFn        func(ctx context.Context, eventID int64) (*model.Event, error)
	listFn           func(ctx context.Context, category *string, from, to *time.Time) ([]model.Event, error)
	upcomingFn       func(ctx context.Context, limit int) ([]model.Event, error)
	getAuthorIDFn    func(ctx context.Context, eventID int64) (int64, error)
	countAttendeesFn func(ctx context.Context, tx *sqlx.Tx, eventID int64) (int, error)

	createCalls []*model.Event
}

func (m *mockEventRepository) Create(ctx context.Context, event *model.Event) error {
	m.createCalls = append(m.createCalls, event)
	if m.createFn != nil {
		return m.createFn(ctx, event)
	}
	event.ID = int64(len(m.createCalls))
	event.CreatedAt = time.Now()
	event.Attendees = []int64{event.UserID}
	return nil
}

func (m *mockEventRepository) GetByID(ctx context.Context, eventID int64) (*model.Event, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, eventID)
	}
	return nil, model.ErrEventNotFound
}

func (m *mockEventRepository) List(ctx context.Context, category *string, from, to *time.Time) ([]model.Event, error) {
	if m.listFn != nil {
		return m.listFn(ctx, category, from, to)
	}
	return nil, nil
}

func (m *mockEventRepository) GetByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error) {
	return nil, nil
}

func (m *mockEventRepository) Upcoming(ctx context.Context, limit int) ([]model.Event, error) {
	if m.upcomingFn != nil {
		return m.upcomingFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockEventRepository) GetAttending(ctx context.Context, userID int64) ([]model.Event, error) {
	return nil, nil
}

func (m *mockEventRepository) GetInterested(ctx context.Context, userID int64) ([]model.Event, error) {
	return nil, nil
}

func (m *mockEventRepository) Delete(ctx context.Context, tx *sqlx.Tx, eventID int64) error {
	return nil
}

func (m *mockEventRepository) GetAuthorID(ctx context.Context, eventID int64) (int64, error) {
	if m.getAuthorIDFn != nil {
		return m.getAuthorIDFn(ctx, eventID)
	}
	return 0, model.ErrEventNotFound
}

func (m *mockEventRepository) AddAttendee(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	return nil
}

func (m *mockEventRepository) RemoveAttendee(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	return nil
}

func (m *mockEventRepository) AddInterest(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	return nil
}

func (m *mockEventRepository) RemoveInterest(ctx context.Context, tx *sqlx.Tx, eventID, userID int64) error {
	return nil
}

func (m *mockEventRepository) CountAttendees(ctx context.Context, tx *sqlx.Tx, eventID int64) (int, error) {
	if m.countAttendeesFn != nil {
		return m.countAttendeesFn(ctx, tx, eventID)
	}
	return 0, nil
}

// ---------------------------------------------------------------------------
// ConversationRepository

type mockConversationRepository struct {
	getOrCreateFn   func(ctx context.Context, userA, userB int64) (*model.Conversation, error)
	getByIDFn       func(ctx context.Context, conversationID int64) (*model.Conversation, error)
	getForUserFn    func(ctx context.Context, userID int64) ([]model.Conversation, error)
	insertMessageFn func(ctx context.Context, message *model.Message) error
	getMessagesFn   func(ctx context.Context, conversationID int64) ([]model.Message, error)
	markReadFn      func(ctx context.Context, conversationID, userID int64) (int64, error)
	countUnreadFn   func(ctx context.Context, conversationID, userID int64) (int, error)

	getOrCreateCalls [][2]int64
}

func (m *mockConversationRepository) GetOrCreate(ctx context.Context, userA, userB int64) (*model.Conversation, error) {
	m.getOrCreateCalls = append(m.getOrCreateCalls, [2]int64{userA, userB})
	if m.getOrCreateFn != nil {
		return m.getOrCreateFn(ctx, userA, userB)
	}
	a, b := model.OrderedPair(userA, userB)
	return &model.Conversation{ID: 1, UserAID: a, UserBID: b}, nil
}

func (m *mockConversationRepository) GetByID(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, conversationID)
	}
	return nil, model.ErrConversationNotFound
}

func (m *mockConversationRepository) GetForUser(ctx context.Context, userID int64) ([]model.Conversation, error) {
	if m.getForUserFn != nil {
		return m.getForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockConversationRepository) InsertMessage(ctx context.Context, message *model.Message) error {
	if m.insertMessageFn != nil {
		return m.insertMessageFn(ctx, message)
	}
	message.ID = 1
	message.CreatedAt = time.Now()
	return nil
}

func (m *mockConversationRepository) GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	if m.getMessagesFn != nil {
		return m.getMessagesFn(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockConversationRepository) MarkRead(ctx context.Context, conversationID, userID int64) (int64, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, conversationID, userID)
	}
	return 0, nil
}

func (m *mockConversationRepository) CountUnread(ctx context.Context, conversationID, userID int64) (int, error) {
	if m.countUnreadFn != nil {
		return m.countUnreadFn(ctx, conversationID, userID)
	}
	return 0, nil
}

// ---------------------------------------------------------------------------
// NotificationRepository

type mockNotificationRepository struct {
	createFn         func(ctx context.Context, n *model.Notification) error
	listFn           func(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	getUnreadCountFn func(ctx context.Context, userID int64) (int, error)

	createCalls []*model.Notification
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	m.createCalls = append(m.createCalls, n)
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}
	return nil
}

func (m *mockNotificationRepository) List(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	return nil
}

func (m *mockNotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	return nil
}

func (m *mockNotificationRepository) Delete(ctx context.Context, notificationID, userID int64) error {
	return nil
}

func (m *mockNotificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	if m.getUnreadCountFn != nil {
		return m.getUnreadCountFn(ctx, userID)
	}
	return 0, nil
}

// ---------------------------------------------------------------------------
// ReportRepository

type mockReportRepository struct {
	createFn       func(ctx context.Context, report *model.Report) error
	getByIDFn      func(ctx context.Context, reportID int64) (*model.Report, error)
	listFn         func(ctx context.Context, status *string) ([]model.Report, error)
	updateStatusFn func(ctx context.Context, reportID int64, status string, reviewedBy int64) error

	updateStatusCalls []string
}

func (m *mockReportRepository) Create(ctx context.Context, report *model.Report) error {
	if m.createFn != nil {
		return m.createFn(ctx, report)
	}
	report.ID = 1
	report.Status = model.ReportStatusPending
	report.CreatedAt = time.Now()
	return nil
}

func (m *mockReportRepository) GetByID(ctx context.Context, reportID int64) (*model.Report, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, reportID)
	}
	return nil, model.ErrReportNotFound
}

func (m *mockReportRepository) List(ctx context.Context, status *string) ([]model.Report, error) {
	if m.listFn != nil {
		return m.listFn(ctx, status)
	}
	return nil, nil
}

func (m *mockReportRepository) UpdateStatus(ctx context.Context, reportID int64, status string, reviewedBy int64) error {
	m.updateStatusCalls = append(m.updateStatusCalls, status)
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, reportID, status, reviewedBy)
	}
	return nil
}

// ---------------------------------------------------------------------------
// AuditLogRepository

type mockAuditLogRepository struct {
	entries []*model.AuditLog
}

func (m *mockAuditLogRepository) Insert(ctx context.Context, entry *model.AuditLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditLogRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	out := make([]model.AuditLog, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// TimelineCache

type mockTimelineCache struct {
	addPostFn     func(ctx context.Context, userID, postID int64, timestamp int64) error
	getTimelineFn func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error)
	warmFn        func(ctx context.Context, userID int64, posts []cache.PostScore) error
	existsFn      func(ctx context.Context, userID int64) (bool, error)

	warmCalls [][]cache.PostScore
}

func (m *mockTimelineCache) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	if m.addPostFn != nil {
		return m.addPostFn(ctx, userID, postID, timestamp)
	}
	return nil
}

func (m *mockTimelineCache) RemovePost(ctx context.Context, userID, postID int64) error {
	return nil
}

func (m *mockTimelineCache) GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	if m.getTimelineFn != nil {
		return m.getTimelineFn(ctx, userID, cursorScore, limit)
	}
	return nil, nil, nil
}

func (m *mockTimelineCache) GetScore(ctx context.Context, userID, postID int64) (int64, bool, error) {
	return 0, false, nil
}

func (m *mockTimelineCache) Warm(ctx context.Context, userID int64, posts []cache.PostScore) error {
	m.warmCalls = append(m.warmCalls, posts)
	if m.warmFn != nil {
		return m.warmFn(ctx, userID, posts)
	}
	return nil
}

func (m *mockTimelineCache) Size(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (m *mockTimelineCache) Exists(ctx context.Context, userID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Publisher

type mockPublisher struct {
	publishFn func(ctx context.Context, stream string, event queue.ActivityEvent) (string, error)

	published []queue.ActivityEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.ActivityEvent) (string, error) {
	m.published = append(m.published, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}
