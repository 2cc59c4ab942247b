package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/model"
	"travelthreads/internal/queue"
	"travelthreads/internal/repository"
)

// PostService handles travel thread CRUD, likes, comments and shares.
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	shareRepo   repository.ShareRepository
	userRepo    repository.UserRepository
	publisher   queue.Publisher
	db          *sqlx.DB
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	shareRepo repository.ShareRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	db *sqlx.DB,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		shareRepo:   shareRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		db:          db,
	}
}

// DeriveLocationKeywords lower-cases the location name and splits on commas,
// trimming whitespace: "Paris, France" becomes ["paris", "france"]. Empty
// segments are dropped.
func DeriveLocationKeywords(location string) []string {
	var keywords []string
	for _, part := range strings.Split(strings.ToLower(location), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

// Create creates a new post and publishes the fan-out event.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}
	if len(title) > model.MaxPostTitleLength {
		return nil, model.ErrTitleTooLong
	}
	if len(req.Content) > model.MaxPostContentLength {
		return nil, model.ErrPostContentLong
	}

	post := &model.Post{
		UserID:   userID,
		Title:    title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}
	if req.Location != nil && strings.TrimSpace(*req.Location) != "" {
		loc := strings.TrimSpace(*req.Location)
		post.LocationName = &loc
		post.LocationKeywords = DeriveLocationKeywords(loc)
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	// Fan-out is async; failure to publish never fails the create.
	if s.publisher != nil {
		event := queue.NewPostCreatedEvent(post.ID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
			log.Printf("[PostService] publish PostCreated FAILED: post=%d err=%v", post.ID, err)
		}
	}

	s.attachAuthor(ctx, post)
	return post, nil
}

// GetByID retrieves a single post with author and the viewer's like status.
func (s *PostService) GetByID(ctx context.Context, postID int64, viewerID *int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	s.attachAuthor(ctx, post)

	if viewerID != nil {
		likeStatus, err := s.postRepo.CheckLikes(ctx, *viewerID, []int64{postID})
		if err != nil {
			log.Printf("[PostService] check like status FAILED: %v", err)
		} else {
			post.IsLiked = likeStatus[postID]
		}
	}

	return post, nil
}

// Update applies a partial edit to the caller's own post. A changed
// location re-derives the keywords; clearing it clears them.
func (s *PostService) Update(ctx context.Context, postID, userID int64, req model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, model.ErrNotPostOwner
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, model.ErrTitleRequired
		}
		if len(title) > model.MaxPostTitleLength {
			return nil, model.ErrTitleTooLong
		}
		post.Title = title
	}
	if req.Content != nil {
		if len(*req.Content) > model.MaxPostContentLength {
			return nil, model.ErrPostContentLong
		}
		post.Content = *req.Content
	}
	if req.ImageURL != nil {
		post.ImageURL = req.ImageURL
	}
	if req.Location != nil {
		loc := strings.TrimSpace(*req.Location)
		if loc == "" {
			post.LocationName = nil
			post.LocationKeywords = nil
		} else {
			post.LocationName = &loc
			post.LocationKeywords = DeriveLocationKeywords(loc)
		}
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.attachAuthor(ctx, post)
	return post, nil
}

// Delete removes a post (ownership enforced in the repository) and
// publishes the event that purges it from follower timelines.
func (s *PostService) Delete(ctx context.Context, postID, userID int64) error {
	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	if s.publisher != nil {
		event := queue.NewPostDeletedEvent(postID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
			log.Printf("[PostService] publish PostDeleted FAILED: post=%d err=%v", postID, err)
		}
	}

	return nil
}

// GetUserPosts lists a user's own threads, newest first.
func (s *PostService) GetUserPosts(ctx context.Context, userID int64, limit int, viewerID *int64) ([]model.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	posts, err := s.postRepo.GetUserPosts(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	s.enrichPosts(ctx, posts, viewerID)
	return posts, nil
}

// List returns the newest posts across all authors.
func (s *PostService) List(ctx context.Context, limit int, viewerID *int64) ([]model.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	posts, err := s.postRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.enrichPosts(ctx, posts, viewerID)
	return posts, nil
}

// Search finds posts matching a keyword across title, content and location.
func (s *PostService) Search(ctx context.Context, query string, limit int, viewerID *int64) ([]model.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Post{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	posts, err := s.postRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	s.enrichPosts(ctx, posts, viewerID)
	return posts, nil
}

// Like records a like and bumps like_count in one transaction. A second
// like from the same user fails with ErrAlreadyLiked instead of double
// counting.
func (s *PostService) Like(ctx context.Context, postID, userID int64) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.postRepo.Like(ctx, tx, postID, userID); err != nil {
		return err
	}
	if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil {
		authorID, err := s.postRepo.GetAuthorID(ctx, postID)
		if err == nil && authorID != userID {
			event := queue.NewPostLikedEvent(postID, authorID, userID)
			if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
				log.Printf("[PostService] publish PostLiked FAILED: %v", err)
			}
		}
	}

	return nil
}

// Unlike removes a like and restores like_count. Unliking a post that was
// never liked fails with ErrNotLiked and leaves the counter untouched.
func (s *PostService) Unlike(ctx context.Context, postID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.postRepo.Unlike(ctx, tx, postID, userID); err != nil {
		return err
	}
	if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, -1); err != nil {
		return err
	}

	return tx.Commit()
}

// GetPostLikers returns the paginated list of users who liked a post.
func (s *PostService) GetPostLikers(ctx context.Context, postID int64, cursor *string, limit int) (*model.LikersListResponse, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	users, nextCursor, err := s.postRepo.GetPostLikers(ctx, postID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("get post likers: %w", err)
	}

	return &model.LikersListResponse{
		Users:      users,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// Comment adds a comment (or reply) and bumps comment_count in one
// transaction. Replies must name a parent that belongs to the same post.
func (s *PostService) Comment(ctx context.Context, postID, userID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrContentRequired
	}
	if len(content) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	if req.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, model.ErrCommentNotFound
		}
	}

	comment := &model.Comment{
		PostID:          postID,
		UserID:          userID,
		Content:         content,
		ParentCommentID: req.ParentCommentID,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.commentRepo.Create(ctx, tx, comment); err != nil {
		return nil, err
	}
	if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil {
		authorID, err := s.postRepo.GetAuthorID(ctx, postID)
		if err == nil && authorID != userID {
			event := queue.NewPostCommentedEvent(postID, authorID, userID, comment.ID)
			if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
				log.Printf("[PostService] publish PostCommented FAILED: %v", err)
			}
		}
	}

	s.attachCommentAuthors(ctx, []*model.Comment{comment})
	return comment, nil
}

// DeleteComment removes a comment owned by the caller, restoring the
// post's comment_count.
func (s *PostService) DeleteComment(ctx context.Context, commentID, userID int64) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return model.ErrNotCommentOwner
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	postID, removed, err := s.commentRepo.Delete(ctx, tx, commentID)
	if err != nil {
		return err
	}
	if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, -int(removed)); err != nil {
		return err
	}

	return tx.Commit()
}

// GetComments returns the top-level comments of a post with their replies.
func (s *PostService) GetComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, err := s.commentRepo.GetTopLevel(ctx, postID)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*model.Comment, len(comments))
	for i := range comments {
		ptrs[i] = &comments[i]
	}
	s.attachCommentAuthors(ctx, ptrs)
	return comments, nil
}

// GetReplies returns the replies under a comment, oldest first.
func (s *PostService) GetReplies(ctx context.Context, commentID int64) ([]model.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}

	replies, err := s.commentRepo.GetReplies(ctx, commentID)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*model.Comment, len(replies))
	for i := range replies {
		ptrs[i] = &replies[i]
	}
	s.attachCommentAuthors(ctx, ptrs)
	return replies, nil
}

// LikeComment records a comment like and bumps its like_count.
func (s *PostService) LikeComment(ctx context.Context, commentID, userID int64) error {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.commentRepo.Like(ctx, tx, commentID, userID); err != nil {
		return err
	}
	if err := s.commentRepo.IncrementLikeCount(ctx, tx, commentID, 1); err != nil {
		return err
	}

	return tx.Commit()
}

// UnlikeComment removes a comment like and restores its like_count.
func (s *PostService) UnlikeComment(ctx context.Context, commentID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.commentRepo.Unlike(ctx, tx, commentID, userID); err != nil {
		return err
	}
	if err := s.commentRepo.IncrementLikeCount(ctx, tx, commentID, -1); err != nil {
		return err
	}

	return tx.Commit()
}

// Share appends a share record and bumps share_count in one transaction.
// Sharing is not deduplicated; each share counts.
func (s *PostService) Share(ctx context.Context, postID, userID int64, req model.SharePostRequest) (*model.Share, error) {
	if req.Caption != nil && len(*req.Caption) > model.MaxShareCaptionLength {
		return nil, model.ErrShareCaptionTooLong
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	share := &model.Share{
		PostID:  postID,
		UserID:  userID,
		Caption: req.Caption,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.shareRepo.Create(ctx, tx, share); err != nil {
		return nil, err
	}
	if err := s.postRepo.IncrementShareCount(ctx, tx, postID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil {
		authorID, err := s.postRepo.GetAuthorID(ctx, postID)
		if err == nil && authorID != userID {
			event := queue.NewPostSharedEvent(postID, authorID, userID)
			if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
				log.Printf("[PostService] publish PostShared FAILED: %v", err)
			}
		}
	}

	return share, nil
}

// GetShares lists who re-shared a post, newest first.
func (s *PostService) GetShares(ctx context.Context, postID int64) ([]model.Share, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	shares, err := s.shareRepo.GetByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return []model.Share{}, nil
	}

	sharerIDs := make([]int64, 0, len(shares))
	seen := make(map[int64]bool)
	for _, sh := range shares {
		if !seen[sh.UserID] {
			seen[sh.UserID] = true
			sharerIDs = append(sharerIDs, sh.UserID)
		}
	}
	if summaries, err := s.userRepo.GetSummariesByIDs(ctx, sharerIDs); err == nil {
		for i := range shares {
			if summary, ok := summaries[shares[i].UserID]; ok {
				a := summary
				shares[i].Author = &a
			}
		}
	}

	return shares, nil
}

func (s *PostService) attachAuthor(ctx context.Context, post *model.Post) {
	author, err := s.userRepo.GetByID(ctx, post.UserID)
	if err != nil {
		return
	}
	post.Author = &model.UserSummary{
		ID:          author.ID,
		Username:    author.Username,
		DisplayName: author.DisplayName,
		AvatarURL:   author.AvatarURL,
	}
}

// enrichPosts attaches authors (one batch query) and the viewer's like
// status (one batch query) to a post list.
func (s *PostService) enrichPosts(ctx context.Context, posts []model.Post, viewerID *int64) {
	if len(posts) == 0 {
		return
	}

	authorIDs := make([]int64, 0, len(posts))
	postIDs := make([]int64, 0, len(posts))
	seen := make(map[int64]bool)
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	if summaries, err := s.userRepo.GetSummariesByIDs(ctx, authorIDs); err == nil {
		for i := range posts {
			if summary, ok := summaries[posts[i].UserID]; ok {
				a := summary
				posts[i].Author = &a
			}
		}
	}

	if viewerID != nil {
		if likeMap, err := s.postRepo.CheckLikes(ctx, *viewerID, postIDs); err == nil {
			for i := range posts {
				posts[i].IsLiked = likeMap[posts[i].ID]
			}
		}
	}
}

func (s *PostService) attachCommentAuthors(ctx context.Context, comments []*model.Comment) {
	if len(comments) == 0 {
		return
	}

	authorIDs := make([]int64, 0, len(comments))
	seen := make(map[int64]bool)
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			authorIDs = append(authorIDs, c.UserID)
		}
	}

	summaries, err := s.userRepo.GetSummariesByIDs(ctx, authorIDs)
	if err != nil {
		return
	}
	for _, c := range comments {
		if summary, ok := summaries[c.UserID]; ok {
			a := summary
			c.Author = &a
		}
	}
}
