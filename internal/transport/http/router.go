package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"travelthreads/internal/handler"
	"travelthreads/internal/httputil"
	"travelthreads/internal/repository"
	authmw "travelthreads/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	FeedHandler         *handler.FeedHandler
	PostHandler         *handler.PostHandler
	CommentHandler      *handler.CommentHandler
	EventHandler        *handler.EventHandler
	MessageHandler      *handler.MessageHandler
	NotificationHandler *handler.NotificationHandler
	AdminHandler        *handler.AdminHandler
	MediaHandler        *handler.MediaHandler
	UserRepo            repository.UserRepository
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	optionalAuth := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Public user endpoints with optional authentication
	r.Route("/users", func(r chi.Router) {
		r.With(optionalAuth).Get("/search", cfg.UserHandler.Search)
		r.With(optionalAuth).Get("/{id}", cfg.UserHandler.GetProfile)
		r.With(optionalAuth).Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
		r.With(optionalAuth).Get("/{id}/following", cfg.FollowHandler.GetFollowing)
		r.With(optionalAuth).Get("/{id}/posts", cfg.PostHandler.GetUserPosts)
	})

	// Public post endpoints with optional authentication
	r.Route("/posts", func(r chi.Router) {
		r.With(optionalAuth).Get("/", cfg.PostHandler.List)
		r.With(optionalAuth).Get("/search", cfg.PostHandler.Search)
		r.With(optionalAuth).Get("/{id}", cfg.PostHandler.GetByID)
		r.Get("/{id}/comments", cfg.CommentHandler.List)
		r.Get("/{id}/likes", cfg.PostHandler.GetLikers)
		r.Get("/{id}/shares", cfg.PostHandler.GetShares)
	})
	r.Get("/comments/{id}/replies", cfg.CommentHandler.Replies)

	// Public event endpoints
	r.Route("/events", func(r chi.Router) {
		r.Get("/", cfg.EventHandler.List)
		r.Get("/calendar", cfg.EventHandler.GetByMonth)
		r.Get("/upcoming", cfg.EventHandler.Upcoming)
		r.Get("/popular", cfg.EventHandler.Popular)
		r.Get("/{id}", cfg.EventHandler.GetByID)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Patch("/me", cfg.UserHandler.UpdateProfile)
		r.Get("/me/events/attending", cfg.EventHandler.GetAttending)
		r.Get("/me/events/interested", cfg.EventHandler.GetInterested)

		// Auth actions that require authentication
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Social graph
		r.Post("/users/{id}/follow", cfg.FollowHandler.Follow)
		r.Delete("/users/{id}/follow", cfg.FollowHandler.Unfollow)

		// Feed endpoint
		r.Get("/feed", cfg.FeedHandler.GetFeed)

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Create)
		r.Patch("/posts/{id}", cfg.PostHandler.Update)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/like", cfg.PostHandler.Like)
		r.Delete("/posts/{id}/like", cfg.PostHandler.Unlike)
		r.Post("/posts/{id}/share", cfg.PostHandler.Share)
		r.Post("/posts/{id}/comments", cfg.CommentHandler.Create)
		r.Delete("/comments/{id}", cfg.CommentHandler.Delete)
		r.Post("/comments/{id}/like", cfg.CommentHandler.Like)
		r.Delete("/comments/{id}/like", cfg.CommentHandler.Unlike)

		// Event membership
		r.Post("/events", cfg.EventHandler.Create)
		r.Delete("/events/{id}", cfg.EventHandler.Delete)
		r.Post("/events/{id}/attend", cfg.EventHandler.Attend)
		r.Delete("/events/{id}/attend", cfg.EventHandler.Unattend)
		r.Post("/events/{id}/interest", cfg.EventHandler.MarkInterested)
		r.Delete("/events/{id}/interest", cfg.EventHandler.UnmarkInterested)

		// Direct messages
		r.Post("/users/{id}/messages", cfg.MessageHandler.Send)
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", cfg.MessageHandler.ListConversations)
			r.Get("/{id}/messages", cfg.MessageHandler.GetMessages)
			r.Post("/{id}/read", cfg.MessageHandler.MarkRead)
		})

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/unread-count", cfg.NotificationHandler.UnreadCount)
			r.Post("/read", cfg.NotificationHandler.MarkRead)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
			r.Delete("/{id}", cfg.NotificationHandler.Delete)
		})

		// Reports can be filed by any signed-in user
		r.Post("/reports", cfg.AdminHandler.CreateReport)

		// Media uploads
		r.Post("/media/avatar", cfg.MediaHandler.UploadAvatar)
		r.Post("/media/posts", cfg.MediaHandler.UploadPostImage)
		r.Post("/media/messages", cfg.MediaHandler.UploadMessageImage)

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.AdminMiddleware(cfg.UserRepo))

			r.Post("/users/{id}/block", cfg.AdminHandler.BlockUser)
			r.Delete("/users/{id}/block", cfg.AdminHandler.UnblockUser)
			r.Post("/users/{id}/admin", cfg.AdminHandler.GrantAdmin)
			r.Delete("/users/{id}/admin", cfg.AdminHandler.RevokeAdmin)
			r.Delete("/users/{id}", cfg.AdminHandler.DeleteUser)
			r.Get("/reports", cfg.AdminHandler.ListReports)
			r.Post("/reports/{id}/review", cfg.AdminHandler.ReviewReport)
			r.Delete("/content", cfg.AdminHandler.DeleteContent)
			r.Get("/audit-logs", cfg.AdminHandler.ListAuditLogs)
		})
	})

	return r
}
