package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"freets-backend/internal/handler"
	"freets-backend/internal/httputil"
	authmw "freets-backend/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	CircleHandler       *handler.CircleHandler
	AlbumHandler        *handler.AlbumHandler
	FreetHandler        *handler.FreetHandler
	CommentHandler      *handler.CommentHandler
	FeedHandler         *handler.FeedHandler
	MediaHandler        *handler.MediaHandler
	NotificationHandler *handler.NotificationHandler
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

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Public user endpoints with optional authentication
	r.Route("/users", func(r chi.Router) {
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/search", cfg.UserHandler.Search)
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}", cfg.UserHandler.GetProfile)
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/following", cfg.FollowHandler.GetFollowing)
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/freets", cfg.FreetHandler.GetUserFreets)
	})

	// Public freet endpoints with optional authentication
	r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/freets/{id}", cfg.FreetHandler.GetByID)
	r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/freets/{id}/comments", cfg.CommentHandler.List)
	r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/freets/{id}/likes", cfg.FreetHandler.GetLikers)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)

		// Auth actions that require authentication
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Follow/unfollow actions
		r.Post("/users/{id}/follow", cfg.FollowHandler.Follow)
		r.Delete("/users/{id}/follow", cfg.FollowHandler.Unfollow)

		// Feed endpoint
		r.Get("/feed", cfg.FeedHandler.GetFeed)

		// Freet endpoints
		r.Post("/freets", cfg.FreetHandler.Create)
		r.Delete("/freets/{id}", cfg.FreetHandler.Delete)
		r.Post("/freets/{id}/like", cfg.FreetHandler.Like)
		r.Delete("/freets/{id}/like", cfg.FreetHandler.Unlike)
		r.Post("/freets/{id}/comments", cfg.CommentHandler.Create)
		r.Patch("/freets/{id}/comments/{commentId}", cfg.CommentHandler.Update)
		r.Delete("/freets/{id}/comments/{commentId}", cfg.CommentHandler.Delete)

		// Circle endpoints (owner-only surface)
		r.Route("/circles", func(r chi.Router) {
			r.Post("/", cfg.CircleHandler.Create)
			r.Get("/", cfg.CircleHandler.List)
			r.Delete("/{id}", cfg.CircleHandler.Delete)
			r.Get("/{id}/members", cfg.CircleHandler.GetMembers)
			r.Post("/{id}/members", cfg.CircleHandler.AddMember)
			r.Delete("/{id}/members/{username}", cfg.CircleHandler.RemoveMember)
		})

		// Album endpoints (reads gated by the visibility engine)
		r.Route("/albums", func(r chi.Router) {
			r.Post("/", cfg.AlbumHandler.Create)
			r.Get("/", cfg.AlbumHandler.ListMine)
			r.Get("/visible", cfg.AlbumHandler.ListVisible)
			r.Get("/{id}", cfg.AlbumHandler.Get)
			r.Delete("/{id}", cfg.AlbumHandler.Delete)
			r.Get("/{id}/circles", cfg.AlbumHandler.ListCircles)
			r.Post("/{id}/circles", cfg.AlbumHandler.AddCircle)
			r.Delete("/{id}/circles/{name}", cfg.AlbumHandler.RemoveCircle)
			r.Get("/{id}/freets", cfg.AlbumHandler.GetFreets)
			r.Post("/{id}/freets", cfg.AlbumHandler.AddFreet)
			r.Delete("/{id}/freets/{freetID}", cfg.AlbumHandler.RemoveFreet)
			r.Get("/{id}/viewers", cfg.AlbumHandler.ListViewers)
		})

		// Media endpoints (avatar upload + direct-to-R2 presigned uploads)
		r.Post("/media/avatar", cfg.MediaHandler.UploadAvatar)
		r.Post("/media/freets/presign", cfg.MediaHandler.PresignFreetUpload)

		// Notification endpoints
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Patch("/read", cfg.NotificationHandler.MarkRead)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
			r.Get("/unread-count", cfg.NotificationHandler.GetUnreadCount)
		})

		// Device token endpoints (push notifications)
		r.Post("/devices/token", cfg.NotificationHandler.RegisterToken)
		r.Delete("/devices/token", cfg.NotificationHandler.RemoveToken)
	})

	return r
}
