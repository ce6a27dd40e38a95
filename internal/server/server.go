// Package server wires handlers, middleware and routes together and owns the
// HTTP server's lifecycle. All dependency injection happens here, in one
// place: main.go only builds a Config and calls Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/handler"
	"github.com/socialnet-app/socialnet/internal/middleware"
	sqliteRepo "github.com/socialnet-app/socialnet/internal/repository/sqlite"
	"github.com/socialnet-app/socialnet/internal/service"
)

// sessionPurgeInterval is how often expired sessions get swept from the
// database. Expired sessions are also rejected lazily on use, so this only
// bounds table growth.
const sessionPurgeInterval = time.Hour

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	UploadDir string

	// StateSecret signs the OAuth state parameter. Required only when the
	// GitHub fields are set.
	StateSecret        string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server holds the router and the resources that must be released on
// shutdown.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *auth.SessionManager
}

// New opens the database, assembles the full dependency chain and registers
// all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds the dependency chain and the route table.
//
// The one sqlite.DB value implements every repository interface, so each
// service just receives s.db. Handlers receive services, never repositories.
//
// Route groups by auth requirement:
//   - RequireAuth: anything that writes, plus private reads (own profile,
//     notifications, messages).
//   - OptionalAuth: public reads — a resolved session annotates per-viewer
//     flags (liked, isFollowing), an absent one doesn't.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Auth plumbing ===
	s.sessions = auth.NewSessionManager(s.db)

	var (
		github *auth.GitHubProvider
		states *auth.StateSigner
	)
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		var err error
		states, err = auth.NewStateSigner(s.config.StateSecret)
		if err != nil {
			return fmt.Errorf("creating state signer: %w", err)
		}
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Info("GitHub OAuth not configured, /auth/github routes disabled")
	}

	// === Services ===
	authService := service.NewAuthService(s.db, auth.NewPasswordService(), s.logger)
	postService := service.NewPostService(s.db, s.db, s.db, s.logger)
	engagementService := service.NewEngagementService(s.db, s.db, s.db, s.db, s.db, s.logger)
	profileService := service.NewProfileService(s.db, s.db, s.db, s.logger)
	notificationService := service.NewNotificationService(s.db, s.logger)
	messageService := service.NewMessageService(s.db, s.db, s.db, s.logger)

	// === Handlers ===
	images, err := handler.NewImageStore(s.config.UploadDir)
	if err != nil {
		return fmt.Errorf("creating image store: %w", err)
	}

	authHandler := handler.NewAuthHandler(authService, s.sessions, github, states, s.logger)
	postHandler := handler.NewPostHandler(postService, engagementService, images, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, postService, s.logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, s.logger)
	messageHandler := handler.NewMessageHandler(messageService, s.logger)

	requireAuth := auth.RequireAuth(s.sessions)
	optionalAuth := auth.OptionalAuth(s.sessions)

	// Brute-force protection on the credential endpoints only; the rest of
	// the API stays unthrottled.
	loginLimiter := middleware.NewRateLimiter(1, 5)

	// === Uploaded images ===
	fileServer := http.FileServer(http.Dir(s.config.UploadDir))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	// === OAuth (browser-facing, outside /api) ===
	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	s.router.Route("/api", func(r chi.Router) {
		// --- Auth ---
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Limit)
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
		})
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.With(optionalAuth).Get("/auth/check", authHandler.HandleCheck)

		// --- Public reads ---
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/posts", postHandler.HandleFeed)
			r.Get("/posts/{id}", postHandler.HandleGet)
			r.Get("/posts/{id}/comments", postHandler.HandleComments)
			r.Get("/posts/user/{username}", postHandler.HandleByUser)
			r.Get("/posts/user/{username}/media", postHandler.HandleMediaByUser)
			r.Get("/posts/user/{username}/likes", postHandler.HandleLikedByUser)
			r.Get("/profile/{username}", profileHandler.HandleGet)
			r.Get("/profile/{username}/followers", profileHandler.HandleFollowers)
			r.Get("/profile/{username}/following", profileHandler.HandleFollowing)
			r.Get("/profile/{username}/stats", profileHandler.HandleStats)
		})

		// --- Authenticated ---
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/posts", postHandler.HandleCreate)
			r.Put("/posts/{id}", postHandler.HandleUpdate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Post("/posts/{id}/like", postHandler.HandleLike)
			r.Delete("/posts/{id}/like", postHandler.HandleUnlike)
			r.Post("/posts/{id}/react", postHandler.HandleReact)
			r.Delete("/posts/{id}/react", postHandler.HandleRemoveReaction)
			r.Post("/posts/{id}/share", postHandler.HandleShare)
			r.Delete("/posts/{id}/share", postHandler.HandleUnshare)
			r.Post("/posts/{id}/comment", postHandler.HandleAddComment)
			r.Post("/comments/{id}/react", postHandler.HandleCommentReact)
			r.Delete("/comments/{id}", postHandler.HandleDeleteComment)

			r.Get("/profile", profileHandler.HandleOwn)
			r.Put("/profile/update", profileHandler.HandleUpdate)
			r.Post("/profile/follow/{username}", profileHandler.HandleFollow)
			r.Post("/profile/unfollow/{username}", profileHandler.HandleUnfollow)

			r.Get("/notifications", notificationHandler.HandleList)
			r.Post("/notifications/read", notificationHandler.HandleMarkAllRead)
			r.Post("/notifications/{id}/read", notificationHandler.HandleMarkRead)

			r.Get("/messages", messageHandler.HandleConversations)
			r.Get("/messages/{username}", messageHandler.HandleThread)
			r.Post("/messages/{username}", messageHandler.HandleSend)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background sweep of expired sessions.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go s.purgeSessions(purgeCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.PurgeExpired(ctx)
			if err != nil {
				s.logger.Error("purging expired sessions", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Info("purged expired sessions", slog.Int("count", n))
			}
		}
	}
}
