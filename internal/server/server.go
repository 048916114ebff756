// Package server wires the application together: router, middleware, the
// MongoDB handle, and every route definition.
//
// COMPOSITION ROOT:
// All dependency construction happens here, in one place:
//
//	mongodb.DB → repositories → services → handlers → routes
//
// Each layer receives only what it needs. Services get repository
// interfaces, handlers get services, and nothing below the handler layer
// ever sees HTTP.
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

	"github.com/sakif/devforum/internal/auth"
	"github.com/sakif/devforum/internal/handler"
	"github.com/sakif/devforum/internal/middleware"
	"github.com/sakif/devforum/internal/repository/mongodb"
	"github.com/sakif/devforum/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	MongoURI  string
	MongoDB   string
	JWTSecret string

	// OAuth client credentials. A provider with an empty client id is
	// simply not registered; the API sign-in path still works without it.
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string // external URL for OAuth callbacks
}

// Server owns the router and the database handle. The handle is connected
// once in Start and closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *mongodb.DB
}

// New assembles the full dependency chain and registers all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("configuring tokens: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     mongodb.New(cfg.MongoURI, cfg.MongoDB),
	}
	s.setupRoutes(tokens)
	return s, nil
}

// setupRoutes registers middleware and the route tree.
//
// MIDDLEWARE ORDER:
//  1. RequestID — tags each request for log correlation
//  2. RealIP — unwraps X-Forwarded-For behind a proxy
//  3. Recoverer — a panicking handler becomes a 500, not a dead process
//  4. Logger — one structured line per request
//
// Writes sit behind RequireAuth; public reads behind OptionalAuth so a
// signed-in reader still gets attributed views.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Repositories all share the one DB handle; the handle itself is the
	// transaction runner.
	var (
		users        = s.db.Users()
		accounts     = s.db.Accounts()
		questions    = s.db.Questions()
		tags         = s.db.Tags()
		tagQuestions = s.db.TagQuestions()
		answers      = s.db.Answers()
		votes        = s.db.Votes()
		interactions = s.db.Interactions()
	)

	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, users, accounts, tokens, passwords, s.logger)
	userService := service.NewUserService(users, s.logger)
	accountService := service.NewAccountService(accounts, s.logger)
	questionService := service.NewQuestionService(s.db, questions, tags, tagQuestions, answers, votes, interactions, s.logger)
	answerService := service.NewAnswerService(s.db, answers, questions, votes, interactions, s.logger)
	voteService := service.NewVoteService(s.db, votes, questions, answers, interactions, s.logger)
	tagService := service.NewTagService(tags, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.oauthProviders(), s.logger)
	userHandler := handler.NewUserHandler(userService)
	accountHandler := handler.NewAccountHandler(accountService)
	questionHandler := handler.NewQuestionHandler(questionService)
	answerHandler := handler.NewAnswerHandler(answerService)
	voteHandler := handler.NewVoteHandler(voteService)
	tagHandler := handler.NewTagHandler(tagService, questionService)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	// Browser OAuth flow lives outside /api: it speaks redirects, not JSON.
	s.router.Get("/auth/{provider}/login", authHandler.HandleProviderLogin)
	s.router.Get("/auth/{provider}/callback", authHandler.HandleProviderCallback)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin-with-oauth", authHandler.HandleSignInWithOAuth)
			r.Post("/signup", authHandler.HandleSignUp)
			r.Post("/signin", authHandler.HandleSignIn)
			r.Post("/signout", authHandler.HandleSignOut)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.HandleList)
			r.With(requireAuth).Post("/", userHandler.HandleCreate)
			r.Get("/{id}", userHandler.HandleGet)
			r.With(requireAuth).Put("/{id}", userHandler.HandleUpdate)
			r.With(requireAuth).Delete("/{id}", userHandler.HandleDelete)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", accountHandler.HandleList)
			r.Post("/", accountHandler.HandleCreate)
			r.Post("/provider", accountHandler.HandleGetByProvider)
			r.Get("/{id}", accountHandler.HandleGet)
			r.Delete("/{id}", accountHandler.HandleDelete)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.HandleList)
			r.With(requireAuth).Post("/", questionHandler.HandleCreate)
			r.With(optionalAuth).Get("/{id}", questionHandler.HandleGet)
			r.With(requireAuth).Put("/{id}", questionHandler.HandleEdit)
			r.With(requireAuth).Delete("/{id}", questionHandler.HandleDelete)
			r.Get("/{id}/answers", answerHandler.HandleListByQuestion)
			r.With(requireAuth).Post("/{id}/answers", answerHandler.HandleCreateForQuestion)
		})

		r.Route("/answers", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", answerHandler.HandleCreate)
			r.Delete("/{id}", answerHandler.HandleDelete)
		})

		r.Route("/votes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", voteHandler.HandleCast)
			r.Get("/state", voteHandler.HandleState)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagHandler.HandleList)
			r.Get("/{id}", tagHandler.HandleGet)
			r.Get("/{id}/questions", tagHandler.HandleListQuestions)
		})
	})
}

// oauthProviders builds the provider registry from whatever credentials are
// configured.
func (s *Server) oauthProviders() map[string]auth.Provider {
	providers := map[string]auth.Provider{}
	if s.config.GitHubClientID != "" {
		providers["github"] = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.BaseURL+"/auth/github/callback",
		)
	}
	if s.config.GoogleClientID != "" {
		providers["google"] = auth.NewGoogleProvider(
			s.config.GoogleClientID,
			s.config.GoogleClientSecret,
			s.config.BaseURL+"/auth/google/callback",
		)
	}
	return providers
}

// Start connects the database, serves until a signal arrives, then shuts
// down gracefully: stop accepting connections, drain in-flight requests,
// close the MongoDB handle.
func (s *Server) Start() error {
	connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.db.Connect(connectCtx); err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.MongoDB),
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
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()
	if err := s.db.Close(closeCtx); err != nil {
		return fmt.Errorf("closing MongoDB handle: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
