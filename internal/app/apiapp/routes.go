package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/genemasaka/kenyan-connections-circle/internal/config"
	"github.com/genemasaka/kenyan-connections-circle/internal/realtime"
	authsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/auth"
	blockingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/blocking"
	matchingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/matching"
	mediasvc "github.com/genemasaka/kenyan-connections-circle/internal/services/media"
	messagingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/messaging"
	profilessvc "github.com/genemasaka/kenyan-connections-circle/internal/services/profiles"
	"github.com/genemasaka/kenyan-connections-circle/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService      *authsvc.Service
	ProfileService   *profilessvc.Service
	MatchingService  *matchingsvc.Service
	MessagingService *messagingsvc.Service
	BlockingService  *blockingsvc.Service
	MediaService     *mediasvc.Service
	Hub              *realtime.Hub
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService, deps.MediaService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchingService)
	messagesHandler := handlers.NewMessagesHandler(deps.MessagingService)
	blocksHandler := handlers.NewBlocksHandler(deps.BlockingService)
	wsHandler := handlers.NewWSHandler(deps.Hub, deps.Logger)
	healthHandler := handlers.NewHealthHandler()

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/password/forgot", authHandler.ForgotPassword)
		r.Post("/password/reset", authHandler.ResetPassword)
		if deps.Config.Auth.DemoMode {
			r.Post("/demo", authHandler.Demo)
		}
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/me", profileHandler.Me)
		r.Patch("/me", profileHandler.UpdateMe)
		r.Post("/photo", profileHandler.UploadPhoto)
		r.Get("/{id}", profileHandler.Get)
	})

	r.With(authMW).Get("/suggestions", matchesHandler.Suggestions)

	r.Route("/matches", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", matchesHandler.List)
		r.Get("/pending", matchesHandler.Pending)
		r.Post("/request", matchesHandler.Request)
		r.Post("/{id}/accept", matchesHandler.Accept)
		r.Post("/{id}/reject", matchesHandler.Reject)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", messagesHandler.Send)
		// {id} is the counterpart user for GET and read, the message
		// for DELETE; chi requires one wildcard name per segment.
		r.Get("/{id}", messagesHandler.Thread)
		r.Post("/{id}/read", messagesHandler.MarkRead)
		r.Delete("/{id}", messagesHandler.Delete)
	})
	r.With(authMW).Get("/conversations", messagesHandler.Conversations)

	r.Route("/blocks", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", blocksHandler.List)
		r.Post("/{userID}", blocksHandler.Block)
		r.Delete("/{userID}", blocksHandler.Unblock)
	})
	r.With(authMW).Post("/reports", blocksHandler.Report)

	r.With(authMW).Get("/ws", wsHandler.Connect)
}
