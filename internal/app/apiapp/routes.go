package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/auth"
	conversationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/conversations"
	inboxsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/inbox"
	matchessvc "github.com/ivankudzin/tgapp/matchengine/internal/services/matches"
	notificationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/notifications"
	swipesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/swipes"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/handlers"
)

type Dependencies struct {
	Tokens              *authsvc.JWTManager
	SwipeService        *swipesvc.Service
	InboxService        *inboxsvc.Service
	MatchService        *matchessvc.Service
	ConversationService *conversationsvc.Service
	NotificationService *notificationsvc.Service
	HealthChecks        map[string]handlers.Pinger
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	discoverHandler := handlers.NewDiscoverHandler(deps.InboxService)
	likesHandler := handlers.NewLikesHandler(deps.InboxService)
	matchesHandler := handlers.NewMatchesHandler(deps.InboxService, deps.MatchService)
	messagesHandler := handlers.NewMessagesHandler(deps.ConversationService)
	notificationsHandler := handlers.NewNotificationsHandler(deps.NotificationService)
	authMW := AuthMiddleware(deps.Tokens, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Get("/discover", discoverHandler.Handle)
		r.Get("/users/discover", discoverHandler.Handle)

		r.Post("/swipes", swipeHandler.Handle)
		r.Get("/likes/received", likesHandler.Received)
		r.Get("/swipes/likes-me", likesHandler.Received)

		r.Get("/matches", matchesHandler.List)
		r.Post("/matches/{match_id}/unmatch", matchesHandler.Unmatch)
		r.Get("/matches/{match_id}/messages", messagesHandler.List)
		r.Get("/messages/{match_id}", messagesHandler.List)
		r.Post("/messages", messagesHandler.Post)

		r.Get("/notifications", notificationsHandler.List)
		r.Get("/notifications/unread-count", notificationsHandler.UnreadCount)
		r.Put("/notifications/read-all", notificationsHandler.MarkAllRead)
		r.Put("/notifications/{id}/read", notificationsHandler.MarkRead)
	})
}
