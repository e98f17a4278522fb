package di

import (
	"parley/config"
	"parley/internal/api"
	"parley/internal/auth"
	"parley/internal/chat"
	"parley/internal/friendship"
	"parley/internal/invitation"
	"parley/internal/message"
	"parley/internal/notification"
	"parley/internal/user"
	"parley/pkg/jwt"
)

func provideJWT(cfg *config.Config) *jwt.JWT {
	return jwt.NewJWT(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

// provideUserService registers the services that clean up after a
// deleted account.
func provideUserService(repo user.Repository, cfg *config.Config, friendships *friendship.Service, messages *message.Service) *user.Service {
	return user.NewService(repo, cfg.MinPasswordBits, friendships, messages)
}

func provideHandlers(
	authHandler *auth.Handler,
	authMW *auth.Middleware,
	users *user.Handler,
	friendships *friendship.Handler,
	chats *chat.Handler,
	invitations *invitation.Handler,
	messages *message.Handler,
	notifications *notification.Handler,
) api.Handlers {
	return api.Handlers{
		Auth:          authHandler,
		AuthMW:        authMW,
		Users:         users,
		Friendships:   friendships,
		Chats:         chats,
		Invitations:   invitations,
		Messages:      messages,
		Notifications: notifications,
	}
}
