//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"parley/config"
	"parley/internal/api"
	"parley/internal/auth"
	"parley/internal/chat"
	"parley/internal/event"
	"parley/internal/friendship"
	"parley/internal/invitation"
	"parley/internal/message"
	"parley/internal/notification"
	"parley/internal/user"
)

var repositorySet = wire.NewSet(
	user.NewRepository,
	friendship.NewRepository,
	chat.NewRepository,
	invitation.NewRepository,
	message.NewRepository,
	notification.NewRepository,
)

var serviceSet = wire.NewSet(
	notification.NewService,
	wire.Bind(new(friendship.Notifier), new(*notification.Service)),
	wire.Bind(new(invitation.Notifier), new(*notification.Service)),
	wire.Bind(new(message.Notifier), new(*notification.Service)),

	friendship.NewService,
	wire.Bind(new(chat.FriendOracle), new(*friendship.Service)),
	wire.Bind(new(message.BlockOracle), new(*friendship.Service)),

	chat.NewService,
	chat.NewRoster,
	invitation.NewService,
	message.NewService,
	provideUserService,
)

var handlerSet = wire.NewSet(
	provideJWT,
	auth.NewMiddleware,
	auth.NewHandler,
	user.NewHandler,
	friendship.NewHandler,
	chat.NewHandler,
	invitation.NewHandler,
	message.NewHandler,
	notification.NewHandler,
	provideHandlers,
)

var publisherSet = wire.NewSet(
	event.NewRedisPublisher,
	wire.Bind(new(event.Publisher), new(*event.RedisPublisher)),
)

func InitializeServer(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *api.Server {
	wire.Build(
		repositorySet,
		publisherSet,
		serviceSet,
		handlerSet,
		api.NewServer,
	)
	return nil
}
