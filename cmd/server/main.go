package main

import (
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"parley/config"
	"parley/internal/chat"
	"parley/internal/database"
	"parley/internal/di"
	"parley/internal/friendship"
	"parley/internal/invitation"
	"parley/internal/message"
	"parley/internal/notification"
	"parley/internal/user"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	err = db.Migrate(
		&user.User{},
		&friendship.Friendship{},
		&chat.Chat{},
		&chat.Participant{},
		&invitation.Invitation{},
		&message.Message{},
		&message.MessageRead{},
		&message.Attachment{},
		&notification.Notification{},
	)
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	server := di.InitializeServer(db.DB, rdb, cfg)

	slog.Info("starting server", "port", cfg.Port)
	if err := server.Run(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
