package notification

import (
	"context"
	"fmt"
	"log/slog"

	"parley/infrastructure"
	"parley/internal/chat"
	"parley/internal/event"
	"parley/internal/user"
)

// Service records notifications and pushes them to per-user channels.
// The stored record is authoritative; a failed publish is logged and
// never rolls the record back.
type Service struct {
	repo      Repository
	users     user.Repository
	chats     chat.Repository
	publisher event.Publisher
}

func NewService(repo Repository, users user.Repository, chats chat.Repository, publisher event.Publisher) *Service {
	return &Service{repo: repo, users: users, chats: chats, publisher: publisher}
}

// MessageCreated fans out one notification per chat participant other
// than the sender.
func (s *Service) MessageCreated(ctx context.Context, messageID, chatID, senderID uint) error {
	sender, err := s.users.ByID(ctx, senderID)
	if err != nil {
		return err
	}
	participants, err := s.chats.Participants(ctx, chatID)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("New message from %s", sender.Name)
	for _, p := range participants {
		if p.UserID == senderID {
			continue
		}
		n := &Notification{
			UserID:    p.UserID,
			ChatID:    &chatID,
			MessageID: &messageID,
			Type:      TypeNewMessage,
			Content:   content,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return err
		}
		s.push(ctx, n)
	}
	return nil
}

// GroupInviteCreated notifies the invited user.
func (s *Service) GroupInviteCreated(ctx context.Context, senderID, receiverID, chatID uint) error {
	c, err := s.chats.ChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	n := &Notification{
		UserID:  receiverID,
		ChatID:  &chatID,
		Type:    TypeGroupInvite,
		Content: fmt.Sprintf("You have been invited to join group %s", c.Name),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.push(ctx, n)
	return nil
}

// FriendRequestCreated notifies the requested user.
func (s *Service) FriendRequestCreated(ctx context.Context, senderID, receiverID uint) error {
	sender, err := s.users.ByID(ctx, senderID)
	if err != nil {
		return err
	}
	n := &Notification{
		UserID:  receiverID,
		Type:    TypeFriendRequest,
		Content: fmt.Sprintf("%s sent you a friend request", sender.Name),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.push(ctx, n)
	return nil
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, callerID uint, page, size int) ([]Notification, int64, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	return s.repo.For(ctx, callerID, page, size)
}

// MarkAsRead flips the read flag on the caller's own notification.
func (s *Service) MarkAsRead(ctx context.Context, notificationID, callerID uint) error {
	n, err := s.repo.ByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != callerID {
		return infrastructure.Unauthorized("notification %d does not belong to user %d", notificationID, callerID)
	}
	if n.IsRead {
		return nil
	}
	n.IsRead = true
	return s.repo.Save(ctx, n)
}

// MarkMessageRead marks the caller's notification for a given message
// as read, if one exists.
func (s *Service) MarkMessageRead(ctx context.Context, messageID, callerID uint) error {
	n, err := s.repo.LatestByMessage(ctx, callerID, messageID, TypeNewMessage)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil
		}
		return err
	}
	if n.IsRead {
		return nil
	}
	n.IsRead = true
	return s.repo.Save(ctx, n)
}

// Delete removes the caller's own notification.
func (s *Service) Delete(ctx context.Context, notificationID, callerID uint) error {
	n, err := s.repo.ByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != callerID {
		return infrastructure.Unauthorized("notification %d does not belong to user %d", notificationID, callerID)
	}
	return s.repo.Delete(ctx, notificationID)
}

// DeleteAll clears the caller's notifications.
func (s *Service) DeleteAll(ctx context.Context, callerID uint) error {
	return s.repo.DeleteAllFor(ctx, callerID)
}

// UnreadCount returns how many of the caller's notifications are
// still unread.
func (s *Service) UnreadCount(ctx context.Context, callerID uint) (int64, error) {
	return s.repo.CountUnreadFor(ctx, callerID)
}

func (s *Service) push(ctx context.Context, n *Notification) {
	env := event.NewEnvelope(string(n.Type), n)
	if err := s.publisher.Publish(ctx, event.UserChannel(n.UserID), env); err != nil {
		slog.Error("notification publish failed", "notificationID", n.ID, "userID", n.UserID, "error", err)
	}
}
