package message

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"parley/infrastructure"
	"parley/internal/chat"
)

// Notifier is told about new messages after they are stored.
type Notifier interface {
	MessageCreated(ctx context.Context, messageID, chatID, senderID uint) error
}

// BlockOracle reports whether either user has blocked the other.
type BlockOracle interface {
	BlockedBetween(ctx context.Context, userID, otherID uint) (bool, error)
}

type Service struct {
	repo     Repository
	chats    chat.Repository
	blocks   BlockOracle
	notifier Notifier
}

func NewService(repo Repository, chats chat.Repository, blocks BlockOracle, notifier Notifier) *Service {
	return &Service{repo: repo, chats: chats, blocks: blocks, notifier: notifier}
}

type CreateInput struct {
	ChatID      uint
	Type        Type
	Content     string
	Attachments []AttachmentInput
}

type AttachmentInput struct {
	FileName    string
	ContentType string
	Size        int64
}

// Create stores a message and fans out notifications to the other
// participants. In a one-to-one chat a blocked pair, in either
// direction, cannot exchange messages.
func (s *Service) Create(ctx context.Context, callerID uint, in CreateInput) (*Message, error) {
	if in.Content == "" && len(in.Attachments) == 0 {
		return nil, infrastructure.Validation("message must have content or attachments")
	}
	if in.Type == "" {
		in.Type = TypeText
	}

	c, err := s.chats.ChatByID(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.chats.ParticipantOf(ctx, in.ChatID, callerID); err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.Unauthorized("user %d does not belong to chat %d", callerID, in.ChatID)
		}
		return nil, err
	}

	if c.Type == chat.TypeOneToOne {
		participants, err := s.chats.Participants(ctx, in.ChatID)
		if err != nil {
			return nil, err
		}
		for _, p := range participants {
			if p.UserID == callerID {
				continue
			}
			blocked, err := s.blocks.BlockedBetween(ctx, callerID, p.UserID)
			if err != nil {
				return nil, err
			}
			if blocked {
				return nil, infrastructure.Unauthorized("cannot send messages in a blocked conversation")
			}
		}
	}

	senderID := callerID
	m := &Message{
		ChatID:             in.ChatID,
		SenderID:           &senderID,
		Type:               in.Type,
		Content:            in.Content,
		SendStatus:         StatusSent,
		SenderVisibility:   VisibilityVisible,
		ReceiverVisibility: VisibilityVisible,
	}

	err = s.repo.Transaction(ctx, func(r Repository) error {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
		for _, a := range in.Attachments {
			att := &Attachment{
				MessageID:   m.ID,
				FileName:    a.FileName,
				ContentType: a.ContentType,
				Size:        a.Size,
				StorageKey:  uuid.NewString(),
			}
			if err := r.CreateAttachment(ctx, att); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("message created", "messageID", m.ID, "chatID", m.ChatID, "sender", callerID)

	if err := s.notifier.MessageCreated(ctx, m.ID, m.ChatID, callerID); err != nil {
		slog.Error("message notification failed", "messageID", m.ID, "error", err)
	}
	return m, nil
}

// MarkDelivered moves a message from SENT to DELIVERED. Only a
// non-sender participant of the chat may do this; there is no way back.
func (s *Service) MarkDelivered(ctx context.Context, messageID, callerID uint) error {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.isSender(callerID) {
		return infrastructure.Unauthorized("the sender cannot mark their own message delivered")
	}
	if err := s.requireParticipant(ctx, m.ChatID, callerID); err != nil {
		return err
	}
	if m.SendStatus == StatusDelivered {
		return infrastructure.Conflict("message %d is already delivered", messageID)
	}
	m.SendStatus = StatusDelivered
	return s.repo.Save(ctx, m)
}

// DeleteForMe hides the message on the caller's side only. The sender
// flips the sender flag, anyone else flips the receiver flag.
func (s *Service) DeleteForMe(ctx context.Context, messageID, callerID uint) error {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, m.ChatID, callerID); err != nil {
		return err
	}
	if m.isSender(callerID) {
		m.SenderVisibility = VisibilityDeleteForMe
	} else {
		m.ReceiverVisibility = VisibilityDeleteForMe
	}
	return s.repo.Save(ctx, m)
}

// DeleteForEveryone hard-deletes a message for all parties. Only the
// sender may do it, and not after hiding the message on their own side.
func (s *Service) DeleteForEveryone(ctx context.Context, messageID, callerID uint) error {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !m.isSender(callerID) {
		return infrastructure.Unauthorized("only the sender can delete a message for everyone")
	}
	if m.SenderVisibility == VisibilityDeleteForMe {
		return infrastructure.Conflict("message %d was already deleted on the sender's side", messageID)
	}
	if err := s.repo.Delete(ctx, messageID); err != nil {
		return err
	}
	slog.Info("message deleted for everyone", "messageID", messageID, "by", callerID)
	return nil
}

// MarkRead records a read receipt. Requires a delivered message, a
// non-sender caller, and the message still visible on the caller's
// side. A repeated call is a no-op.
func (s *Service) MarkRead(ctx context.Context, messageID, callerID uint) error {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.isSender(callerID) {
		return infrastructure.Unauthorized("the sender cannot mark their own message read")
	}
	if err := s.requireParticipant(ctx, m.ChatID, callerID); err != nil {
		return err
	}
	if m.SendStatus != StatusDelivered {
		return infrastructure.Conflict("message %d has not been delivered yet", messageID)
	}
	if m.ReceiverVisibility != VisibilityVisible {
		return infrastructure.Conflict("message %d is not visible to user %d", messageID, callerID)
	}
	err = s.repo.CreateRead(ctx, &MessageRead{
		MessageID: messageID,
		UserID:    callerID,
		ReadAt:    time.Now(),
	})
	if infrastructure.IsConflict(err) {
		return nil
	}
	return err
}

// ListVisible pages through the chat's messages as the caller sees
// them, oldest first.
func (s *Service) ListVisible(ctx context.Context, chatID, callerID uint, page, size int) ([]Message, int64, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	if err := s.requireParticipant(ctx, chatID, callerID); err != nil {
		return nil, 0, err
	}
	return s.repo.VisibleForUser(ctx, chatID, callerID, page, size)
}

// UnreadCount tells the sender how many participants have not read the
// message yet. The sender themselves is excluded from the count.
func (s *Service) UnreadCount(ctx context.Context, messageID, callerID uint) (int64, error) {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return 0, err
	}
	if !m.isSender(callerID) {
		return 0, infrastructure.Unauthorized("only the sender can ask for the unread count")
	}
	if m.SendStatus != StatusDelivered {
		return 0, infrastructure.Conflict("message %d has not been delivered yet", messageID)
	}
	if m.SenderVisibility != VisibilityVisible {
		return 0, infrastructure.Conflict("message %d is not visible to user %d", messageID, callerID)
	}
	total, err := s.chats.CountParticipants(ctx, m.ChatID)
	if err != nil {
		return 0, err
	}
	reads, err := s.repo.CountReads(ctx, messageID)
	if err != nil {
		return 0, err
	}
	unread := total - 1 - reads
	if unread < 0 {
		unread = 0
	}
	return unread, nil
}

// ReadersOf returns who has read the message. Only a non-sender
// participant who still sees the message may ask.
func (s *Service) ReadersOf(ctx context.Context, messageID, callerID uint) ([]MessageRead, error) {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.isSender(callerID) {
		return nil, infrastructure.Unauthorized("the sender cannot list readers of their own message")
	}
	if err := s.requireParticipant(ctx, m.ChatID, callerID); err != nil {
		return nil, err
	}
	if m.SendStatus != StatusDelivered {
		return nil, infrastructure.Conflict("message %d has not been delivered yet", messageID)
	}
	if m.ReceiverVisibility != VisibilityVisible {
		return nil, infrastructure.Conflict("message %d is not visible to user %d", messageID, callerID)
	}
	return s.repo.ReadsOf(ctx, messageID)
}

// DeleteAllForMe hides every message of a chat on the caller's side.
func (s *Service) DeleteAllForMe(ctx context.Context, chatID, callerID uint) error {
	if err := s.requireParticipant(ctx, chatID, callerID); err != nil {
		return err
	}
	return s.repo.HideAllForUser(ctx, chatID, callerID)
}

// MarkAllReadInChat records read receipts for every visible delivered
// message the caller has not read yet.
func (s *Service) MarkAllReadInChat(ctx context.Context, chatID, callerID uint) error {
	if err := s.requireParticipant(ctx, chatID, callerID); err != nil {
		return err
	}
	msgs, err := s.repo.UnreadForUser(ctx, chatID, callerID)
	if err != nil {
		return err
	}
	now := time.Now()
	for i := range msgs {
		if msgs[i].SendStatus != StatusDelivered {
			continue
		}
		err := s.repo.CreateRead(ctx, &MessageRead{
			MessageID: msgs[i].ID,
			UserID:    callerID,
			ReadAt:    now,
		})
		if err != nil && !infrastructure.IsConflict(err) {
			return err
		}
	}
	return nil
}

// AddAttachment attaches file metadata to an existing message,
// sender-only.
func (s *Service) AddAttachment(ctx context.Context, messageID, callerID uint, in AttachmentInput) (*Attachment, error) {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !m.isSender(callerID) {
		return nil, infrastructure.Unauthorized("only the sender can attach files to a message")
	}
	if in.FileName == "" {
		return nil, infrastructure.Validation("attachment requires a file name")
	}
	a := &Attachment{
		MessageID:   messageID,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Size:        in.Size,
		StorageKey:  uuid.NewString(),
	}
	if err := s.repo.CreateAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveAttachment deletes attachment metadata, sender-only.
func (s *Service) RemoveAttachment(ctx context.Context, attachmentID, callerID uint) error {
	a, err := s.repo.AttachmentByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	m, err := s.repo.ByID(ctx, a.MessageID)
	if err != nil {
		return err
	}
	if !m.isSender(callerID) {
		return infrastructure.Unauthorized("only the sender can remove attachments from a message")
	}
	return s.repo.DeleteAttachment(ctx, attachmentID)
}

// GetAttachment returns one attachment to any participant of the
// owning message's chat.
func (s *Service) GetAttachment(ctx context.Context, attachmentID, callerID uint) (*Attachment, error) {
	a, err := s.repo.AttachmentByID(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.ByID(ctx, a.MessageID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, m.ChatID, callerID); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttachments returns a message's attachments to any participant
// of its chat.
func (s *Service) ListAttachments(ctx context.Context, messageID, callerID uint) ([]Attachment, error) {
	m, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, m.ChatID, callerID); err != nil {
		return nil, err
	}
	return s.repo.AttachmentsOf(ctx, messageID)
}

// PurgeUserData detaches the user from the messages they sent so chat
// history survives account deletion.
func (s *Service) PurgeUserData(ctx context.Context, userID uint) error {
	return s.repo.DetachSender(ctx, userID)
}

func (s *Service) requireParticipant(ctx context.Context, chatID, userID uint) error {
	_, err := s.chats.ParticipantOf(ctx, chatID, userID)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return infrastructure.Unauthorized("user %d does not belong to chat %d", userID, chatID)
		}
		return err
	}
	return nil
}
