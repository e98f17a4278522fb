package invitation

import (
	"context"
	"log/slog"
	"time"

	"parley/infrastructure"
	"parley/internal/chat"
	"parley/internal/user"
)

// Notifier is told about new invitations after they are stored.
type Notifier interface {
	GroupInviteCreated(ctx context.Context, senderID, receiverID, chatID uint) error
}

type Service struct {
	repo     Repository
	chats    chat.Repository
	users    user.Repository
	notifier Notifier
}

func NewService(repo Repository, chats chat.Repository, users user.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, chats: chats, users: users, notifier: notifier}
}

// Send invites a user to a group chat. Only chat admins may invite, the
// receiver must not already belong to the chat, and at most one pending
// invitation per (chat, receiver) pair exists at a time.
func (s *Service) Send(ctx context.Context, chatID, senderID, receiverID uint) (*Invitation, error) {
	c, err := s.chats.ChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c.Type != chat.TypeGroup {
		return nil, infrastructure.Conflict("invitations only apply to group chats")
	}
	p, err := s.chats.ParticipantOf(ctx, chatID, senderID)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.Unauthorized("user %d does not belong to chat %d", senderID, chatID)
		}
		return nil, err
	}
	if p.Role != chat.RoleAdmin {
		return nil, infrastructure.Unauthorized("only admins can send invitations")
	}
	if _, err := s.users.ByID(ctx, receiverID); err != nil {
		return nil, err
	}
	if _, err := s.chats.ParticipantOf(ctx, chatID, receiverID); err == nil {
		return nil, infrastructure.Conflict("user %d is already a participant of chat %d", receiverID, chatID)
	} else if !infrastructure.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.repo.PendingBetween(ctx, chatID, receiverID); err == nil {
		return nil, infrastructure.Conflict("user %d already has a pending invitation to chat %d", receiverID, chatID)
	} else if !infrastructure.IsNotFound(err) {
		return nil, err
	}

	inv := &Invitation{
		ChatID:     chatID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     StatusPending,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	slog.Info("invitation sent", "invitationID", inv.ID, "chatID", chatID, "from", senderID, "to", receiverID)

	if err := s.notifier.GroupInviteCreated(ctx, senderID, receiverID, chatID); err != nil {
		slog.Error("invitation notification failed", "invitationID", inv.ID, "error", err)
	}
	return inv, nil
}

// Accept joins the receiver to the chat as MEMBER and marks the
// invitation ACCEPTED, both in one transaction. A receiver who already
// joined the chat through another path still gets the ACCEPTED status;
// the roster is left as is.
func (s *Service) Accept(ctx context.Context, invitationID, callerID uint) error {
	inv, err := s.repo.ByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.ReceiverID != callerID {
		return infrastructure.Unauthorized("only the invited user can accept an invitation")
	}
	if inv.Status != StatusPending {
		return infrastructure.Conflict("invitation %d is already %s", inv.ID, inv.Status)
	}

	_, err = s.chats.ParticipantOf(ctx, inv.ChatID, inv.ReceiverID)
	alreadyJoined := err == nil
	if err != nil && !infrastructure.IsNotFound(err) {
		return err
	}

	return s.repo.Transaction(ctx, func(r Repository) error {
		now := time.Now()
		inv.Status = StatusAccepted
		inv.RespondedAt = &now
		if err := r.Save(ctx, inv); err != nil {
			return err
		}
		if !alreadyJoined {
			p := &chat.Participant{
				ChatID:   inv.ChatID,
				UserID:   inv.ReceiverID,
				Role:     chat.RoleMember,
				JoinedAt: now,
			}
			if err := r.AddParticipant(ctx, p); err != nil {
				return err
			}
		}
		slog.Info("invitation accepted", "invitationID", inv.ID, "chatID", inv.ChatID, "userID", callerID)
		return nil
	})
}

// Reject marks the invitation REJECTED without touching the roster.
func (s *Service) Reject(ctx context.Context, invitationID, callerID uint) error {
	inv, err := s.repo.ByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.ReceiverID != callerID {
		return infrastructure.Unauthorized("only the invited user can reject an invitation")
	}
	if inv.Status != StatusPending {
		return infrastructure.Conflict("invitation %d is already %s", inv.ID, inv.Status)
	}
	now := time.Now()
	inv.Status = StatusRejected
	inv.RespondedAt = &now
	if err := s.repo.Save(ctx, inv); err != nil {
		return err
	}
	slog.Info("invitation rejected", "invitationID", inv.ID, "userID", callerID)
	return nil
}

// ListPending returns the caller's open invitations, newest first.
func (s *Service) ListPending(ctx context.Context, callerID uint) ([]Invitation, error) {
	return s.repo.PendingFor(ctx, callerID)
}
