package chat

import (
	"context"
	"log/slog"
	"time"

	"parley/infrastructure"
	"parley/internal/user"
)

// FriendOracle reports whether two users have an accepted friendship.
type FriendOracle interface {
	AreFriends(ctx context.Context, userID, otherID uint) (bool, error)
}

// Roster manages group chat membership and roles.
type Roster struct {
	repo    Repository
	users   user.Repository
	friends FriendOracle
}

func NewRoster(repo Repository, users user.Repository, friends FriendOracle) *Roster {
	return &Roster{repo: repo, users: users, friends: friends}
}

// Add puts a user into a group chat as MEMBER. The caller must be an
// admin of the chat and a friend of the user being added.
func (r *Roster) Add(ctx context.Context, chatID, callerID, userID uint) error {
	c, err := r.repo.ChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if c.Type != TypeGroup {
		return infrastructure.Conflict("participants can only be added to group chats")
	}
	if err := r.requireAdmin(ctx, chatID, callerID); err != nil {
		return err
	}
	if _, err := r.users.ByID(ctx, userID); err != nil {
		return err
	}
	if _, err := r.repo.ParticipantOf(ctx, chatID, userID); err == nil {
		return infrastructure.Conflict("user %d is already a participant of chat %d", userID, chatID)
	} else if !infrastructure.IsNotFound(err) {
		return err
	}
	ok, err := r.friends.AreFriends(ctx, callerID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return infrastructure.Unauthorized("you can only add your friends to a chat")
	}

	p := &Participant{
		ChatID:   chatID,
		UserID:   userID,
		Role:     RoleMember,
		JoinedAt: time.Now(),
	}
	if err := r.repo.AddParticipant(ctx, p); err != nil {
		return err
	}
	slog.Info("participant added", "chatID", chatID, "userID", userID, "by", callerID)
	return nil
}

// Remove takes a user out of a group chat. Removing the last admin of a
// chat that still has other members is rejected.
func (r *Roster) Remove(ctx context.Context, chatID, callerID, userID uint) error {
	c, err := r.repo.ChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if c.Type != TypeGroup {
		return infrastructure.Conflict("participants can only be removed from group chats")
	}
	if err := r.requireAdmin(ctx, chatID, callerID); err != nil {
		return err
	}

	return r.repo.Transaction(ctx, func(repo Repository) error {
		participants, err := repo.ParticipantsLocked(ctx, chatID)
		if err != nil {
			return err
		}
		var target *Participant
		admins := 0
		for i := range participants {
			if participants[i].Role == RoleAdmin {
				admins++
			}
			if participants[i].UserID == userID {
				target = &participants[i]
			}
		}
		if target == nil {
			return infrastructure.NotFound("user %d is not a participant of chat %d", userID, chatID)
		}
		if target.Role == RoleAdmin && admins <= 1 && len(participants) > 1 {
			return infrastructure.Conflict("cannot remove the only admin of the chat")
		}
		if err := repo.RemoveParticipant(ctx, target); err != nil {
			return err
		}
		slog.Info("participant removed", "chatID", chatID, "userID", userID, "by", callerID)
		return nil
	})
}

// ToggleRole flips a participant between ADMIN and MEMBER. Demoting the
// last remaining admin is rejected.
func (r *Roster) ToggleRole(ctx context.Context, chatID, callerID, userID uint) error {
	c, err := r.repo.ChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if c.Type != TypeGroup {
		return infrastructure.Conflict("roles only apply to group chats")
	}
	if err := r.requireAdmin(ctx, chatID, callerID); err != nil {
		return err
	}

	return r.repo.Transaction(ctx, func(repo Repository) error {
		participants, err := repo.ParticipantsLocked(ctx, chatID)
		if err != nil {
			return err
		}
		var target *Participant
		admins := 0
		for i := range participants {
			if participants[i].Role == RoleAdmin {
				admins++
			}
			if participants[i].UserID == userID {
				target = &participants[i]
			}
		}
		if target == nil {
			return infrastructure.NotFound("user %d is not a participant of chat %d", userID, chatID)
		}
		if target.Role == RoleAdmin {
			if admins <= 1 {
				return infrastructure.Conflict("cannot demote the only admin of the chat")
			}
			target.Role = RoleMember
		} else {
			target.Role = RoleAdmin
		}
		if err := repo.SaveParticipant(ctx, target); err != nil {
			return err
		}
		slog.Info("participant role toggled", "chatID", chatID, "userID", userID, "role", target.Role, "by", callerID)
		return nil
	})
}

// List returns the chat's roster. Only participants may see it.
func (r *Roster) List(ctx context.Context, chatID, callerID uint) ([]Participant, error) {
	if _, err := r.repo.ChatByID(ctx, chatID); err != nil {
		return nil, err
	}
	if _, err := r.repo.ParticipantOf(ctx, chatID, callerID); err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.Unauthorized("user %d does not belong to chat %d", callerID, chatID)
		}
		return nil, err
	}
	return r.repo.Participants(ctx, chatID)
}

// IsParticipant reports chat membership without restricting the caller.
func (r *Roster) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	_, err := r.repo.ParticipantOf(ctx, chatID, userID)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsAdmin reports whether the user is an admin participant of the chat.
func (r *Roster) IsAdmin(ctx context.Context, chatID, userID uint) (bool, error) {
	p, err := r.repo.ParticipantOf(ctx, chatID, userID)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return p.Role == RoleAdmin, nil
}

func (r *Roster) requireAdmin(ctx context.Context, chatID, callerID uint) error {
	p, err := r.repo.ParticipantOf(ctx, chatID, callerID)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return infrastructure.Unauthorized("user %d does not belong to chat %d", callerID, chatID)
		}
		return err
	}
	if p.Role != RoleAdmin {
		return infrastructure.Unauthorized("only admins can manage chat participants")
	}
	return nil
}
