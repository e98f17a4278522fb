package chat

import (
	"context"
	"log/slog"
	"time"

	"parley/infrastructure"
	"parley/internal/user"
)

type Service struct {
	repo  Repository
	users user.Repository
}

func NewService(repo Repository, users user.Repository) *Service {
	return &Service{repo: repo, users: users}
}

type CreateInput struct {
	Type           Type
	Name           string
	ParticipantIDs []uint
}

// Create builds the chat and its founding roster in one transaction.
// ONE_TO_ONE chats have exactly two MEMBER participants and their membership
// never changes afterwards; every founder of a GROUP chat starts as ADMIN.
func (s *Service) Create(ctx context.Context, callerID uint, in CreateInput) (*Chat, error) {
	ids := dedupe(append(in.ParticipantIDs, callerID))

	switch in.Type {
	case TypeOneToOne:
		if len(ids) != 2 {
			return nil, infrastructure.Validation("one-to-one chat requires exactly 2 participants")
		}
	case TypeGroup:
		if in.Name == "" {
			return nil, infrastructure.Validation("group chat requires a name")
		}
		if len(ids) < 1 {
			return nil, infrastructure.Validation("group chat requires at least one participant")
		}
	default:
		return nil, infrastructure.Validation("unknown chat type: %s", in.Type)
	}

	for _, id := range ids {
		if _, err := s.users.ByID(ctx, id); err != nil {
			return nil, err
		}
	}

	role := RoleAdmin
	if in.Type == TypeOneToOne {
		role = RoleMember
	}

	c := &Chat{Type: in.Type, Name: in.Name}
	participants := make([]Participant, 0, len(ids))
	now := time.Now()
	for _, id := range ids {
		participants = append(participants, Participant{
			UserID:   id,
			Role:     role,
			JoinedAt: now,
		})
	}

	if err := s.repo.CreateChat(ctx, c, participants); err != nil {
		return nil, err
	}
	slog.Info("chat created", "chatID", c.ID, "type", c.Type, "by", callerID)
	return c, nil
}

// SearchByName returns chats with the given name that the caller belongs to.
func (s *Service) SearchByName(ctx context.Context, callerID uint, name string) ([]Summary, error) {
	chats, err := s.repo.ChatsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(chats))
	for i := range chats {
		if _, err := s.repo.ParticipantOf(ctx, chats[i].ID, callerID); err != nil {
			if infrastructure.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		sum, err := s.summarize(ctx, &chats[i])
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, callerID uint, page, size int) ([]Summary, int64, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	chats, total, err := s.repo.ChatsFor(ctx, callerID, page, size)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Summary, 0, len(chats))
	for i := range chats {
		sum, err := s.summarize(ctx, &chats[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sum)
	}
	return out, total, nil
}

// Delete removes a chat and all dependent records. Only an admin
// participant may do this.
func (s *Service) Delete(ctx context.Context, chatID, callerID uint) error {
	if _, err := s.repo.ChatByID(ctx, chatID); err != nil {
		return err
	}
	p, err := s.repo.ParticipantOf(ctx, chatID, callerID)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return infrastructure.Unauthorized("user %d does not belong to chat %d", callerID, chatID)
		}
		return err
	}
	if p.Role != RoleAdmin {
		return infrastructure.Unauthorized("only admins can delete a chat")
	}
	if err := s.repo.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	slog.Info("chat deleted", "chatID", chatID, "by", callerID)
	return nil
}

// Leave removes the caller from a group chat. The sole admin of a group
// with other members cannot leave; one-to-one membership is immutable.
func (s *Service) Leave(ctx context.Context, chatID, callerID uint) error {
	c, err := s.repo.ChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if c.Type == TypeOneToOne {
		return infrastructure.Conflict("cannot leave a one-to-one chat")
	}

	return s.repo.Transaction(ctx, func(r Repository) error {
		participants, err := r.ParticipantsLocked(ctx, chatID)
		if err != nil {
			return err
		}
		var me *Participant
		admins := 0
		for i := range participants {
			if participants[i].Role == RoleAdmin {
				admins++
			}
			if participants[i].UserID == callerID {
				me = &participants[i]
			}
		}
		if me == nil {
			return infrastructure.Unauthorized("user %d does not belong to chat %d", callerID, chatID)
		}
		if me.Role == RoleAdmin && admins <= 1 && len(participants) > 1 {
			return infrastructure.Conflict("cannot leave as the only admin of the chat")
		}
		if err := r.RemoveParticipant(ctx, me); err != nil {
			return err
		}
		slog.Info("user left chat", "chatID", chatID, "userID", callerID)
		return nil
	})
}

func (s *Service) summarize(ctx context.Context, c *Chat) (Summary, error) {
	n, err := s.repo.CountParticipants(ctx, c.ID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{ID: c.ID, Type: c.Type, Name: c.Name, ParticipantCount: int(n)}, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
