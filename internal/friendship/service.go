package friendship

import (
	"context"
	"log/slog"
	"time"

	"parley/infrastructure"
	"parley/internal/user"
)

// Notifier receives the fan-out side effect after a request is persisted.
// Failures are logged, never propagated: the friendship record is
// authoritative.
type Notifier interface {
	FriendRequestCreated(ctx context.Context, senderID, receiverID uint) error
}

type Service struct {
	repo     Repository
	users    user.Repository
	notifier Notifier
}

func NewService(repo Repository, users user.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, users: users, notifier: notifier}
}

func (s *Service) SendRequest(ctx context.Context, callerID, targetID uint) (*Friendship, error) {
	if err := validatePeer(callerID, targetID); err != nil {
		return nil, err
	}
	if _, err := s.users.ByID(ctx, targetID); err != nil {
		return nil, err
	}

	if existing, err := s.repo.Between(ctx, callerID, targetID); err == nil {
		return nil, infrastructure.Conflict("friendship already exists with status: %s", existing.Status)
	} else if !infrastructure.IsNotFound(err) {
		return nil, err
	}

	f := &Friendship{
		User1ID:       callerID,
		User2ID:       targetID,
		RequestedByID: callerID,
		Status:        StatusPending,
		RequestedAt:   time.Now(),
	}
	// The pair unique index still catches a concurrent duplicate between the
	// lookup above and this insert.
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	slog.Info("friend request sent", "from", callerID, "to", targetID)

	if s.notifier != nil {
		if err := s.notifier.FriendRequestCreated(ctx, callerID, targetID); err != nil {
			slog.Error("friend request notification failed", "from", callerID, "to", targetID, "err", err)
		}
	}
	return f, nil
}

func (s *Service) Accept(ctx context.Context, callerID, requesterID uint) error {
	f, err := s.repo.Between(ctx, requesterID, callerID)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return infrastructure.NotFound("friend request not found")
		}
		return err
	}
	if f.RequestedByID == callerID {
		return infrastructure.Unauthorized("only the receiving party can accept a friend request")
	}
	if f.Status != StatusPending {
		return infrastructure.Conflict("friend request is not in pending state")
	}

	now := time.Now()
	f.Status = StatusAccepted
	f.AcceptedAt = &now
	if err := s.repo.Save(ctx, f); err != nil {
		return err
	}
	slog.Info("friend request accepted", "by", callerID, "from", requesterID)
	return nil
}

// Cancel withdraws a request the caller sent but the peer has not answered.
func (s *Service) Cancel(ctx context.Context, callerID, peerID uint) error {
	if err := validatePeer(callerID, peerID); err != nil {
		return err
	}
	f, err := s.repo.Between(ctx, callerID, peerID)
	if err != nil {
		return err
	}
	if f.Status != StatusPending {
		return infrastructure.NotFound("no pending friend request found")
	}
	if f.RequestedByID != callerID {
		return infrastructure.Unauthorized("only the requester can cancel a friend request")
	}
	if err := s.repo.Delete(ctx, f); err != nil {
		return err
	}
	slog.Info("friend request cancelled", "from", callerID, "to", peerID)
	return nil
}

func (s *Service) Remove(ctx context.Context, callerID, peerID uint) error {
	if err := validatePeer(callerID, peerID); err != nil {
		return err
	}
	f, err := s.repo.Between(ctx, callerID, peerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, f); err != nil {
		return err
	}
	slog.Info("friend removed", "user", callerID, "peer", peerID)
	return nil
}

// Block can be applied to a relationship in any status. It re-stamps the
// record to the blocker so unblock and listing know who acted.
func (s *Service) Block(ctx context.Context, callerID, peerID uint) error {
	if err := validatePeer(callerID, peerID); err != nil {
		return err
	}
	if _, err := s.users.ByID(ctx, peerID); err != nil {
		return err
	}
	f, err := s.repo.Between(ctx, callerID, peerID)
	if err != nil {
		return err
	}
	f.Status = StatusBlocked
	f.RequestedByID = callerID
	f.RequestedAt = time.Now()
	if err := s.repo.Save(ctx, f); err != nil {
		return err
	}
	slog.Info("user blocked", "by", callerID, "blocked", peerID)
	return nil
}

func (s *Service) Unblock(ctx context.Context, callerID, peerID uint) error {
	if err := validatePeer(callerID, peerID); err != nil {
		return err
	}
	f, err := s.repo.Between(ctx, callerID, peerID)
	if err != nil {
		return err
	}
	if f.Status != StatusBlocked {
		return infrastructure.Conflict("users are not in blocked state")
	}
	f.Status = StatusAccepted
	f.RequestedByID = callerID
	f.RequestedAt = time.Now()
	if err := s.repo.Save(ctx, f); err != nil {
		return err
	}
	slog.Info("user unblocked", "by", callerID, "unblocked", peerID)
	return nil
}

func (s *Service) StatusBetween(ctx context.Context, callerID, peerID uint) (Status, error) {
	if err := validatePeer(callerID, peerID); err != nil {
		return "", err
	}
	f, err := s.repo.Between(ctx, callerID, peerID)
	if err != nil {
		return "", err
	}
	return f.Status, nil
}

func (s *Service) ListAccepted(ctx context.Context, callerID uint) ([]user.Summary, error) {
	friendships, err := s.repo.AcceptedFor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.peerSummaries(ctx, callerID, friendships)
}

// ListPending returns the requests awaiting the caller's answer.
func (s *Service) ListPending(ctx context.Context, callerID uint) ([]Friendship, error) {
	return s.repo.IncomingPending(ctx, callerID)
}

func (s *Service) ListSent(ctx context.Context, callerID uint) ([]user.Summary, error) {
	friendships, err := s.repo.OutgoingPending(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.peerSummaries(ctx, callerID, friendships)
}

func (s *Service) ListBlocked(ctx context.Context, callerID uint) ([]user.Summary, error) {
	friendships, err := s.repo.BlockedBy(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.peerSummaries(ctx, callerID, friendships)
}

// AreFriends is the authorization oracle used by the roster: true only for an
// ACCEPTED relationship, looked up in both directions.
func (s *Service) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	f, err := s.repo.Between(ctx, a, b)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return f.Status == StatusAccepted, nil
}

// BlockedBetween reports whether the pair's relationship is BLOCKED,
// regardless of who blocked whom.
func (s *Service) BlockedBetween(ctx context.Context, a, b uint) (bool, error) {
	f, err := s.repo.Between(ctx, a, b)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return f.Status == StatusBlocked, nil
}

// PurgeUserData implements user.Purger: account deletion drops every
// relationship the user is part of.
func (s *Service) PurgeUserData(ctx context.Context, userID uint) error {
	return s.repo.DeleteAllFor(ctx, userID)
}

func (s *Service) peerSummaries(ctx context.Context, callerID uint, friendships []Friendship) ([]user.Summary, error) {
	ids := make([]uint, 0, len(friendships))
	for i := range friendships {
		ids = append(ids, friendships[i].Peer(callerID))
	}
	users, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]user.Summary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func validatePeer(callerID, peerID uint) error {
	if callerID == peerID {
		return infrastructure.Validation("user cannot perform this action on themselves")
	}
	return nil
}
