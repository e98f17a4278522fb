package user

import (
	"context"
	"log/slog"
	"time"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"parley/infrastructure"
)

// Purger removes or detaches data owned by a user in another component.
// Implementations are wired in at startup and invoked on account deletion.
type Purger interface {
	PurgeUserData(ctx context.Context, userID uint) error
}

type Service struct {
	repo            Repository
	purgers         []Purger
	minPasswordBits float64
}

func NewService(repo Repository, minPasswordBits float64, purgers ...Purger) *Service {
	return &Service{
		repo:            repo,
		purgers:         purgers,
		minPasswordBits: minPasswordBits,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	PhoneNo  string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, infrastructure.Validation("email and password are required")
	}
	if err := passwordvalidator.Validate(in.Password, s.minPasswordBits); err != nil {
		return nil, infrastructure.Validation("password too weak: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, infrastructure.Internal(err, "failed to hash password")
	}

	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		PhoneNo:      in.PhoneNo,
		Status:       StatusActive,
		OnlineStatus: Offline,
		Role:         RoleGeneral,
		LastSeen:     time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user registered", "userID", u.ID, "email", u.Email)
	return u, nil
}

// Authenticate verifies the credentials and returns the account. Deactivated
// accounts can still authenticate so they can reactivate themselves.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, infrastructure.Unauthorized("invalid credentials")
	}
	return u, nil
}

type UpdateInput struct {
	Name    *string
	PhoneNo *string
}

func (s *Service) Update(ctx context.Context, callerID uint, in UpdateInput) (*User, error) {
	u, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.PhoneNo != nil {
		u.PhoneNo = *in.PhoneNo
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("user updated", "userID", u.ID)
	return u, nil
}

func (s *Service) Deactivate(ctx context.Context, callerID uint) error {
	u, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return err
	}
	u.Status = StatusDeleted
	u.OnlineStatus = Offline
	if err := s.repo.Save(ctx, u); err != nil {
		return err
	}
	slog.Info("user deactivated", "userID", u.ID)
	return nil
}

func (s *Service) Activate(ctx context.Context, callerID uint) error {
	u, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return err
	}
	if u.Status != StatusDeleted {
		return infrastructure.Conflict("user is not in deactivated state")
	}
	u.Status = StatusActive
	if err := s.repo.Save(ctx, u); err != nil {
		return err
	}
	slog.Info("user activated", "userID", u.ID)
	return nil
}

// Delete removes the account and hands dependent data to the registered
// purgers first, so no foreign reference survives the row.
func (s *Service) Delete(ctx context.Context, callerID uint) error {
	u, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return err
	}
	for _, p := range s.purgers {
		if err := p.PurgeUserData(ctx, u.ID); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	slog.Info("user deleted", "userID", u.ID)
	return nil
}

func (s *Service) ToggleOnlineStatus(ctx context.Context, callerID uint) (OnlineStatus, error) {
	u, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return "", err
	}
	if u.OnlineStatus == Offline {
		u.OnlineStatus = Online
	} else {
		u.OnlineStatus = Offline
		u.LastSeen = time.Now()
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return "", err
	}
	return u.OnlineStatus, nil
}

func (s *Service) LastSeen(ctx context.Context, callerID uint) (time.Time, error) {
	u, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return time.Time{}, err
	}
	return u.LastSeen, nil
}

func (s *Service) TouchLastSeen(ctx context.Context, callerID uint) error {
	u, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return err
	}
	u.LastSeen = time.Now()
	return s.repo.Save(ctx, u)
}

func (s *Service) Search(ctx context.Context, name string) ([]Summary, error) {
	users, err := s.repo.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*User, error) {
	return s.repo.ByID(ctx, id)
}

// ListAll is restricted to platform administrators.
func (s *Service) ListAll(ctx context.Context, callerID uint) ([]User, error) {
	caller, err := s.repo.ByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != RoleAdmin {
		return nil, infrastructure.Unauthorized("user is not an administrator")
	}
	return s.repo.All(ctx)
}
