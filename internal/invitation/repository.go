package invitation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parley/infrastructure"
	"parley/internal/chat"
)

type Repository interface {
	Create(ctx context.Context, inv *Invitation) error
	ByID(ctx context.Context, id uint) (*Invitation, error)
	Save(ctx context.Context, inv *Invitation) error
	PendingFor(ctx context.Context, receiverID uint) ([]Invitation, error)
	PendingBetween(ctx context.Context, chatID, receiverID uint) (*Invitation, error)
	AddParticipant(ctx context.Context, p *chat.Participant) error

	Transaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, inv *Invitation) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return infrastructure.Internal(err, "creating invitation")
	}
	return nil
}

func (r *gormRepository) ByID(ctx context.Context, id uint) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.NotFound("invitation %d not found", id)
		}
		return nil, infrastructure.Internal(err, "loading invitation %d", id)
	}
	return &inv, nil
}

func (r *gormRepository) Save(ctx context.Context, inv *Invitation) error {
	if err := r.db.WithContext(ctx).Save(inv).Error; err != nil {
		return infrastructure.Internal(err, "saving invitation %d", inv.ID)
	}
	return nil
}

func (r *gormRepository) PendingFor(ctx context.Context, receiverID uint) ([]Invitation, error) {
	var invs []Invitation
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, StatusPending).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, infrastructure.Internal(err, "listing pending invitations for user %d", receiverID)
	}
	return invs, nil
}

func (r *gormRepository) PendingBetween(ctx context.Context, chatID, receiverID uint) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND receiver_id = ? AND status = ?", chatID, receiverID, StatusPending).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.NotFound("no pending invitation to chat %d for user %d", chatID, receiverID)
		}
		return nil, infrastructure.Internal(err, "loading pending invitation")
	}
	return &inv, nil
}

func (r *gormRepository) AddParticipant(ctx context.Context, p *chat.Participant) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return infrastructure.Conflict("user %d is already a participant of chat %d", p.UserID, p.ChatID)
		}
		return infrastructure.Internal(err, "adding participant to chat %d", p.ChatID)
	}
	return nil
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
