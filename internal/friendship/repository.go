package friendship

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parley/infrastructure"
)

type Repository interface {
	Create(ctx context.Context, f *Friendship) error
	Save(ctx context.Context, f *Friendship) error
	Delete(ctx context.Context, f *Friendship) error
	// Between looks the pair up in both directions.
	Between(ctx context.Context, a, b uint) (*Friendship, error)
	IncomingPending(ctx context.Context, userID uint) ([]Friendship, error)
	OutgoingPending(ctx context.Context, userID uint) ([]Friendship, error)
	AcceptedFor(ctx context.Context, userID uint) ([]Friendship, error)
	BlockedBy(ctx context.Context, userID uint) ([]Friendship, error)
	DeleteAllFor(ctx context.Context, userID uint) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, f *Friendship) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return infrastructure.Conflict("friendship already exists between users %d and %d", f.User1ID, f.User2ID)
	}
	return err
}

func (r *gormRepository) Save(ctx context.Context, f *Friendship) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *gormRepository) Delete(ctx context.Context, f *Friendship) error {
	return r.db.WithContext(ctx).Delete(f).Error
}

func (r *gormRepository) Between(ctx context.Context, a, b uint) (*Friendship, error) {
	var f Friendship
	err := r.db.WithContext(ctx).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.NotFound("friendship does not exist between users %d and %d", a, b)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *gormRepository) IncomingPending(ctx context.Context, userID uint) ([]Friendship, error) {
	var out []Friendship
	err := r.db.WithContext(ctx).
		Where("user2_id = ? AND status = ?", userID, StatusPending).
		Find(&out).Error
	return out, err
}

func (r *gormRepository) OutgoingPending(ctx context.Context, userID uint) ([]Friendship, error) {
	var out []Friendship
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND status = ?", userID, StatusPending).
		Find(&out).Error
	return out, err
}

func (r *gormRepository) AcceptedFor(ctx context.Context, userID uint) ([]Friendship, error) {
	var out []Friendship
	err := r.db.WithContext(ctx).
		Where("(user1_id = ? OR user2_id = ?) AND status = ?", userID, userID, StatusAccepted).
		Find(&out).Error
	return out, err
}

func (r *gormRepository) BlockedBy(ctx context.Context, userID uint) ([]Friendship, error) {
	var out []Friendship
	err := r.db.WithContext(ctx).
		Where("requested_by_id = ? AND status = ?", userID, StatusBlocked).
		Find(&out).Error
	return out, err
}

func (r *gormRepository) DeleteAllFor(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Delete(&Friendship{}).Error
}
