package notification

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parley/infrastructure"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ByID(ctx context.Context, id uint) (*Notification, error)
	Save(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id uint) error
	For(ctx context.Context, userID uint, page, size int) ([]Notification, int64, error)
	DeleteAllFor(ctx context.Context, userID uint) error
	CountUnreadFor(ctx context.Context, userID uint) (int64, error)
	LatestByMessage(ctx context.Context, userID, messageID uint, typ Type) (*Notification, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return infrastructure.Internal(err, "creating notification for user %d", n.UserID)
	}
	return nil
}

func (r *gormRepository) ByID(ctx context.Context, id uint) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).First(&n, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.NotFound("notification %d not found", id)
		}
		return nil, infrastructure.Internal(err, "loading notification %d", id)
	}
	return &n, nil
}

func (r *gormRepository) Save(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Save(n).Error; err != nil {
		return infrastructure.Internal(err, "saving notification %d", n.ID)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&Notification{}, id).Error; err != nil {
		return infrastructure.Internal(err, "deleting notification %d", id)
	}
	return nil
}

func (r *gormRepository) For(ctx context.Context, userID uint, page, size int) ([]Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, infrastructure.Internal(err, "counting notifications for user %d", userID)
	}

	var ns []Notification
	err := q.Order("created_at DESC, id DESC").
		Offset(page * size).
		Limit(size).
		Find(&ns).Error
	if err != nil {
		return nil, 0, infrastructure.Internal(err, "listing notifications for user %d", userID)
	}
	return ns, total, nil
}

func (r *gormRepository) DeleteAllFor(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Notification{}).Error
	if err != nil {
		return infrastructure.Internal(err, "deleting notifications of user %d", userID)
	}
	return nil
}

func (r *gormRepository) CountUnreadFor(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	if err != nil {
		return 0, infrastructure.Internal(err, "counting unread notifications for user %d", userID)
	}
	return n, nil
}

// LatestByMessage finds the newest notification a message produced for
// a user, used to mark it read alongside the message itself.
func (r *gormRepository) LatestByMessage(ctx context.Context, userID, messageID uint, typ Type) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ? AND type = ?", userID, messageID, typ).
		Order("created_at DESC, id DESC").
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.NotFound("no %s notification for message %d", typ, messageID)
		}
		return nil, infrastructure.Internal(err, "loading notification for message %d", messageID)
	}
	return &n, nil
}
