package message

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parley/infrastructure"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	ByID(ctx context.Context, id uint) (*Message, error)
	Save(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id uint) error
	VisibleForUser(ctx context.Context, chatID, userID uint, page, size int) ([]Message, int64, error)
	HideAllForUser(ctx context.Context, chatID, userID uint) error
	DetachSender(ctx context.Context, userID uint) error

	CreateRead(ctx context.Context, r *MessageRead) error
	ReadsOf(ctx context.Context, messageID uint) ([]MessageRead, error)
	ReadExists(ctx context.Context, messageID, userID uint) (bool, error)
	CountReads(ctx context.Context, messageID uint) (int64, error)
	UnreadForUser(ctx context.Context, chatID, userID uint) ([]Message, error)

	CreateAttachment(ctx context.Context, a *Attachment) error
	AttachmentByID(ctx context.Context, id uint) (*Attachment, error)
	AttachmentsOf(ctx context.Context, messageID uint) ([]Attachment, error)
	DeleteAttachment(ctx context.Context, id uint) error

	Transaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, m *Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infrastructure.Internal(err, "creating message in chat %d", m.ChatID)
	}
	return nil
}

func (r *gormRepository) ByID(ctx context.Context, id uint) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.NotFound("message %d not found", id)
		}
		return nil, infrastructure.Internal(err, "loading message %d", id)
	}
	return &m, nil
}

func (r *gormRepository) Save(ctx context.Context, m *Message) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return infrastructure.Internal(err, "saving message %d", m.ID)
	}
	return nil
}

// Delete removes the message together with its reads and attachments.
func (r *gormRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&MessageRead{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&Attachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Message{}, id).Error
	})
	if err != nil {
		return infrastructure.Internal(err, "deleting message %d", id)
	}
	return nil
}

// VisibleForUser pages through a chat's messages as one user sees them:
// own messages filtered by sender visibility, everyone else's by
// receiver visibility, oldest first.
func (r *gormRepository) VisibleForUser(ctx context.Context, chatID, userID uint, page, size int) ([]Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&Message{}).
		Where("chat_id = ?", chatID).
		Where("(sender_id = ? AND sender_visibility = ?) OR ((sender_id IS NULL OR sender_id <> ?) AND receiver_visibility = ?)",
			userID, VisibilityVisible, userID, VisibilityVisible)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, infrastructure.Internal(err, "counting messages in chat %d", chatID)
	}

	var msgs []Message
	err := q.Order("created_at ASC, id ASC").
		Offset(page * size).
		Limit(size).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, infrastructure.Internal(err, "listing messages in chat %d", chatID)
	}
	return msgs, total, nil
}

// HideAllForUser applies delete-for-me to every message of the chat
// from one user's point of view.
func (r *gormRepository) HideAllForUser(ctx context.Context, chatID, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Message{}).
			Where("chat_id = ? AND sender_id = ?", chatID, userID).
			Update("sender_visibility", VisibilityDeleteForMe).Error; err != nil {
			return err
		}
		return tx.Model(&Message{}).
			Where("chat_id = ? AND (sender_id IS NULL OR sender_id <> ?)", chatID, userID).
			Update("receiver_visibility", VisibilityDeleteForMe).Error
	})
	if err != nil {
		return infrastructure.Internal(err, "hiding chat %d for user %d", chatID, userID)
	}
	return nil
}

func (r *gormRepository) DetachSender(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("sender_id = ?", userID).
		Update("sender_id", nil).Error
	if err != nil {
		return infrastructure.Internal(err, "detaching messages of user %d", userID)
	}
	return nil
}

func (r *gormRepository) CreateRead(ctx context.Context, read *MessageRead) error {
	if err := r.db.WithContext(ctx).Create(read).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return infrastructure.Conflict("message %d already read by user %d", read.MessageID, read.UserID)
		}
		return infrastructure.Internal(err, "recording read of message %d", read.MessageID)
	}
	return nil
}

func (r *gormRepository) ReadsOf(ctx context.Context, messageID uint) ([]MessageRead, error) {
	var reads []MessageRead
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("read_at ASC").
		Find(&reads).Error
	if err != nil {
		return nil, infrastructure.Internal(err, "listing reads of message %d", messageID)
	}
	return reads, nil
}

func (r *gormRepository) ReadExists(ctx context.Context, messageID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&MessageRead{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Count(&n).Error
	if err != nil {
		return false, infrastructure.Internal(err, "checking read of message %d", messageID)
	}
	return n > 0, nil
}

func (r *gormRepository) CountReads(ctx context.Context, messageID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&MessageRead{}).
		Where("message_id = ?", messageID).
		Count(&n).Error
	if err != nil {
		return 0, infrastructure.Internal(err, "counting reads of message %d", messageID)
	}
	return n, nil
}

// UnreadForUser returns the chat's messages the user can see, did not
// send, and has not read yet.
func (r *gormRepository) UnreadForUser(ctx context.Context, chatID, userID uint) ([]Message, error) {
	var msgs []Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Where("(sender_id IS NULL OR sender_id <> ?)", userID).
		Where("receiver_visibility = ?", VisibilityVisible).
		Where("id NOT IN (?)", r.db.Model(&MessageRead{}).
			Select("message_id").
			Where("user_id = ?", userID)).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, infrastructure.Internal(err, "listing unread messages in chat %d", chatID)
	}
	return msgs, nil
}

func (r *gormRepository) CreateAttachment(ctx context.Context, a *Attachment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return infrastructure.Internal(err, "creating attachment for message %d", a.MessageID)
	}
	return nil
}

func (r *gormRepository) AttachmentByID(ctx context.Context, id uint) (*Attachment, error) {
	var a Attachment
	err := r.db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.NotFound("attachment %d not found", id)
		}
		return nil, infrastructure.Internal(err, "loading attachment %d", id)
	}
	return &a, nil
}

func (r *gormRepository) AttachmentsOf(ctx context.Context, messageID uint) ([]Attachment, error) {
	var atts []Attachment
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("id ASC").
		Find(&atts).Error
	if err != nil {
		return nil, infrastructure.Internal(err, "listing attachments of message %d", messageID)
	}
	return atts, nil
}

func (r *gormRepository) DeleteAttachment(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&Attachment{}, id).Error; err != nil {
		return infrastructure.Internal(err, "deleting attachment %d", id)
	}
	return nil
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
