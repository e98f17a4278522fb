package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parley/infrastructure"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateChat(ctx context.Context, c *Chat, participants []Participant) error
	ChatByID(ctx context.Context, id uint) (*Chat, error)
	ChatsByName(ctx context.Context, name string) ([]Chat, error)
	ChatsFor(ctx context.Context, userID uint, page, size int) ([]Chat, int64, error)
	// DeleteChat removes the chat and everything hanging off it in one
	// transaction: participants, messages (with reads and attachments),
	// invitations and notifications.
	DeleteChat(ctx context.Context, chatID uint) error

	Participants(ctx context.Context, chatID uint) ([]Participant, error)
	// ParticipantsLocked takes row locks on the chat's participant rows so
	// concurrent roster mutations serialize. Meaningful only inside a
	// Transaction.
	ParticipantsLocked(ctx context.Context, chatID uint) ([]Participant, error)
	ParticipantOf(ctx context.Context, chatID, userID uint) (*Participant, error)
	AddParticipant(ctx context.Context, p *Participant) error
	SaveParticipant(ctx context.Context, p *Participant) error
	RemoveParticipant(ctx context.Context, p *Participant) error
	CountParticipants(ctx context.Context, chatID uint) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) CreateChat(ctx context.Context, c *Chat, participants []Participant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ChatID = c.ID
		}
		return tx.Create(&participants).Error
	})
}

func (r *gormRepository) ChatByID(ctx context.Context, id uint) (*Chat, error) {
	var c Chat
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.NotFound("chat not found with id: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) ChatsByName(ctx context.Context, name string) ([]Chat, error) {
	var chats []Chat
	err := r.db.WithContext(ctx).Where("name = ?", name).Find(&chats).Error
	return chats, err
}

func (r *gormRepository) ChatsFor(ctx context.Context, userID uint, page, size int) ([]Chat, int64, error) {
	base := r.db.WithContext(ctx).Model(&Chat{}).
		Joins("JOIN participants ON participants.chat_id = chats.id").
		Where("participants.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var chats []Chat
	err := base.Order("chats.created_at ASC").
		Offset(page * size).Limit(size).
		Find(&chats).Error
	return chats, total, err
}

func (r *gormRepository) DeleteChat(ctx context.Context, chatID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE chat_id = ?)",
			"DELETE FROM attachments WHERE message_id IN (SELECT id FROM messages WHERE chat_id = ?)",
			"DELETE FROM notifications WHERE chat_id = ?",
			"DELETE FROM invitations WHERE chat_id = ?",
			"DELETE FROM messages WHERE chat_id = ?",
			"DELETE FROM participants WHERE chat_id = ?",
		} {
			if err := tx.Exec(stmt, chatID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&Chat{}, chatID).Error
	})
}

func (r *gormRepository) Participants(ctx context.Context, chatID uint) ([]Participant, error) {
	var ps []Participant
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Find(&ps).Error
	return ps, err
}

func (r *gormRepository) ParticipantsLocked(ctx context.Context, chatID uint) ([]Participant, error) {
	q := r.db.WithContext(ctx)
	// sqlite has a single writer and rejects FOR UPDATE; the lock is a
	// postgres concern.
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ps []Participant
	err := q.Where("chat_id = ?", chatID).Find(&ps).Error
	return ps, err
}

func (r *gormRepository) ParticipantOf(ctx context.Context, chatID, userID uint) (*Participant, error) {
	var p Participant
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.NotFound("user %d is not a participant of chat %d", userID, chatID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) AddParticipant(ctx context.Context, p *Participant) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return infrastructure.Conflict("user %d is already a participant of chat %d", p.UserID, p.ChatID)
	}
	return err
}

func (r *gormRepository) SaveParticipant(ctx context.Context, p *Participant) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *gormRepository) RemoveParticipant(ctx context.Context, p *Participant) error {
	return r.db.WithContext(ctx).Delete(p).Error
}

func (r *gormRepository) CountParticipants(ctx context.Context, chatID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Participant{}).
		Where("chat_id = ?", chatID).Count(&n).Error
	return n, err
}
