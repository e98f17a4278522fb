package user

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"parley/infrastructure"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	ByID(ctx context.Context, id uint) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uint) error
	ByIDs(ctx context.Context, ids []uint) ([]User, error)
	SearchByName(ctx context.Context, name string) ([]User, error)
	All(ctx context.Context) ([]User, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, u *User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return infrastructure.Conflict("user already exists with email: %s", u.Email)
	}
	return err
}

func (r *gormRepository) ByID(ctx context.Context, id uint) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.NotFound("user not found with id: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) ByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.NotFound("user not found with email: %s", email)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) Save(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&User{}, id).Error
}

func (r *gormRepository) ByIDs(ctx context.Context, ids []uint) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *gormRepository) SearchByName(ctx context.Context, name string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%").
		Find(&users).Error
	return users, err
}

func (r *gormRepository) All(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).Find(&users).Error
	return users, err
}
