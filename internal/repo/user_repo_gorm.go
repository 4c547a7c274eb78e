package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-account-service/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if err != nil && isDupKey(err) {
		return domain.ErrDuplicateEmail
	}
	return err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("name").Find(&users).Error
	return users, err
}

func (r *UserRepo) UpdateFields(ctx context.Context, email string, sets map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Updates(sets)
	return res.RowsAffected, res.Error
}

// SwapPassword is both the authorization check and the mutation: the row only
// matches when the caller knew the old digest.
func (r *UserRepo) SwapPassword(ctx context.Context, id, oldDigest, newDigest string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND password = ?", id, oldDigest).
		Update("password", newDigest)
	return res.RowsAffected, res.Error
}

func (r *UserRepo) ForcePassword(ctx context.Context, id, digest string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("password", digest)
	return res.RowsAffected, res.Error
}

// Delete issues a real DELETE (the model carries no soft-delete column), so
// the unique email index frees up and the address can register again.
func (r *UserRepo) Delete(ctx context.Context, name, email string) (int64, error) {
	res := r.db.WithContext(ctx).Where("name = ? AND email = ?", name, email).Delete(&domain.User{})
	return res.RowsAffected, res.Error
}

// isDupKey avoids gorm.ErrDuplicatedKey, which not every driver translates.
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
