package domain

import (
	"context"
	"time"
)

// User is the single persisted account record. The password digest never
// serializes outward; role flags are fixed columns, one per known role.
type User struct {
	ID       string `gorm:"primaryKey;size:40" json:"id"`
	Email    string `gorm:"uniqueIndex;size:191" json:"email"`
	Name     string `gorm:"size:64" json:"name"`
	Password string `gorm:"size:80;not null" json:"-"`
	Phone    string `gorm:"size:32" json:"phone"`
	Gender   string `gorm:"size:8" json:"gender"`

	Manager bool `gorm:"not null;default:false" json:"-"`
	TaskMgr bool `gorm:"not null;default:false" json:"-"`
	DataMgr bool `gorm:"not null;default:false" json:"-"`

	CreateTime time.Time `gorm:"autoCreateTime" json:"create_time"`
}

func (User) TableName() string { return "users" }

// ErrDuplicateEmail is returned by Create when the unique email index rejects
// the insert; the register flow maps it to user_exists.
var ErrDuplicateEmail = E(CodeUserExists, "email already registered")

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error) // nil, nil when absent
	FindByID(ctx context.Context, id string) (*User, error)       // nil, nil when absent
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]User, error)

	// UpdateFields sets the given columns on the user with this email and
	// reports how many rows changed.
	UpdateFields(ctx context.Context, email string, sets map[string]any) (int64, error)

	// SwapPassword updates the password digest only when both id and the old
	// digest match, in one conditional write; returns the matched-row count.
	SwapPassword(ctx context.Context, id, oldDigest, newDigest string) (int64, error)

	// ForcePassword overwrites the digest by id (admin reset); returns the
	// matched-row count.
	ForcePassword(ctx context.Context, id, digest string) (int64, error)

	// Delete removes the user matching both name and email exactly; returns
	// the deleted-row count. The row is gone for good: the email (and its
	// derived id) must be registrable again afterwards.
	Delete(ctx context.Context, name, email string) (int64, error)
}
