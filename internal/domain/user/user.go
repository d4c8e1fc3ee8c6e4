package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
	RoleAdmin    Role = "admin"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleWorker:
		return RoleWorker, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// IsStaff reports whether the role works tickets (workers and admins).
func (r Role) IsStaff() bool { return r == RoleWorker || r == RoleAdmin }

// User mirrors the identity carried by the access token. The identity
// provider owns credentials; this table only keeps display data and role.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;index" json:"email"`
	Name      string    `gorm:"column:name" json:"name"`
	Role      Role      `gorm:"column:role;not null;index" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

// DisplayName falls back to the email local part.
func (u *User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}
