package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a clinic account: staff or patient, distinguished by role.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Address      string     `db:"address" json:"address,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	NationalID   string     `db:"national_id" json:"national_id"`
	MemberNumber string     `db:"member_number" json:"member_number,omitempty"`
	Role         string     `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	Specialty    string     `db:"specialty" json:"specialty,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// FullName is how users are rendered on worklists and schedules.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
