package domain

import "time"

// Role constants mirror the backend's user roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User is an account as returned by users/ and users/me/.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Role        string    `json:"role,omitempty"`
	IsActive    bool      `json:"is_active"`
	DateJoined  time.Time `json:"date_joined,omitempty"`
	ProfileID   *int64    `json:"profile,omitempty"`
	AvatarURL   string    `json:"avatar,omitempty"`
	IsStaff     bool      `json:"is_staff,omitempty"`
	LastLoginAt time.Time `json:"last_login,omitempty"`
}

// FullName joins first and last name, falling back to the email.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}

// Profile is the editable personal information attached to a user.
type Profile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	BirthDate string    `json:"birth_date,omitempty"`
	City      string    `json:"city,omitempty"`
	AvatarURL string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ProfileInput creates a profile or patches one. Nil fields are left out of
// the request body.
type ProfileInput struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	City      *string `json:"city,omitempty" validate:"omitempty,max=150"`
}
