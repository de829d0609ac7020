package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role grants access to protected routes
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
)

// User represents an account. Secrets are never encoded.
type User struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name" validate:"required,max=100"`
	Email                string     `json:"email" validate:"required,email"`
	Photo                string     `json:"photo,omitempty"`
	Role                 Role       `json:"role" validate:"required,oneof=admin user guide lead-guide"`
	Active               bool       `json:"-"`
	PasswordHash         string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	Version              int        `json:"version"`
}

var userMessages = map[string]string{
	"name.required":  "Please tell us your name!",
	"email.required": "Please provide your email",
	"email.email":    "Please provide a valid email",
	"role.oneof":     "Role is either: admin, user, guide, lead-guide",
}

// NewUser returns a user carrying the schema defaults
func NewUser() *User {
	return &User{Role: RoleUser, Active: true}
}

// Normalize trims the name and lowercases the email
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

// Validate checks the user against its schema rules
func (u *User) Validate() error {
	return validateStruct("user", u, userMessages)
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at the given unix second.
func (u *User) ChangedPasswordAfter(issuedAt int64) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt < u.PasswordChangedAt.Unix()
}

// Profile is the public part of a user embedded in other documents
type Profile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Photo string    `json:"photo,omitempty"`
	Role  Role      `json:"role,omitempty"`
}

// Password is the write-only pair submitted whenever a password is set
type Password struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

var passwordMessages = map[string]string{
	"password.required":        "Please provide a password",
	"password.min":             "Password must have at least 8 characters",
	"passwordConfirm.required": "Please confirm your password",
}

// Validate checks length and that both entries match
func (p *Password) Validate() error {
	var extra []FieldError
	if p.PasswordConfirm != "" && p.Password != p.PasswordConfirm {
		extra = append(extra, FieldError{Field: "passwordConfirm", Message: "Passwords are not the same!"})
	}
	return validateStruct("user", p, passwordMessages, extra...)
}

// SignUp is the sign-up request body
type SignUp struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Password
}

// SignIn is the sign-in request body
type SignIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordUpdate is the body of update-my-password
type PasswordUpdate struct {
	Current            string `json:"password"`
	NewPassword        string `json:"newPassword"`
	NewPasswordConfirm string `json:"newPasswordConfirm"`
}

// ProfileUpdate is the body of update-me. Password fields are captured only
// to reject them.
type ProfileUpdate struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Photo           *string `json:"photo"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"passwordConfirm"`
}
