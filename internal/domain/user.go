package domain

import "time"

// Roles.
const (
	RoleJobSeeker = "job_seeker"
	RoleAdmin     = "admin"
)

// Account statuses.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// Auth providers.
const (
	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
)

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash,omitempty"` // empty for OAuth-only accounts
	Role         string    `json:"role" dynamodbav:"role"`
	Status       string    `json:"status" dynamodbav:"status"`
	Verified     bool      `json:"verified" dynamodbav:"verified"`
	AuthProvider string    `json:"auth_provider" dynamodbav:"auth_provider"`
	GoogleSub    string    `json:"-" dynamodbav:"google_sub,omitempty"`
	Profile      Profile   `json:"profile" dynamodbav:"profile"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

// Profile holds the editable personal details of a user.
type Profile struct {
	FirstName     string `json:"firstname" dynamodbav:"first_name"`
	LastName      string `json:"lastname" dynamodbav:"last_name"`
	Gender        string `json:"gender" dynamodbav:"gender"`
	Birthday      string `json:"birthday" dynamodbav:"birthday"` // YYYY-MM-DD
	Address       string `json:"address" dynamodbav:"address"`
	Phone         string `json:"phone" dynamodbav:"phone"`
	Bio           string `json:"bio" dynamodbav:"bio"`
	Certification string `json:"certification" dynamodbav:"certification"`
	SeniorHigh    string `json:"seniorHigh" dynamodbav:"senior_high"`
	Undergraduate string `json:"undergraduate" dynamodbav:"undergraduate"`
	Postgraduate  string `json:"postgraduate" dynamodbav:"postgraduate"`
}

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	FirstName string `json:"firstname" validate:"required"`
	LastName  string `json:"lastname" validate:"required"`
	Username  string `json:"username"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=72"`
	Birthday  string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
}

// UpdateProfileRequest is the body of PUT /api/profile/{email}. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName     *string `json:"firstname"`
	LastName      *string `json:"lastname"`
	Gender        *string `json:"gender"`
	Birthday      *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	Bio           *string `json:"bio"`
	Certification *string `json:"certification"`
	SeniorHigh    *string `json:"seniorHigh"`
	Undergraduate *string `json:"undergraduate"`
	Postgraduate  *string `json:"postgraduate"`
}

// UpdateStatusRequest is the admin body of PUT /api/users/{id}.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}
