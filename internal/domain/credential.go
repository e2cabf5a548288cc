package domain

import "strings"

// OTPRecord is the one-time code issued to an email address. Keyed by normalized email.
type OTPRecord struct {
	Code string `json:"code" dynamodbav:"code"`
}

// PendingRegistration is a signup awaiting OTP confirmation. Nothing is persisted
// to the users table until the code is verified. Keyed by normalized email.
type PendingRegistration struct {
	Email        string  `json:"email" dynamodbav:"email"`
	Username     string  `json:"username" dynamodbav:"username"`
	PasswordHash string  `json:"password_hash" dynamodbav:"password_hash"`
	Role         string  `json:"role" dynamodbav:"role"`
	Profile      Profile `json:"profile" dynamodbav:"profile"`
}

// ResetToken authorizes exactly one password change. Keyed by the token itself.
type ResetToken struct {
	Email  string `json:"email" dynamodbav:"email"`
	UserID string `json:"user_id" dynamodbav:"user_id"`
}

// NormalizeEmail lower-cases and trims an email so it can be used as a store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
