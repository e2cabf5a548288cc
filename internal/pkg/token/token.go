package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
)

// OTP codes are drawn from [otpMin, otpMax).
const (
	otpMin = 1000
	otpMax = 9999
)

// NewOTPCode returns a 4-digit code drawn uniformly from [1000, 9999).
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// NewResetToken generates a cryptographically random 64-character hex token (256 bits).
func NewResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
