package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, so
// ordering entities by id also orders them by age.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Valid reports whether s is a well-formed ULID. Handlers use it to reject
// malformed path ids before they reach DynamoDB.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
