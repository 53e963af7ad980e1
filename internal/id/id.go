package id

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUID string. Falls back to v4 in
// the unlikely event the v7 source fails.
func NewUUIDv7() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}
