package tenant

import "time"

// Plan is a platform-level subscription tier. Plans carry no tenant
// id; only the super admin manages them.
type Plan struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PriceCents  int64     `json:"price_cents"`
	MaxUsers    int       `json:"max_users"`
	MaxPatients int       `json:"max_patients"`
	Features    []string  `json:"features"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
