package domain

import "time"

// SubjectType differentiates internal staff from invited portal accounts.
type SubjectType string

const (
	SubjectTypeStaff  SubjectType = "STAFF"
	SubjectTypePortal SubjectType = "PORTAL"
)

// Token represents issued authentication token metadata.
type Token struct {
	SessionID string
	SubjectID string
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}
