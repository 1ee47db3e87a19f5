package entity

import "time"

// MemberStatus is the lifecycle state of a member record.
type MemberStatus string

const (
	MemberActive    MemberStatus = "ACTIVE"
	MemberSuspended MemberStatus = "SUSPENDED"
)

// Member is a person known to this system. AuthSubject is the stable
// identifier issued by the external identity provider and is immutable
// once set; all authentication resolves members through it.
type Member struct {
	ID          string
	AuthSubject string
	Alias       string
	Visible     bool
	Status      MemberStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
