package entity

import "time"

// Role is a member's role within a team.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// MembershipStatus tracks how a membership entered the team.
type MembershipStatus string

const (
	MembershipActive  MembershipStatus = "ACTIVE"
	MembershipInvited MembershipStatus = "INVITED"
)

// TeamStatus is the lifecycle state of a team.
type TeamStatus string

const (
	TeamActive   TeamStatus = "ACTIVE"
	TeamArchived TeamStatus = "ARCHIVED"
)

// Team is the aggregate root. Provisioning creates the team together with
// its Profile, the owning Membership, and its Agent in one unit; reads by
// slug return the same nested shape so callers never need a second
// round-trip.
type Team struct {
	ID           string
	Name         string
	Slug         string
	OwnerSubject string
	Status       TeamStatus
	StatusReason string
	Profile      TeamProfile
	Agent        Agent
	Memberships  []Membership
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TeamProfile holds the team's display assets. Avatar and banner default to
// the configured module defaults when provisioning omits them.
type TeamProfile struct {
	Avatar      string
	Banner      string
	Motto       string
	Description string
}

// Membership relates a Member to a Team. MemberID is empty for invited
// memberships that have not been claimed yet; Email is always set.
// Reason is a human-readable audit note ("Invited by ada", "Created team x").
type Membership struct {
	ID        string
	TeamID    string
	MemberID  string
	Email     string
	Role      Role
	Status    MembershipStatus
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
