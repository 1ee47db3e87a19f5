package entity

import "time"

// AgentKind classifies a team's collaborative agent.
type AgentKind string

const (
	AgentTrader AgentKind = "TRADER"
)

// Agent is the collaborative sub-entity created alongside its team,
// one-to-one with the team at provisioning time. Its slug is unique within
// the team, not globally.
type Agent struct {
	ID           string
	TeamID       string
	Name         string
	Slug         string
	Kind         AgentKind
	Avatar       string
	Status       string
	StatusReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
