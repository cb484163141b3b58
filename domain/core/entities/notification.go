package entities

import (
	"time"

	"cascade-engine/domain/core/valueobjects"
)

// Severity grades a design notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification categories
const (
	CategoryHydraulics  = "hydraulics"
	CategoryGeometry    = "geometry"
	CategoryConnections = "connections"
	CategoryStructures  = "structures"
)

// Remediation action types
const (
	RemediationAddStillingBasin = "add-stilling-basin"
)

// RemediationAction is an optional canned fix attached to a notification
type RemediationAction struct {
	Type     string         `json:"type"`
	TargetID string         `json:"targetId"`
	Params   map[string]any `json:"params,omitempty"`
}

// DesignNotification is a severity-tagged engineering finding derived from
// the current scene graph. Notifications are regenerated wholesale on every
// analysis pass, not diffed against the previous set.
type DesignNotification struct {
	ID             string                `json:"id"`
	TargetID       valueobjects.ObjectID `json:"targetId,omitempty"`
	TargetName     string                `json:"targetName,omitempty"`
	Severity       Severity              `json:"severity"`
	Category       string                `json:"category"`
	Title          string                `json:"title"`
	Message        string                `json:"message"`
	Recommendation string                `json:"recommendation,omitempty"`
	Remediation    *RemediationAction    `json:"remediation,omitempty"`
	Dismissed      bool                  `json:"dismissed"`
	CreatedAt      time.Time             `json:"createdAt"`
}
