package models

import (
	"strings"
	"time"
)

// AuditAction is a staff action recorded in the audit channel.
type AuditAction string

const (
	AuditActionPromote  AuditAction = "promote"
	AuditActionDemote   AuditAction = "demote"
	AuditActionWarn     AuditAction = "warn"
	AuditActionFire     AuditAction = "fire"
	AuditActionGiveRank AuditAction = "give_rank"
)

var auditTitles = map[AuditAction]string{
	AuditActionPromote:  "⬆️ Promotion",
	AuditActionDemote:   "⬇️ Demotion",
	AuditActionWarn:     "⚠️ Warning",
	AuditActionFire:     "⛔ Dismissal",
	AuditActionGiveRank: "🎖️ Rank granted",
}

// ParseAuditAction validates an action name.
func ParseAuditAction(s string) (AuditAction, bool) {
	a := AuditAction(strings.ToLower(strings.TrimSpace(s)))
	_, ok := auditTitles[a]
	return a, ok
}

// Title is the notification heading for the action.
func (a AuditAction) Title() string {
	if t, ok := auditTitles[a]; ok {
		return t
	}
	return string(a)
}

// AuditEntry is one recorded staff action.
type AuditEntry struct {
	Action    AuditAction `json:"action"`
	Actor     Actor       `json:"actor"`
	Target    Actor       `json:"target"`
	FromRank  string      `json:"from_rank,omitempty"`
	ToRank    string      `json:"to_rank,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
