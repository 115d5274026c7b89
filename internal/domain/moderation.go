package domain

import (
	"database/sql"
	"strings"
	"time"
)

// PunishmentKind enumerates the actions an admin can apply to an offender.
type PunishmentKind string

const (
	PunishMute PunishmentKind = "mute"
	PunishKick PunishmentKind = "kick"
	PunishBan  PunishmentKind = "ban"
)

// Valid reports whether the kind is one of the supported punishment actions.
func (k PunishmentKind) Valid() bool {
	switch k {
	case PunishMute, PunishKick, PunishBan:
		return true
	}
	return false
}

var kindLabels = map[PunishmentKind]string{}

// SetKindLabels installs config-driven display labels keyed by kind name.
// Unknown kinds and empty labels are ignored.
func SetKindLabels(labels map[string]string) {
	m := make(map[PunishmentKind]string, len(labels))
	for name, label := range labels {
		kind := PunishmentKind(strings.ToLower(strings.TrimSpace(name)))
		if kind.Valid() && strings.TrimSpace(label) != "" {
			m[kind] = label
		}
	}
	kindLabels = m
}

// Label renders the kind the way it appears in cards and lists. Configured
// labels take precedence; the upper-cased kind name is the fallback.
func (k PunishmentKind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return strings.ToUpper(string(k))
}

// ReportStatus tracks the lifecycle of a filed report.
type ReportStatus string

const (
	ReportOpen     ReportStatus = "open"
	ReportClosed   ReportStatus = "closed"
	ReportRejected ReportStatus = "rejected"
)

// NoDurationSentinel marks rules whose punishment carries no duration (kick).
const NoDurationSentinel = "N/A"

// NoLinkSentinel replaces the evidence link when the reporter has none.
const NoLinkSentinel = "Ссылка не предоставлена"

// Rule is a named policy violation with an associated punishment.
type Rule struct {
	ID          int64
	Article     string
	Description string
	Kind        PunishmentKind
	Duration    string
	CreatedBy   int64
	CreatedAt   time.Time
}

// HasDuration reports whether the rule carries a meaningful duration descriptor.
func (r *Rule) HasDuration() bool {
	return r.Duration != "" && r.Duration != NoDurationSentinel
}

// Report is a filed complaint against a target user.
type Report struct {
	ID             int64
	FromUserID     int64
	FromUsername   string
	AgainstUserID  sql.NullInt64
	AgainstUsername string
	ViolationLink  string
	Description    string
	MessageID      sql.NullInt64
	ChatID         sql.NullInt64
	TopicID        sql.NullInt64
	Status         ReportStatus
	CreatedAt      time.Time
}

// Delivered reports whether the report card was posted to the moderation topic.
func (r *Report) Delivered() bool {
	return r.MessageID.Valid && r.ChatID.Valid
}

// Punishment records an enforcement action tied to a report.
type Punishment struct {
	ID        int64
	ReportID  int64
	UserID    int64
	Username  string
	RuleID    sql.NullInt64
	Kind      PunishmentKind
	Duration  string
	AppliedBy int64
	AppliedAt time.Time

	// Active is a read-time classification, not a stored column.
	Active bool
}

// ActiveMute is the live-restriction index row for a (user, chat) pair.
type ActiveMute struct {
	ID           int64
	UserID       int64
	ChatID       int64
	PunishmentID int64
	ExpiresAt    sql.NullTime
}

// RejectionTemplate is a canned reply sent to reporters on rejection.
type RejectionTemplate struct {
	ID        int64
	Title     string
	Text      string
	CreatedBy int64
	CreatedAt time.Time
}

// Admin is a dynamic allow-list entry granting triage authority.
type Admin struct {
	UserID   int64
	Username string
	AddedAt  time.Time
}
