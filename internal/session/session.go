// Package session manages multi-step conversation state for bot users.
package session

import "time"

// Step represents a position inside a multi-step conversation flow.
type Step string

const (
	// StepIdle indicates that the bot is waiting for the next user command.
	StepIdle Step = "idle"

	// Report filing flow.
	StepReportUsername    Step = "report_username"
	StepReportUserID      Step = "report_user_id"
	StepReportLink        Step = "report_link"
	StepReportDescription Step = "report_description"
	StepReportConfirm     Step = "report_confirm"

	// Rule creation flow.
	StepRuleArticle     Step = "rule_article"
	StepRuleDescription Step = "rule_description"
	StepRuleKind        Step = "rule_kind"
	StepRuleDuration    Step = "rule_duration"
	StepRuleMuteCustom  Step = "rule_mute_custom"
	StepRuleBanCustom   Step = "rule_ban_custom"
	StepRuleConfirm     Step = "rule_confirm"

	// Rejection template flow.
	StepTemplateTitle Step = "template_title"
	StepTemplateBody  Step = "template_body"
)

// Keys for the per-session data map.
const (
	KeyTitle       = "title"
	KeyUsername    = "username"
	KeyUserID      = "user_id"
	KeyLink        = "link"
	KeyDescription = "description"
	KeyArticle     = "article"
	KeyKind        = "kind"
	KeyDuration    = "duration"
	KeyRuleID      = "rule_id"
	KeyReportID    = "report_id"
)

// Session captures the conversation position and collected input for one user.
type Session struct {
	UserID    int64             `json:"user_id"`
	Step      Step              `json:"step"`
	Data      map[string]string `json:"data"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Value returns the stored data value for key, or "" when absent.
func (s *Session) Value(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// With returns a copy of the session data with key set to value.
func (s *Session) With(key, value string) map[string]string {
	data := make(map[string]string, len(s.Data)+1)
	for k, v := range s.Data {
		data[k] = v
	}
	data[key] = value
	return data
}
