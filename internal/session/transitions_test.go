package session

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     Step
		to       Step
		expected bool
	}{
		{name: "idle to report username", from: StepIdle, to: StepReportUsername, expected: true},
		{name: "report username to user id", from: StepReportUsername, to: StepReportUserID, expected: true},
		{name: "report user id to link", from: StepReportUserID, to: StepReportLink, expected: true},
		{name: "report link to description", from: StepReportLink, to: StepReportDescription, expected: true},
		{name: "report description to confirm", from: StepReportDescription, to: StepReportConfirm, expected: true},
		{name: "report cannot skip to confirm", from: StepReportUsername, to: StepReportConfirm, expected: false},
		{name: "report cannot go backwards", from: StepReportLink, to: StepReportUserID, expected: false},
		{name: "rule article to description", from: StepRuleArticle, to: StepRuleDescription, expected: true},
		{name: "rule kind to duration", from: StepRuleKind, to: StepRuleDuration, expected: true},
		{name: "rule kind straight to confirm for kick", from: StepRuleKind, to: StepRuleConfirm, expected: true},
		{name: "rule duration to custom mute", from: StepRuleDuration, to: StepRuleMuteCustom, expected: true},
		{name: "rule duration to custom ban", from: StepRuleDuration, to: StepRuleBanCustom, expected: true},
		{name: "custom mute to confirm", from: StepRuleMuteCustom, to: StepRuleConfirm, expected: true},
		{name: "rule article cannot skip to confirm", from: StepRuleArticle, to: StepRuleConfirm, expected: false},
		{name: "template title to body", from: StepTemplateTitle, to: StepTemplateBody, expected: true},
		{name: "any step back to idle", from: StepReportConfirm, to: StepIdle, expected: true},
		{name: "unknown step back to idle", from: Step("whatever"), to: StepIdle, expected: true},
		{name: "new report flow replaces rule flow", from: StepRuleDescription, to: StepReportUsername, expected: true},
		{name: "new rule flow replaces report flow", from: StepReportLink, to: StepRuleArticle, expected: true},
		{name: "unknown step cannot advance", from: Step("whatever"), to: StepReportUserID, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
