package session

// validTransitions contains the permitted forward transitions between steps.
// Starting a new flow replaces whatever flow was in progress, so every flow
// entry step is reachable from idle and from any other step via StepIdle.
var validTransitions = map[Step][]Step{
	StepIdle: {
		StepReportUsername,
		StepRuleArticle,
		StepTemplateTitle,
	},
	StepReportUsername: {
		StepReportUserID,
	},
	StepReportUserID: {
		StepReportLink,
	},
	StepReportLink: {
		StepReportDescription,
	},
	StepReportDescription: {
		StepReportConfirm,
	},
	StepRuleArticle: {
		StepRuleDescription,
	},
	StepRuleDescription: {
		StepRuleKind,
	},
	StepRuleKind: {
		StepRuleDuration,
		StepRuleConfirm, // kick has no duration
	},
	StepRuleDuration: {
		StepRuleMuteCustom,
		StepRuleBanCustom,
		StepRuleConfirm,
	},
	StepRuleMuteCustom: {
		StepRuleConfirm,
	},
	StepRuleBanCustom: {
		StepRuleConfirm,
	},
	StepTemplateTitle: {
		StepTemplateBody,
	},
}

// IsTransitionAllowed reports whether moving from one step to another is valid.
// Returning to idle (cancel or completion) is always allowed, as is restarting
// a flow from its entry step.
func IsTransitionAllowed(from, to Step) bool {
	if to == StepIdle {
		return true
	}

	if isEntryStep(to) {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, step := range allowed {
		if step == to {
			return true
		}
	}

	return false
}

func isEntryStep(s Step) bool {
	switch s {
	case StepReportUsername, StepRuleArticle, StepTemplateTitle:
		return true
	}
	return false
}
