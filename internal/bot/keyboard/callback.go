package keyboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// CallbackSeparator joins the action prefix with its arguments.
	CallbackSeparator = "_"
	// CallbackDataLimitBytes is the Telegram limit on callback payloads.
	CallbackDataLimitBytes = 64
)

// Callback action prefixes. Handlers register on these; arguments follow
// separated by underscores, e.g. "punishment_mute_12".
const (
	CallbackStartReport      = "start_report"
	CallbackSubmitReport     = "submit_report"
	CallbackCancelReport     = "cancel_report"
	CallbackPunishment       = "punishment"
	CallbackRule             = "rule"
	CallbackConfirm          = "confirm"
	CallbackCancelPunishment = "cancel_punishment"
	CallbackRejectReport     = "reject_report"
	CallbackRejectTemplate   = "reject_with_template"
	CallbackAdminMenu        = "admin_menu"
	CallbackAdminRules       = "admin_rules"
	CallbackAddRule          = "add_rule"
	CallbackViewRules        = "view_rules"
	CallbackEditRule         = "edit_rule"
	CallbackEditRuleDetails  = "edit_rule_details"
	CallbackDeleteRule       = "delete_rule"
	CallbackConfirmDelete    = "confirm_delete_rule"
	CallbackRuleType         = "rule_type"
	CallbackMuteDuration     = "mute_duration"
	CallbackBanDuration      = "ban_duration"
	CallbackConfirmRuleSave  = "confirm_rule_save"
	CallbackCancelAddRule    = "cancel_add_rule"
	CallbackViewPunished     = "view_punished_users"
	CallbackViewPunishment   = "view_punishment"
	CallbackRemovePunishment = "remove_punishment"
	CallbackViewTemplates    = "view_templates"
	CallbackAddTemplate      = "add_template"
)

// EncodeCallback joins an action prefix with its arguments, enforcing the
// payload size limit.
func EncodeCallback(prefix string, args ...string) (string, error) {
	parts := append([]string{prefix}, args...)
	payload := strings.Join(parts, CallbackSeparator)

	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

// MustEncode is EncodeCallback for statically sized payloads.
func MustEncode(prefix string, args ...string) string {
	payload, err := EncodeCallback(prefix, args...)
	if err != nil {
		panic(err)
	}
	return payload
}

// CallbackArgs strips the action prefix and returns the remaining
// underscore-separated arguments.
func CallbackArgs(data, prefix string) ([]string, error) {
	if data == prefix {
		return nil, nil
	}

	head := prefix + CallbackSeparator
	if !strings.HasPrefix(data, head) {
		return nil, errors.New("callback data does not match prefix " + prefix)
	}

	return strings.Split(data[len(head):], CallbackSeparator), nil
}

// CallbackInt64 parses the single int64 argument following the prefix.
func CallbackInt64(data, prefix string) (int64, error) {
	args, err := CallbackArgs(data, prefix)
	if err != nil {
		return 0, err
	}
	if len(args) != 1 {
		return 0, fmt.Errorf("callback %q: expected one argument, got %d", data, len(args))
	}

	return strconv.ParseInt(args[0], 10, 64)
}
