package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/handlers"
	"github.com/nolyk/modbot/internal/bot/keyboard"
)

func markingHandler(mark *string, name string) handlers.CallbackHandler {
	return func(c telebot.Context) error {
		*mark = name
		return nil
	}
}

func TestFindCallbackHandlerPicksLongestPrefix(t *testing.T) {
	router := NewRouter(nil, nil)

	var hit string
	router.RegisterCallback(keyboard.CallbackRule, markingHandler(&hit, "rule"))
	router.RegisterCallback(keyboard.CallbackRuleType, markingHandler(&hit, "rule_type"))
	router.RegisterCallback(keyboard.CallbackConfirm, markingHandler(&hit, "confirm"))
	router.RegisterCallback(keyboard.CallbackConfirmDelete, markingHandler(&hit, "confirm_delete_rule"))
	router.RegisterCallback(keyboard.CallbackConfirmRuleSave, markingHandler(&hit, "confirm_rule_save"))
	router.RegisterCallback(keyboard.CallbackEditRule, markingHandler(&hit, "edit_rule"))
	router.RegisterCallback(keyboard.CallbackEditRuleDetails, markingHandler(&hit, "edit_rule_details"))

	tests := []struct {
		data string
		want string
	}{
		{"rule_mute_12_3", "rule"},
		{"rule_type_mute", "rule_type"},
		{"confirm_ban_12_5", "confirm"},
		{"confirm_delete_rule_7", "confirm_delete_rule"},
		{"confirm_rule_save", "confirm_rule_save"},
		{"edit_rule_5", "edit_rule"},
		{"edit_rule_details_5", "edit_rule_details"},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			handler := router.findCallbackHandler(tt.data)
			require.NotNil(t, handler)

			hit = ""
			require.NoError(t, handler(nil))
			assert.Equal(t, tt.want, hit)
		})
	}
}

func TestFindCallbackHandlerRejectsPartialWords(t *testing.T) {
	router := NewRouter(nil, nil)

	var hit string
	router.RegisterCallback(keyboard.CallbackRule, markingHandler(&hit, "rule"))

	assert.Nil(t, router.findCallbackHandler("rules_extra"))
	assert.Nil(t, router.findCallbackHandler("unrelated"))
	assert.NotNil(t, router.findCallbackHandler("rule"))
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "/start", commandName("/start"))
	assert.Equal(t, "/start", commandName("/start@modbot"))
	assert.Equal(t, "/admin", commandName("/admin now"))
	assert.Equal(t, "/admin", commandName("/admin@modbot now"))
}
