// Package telegram wraps the chat API surface the bot depends on behind a
// narrow interface, keeping enforcement and delivery code testable.
package telegram

import (
	"context"
	"time"

	telebot "gopkg.in/telebot.v3"
)

// Message identifies a sent message for later edits or deletion.
type Message struct {
	ChatID    int64
	MessageID int
}

// SendOpts carries optional delivery parameters.
type SendOpts struct {
	TopicID int
	Markup  *telebot.ReplyMarkup
}

// API is the chat operations surface used by the moderation services.
type API interface {
	// SendMessage delivers text to a chat, optionally into a forum topic and
	// with inline markup attached.
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOpts) (Message, error)
	// EditMessage replaces the text and markup of a previously sent message.
	EditMessage(ctx context.Context, msg Message, text string, markup *telebot.ReplyMarkup) error
	// DeleteMessage removes a previously sent message.
	DeleteMessage(ctx context.Context, msg Message) error
	// RestrictMember mutes a chat member. A zero until means indefinitely.
	RestrictMember(ctx context.Context, chatID, userID int64, until time.Time) error
	// UnrestrictMember restores default member rights.
	UnrestrictMember(ctx context.Context, chatID, userID int64) error
	// BanMember bans a chat member and revokes their messages. A zero until
	// means permanently.
	BanMember(ctx context.Context, chatID, userID int64, until time.Time) error
	// UnbanMember lifts a ban, returning the user to non-member status.
	UnbanMember(ctx context.Context, chatID, userID int64) error
}
