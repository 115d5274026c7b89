package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"
)

// Client implements API on top of a telebot instance.
type Client struct {
	bot *telebot.Bot
	log *slog.Logger
}

// NewClient wraps the given telebot bot.
func NewClient(bot *telebot.Bot, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{bot: bot, log: log}
}

// SendMessage delivers text to a chat, honoring topic and markup options.
func (c *Client) SendMessage(_ context.Context, chatID int64, text string, opts SendOpts) (Message, error) {
	sendOpts := &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
		ThreadID:  opts.TopicID,
	}
	if opts.Markup != nil {
		sendOpts.ReplyMarkup = opts.Markup
	}

	msg, err := c.bot.Send(telebot.ChatID(chatID), text, sendOpts)
	if err != nil {
		return Message{}, fmt.Errorf("send message to chat %d: %w", chatID, err)
	}

	return Message{ChatID: chatID, MessageID: msg.ID}, nil
}

// EditMessage replaces the text and markup of a previously sent message.
func (c *Client) EditMessage(_ context.Context, msg Message, text string, markup *telebot.ReplyMarkup) error {
	stored := telebot.StoredMessage{
		MessageID: strconv.Itoa(msg.MessageID),
		ChatID:    msg.ChatID,
	}

	opts := []interface{}{telebot.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}

	if _, err := c.bot.Edit(stored, text, opts...); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", msg.MessageID, msg.ChatID, err)
	}

	return nil
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(_ context.Context, msg Message) error {
	stored := telebot.StoredMessage{
		MessageID: strconv.Itoa(msg.MessageID),
		ChatID:    msg.ChatID,
	}

	if err := c.bot.Delete(stored); err != nil {
		return fmt.Errorf("delete message %d in chat %d: %w", msg.MessageID, msg.ChatID, err)
	}

	return nil
}

// RestrictMember mutes a chat member until the given time, or indefinitely
// when until is zero.
func (c *Client) RestrictMember(_ context.Context, chatID, userID int64, until time.Time) error {
	restrictedUntil := telebot.Forever()
	if !until.IsZero() {
		restrictedUntil = until.Unix()
	}

	member := &telebot.ChatMember{
		User:            &telebot.User{ID: userID},
		Rights:          telebot.NoRestrictions(),
		RestrictedUntil: restrictedUntil,
	}
	member.Rights.CanSendMessages = false
	member.Rights.CanSendMedia = false
	member.Rights.CanSendPolls = false
	member.Rights.CanSendOther = false

	if err := c.bot.Restrict(&telebot.Chat{ID: chatID}, member); err != nil {
		return fmt.Errorf("restrict user %d in chat %d: %w", userID, chatID, err)
	}

	return nil
}

// UnrestrictMember restores default member rights.
func (c *Client) UnrestrictMember(_ context.Context, chatID, userID int64) error {
	member := &telebot.ChatMember{
		User:   &telebot.User{ID: userID},
		Rights: telebot.NoRestrictions(),
	}

	if err := c.bot.Restrict(&telebot.Chat{ID: chatID}, member); err != nil {
		return fmt.Errorf("unrestrict user %d in chat %d: %w", userID, chatID, err)
	}

	return nil
}

// BanMember bans a chat member and revokes their messages.
func (c *Client) BanMember(_ context.Context, chatID, userID int64, until time.Time) error {
	restrictedUntil := telebot.Forever()
	if !until.IsZero() {
		restrictedUntil = until.Unix()
	}

	member := &telebot.ChatMember{
		User:            &telebot.User{ID: userID},
		RestrictedUntil: restrictedUntil,
	}

	if err := c.bot.Ban(&telebot.Chat{ID: chatID}, member, true); err != nil {
		return fmt.Errorf("ban user %d in chat %d: %w", userID, chatID, err)
	}

	return nil
}

// UnbanMember lifts a ban.
func (c *Client) UnbanMember(_ context.Context, chatID, userID int64) error {
	if err := c.bot.Unban(&telebot.Chat{ID: chatID}, &telebot.User{ID: userID}); err != nil {
		return fmt.Errorf("unban user %d in chat %d: %w", userID, chatID, err)
	}

	return nil
}
