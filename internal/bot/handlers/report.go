package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/moderation"
	"github.com/nolyk/modbot/internal/session"
)

// ReportFlow drives the five-step report filing conversation.
type ReportFlow struct {
	sessions *session.Manager
	reports  *moderation.ReportService
	t        i18n.Translator
	log      *slog.Logger
}

// NewReportFlow builds the report filing flow.
func NewReportFlow(sessions *session.Manager, reports *moderation.ReportService, t i18n.Translator, log *slog.Logger) *ReportFlow {
	if log == nil {
		log = slog.Default()
	}

	return &ReportFlow{
		sessions: sessions,
		reports:  reports,
		t:        t,
		log:      log,
	}
}

// Start begins the flow from the start menu button.
func (f *ReportFlow) Start(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	if err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepReportUsername, nil); err != nil {
		return err
	}

	return editOrSend(c, f.t.T("report.step_username"))
}

// StepUsername consumes the target username input.
func (f *ReportFlow) StepUsername(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	username, err := moderation.NormalizeUsername(c.Text())
	if err != nil {
		return c.Send(f.t.T("report.invalid_username"))
	}

	err = f.sessions.Advance(context.Background(), c.Sender().ID, session.StepReportUserID,
		map[string]string{session.KeyUsername: username})
	if err != nil {
		return err
	}

	return c.Send(f.t.T("report.step_user_id"))
}

// StepUserID consumes the numeric target ID input.
func (f *ReportFlow) StepUserID(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	raw := strings.TrimSpace(c.Text())
	if !isPositiveID(raw) {
		return c.Send(f.t.T("report.invalid_user_id"))
	}

	err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepReportLink,
		map[string]string{session.KeyUserID: raw})
	if err != nil {
		return err
	}

	return c.Send(f.t.T("report.step_link"))
}

// isPositiveID accepts unsigned decimal digits only: no sign, no zero.
func isPositiveID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return strings.Trim(s, "0") != ""
}

// StepLink consumes the evidence link input.
func (f *ReportFlow) StepLink(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	link := moderation.NormalizeLink(c.Text())

	err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepReportDescription,
		map[string]string{session.KeyLink: link})
	if err != nil {
		return err
	}

	return c.Send(f.t.T("report.step_description"))
}

// StepDescription consumes the violation description and shows the summary.
func (f *ReportFlow) StepDescription(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	userID := c.Sender().ID

	description, err := moderation.ValidateDescription(c.Text())
	if err != nil {
		return c.Send(f.t.T("report.short_description"))
	}

	err = f.sessions.Advance(context.Background(), userID, session.StepReportConfirm,
		map[string]string{session.KeyDescription: description})
	if err != nil {
		return err
	}

	sess, err := f.sessions.Get(context.Background(), userID)
	if err != nil {
		return err
	}

	summary := f.t.Tf("report.confirm",
		sess.Value(session.KeyUsername),
		sess.Value(session.KeyUserID),
		sess.Value(session.KeyLink),
		sess.Value(session.KeyDescription),
	)

	return c.Send(summary, keyboard.SubmitReport(f.t), telebot.ModeHTML)
}

// Submit files the drafted report.
func (f *ReportFlow) Submit(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	sender := c.Sender()
	ctx := context.Background()

	sess, err := f.sessions.Get(ctx, sender.ID)
	if err != nil || sess.Step != session.StepReportConfirm {
		return editOrSend(c, f.t.T("common.session_lost"))
	}

	againstID, _ := strconv.ParseInt(sess.Value(session.KeyUserID), 10, 64)

	result, err := f.reports.Submit(ctx, moderation.SubmitInput{
		FromUserID:      sender.ID,
		FromUsername:    sender.Username,
		AgainstUserID:   againstID,
		AgainstUsername: sess.Value(session.KeyUsername),
		ViolationLink:   sess.Value(session.KeyLink),
		Description:     sess.Value(session.KeyDescription),
	})
	if err != nil {
		return err
	}

	if clearErr := f.sessions.Clear(ctx, sender.ID); clearErr != nil {
		f.log.Error("failed to clear session after submit", slog.Int64("user_id", sender.ID), slog.Any("error", clearErr))
	}

	if !result.Delivered {
		f.log.Warn("report accepted but card not delivered", slog.Int64("report_id", result.Report.ID))
	}

	return editOrSend(c, f.t.Tf("report.submitted", result.Report.ID))
}

// Cancel abandons the drafted report.
func (f *ReportFlow) Cancel(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	if err := f.sessions.Clear(context.Background(), c.Sender().ID); err != nil {
		f.log.Error("failed to clear session on cancel", slog.Int64("user_id", c.Sender().ID), slog.Any("error", err))
	}

	return editOrSend(c, f.t.T("report.cancelled"))
}
