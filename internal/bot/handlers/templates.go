package handlers

import (
	"context"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/session"
)

const (
	minTemplateTitleLen = 3
	minTemplateBodyLen  = 5
)

// TemplateFlow drives rejection template management.
type TemplateFlow struct {
	sessions  *session.Manager
	templates repository.TemplateRepository
	t         i18n.Translator
	log       *slog.Logger
}

// NewTemplateFlow builds the template management flow.
func NewTemplateFlow(sessions *session.Manager, templates repository.TemplateRepository, t i18n.Translator, log *slog.Logger) *TemplateFlow {
	if log == nil {
		log = slog.Default()
	}

	return &TemplateFlow{
		sessions:  sessions,
		templates: templates,
		t:         t,
		log:       log,
	}
}

// View lists the stored templates. Callback: view_templates.
func (f *TemplateFlow) View(c telebot.Context) error {
	if c == nil {
		return nil
	}

	templates, err := f.templates.List(context.Background())
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(f.t.T("templates.list_header"))
	if len(templates) == 0 {
		b.WriteString(f.t.T("templates.list_empty"))
	}
	for _, tpl := range templates {
		b.WriteString(f.t.Tf("templates.list_row", tpl.Title, tpl.Text))
	}

	return editOrSend(c, b.String(), keyboard.Templates(f.t), telebot.ModeHTML)
}

// Add begins the template creation conversation. Callback: add_template.
func (f *TemplateFlow) Add(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	if err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepTemplateTitle, nil); err != nil {
		return err
	}

	return editOrSend(c, f.t.T("templates.step_title"), telebot.ModeHTML)
}

// StepTitle consumes the template title input.
func (f *TemplateFlow) StepTitle(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	title := strings.TrimSpace(c.Text())
	if len([]rune(title)) < minTemplateTitleLen {
		return c.Send(f.t.T("templates.short_title"))
	}

	err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepTemplateBody,
		map[string]string{session.KeyTitle: title})
	if err != nil {
		return err
	}

	return c.Send(f.t.T("templates.step_body"), telebot.ModeHTML)
}

// StepBody consumes the template text and persists the template.
func (f *TemplateFlow) StepBody(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	body := strings.TrimSpace(c.Text())
	if len([]rune(body)) < minTemplateBodyLen {
		return c.Send(f.t.T("templates.short_body"))
	}

	ctx := context.Background()
	userID := c.Sender().ID

	sess, err := f.sessions.Get(ctx, userID)
	if err != nil {
		return c.Send(f.t.T("common.session_lost"))
	}

	template := &domain.RejectionTemplate{
		Title:     sess.Value(session.KeyTitle),
		Text:      body,
		CreatedBy: userID,
	}

	if _, err := f.templates.Create(ctx, template); err != nil {
		f.log.Error("failed to save template", slog.String("title", template.Title), slog.Any("error", err))
		return c.Send(f.t.T("templates.save_failed"))
	}

	if clearErr := f.sessions.Clear(ctx, userID); clearErr != nil {
		f.log.Error("failed to clear session after template save", slog.Int64("user_id", userID), slog.Any("error", clearErr))
	}

	return c.Send(f.t.Tf("templates.saved", template.Title), keyboard.Templates(f.t))
}
