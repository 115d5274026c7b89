package moderation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/telegram"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	ChatID  int64
	Text    string
	TopicID int
	Markup  *telebot.ReplyMarkup
}

type restriction struct {
	ChatID int64
	UserID int64
	Until  time.Time
}

// fakeAPI records chat operations and optionally fails sends.
type fakeAPI struct {
	sent        []sentMessage
	deleted     []telegram.Message
	restricted  []restriction
	unrestricted []restriction
	banned      []restriction
	unbanned    []restriction
	sendErr     error
	nextMsgID   int
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID int64, text string, opts telegram.SendOpts) (telegram.Message, error) {
	if f.sendErr != nil {
		return telegram.Message{}, f.sendErr
	}

	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, TopicID: opts.TopicID, Markup: opts.Markup})
	f.nextMsgID++
	return telegram.Message{ChatID: chatID, MessageID: f.nextMsgID}, nil
}

func (f *fakeAPI) EditMessage(_ context.Context, _ telegram.Message, _ string, _ *telebot.ReplyMarkup) error {
	return nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, msg telegram.Message) error {
	f.deleted = append(f.deleted, msg)
	return nil
}

func (f *fakeAPI) RestrictMember(_ context.Context, chatID, userID int64, until time.Time) error {
	f.restricted = append(f.restricted, restriction{ChatID: chatID, UserID: userID, Until: until})
	return nil
}

func (f *fakeAPI) UnrestrictMember(_ context.Context, chatID, userID int64) error {
	f.unrestricted = append(f.unrestricted, restriction{ChatID: chatID, UserID: userID})
	return nil
}

func (f *fakeAPI) BanMember(_ context.Context, chatID, userID int64, until time.Time) error {
	f.banned = append(f.banned, restriction{ChatID: chatID, UserID: userID, Until: until})
	return nil
}

func (f *fakeAPI) UnbanMember(_ context.Context, chatID, userID int64) error {
	f.unbanned = append(f.unbanned, restriction{ChatID: chatID, UserID: userID})
	return nil
}

// fakeReportRepo is an in-memory ReportRepository.
type fakeReportRepo struct {
	reports map[int64]*domain.Report
	nextID  int64
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[int64]*domain.Report)}
}

func (r *fakeReportRepo) Create(_ context.Context, report *domain.Report) (int64, error) {
	r.nextID++
	copied := *report
	copied.ID = r.nextID
	r.reports[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeReportRepo) Get(_ context.Context, id int64) (*domain.Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *report
	return &copied, nil
}

func (r *fakeReportRepo) AttachDelivery(_ context.Context, id, messageID, chatID, topicID int64) error {
	report, ok := r.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	if report.MessageID.Valid {
		return nil
	}
	report.MessageID.Int64, report.MessageID.Valid = messageID, true
	report.ChatID.Int64, report.ChatID.Valid = chatID, true
	report.TopicID.Int64, report.TopicID.Valid = topicID, true
	return nil
}

func (r *fakeReportRepo) Reject(_ context.Context, id int64) error {
	report, ok := r.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	if report.Status != domain.ReportOpen {
		return repository.ErrReportFinalized
	}
	report.Status = domain.ReportRejected
	return nil
}

func (r *fakeReportRepo) ListUndelivered(_ context.Context, limit int) ([]*domain.Report, error) {
	var result []*domain.Report
	for _, report := range r.reports {
		if report.Status == domain.ReportOpen && !report.Delivered() {
			copied := *report
			result = append(result, &copied)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// fakeRuleRepo is an in-memory RuleRepository.
type fakeRuleRepo struct {
	rules map[int64]*domain.Rule
}

func newFakeRuleRepo(rules ...*domain.Rule) *fakeRuleRepo {
	r := &fakeRuleRepo{rules: make(map[int64]*domain.Rule)}
	for _, rule := range rules {
		r.rules[rule.ID] = rule
	}
	return r
}

func (r *fakeRuleRepo) Create(_ context.Context, rule *domain.Rule) (int64, error) {
	id := int64(len(r.rules) + 1)
	copied := *rule
	copied.ID = id
	r.rules[id] = &copied
	return id, nil
}

func (r *fakeRuleRepo) Get(_ context.Context, id int64) (*domain.Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *rule
	return &copied, nil
}

func (r *fakeRuleRepo) List(_ context.Context) ([]*domain.Rule, error) {
	var result []*domain.Rule
	for _, rule := range r.rules {
		copied := *rule
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeRuleRepo) ListByKind(_ context.Context, kind domain.PunishmentKind) ([]*domain.Rule, error) {
	var result []*domain.Rule
	for _, rule := range r.rules {
		if rule.Kind == kind {
			copied := *rule
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeRuleRepo) Update(_ context.Context, rule *domain.Rule) error {
	if _, ok := r.rules[rule.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *rule
	r.rules[rule.ID] = &copied
	return nil
}

func (r *fakeRuleRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.rules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

// fakePunishmentRepo is an in-memory PunishmentRepository that also closes
// reports through a reference to the report repo, mirroring the transaction.
type fakePunishmentRepo struct {
	reports     *fakeReportRepo
	punishments map[int64]*domain.Punishment
	mutes       map[int64]*domain.ActiveMute
	nextID      int64
}

func newFakePunishmentRepo(reports *fakeReportRepo) *fakePunishmentRepo {
	return &fakePunishmentRepo{
		reports:     reports,
		punishments: make(map[int64]*domain.Punishment),
		mutes:       make(map[int64]*domain.ActiveMute),
	}
}

func (r *fakePunishmentRepo) CreateClosingReport(_ context.Context, p *domain.Punishment) (int64, error) {
	report, ok := r.reports.reports[p.ReportID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if report.Status != domain.ReportOpen {
		return 0, repository.ErrReportFinalized
	}
	report.Status = domain.ReportClosed

	r.nextID++
	copied := *p
	copied.ID = r.nextID
	r.punishments[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakePunishmentRepo) Get(_ context.Context, id int64) (*domain.Punishment, error) {
	p, ok := r.punishments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePunishmentRepo) ListClassified(_ context.Context) ([]*domain.Punishment, error) {
	var result []*domain.Punishment
	for _, p := range r.punishments {
		copied := *p
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakePunishmentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.punishments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.punishments, id)
	for muteID, mute := range r.mutes {
		if mute.PunishmentID == id {
			delete(r.mutes, muteID)
		}
	}
	return nil
}

func (r *fakePunishmentRepo) ReplaceMute(_ context.Context, mute *domain.ActiveMute) error {
	for id, existing := range r.mutes {
		if existing.UserID == mute.UserID && existing.ChatID == mute.ChatID {
			delete(r.mutes, id)
		}
	}
	id := int64(len(r.mutes) + 1)
	copied := *mute
	copied.ID = id
	r.mutes[id] = &copied
	return nil
}

func (r *fakePunishmentRepo) RemoveMute(_ context.Context, userID, chatID int64) error {
	for id, mute := range r.mutes {
		if mute.UserID == userID && mute.ChatID == chatID {
			delete(r.mutes, id)
		}
	}
	return nil
}

func (r *fakePunishmentRepo) IsMuted(_ context.Context, userID, chatID int64) (bool, error) {
	for _, mute := range r.mutes {
		if mute.UserID == userID && mute.ChatID == chatID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePunishmentRepo) DeleteExpiredMutes(_ context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	for id, mute := range r.mutes {
		if mute.ExpiresAt.Valid && mute.ExpiresAt.Time.Before(now) {
			delete(r.mutes, id)
			removed++
		}
	}
	return removed, nil
}

// fakeTemplateRepo is an in-memory TemplateRepository.
type fakeTemplateRepo struct {
	templates map[int64]*domain.RejectionTemplate
}

func newFakeTemplateRepo(templates ...*domain.RejectionTemplate) *fakeTemplateRepo {
	r := &fakeTemplateRepo{templates: make(map[int64]*domain.RejectionTemplate)}
	for _, t := range templates {
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeTemplateRepo) Create(_ context.Context, t *domain.RejectionTemplate) (int64, error) {
	id := int64(len(r.templates) + 1)
	copied := *t
	copied.ID = id
	r.templates[id] = &copied
	return id, nil
}

func (r *fakeTemplateRepo) Get(_ context.Context, id int64) (*domain.RejectionTemplate, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTemplateRepo) List(_ context.Context) ([]*domain.RejectionTemplate, error) {
	var result []*domain.RejectionTemplate
	for _, t := range r.templates {
		copied := *t
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

var errSendFailed = errors.New("telegram unavailable")
