package moderation

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nolyk/modbot/internal/apperr"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
)

const (
	testGroupID       = int64(-100200)
	testTopicID       = int64(7)
	testEnforceChatID = int64(-100300)
	testAppealURL     = "https://t.me/example"
)

func testTranslator(t *testing.T) i18n.Translator {
	t.Helper()

	m, err := i18n.Load("ru")
	require.NoError(t, err)
	return m.Translator("ru")
}

type fixture struct {
	api         *fakeAPI
	reports     *fakeReportRepo
	rules       *fakeRuleRepo
	punishments *fakePunishmentRepo
	templates   *fakeTemplateRepo
	reportSvc   *ReportService
	punishSvc   *PunishmentService
	enforcer    *Enforcer
}

func newFixture(t *testing.T, rules ...*domain.Rule) *fixture {
	t.Helper()

	api := &fakeAPI{}
	reports := newFakeReportRepo()
	ruleRepo := newFakeRuleRepo(rules...)
	punishments := newFakePunishmentRepo(reports)
	templates := newFakeTemplateRepo(&domain.RejectionTemplate{ID: 1, Title: "Спам", Text: "Жалоба не содержит нарушения."})
	tr := testTranslator(t)
	log := testLogger()

	enforcer := NewEnforcer(api, punishments, testEnforceChatID, log)
	reportSvc := NewReportService(reports, templates, api, tr, testGroupID, testTopicID, log)
	punishSvc := NewPunishmentService(punishments, reports, ruleRepo, enforcer, api, tr, testAppealURL, log)

	return &fixture{
		api:         api,
		reports:     reports,
		rules:       ruleRepo,
		punishments: punishments,
		templates:   templates,
		reportSvc:   reportSvc,
		punishSvc:   punishSvc,
		enforcer:    enforcer,
	}
}

func (f *fixture) submitReport(t *testing.T) *domain.Report {
	t.Helper()

	result, err := f.reportSvc.Submit(context.Background(), SubmitInput{
		FromUserID:      100,
		FromUsername:    "reporter",
		AgainstUserID:   200,
		AgainstUsername: "troll",
		ViolationLink:   "https://t.me/c/1/2",
		Description:     "оскорбления в чате",
	})
	require.NoError(t, err)
	require.True(t, result.Delivered)
	return result.Report
}

func TestNormalizeUsername(t *testing.T) {
	username, err := NormalizeUsername(" @troll ")
	require.NoError(t, err)
	assert.Equal(t, "troll", username)

	_, err = NormalizeUsername("@ab")
	assert.Error(t, err)
}

func TestNormalizeLink(t *testing.T) {
	assert.Equal(t, domain.NoLinkSentinel, NormalizeLink("нет"))
	assert.Equal(t, domain.NoLinkSentinel, NormalizeLink(" НЕТ "))
	assert.Equal(t, "https://t.me/c/1/2", NormalizeLink("https://t.me/c/1/2"))
}

func TestValidateDescription(t *testing.T) {
	_, err := ValidateDescription("спам")
	assert.Error(t, err)

	description, err := ValidateDescription("  рассылал рекламу  ")
	require.NoError(t, err)
	assert.Equal(t, "рассылал рекламу", description)
}

func TestSubmitDeliversCardToTopic(t *testing.T) {
	f := newFixture(t)

	report := f.submitReport(t)

	require.Len(t, f.api.sent, 1)
	card := f.api.sent[0]
	assert.Equal(t, testGroupID, card.ChatID)
	assert.Equal(t, int(testTopicID), card.TopicID)
	assert.Contains(t, card.Text, "НОВАЯ ЖАЛОБА #1")
	assert.Contains(t, card.Text, "@troll")
	require.NotNil(t, card.Markup)

	stored, err := f.reports.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.True(t, stored.Delivered())
	assert.Equal(t, domain.ReportOpen, stored.Status)
}

func TestSubmitSurvivesDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.api.sendErr = errSendFailed

	result, err := f.reportSvc.Submit(context.Background(), SubmitInput{
		FromUserID:      100,
		FromUsername:    "reporter",
		AgainstUserID:   200,
		AgainstUsername: "troll",
		ViolationLink:   domain.NoLinkSentinel,
		Description:     "длинное описание",
	})
	require.NoError(t, err)
	assert.False(t, result.Delivered)

	stored, err := f.reports.Get(context.Background(), result.Report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportOpen, stored.Status)
	assert.False(t, stored.Delivered())

	// once the API recovers, the sweep picks the report up
	f.api.sendErr = nil
	delivered, err := f.reportSvc.RedeliverPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	stored, err = f.reports.Get(context.Background(), result.Report.ID)
	require.NoError(t, err)
	assert.True(t, stored.Delivered())
}

func TestPunishMuteClosesReportAndRestricts(t *testing.T) {
	rule := &domain.Rule{ID: 3, Article: "Статья 1", Description: "Оскорбления", Kind: domain.PunishMute, Duration: "60"}
	f := newFixture(t, rule)
	report := f.submitReport(t)

	start := time.Now()
	result, err := f.punishSvc.Punish(context.Background(), PunishCommand{
		ReportID:  report.ID,
		RuleID:    rule.ID,
		Kind:      domain.PunishMute,
		AppliedBy: 999,
	})
	require.NoError(t, err)

	stored, err := f.reports.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportClosed, stored.Status)

	require.Len(t, f.api.restricted, 1)
	restricted := f.api.restricted[0]
	assert.Equal(t, testEnforceChatID, restricted.ChatID)
	assert.Equal(t, int64(200), restricted.UserID)
	assert.WithinDuration(t, start.Add(time.Hour), restricted.Until, 5*time.Second)

	muted, err := f.punishments.IsMuted(context.Background(), 200, testEnforceChatID)
	require.NoError(t, err)
	assert.True(t, muted)

	// offender received a DM with the appeal button
	var dm *sentMessage
	for i := range f.api.sent {
		if f.api.sent[i].ChatID == 200 {
			dm = &f.api.sent[i]
		}
	}
	require.NotNil(t, dm)
	assert.Contains(t, dm.Text, "Вам выдано наказание")
	assert.Contains(t, dm.Text, "Статья 1")
	assert.Contains(t, dm.Text, "MUTE")
	require.NotNil(t, dm.Markup)
	assert.Equal(t, testAppealURL, dm.Markup.InlineKeyboard[0][0].URL)

	// report card removed from the moderation topic
	require.Len(t, f.api.deleted, 1)
	assert.Equal(t, testGroupID, f.api.deleted[0].ChatID)

	assert.Equal(t, result.Punishment.ReportID, report.ID)
}

func TestPunishKickBansThenUnbans(t *testing.T) {
	rule := &domain.Rule{ID: 4, Article: "Статья 2", Description: "Флуд", Kind: domain.PunishKick, Duration: domain.NoDurationSentinel}
	f := newFixture(t, rule)
	report := f.submitReport(t)

	_, err := f.punishSvc.Punish(context.Background(), PunishCommand{
		ReportID: report.ID,
		RuleID:   rule.ID,
		Kind:     domain.PunishKick,
	})
	require.NoError(t, err)

	require.Len(t, f.api.banned, 1)
	require.Len(t, f.api.unbanned, 1)
	assert.Equal(t, int64(200), f.api.banned[0].UserID)
	assert.True(t, f.api.banned[0].Until.IsZero())
	assert.Empty(t, f.api.restricted)

	muted, err := f.punishments.IsMuted(context.Background(), 200, testEnforceChatID)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestPunishBanUsesDayOffset(t *testing.T) {
	rule := &domain.Rule{ID: 5, Article: "Статья 3", Description: "Спам", Kind: domain.PunishBan, Duration: "7 дней"}
	f := newFixture(t, rule)
	report := f.submitReport(t)

	start := time.Now()
	_, err := f.punishSvc.Punish(context.Background(), PunishCommand{
		ReportID: report.ID,
		RuleID:   rule.ID,
		Kind:     domain.PunishBan,
	})
	require.NoError(t, err)

	require.Len(t, f.api.banned, 1)
	assert.WithinDuration(t, start.AddDate(0, 0, 7), f.api.banned[0].Until, 5*time.Second)
	assert.Empty(t, f.api.unbanned)
}

func TestPunishRejectsFinalizedReport(t *testing.T) {
	rule := &domain.Rule{ID: 3, Article: "Статья 1", Description: "Оскорбления", Kind: domain.PunishMute, Duration: "60"}
	f := newFixture(t, rule)
	report := f.submitReport(t)

	cmd := PunishCommand{ReportID: report.ID, RuleID: rule.ID, Kind: domain.PunishMute}
	_, err := f.punishSvc.Punish(context.Background(), cmd)
	require.NoError(t, err)

	_, err = f.punishSvc.Punish(context.Background(), cmd)
	require.Error(t, err)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeState, appErr.Code)
}

func TestPunishRejectsKindMismatch(t *testing.T) {
	rule := &domain.Rule{ID: 3, Article: "Статья 1", Description: "Оскорбления", Kind: domain.PunishMute, Duration: "60"}
	f := newFixture(t, rule)
	report := f.submitReport(t)

	_, err := f.punishSvc.Punish(context.Background(), PunishCommand{
		ReportID: report.ID,
		RuleID:   rule.ID,
		Kind:     domain.PunishBan,
	})
	require.Error(t, err)

	stored, err := f.reports.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportOpen, stored.Status)
}

func TestRejectSendsTemplateReply(t *testing.T) {
	f := newFixture(t)
	report := f.submitReport(t)

	template, err := f.reportSvc.Reject(context.Background(), report.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Спам", template.Title)

	stored, err := f.reports.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportRejected, stored.Status)

	var reply *sentMessage
	for i := range f.api.sent {
		if f.api.sent[i].ChatID == 100 {
			reply = &f.api.sent[i]
		}
	}
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "Ответ на вашу жалобу #1")
	assert.Contains(t, reply.Text, "Спам")

	require.Len(t, f.api.deleted, 1)
}

func TestRejectFinalizedReportFails(t *testing.T) {
	f := newFixture(t)
	report := f.submitReport(t)

	_, err := f.reportSvc.Reject(context.Background(), report.ID, 1)
	require.NoError(t, err)

	_, err = f.reportSvc.Reject(context.Background(), report.ID, 1)
	require.Error(t, err)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeState, appErr.Code)
}

func TestLiftMuteUnrestrictsAndDeletes(t *testing.T) {
	rule := &domain.Rule{ID: 3, Article: "Статья 1", Description: "Оскорбления", Kind: domain.PunishMute, Duration: "none"}
	f := newFixture(t, rule)
	report := f.submitReport(t)

	result, err := f.punishSvc.Punish(context.Background(), PunishCommand{
		ReportID: report.ID,
		RuleID:   rule.ID,
		Kind:     domain.PunishMute,
	})
	require.NoError(t, err)

	// indefinite mute has no expiry on the restriction
	require.Len(t, f.api.restricted, 1)
	assert.True(t, f.api.restricted[0].Until.IsZero())

	lifted, err := f.punishSvc.Lift(context.Background(), result.Punishment.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Punishment.ID, lifted.ID)

	require.Len(t, f.api.unrestricted, 1)
	assert.Equal(t, int64(200), f.api.unrestricted[0].UserID)

	_, err = f.punishments.Get(context.Background(), result.Punishment.ID)
	assert.Error(t, err)

	muted, err := f.punishments.IsMuted(context.Background(), 200, testEnforceChatID)
	require.NoError(t, err)
	assert.False(t, muted)

	// user notified about the lifted punishment
	found := false
	for _, msg := range f.api.sent {
		if msg.ChatID == 200 && strings.Contains(msg.Text, "отменено") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNotifyOffenderSkipsSentinelLink(t *testing.T) {
	rule := &domain.Rule{ID: 3, Article: "Статья 1", Description: "Оскорбления", Kind: domain.PunishMute, Duration: "60"}
	f := newFixture(t, rule)

	reportID, err := f.reports.Create(context.Background(), &domain.Report{
		FromUserID:      100,
		FromUsername:    "reporter",
		AgainstUserID:   sql.NullInt64{Int64: 200, Valid: true},
		AgainstUsername: "troll",
		ViolationLink:   domain.NoLinkSentinel,
		Description:     "описание нарушения",
		Status:          domain.ReportOpen,
	})
	require.NoError(t, err)

	_, err = f.punishSvc.Punish(context.Background(), PunishCommand{
		ReportID: reportID,
		RuleID:   rule.ID,
		Kind:     domain.PunishMute,
	})
	require.NoError(t, err)

	for _, msg := range f.api.sent {
		if msg.ChatID == 200 {
			assert.NotContains(t, msg.Text, domain.NoLinkSentinel)
		}
	}
}
