package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/session"
)

const testUserID int64 = 42

// stubContext implements the slice of telebot.Context the handlers touch.
type stubContext struct {
	telebot.Context
	sender *telebot.User
	text   string
	data   string

	sent      []string
	responses []*telebot.CallbackResponse
}

func (s *stubContext) Sender() *telebot.User { return s.sender }

func (s *stubContext) Text() string { return s.text }

func (s *stubContext) Callback() *telebot.Callback {
	if s.data == "" {
		return nil
	}
	return &telebot.Callback{Data: s.data}
}

func (s *stubContext) Send(what interface{}, _ ...interface{}) error {
	s.sent = append(s.sent, fmt.Sprint(what))
	return nil
}

func (s *stubContext) Edit(what interface{}, _ ...interface{}) error {
	s.sent = append(s.sent, fmt.Sprint(what))
	return nil
}

func (s *stubContext) Respond(resp ...*telebot.CallbackResponse) error {
	s.responses = append(s.responses, resp...)
	return nil
}

func textInput(text string) *stubContext {
	return &stubContext{sender: &telebot.User{ID: testUserID}, text: text}
}

func callbackInput(data string) *stubContext {
	return &stubContext{sender: &telebot.User{ID: testUserID}, data: data}
}

func newTestTranslator(t *testing.T) i18n.Translator {
	t.Helper()

	m, err := i18n.Load("ru")
	require.NoError(t, err)

	return m.Translator("ru")
}

func newTestSessions() *session.Manager {
	return session.NewManager(session.NewMemoryStore(), nil, nil)
}

type fakeRuleRepo struct {
	rules   map[int64]*domain.Rule
	created []*domain.Rule
	updated []*domain.Rule
	nextID  int64
}

func newFakeRuleRepo(rules ...*domain.Rule) *fakeRuleRepo {
	repo := &fakeRuleRepo{rules: make(map[int64]*domain.Rule), nextID: 100}
	for _, r := range rules {
		repo.rules[r.ID] = r
	}
	return repo
}

func (f *fakeRuleRepo) Create(_ context.Context, rule *domain.Rule) (int64, error) {
	f.nextID++
	copied := *rule
	copied.ID = f.nextID
	f.rules[copied.ID] = &copied
	f.created = append(f.created, &copied)
	return copied.ID, nil
}

func (f *fakeRuleRepo) Get(_ context.Context, id int64) (*domain.Rule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *rule
	return &copied, nil
}

func (f *fakeRuleRepo) List(_ context.Context) ([]*domain.Rule, error) {
	out := make([]*domain.Rule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRuleRepo) ListByKind(_ context.Context, kind domain.PunishmentKind) ([]*domain.Rule, error) {
	var out []*domain.Rule
	for _, r := range f.rules {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule *domain.Rule) error {
	if _, ok := f.rules[rule.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *rule
	f.rules[rule.ID] = &copied
	f.updated = append(f.updated, &copied)
	return nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.rules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rules, id)
	return nil
}

func seedReportUserIDStep(t *testing.T, sessions *session.Manager) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, sessions.Advance(ctx, testUserID, session.StepReportUsername, nil))
	require.NoError(t, sessions.Advance(ctx, testUserID, session.StepReportUserID,
		map[string]string{session.KeyUsername: "@offender"}))
}

func TestReportStepUserIDRejectsNonPositiveInput(t *testing.T) {
	tr := newTestTranslator(t)

	for _, input := range []string{"-5", "+5", "0", "000", "12.5", "abc", ""} {
		t.Run("input "+input, func(t *testing.T) {
			sessions := newTestSessions()
			seedReportUserIDStep(t, sessions)

			flow := NewReportFlow(sessions, nil, tr, nil)
			c := textInput(input)

			require.NoError(t, flow.StepUserID(c))

			sess, err := sessions.Get(context.Background(), testUserID)
			require.NoError(t, err)
			assert.Equal(t, session.StepReportUserID, sess.Step, "flow must not advance")
			assert.Empty(t, sess.Value(session.KeyUserID))
			require.Len(t, c.sent, 1)
			assert.Equal(t, tr.T("report.invalid_user_id"), c.sent[0])
		})
	}
}

func TestReportStepUserIDAcceptsPositiveInput(t *testing.T) {
	tr := newTestTranslator(t)
	sessions := newTestSessions()
	seedReportUserIDStep(t, sessions)

	flow := NewReportFlow(sessions, nil, tr, nil)
	c := textInput("123456789")

	require.NoError(t, flow.StepUserID(c))

	sess, err := sessions.Get(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, session.StepReportLink, sess.Step)
	assert.Equal(t, "123456789", sess.Value(session.KeyUserID))
}

func TestEditRuleRunsFullBuilderAndOverwrites(t *testing.T) {
	tr := newTestTranslator(t)
	sessions := newTestSessions()
	repo := newFakeRuleRepo(&domain.Rule{
		ID:          7,
		Article:     "Спам",
		Description: "Старое описание",
		Kind:        domain.PunishMute,
		Duration:    "30 мин",
	})

	flow := NewRuleFlow(sessions, repo, tr, nil)
	ctx := context.Background()

	require.NoError(t, flow.EditDetails(callbackInput("edit_rule_details_7")))

	sess, err := sessions.Get(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, session.StepRuleArticle, sess.Step)
	assert.Equal(t, "7", sess.Value(session.KeyRuleID))

	require.NoError(t, flow.StepArticle(textInput("Спам 2.0")))
	require.NoError(t, flow.StepDescription(textInput("Новое описание нарушения")))
	require.NoError(t, flow.PickKind(callbackInput("rule_type_kick")))

	sess, err = sessions.Get(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, session.StepRuleConfirm, sess.Step)
	assert.Equal(t, "7", sess.Value(session.KeyRuleID), "rule id must survive the builder steps")

	confirm := callbackInput("confirm_rule_save")
	require.NoError(t, flow.ConfirmSave(confirm))

	assert.Empty(t, repo.created, "edit must not create a new rule")
	require.Len(t, repo.updated, 1)
	updated := repo.updated[0]
	assert.Equal(t, int64(7), updated.ID)
	assert.Equal(t, "Спам 2.0", updated.Article)
	assert.Equal(t, "Новое описание нарушения", updated.Description)
	assert.Equal(t, domain.PunishKick, updated.Kind)
	assert.Equal(t, domain.NoDurationSentinel, updated.Duration)

	require.NotEmpty(t, confirm.sent)
	assert.Equal(t, tr.T("rules.edited"), confirm.sent[len(confirm.sent)-1])

	_, err = sessions.Get(ctx, testUserID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestConfirmSaveCreatesWithoutSeededRuleID(t *testing.T) {
	tr := newTestTranslator(t)
	sessions := newTestSessions()
	repo := newFakeRuleRepo()

	flow := NewRuleFlow(sessions, repo, tr, nil)

	require.NoError(t, flow.Add(callbackInput("add_rule")))
	require.NoError(t, flow.StepArticle(textInput("Оскорбления")))
	require.NoError(t, flow.StepDescription(textInput("Оскорбления участников чата")))
	require.NoError(t, flow.PickKind(callbackInput("rule_type_kick")))
	require.NoError(t, flow.ConfirmSave(callbackInput("confirm_rule_save")))

	require.Len(t, repo.created, 1)
	assert.Empty(t, repo.updated)
	assert.Equal(t, "Оскорбления", repo.created[0].Article)
}

func TestEditDetailsRejectsUnknownRule(t *testing.T) {
	tr := newTestTranslator(t)
	sessions := newTestSessions()
	repo := newFakeRuleRepo()

	flow := NewRuleFlow(sessions, repo, tr, nil)
	c := callbackInput("edit_rule_details_99")

	require.NoError(t, flow.EditDetails(c))

	require.Len(t, c.responses, 1)
	assert.Equal(t, tr.T("rules.not_found"), c.responses[0].Text)

	_, err := sessions.Get(context.Background(), testUserID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
