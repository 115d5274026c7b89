package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/apperr"
	"github.com/nolyk/modbot/internal/bot/handlers"
	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/middleware"
	"github.com/nolyk/modbot/internal/moderation"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/session"
	"github.com/nolyk/modbot/pkg/config"
)

// Dependencies carries the application services the bot handlers need.
type Dependencies struct {
	Sessions    *session.Manager
	Reports     *moderation.ReportService
	Punishments *moderation.PunishmentService
	Rules       repository.RuleRepository
	Templates   repository.TemplateRepository
	ReportRepo  repository.ReportRepository
	Admins      repository.AdminRepository
	Translator  i18n.Translator
	ErrHandler  *apperr.Handler
}

// Bot wraps telebot.Bot with the routing and middleware stack.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	dispatcher *Dispatcher
	adminGate  handlers.Middleware
}

// NewTelebot builds the underlying telebot instance according to the
// application settings. It is separate from New so the chat API client
// can be wired into the services before the handlers are registered.
func NewTelebot(cfg config.Config) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token:     cfg.Bot.Token,
		ParseMode: telebot.ModeHTML,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Bot.ListenURL,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return tb, nil
}

// New attaches the routing and middleware stack to tb.
func New(cfg config.Config, log *slog.Logger, tb *telebot.Bot, deps Dependencies) *Bot {
	dispatcher := NewDispatcher(deps.Sessions, log)
	router := NewRouter(dispatcher, log)

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     router,
		dispatcher: dispatcher,
		adminGate:  AdminGate(deps.Admins, deps.Translator, log),
	}

	b.setupRouter(deps)

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)

	return b
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(deps Dependencies) {
	t := deps.Translator

	b.router.Use(RecoveryMiddleware(b.log, deps.ErrHandler))
	b.router.Use(ErrorHandlingMiddleware(deps.ErrHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	reportFlow := handlers.NewReportFlow(deps.Sessions, deps.Reports, t, b.log)
	triageFlow := handlers.NewTriageFlow(deps.Rules, deps.ReportRepo, deps.Templates, deps.Reports, deps.Punishments, t, b.log)
	ruleFlow := handlers.NewRuleFlow(deps.Sessions, deps.Rules, t, b.log)
	punishedFlow := handlers.NewPunishedFlow(deps.Punishments, deps.Rules, t, b.log)
	templateFlow := handlers.NewTemplateFlow(deps.Sessions, deps.Templates, t, b.log)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(deps.Sessions, t, b.log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(deps.Sessions, t, b.log))
	b.router.RegisterCommand(CommandAdmin, b.adminOnly(handlers.NewAdminHandler(t, b.log)))

	// reporter-facing callbacks
	b.router.RegisterCallback(keyboard.CallbackStartReport, handlers.CallbackHandler(reportFlow.Start))
	b.router.RegisterCallback(keyboard.CallbackSubmitReport, handlers.CallbackHandler(reportFlow.Submit))
	b.router.RegisterCallback(keyboard.CallbackCancelReport, handlers.CallbackHandler(reportFlow.Cancel))

	// triage callbacks
	b.registerAdminCallback(keyboard.CallbackPunishment, triageFlow.PickPunishment)
	b.registerAdminCallback(keyboard.CallbackRule, triageFlow.PickRule)
	b.registerAdminCallback(keyboard.CallbackConfirm, triageFlow.ConfirmPunishment)
	b.registerAdminCallback(keyboard.CallbackCancelPunishment, triageFlow.CancelPunishment)
	b.registerAdminCallback(keyboard.CallbackRejectReport, triageFlow.Reject)
	b.registerAdminCallback(keyboard.CallbackRejectTemplate, triageFlow.RejectWithTemplate)

	// admin panel callbacks
	b.registerAdminCallback(keyboard.CallbackAdminMenu, handlers.HandleAdminMenu(t))
	b.registerAdminCallback(keyboard.CallbackAdminRules, handlers.HandleAdminRules(t))

	// rule management callbacks
	b.registerAdminCallback(keyboard.CallbackAddRule, ruleFlow.Add)
	b.registerAdminCallback(keyboard.CallbackViewRules, ruleFlow.View)
	b.registerAdminCallback(keyboard.CallbackRuleType, ruleFlow.PickKind)
	b.registerAdminCallback(keyboard.CallbackMuteDuration, ruleFlow.PickMuteDuration)
	b.registerAdminCallback(keyboard.CallbackBanDuration, ruleFlow.PickBanDuration)
	b.registerAdminCallback(keyboard.CallbackConfirmRuleSave, ruleFlow.ConfirmSave)
	b.registerAdminCallback(keyboard.CallbackCancelAddRule, ruleFlow.CancelAdd)
	b.registerAdminCallback(keyboard.CallbackEditRule, ruleFlow.Edit)
	b.registerAdminCallback(keyboard.CallbackEditRuleDetails, ruleFlow.EditDetails)
	b.registerAdminCallback(keyboard.CallbackDeleteRule, ruleFlow.Delete)
	b.registerAdminCallback(keyboard.CallbackConfirmDelete, ruleFlow.ConfirmDelete)

	// punished users callbacks
	b.registerAdminCallback(keyboard.CallbackViewPunished, punishedFlow.List)
	b.registerAdminCallback(keyboard.CallbackViewPunishment, punishedFlow.Detail)
	b.registerAdminCallback(keyboard.CallbackRemovePunishment, punishedFlow.Remove)

	// template management callbacks
	b.registerAdminCallback(keyboard.CallbackViewTemplates, templateFlow.View)
	b.registerAdminCallback(keyboard.CallbackAddTemplate, templateFlow.Add)

	// conversation step handlers
	b.dispatcher.RegisterStepHandler(session.StepReportUsername, reportFlow.StepUsername)
	b.dispatcher.RegisterStepHandler(session.StepReportUserID, reportFlow.StepUserID)
	b.dispatcher.RegisterStepHandler(session.StepReportLink, reportFlow.StepLink)
	b.dispatcher.RegisterStepHandler(session.StepReportDescription, reportFlow.StepDescription)

	b.dispatcher.RegisterStepHandler(session.StepRuleArticle, b.adminOnly(ruleFlow.StepArticle))
	b.dispatcher.RegisterStepHandler(session.StepRuleDescription, b.adminOnly(ruleFlow.StepDescription))
	b.dispatcher.RegisterStepHandler(session.StepRuleMuteCustom, b.adminOnly(ruleFlow.StepMuteCustom))
	b.dispatcher.RegisterStepHandler(session.StepRuleBanCustom, b.adminOnly(ruleFlow.StepBanCustom))

	b.dispatcher.RegisterStepHandler(session.StepTemplateTitle, b.adminOnly(templateFlow.StepTitle))
	b.dispatcher.RegisterStepHandler(session.StepTemplateBody, b.adminOnly(templateFlow.StepBody))
}

func (b *Bot) adminOnly(h handlers.Handler) handlers.Handler {
	return b.adminGate(h)
}

func (b *Bot) registerAdminCallback(prefix string, h handlers.CallbackHandler) {
	gated := b.adminGate(handlers.Handler(h))
	b.router.RegisterCallback(prefix, handlers.CallbackHandler(gated))
}
