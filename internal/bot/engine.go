// Package bot implements the Telegram dialog engine: per-user conversation
// flows, role-gated commands, inline keyboard navigation and the admin
// moderation actions.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mpsb/internal/flow"
	"mpsb/internal/metrics"
	"mpsb/internal/models"
	"mpsb/internal/session"
	"mpsb/internal/uplink"
)

// Config carries the bot's wiring-time settings.
type Config struct {
	UploadBaseURL string
}

type Bot struct {
	tg       TelegramClient
	repo     Repository
	sessions session.Store
	cache    *IdentityCache
	registry *flow.Registry
	signer   *uplink.Signer
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	limiter  *rate.Limiter
	cfg      Config
}

func New(
	tg TelegramClient,
	repo Repository,
	sessions session.Store,
	cache *IdentityCache,
	signer *uplink.Signer,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cfg Config,
) *Bot {
	b := &Bot{
		tg:       tg,
		repo:     repo,
		sessions: sessions,
		cache:    cache,
		signer:   signer,
		metrics:  m,
		logger:   logger.With().Str("component", "bot").Logger(),
		// Telegram allows ~30 messages/sec overall; stay under it when
		// broadcasting.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
		cfg:     cfg,
	}
	b.registry = b.buildRegistry()
	return b
}

// Start consumes updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.tg.GetUpdatesChan(updateConfig)

	b.logger.Info().Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			b.logger.Info().Msg("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	logger := b.logger.With().Str("request_id", uuid.New().String()).Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("update handler panicked")
		}
		b.metrics.HandlerDuration.Observe(time.Since(start).Seconds())
	}()

	switch {
	case update.CallbackQuery != nil:
		b.metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage orchestrates one inbound chat message end-to-end: session
// load, global intercepts, top-level commands, step dispatch, completion
// handling and the final persist.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	logger := zerolog.Ctx(ctx)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	acc := b.resolveAccess(ctx, userID)

	state, err := b.sessions.Load(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("session load failed")
		return
	}
	if state == nil {
		if acc.User == nil {
			state = flow.NewRegistrationState()
		} else {
			state = flow.NewIdleState()
		}
	}

	// Global intercepts, in priority order.
	switch msg.Text {
	case cmdResendRequest:
		if acc.User != nil {
			b.retractPendingRequest(ctx, userID)
			if err := b.repo.DeleteUser(ctx, userID); err != nil {
				logger.Error().Err(err).Int64("user_id", userID).Msg("delete user failed")
			}
			b.cache.Remove(userID)
		}
		state = flow.NewRegistrationState()
	case cmdRegister:
		state = flow.NewRegistrationState()
	default:
		if acc.User != nil && acc.Role != models.RoleGuest {
			if b.dispatchCommand(ctx, msg, acc, state) {
				return
			}
		}
	}

	// Command handling (start, homeworks) arrives as Telegram commands too.
	if msg.IsCommand() {
		if b.dispatchSlashCommand(ctx, msg, acc) {
			return
		}
	}

	handler, ok := b.registry.Lookup(state.CurrentFlow, state.Step)
	if !ok {
		logger.Info().Str("flow", string(state.CurrentFlow)).Str("step", string(state.Step)).
			Int64("user_id", userID).Msg("no handler, prompting selection")
		b.sendWithKeyboard(ctx, chatID, "Выберите действие из списка", acc.Keyboard)
		return
	}

	if msg.Text == answerCancel {
		b.sendWithKeyboard(ctx, chatID, "Отменено.", acc.Keyboard)
		state.Reset()
		if err := b.sessions.Save(ctx, userID, state); err != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("session save failed")
		}
		return
	}

	req := &flow.Request{
		UserID:   userID,
		ChatID:   chatID,
		Username: msg.From.UserName,
		Text:     msg.Text,
		State:    state,
	}
	ctx = withMessage(ctx, msg)

	nextStep, err := handler(ctx, req)
	switch {
	case err != nil:
		logger.Error().Err(err).
			Str("flow", string(state.CurrentFlow)).Str("step", string(state.Step)).
			Interface("data", state.Data).Int64("user_id", userID).
			Msg("step handler failed")
	case nextStep != "":
		state.Step = nextStep
		if nextStep.IsTerminal() {
			b.runCompletion(ctx, msg, acc, state, nextStep)
			b.metrics.FlowCompletions.WithLabelValues(string(state.CurrentFlow)).Inc()
			state.Reset()
		}
	}

	// The session is persisted regardless of what the handler returned, so
	// data it accumulated survives a retry on the same step.
	if err := b.sessions.Save(ctx, userID, state); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("session save failed")
	}
}

type msgContextKey struct{}

// withMessage stashes the raw inbound message so step handlers that need
// the attached document can reach it.
func withMessage(ctx context.Context, msg *tgbotapi.Message) context.Context {
	return context.WithValue(ctx, msgContextKey{}, msg)
}

func messageFrom(ctx context.Context) *tgbotapi.Message {
	msg, _ := ctx.Value(msgContextKey{}).(*tgbotapi.Message)
	return msg
}

// send posts a plain text message, logging failures instead of
// propagating them.
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) sendWithKeyboard(ctx context.Context, chatID int64, text string, kbd tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kbd
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) sendWithInline(ctx context.Context, chatID int64, text string, kbd tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kbd
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) removeKeyboard(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) editMessage(ctx context.Context, chatID int64, messageID int, text string, kbd tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kbd)
	if _, err := b.tg.Send(edit); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).
			Int("message_id", messageID).Msg("edit failed")
	}
}
