package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mpsb/internal/models"
)

// notify delivers text to every recipient sequentially. A failed send is
// logged and excluded from the result; it never aborts delivery to the
// rest. Returns the locations of the messages that went through.
func (b *Bot) notify(ctx context.Context, recipients []int64, text string, markup any) []models.MessageRef {
	logger := zerolog.Ctx(ctx)
	sent := make([]models.MessageRef, 0, len(recipients))

	for _, chatID := range recipients {
		if err := b.limiter.Wait(ctx); err != nil {
			logger.Warn().Err(err).Msg("broadcast interrupted")
			return sent
		}

		msg := tgbotapi.NewMessage(chatID, text)
		if markup != nil {
			msg.ReplyMarkup = markup
		}
		res, err := b.tg.Send(msg)
		if err != nil {
			b.metrics.BroadcastsFailed.Inc()
			logger.Error().Err(err).Int64("chat_id", chatID).Msg("broadcast send failed")
			continue
		}

		b.metrics.BroadcastsSent.Inc()
		sent = append(sent, models.MessageRef{ChatID: chatID, MessageID: res.MessageID})
	}
	return sent
}

// Broadcast is the exported delivery entry point for background jobs.
// It reports how many recipients were reached.
func (b *Bot) Broadcast(ctx context.Context, recipients []int64, text string) int {
	return len(b.notify(ctx, recipients, text, nil))
}

// retractPendingRequest deletes the admin approval messages recorded for a
// user's pending request and clears the request record.
func (b *Bot) retractPendingRequest(ctx context.Context, userID int64) {
	logger := zerolog.Ctx(ctx)

	pending, err := b.repo.GetPendingRequest(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("load pending request failed")
		return
	}
	if pending == nil {
		return
	}

	for _, ref := range pending.Messages {
		del := tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)
		if _, err := b.tg.Request(del); err != nil {
			logger.Error().Err(err).Int64("chat_id", ref.ChatID).
				Int("message_id", ref.MessageID).Msg("delete request message failed")
		}
	}

	if err := b.repo.DeletePendingRequest(ctx, userID); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("delete pending request failed")
	}
}
