package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mpsb/internal/report"
)

// sendScoreReport builds the XLSX score report and delivers it as a
// document to the requesting admin's chat.
func (b *Bot) sendScoreReport(ctx context.Context, chatID int64) {
	logger := zerolog.Ctx(ctx)

	data, err := report.NewBuilder(b.repo).Build(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("build score report failed")
		b.send(ctx, chatID, "Что-то пошло не так")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "report_" + time.Now().Format("2006-01-02") + ".xlsx",
		Bytes: data,
	})
	doc.Caption = "📊 Отчет по успеваемости"
	if _, err := b.tg.Send(doc); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("send report failed")
		b.send(ctx, chatID, "Что-то пошло не так")
	}
}
