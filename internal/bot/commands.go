package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mpsb/internal/flow"
	"mpsb/internal/models"
)

const infoText = "Привет! \n\nЭто ваш бот для отправки домашних заданий. " +
	"Чтобы отправить домашнее задание нажмите на кнопку домашки и выберите ту, " +
	"которую хотите отправить. Если вы хотите изменить ответ, точно так же " +
	"нажмите на выбранную вами домашку и отправьте в формате PDF"

// dispatchCommand routes fixed top-level keyboard commands for verified
// users. Returns true when the message was fully handled here. Role-gated
// commands issued without privilege are logged and silently dropped.
func (b *Bot) dispatchCommand(ctx context.Context, msg *tgbotapi.Message, acc access, state *flow.AppState) bool {
	logger := zerolog.Ctx(ctx)

	switch msg.Text {
	case cmdHomework:
		b.showHomeworks(ctx, msg.Chat.ID, msg.From.ID, acc.Role == models.RoleAdmin)
		return true

	case cmdManage:
		if acc.Role != models.RoleAdmin {
			logger.Info().Int64("user_id", msg.From.ID).Msg("manage denied")
			return true
		}
		b.showStudyGroups(ctx, msg.Chat.ID)
		return true

	case cmdRequests:
		if acc.Role != models.RoleAdmin {
			logger.Info().Int64("user_id", msg.From.ID).Msg("requests denied")
			return true
		}
		b.showRequests(ctx, msg.Chat.ID)
		return true

	case cmdStudents:
		if acc.Role != models.RoleAdmin {
			logger.Info().Int64("user_id", msg.From.ID).Msg("students denied")
			return true
		}
		b.showStudents(ctx, msg.Chat.ID)
		return true

	case cmdInfo:
		b.send(ctx, msg.Chat.ID, infoText)
		return true

	case cmdNotify:
		if acc.Role != models.RoleAdmin {
			logger.Info().Int64("user_id", msg.From.ID).Msg("notify denied")
			return true
		}
		// Seed the broadcast flow; the init step picks it up below.
		state.CurrentFlow = flow.FlowNotifyStudents
		state.Step = flow.StepNotifyInit
		return false
	}
	return false
}

// dispatchSlashCommand routes /start, /homeworks and the admin /report.
func (b *Bot) dispatchSlashCommand(ctx context.Context, msg *tgbotapi.Message, acc access) bool {
	logger := zerolog.Ctx(ctx)

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg, acc)
		return true
	case "homeworks":
		if acc.User == nil || acc.Role == models.RoleGuest {
			return true
		}
		b.showHomeworks(ctx, msg.Chat.ID, msg.From.ID, acc.Role == models.RoleAdmin)
		return true
	case "report":
		if acc.Role != models.RoleAdmin {
			logger.Info().Int64("user_id", msg.From.ID).Msg("report denied")
			return true
		}
		b.sendScoreReport(ctx, msg.Chat.ID)
		return true
	}
	return false
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, acc access) {
	if acc.User != nil {
		b.sendWithKeyboard(ctx, msg.Chat.ID,
			"Вы уже зарегистрированы. Наслаждайтесь использованием бота и не забывайте делать домашки!",
			acc.Keyboard)
		return
	}

	state := &flow.AppState{
		CurrentFlow: flow.FlowRegistration,
		Step:        flow.StepEnterName,
		Data:        map[string]any{},
	}
	if err := b.sessions.Save(ctx, msg.From.ID, state); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", msg.From.ID).Msg("session save failed")
	}
	b.removeKeyboard(ctx, msg.Chat.ID,
		"Привет! Введи свое полное имя, пример: Иванов Иван Иванович")
}

func (b *Bot) showHomeworks(ctx context.Context, chatID, userID int64, isAdmin bool) {
	homeworks, err := b.repo.ListUserHomeworks(ctx, userID, isAdmin)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("list homeworks failed")
		b.send(ctx, chatID, "Что-то пошло не так")
		return
	}
	text, kbd := renderHomeworksPage(homeworks, 0)
	b.sendWithInline(ctx, chatID, text, kbd)
}

func (b *Bot) showStudyGroups(ctx context.Context, chatID int64) {
	groups, err := b.repo.ListStudyGroups(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list study groups failed")
		b.send(ctx, chatID, "Что-то пошло не так")
		return
	}
	text, kbd := renderStudyGroupsPage(groups, 0)
	b.sendWithInline(ctx, chatID, text, kbd)
}

func (b *Bot) showRequests(ctx context.Context, chatID int64) {
	users, err := b.repo.ListPendingRequests(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list pending requests failed")
		b.send(ctx, chatID, "Что-то пошло не так")
		return
	}
	text, kbd := renderRequestsPage(users, 0)
	b.sendWithInline(ctx, chatID, text, kbd)
}

func (b *Bot) showStudents(ctx context.Context, chatID int64) {
	users, err := b.repo.ListStudents(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list students failed")
		b.send(ctx, chatID, "Что-то пошло не так")
		return
	}
	text, kbd := renderStudentsPage(users, 0)
	b.sendWithInline(ctx, chatID, text, kbd)
}
