package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mpsb/internal/flow"
	"mpsb/internal/models"
	"mpsb/internal/uplink"
)

// runCompletion executes the cross-cutting procedure behind one of the
// four terminal step tokens. The caller resets and persists the session
// afterwards regardless of outcome.
func (b *Bot) runCompletion(ctx context.Context, msg *tgbotapi.Message, acc access, state *flow.AppState, step flow.Step) {
	switch step {
	case flow.StepCreateHomeworkDone:
		b.completeCreateHomework(ctx, msg, acc, state)
	case flow.StepRegistrationDone:
		b.completeRegistration(ctx, msg, state)
	case flow.StepSendHomeworkDone:
		b.completeSendHomework(ctx, msg, acc, state)
	case flow.StepNotifyStudentsDone:
		b.completeNotifyStudents(ctx, msg, acc, state)
	}
}

// completeCreateHomework persists the homework and notifies the group.
// A failed insert is logged but the success message still goes out; the
// behavior is intentional and load-bearing for the current UX.
func (b *Bot) completeCreateHomework(ctx context.Context, msg *tgbotapi.Message, acc access, state *flow.AppState) {
	logger := zerolog.Ctx(ctx)

	groupID := state.Int64("studyGroupId")
	homework := &models.Homework{
		Name:    state.String("homeworkName"),
		GroupID: groupID,
	}
	if raw := state.String("homeworkDeadline"); raw != "" {
		if deadline, err := time.Parse("2006-01-02T15:04:05Z07:00", raw); err == nil {
			homework.Deadline = &deadline
		}
	}

	if err := b.repo.CreateHomework(ctx, homework); err != nil {
		logger.Error().Err(err).Str("name", homework.Name).
			Int64("group_id", groupID).Msg("create homework failed")
	}

	b.sendWithKeyboard(ctx, msg.Chat.ID,
		fmt.Sprintf("Домашка %s создана успешно!", homework.Name), acc.Keyboard)

	members, err := b.repo.ListGroupMembers(ctx, groupID)
	if err != nil {
		logger.Error().Err(err).Int64("group_id", groupID).Msg("list group members failed")
		return
	}
	recipients := make([]int64, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, m.ID)
	}
	b.notify(ctx, recipients, "Новая домашка "+homework.Name, nil)
}

// completeRegistration creates the identity, its group enrollments and
// the pending approval request, then fans the request out to every admin.
func (b *Bot) completeRegistration(ctx context.Context, msg *tgbotapi.Message, state *flow.AppState) {
	logger := zerolog.Ctx(ctx)
	userID := msg.From.ID

	parts := splitFullName(state.String("name"))

	group := &models.StudyGroup{
		Grade:  int(state.Int64("groupGrade")),
		Letter: state.String("groupLetter"),
		Title:  state.String("groupTitle"),
	}
	group, err := b.repo.FindOrCreateStudyGroup(ctx, group)
	if err != nil {
		logger.Error().Err(err).Str("title", state.String("groupTitle")).
			Msg("resolve study group failed")
		b.send(ctx, msg.Chat.ID, "Что-то пошло не так")
		return
	}

	user := &models.User{
		ID:         userID,
		Username:   msg.From.UserName,
		LastName:   parts[0],
		FirstName:  parts[1],
		Patronymic: parts[2],
		Email:      state.String("email"),
		Role:       models.RoleGuest,
		GroupID:    group.ID,
	}
	if err := b.repo.CreateUser(ctx, user); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("create user failed")
		b.send(ctx, msg.Chat.ID, "Что-то пошло не так")
		return
	}

	if err := b.repo.AddUserToGroup(ctx, userID, group.ID); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("enroll user failed")
	}
	if group.Title != models.TutoringGroupTitle {
		if err := b.repo.AddUserToGroup(ctx, userID, models.CatchAllGroupID); err != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("enroll into catch-all failed")
		}
	}
	b.cache.Put(user)

	admins, err := b.repo.ListAdmins(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("list admins failed")
		return
	}
	adminIDs := make([]int64, 0, len(admins))
	for _, a := range admins {
		adminIDs = append(adminIDs, a.ID)
	}

	approveKbd := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Принять", encodeCallback(cbApprove, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Отклонить", encodeCallback(cbDisapprove, userID)),
		),
	)

	requestText := fmt.Sprintf("Новый запрос от %s, email: %s | %s",
		user.FullName(), user.Email, group.Title)
	sent := b.notify(ctx, adminIDs, requestText, approveKbd)

	request := &models.PendingRequest{UserID: userID, Messages: sent}
	if err := b.repo.CreatePendingRequest(ctx, request); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("create pending request failed")
	}

	logger.Info().Int64("user_id", userID).Int("receivers", len(sent)).
		Msg("registration completed")
}

// completeSendHomework validates the homework, issues the time-boxed
// upload link, marks the submission complete unless already done and
// notifies the admins.
func (b *Bot) completeSendHomework(ctx context.Context, msg *tgbotapi.Message, acc access, state *flow.AppState) {
	logger := zerolog.Ctx(ctx)
	userID := msg.From.ID

	// The in-chat PDF lives in a throwaway directory; the canonical copy
	// arrives through the upload link.
	if path := state.String("homeworkPath"); path != "" {
		defer func() {
			if err := os.RemoveAll(filepath.Dir(path)); err != nil {
				logger.Error().Err(err).Str("path", path).Msg("remove temp upload failed")
			}
		}()
	}

	homeworkID := state.Int64("homeworkId")
	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("get homework failed")
		b.sendWithKeyboard(ctx, msg.Chat.ID, "Что-то пошло не так", acc.Keyboard)
		return
	}
	if homework == nil {
		logger.Error().Int64("homework_id", homeworkID).Msg("homework missing at submit time")
		b.sendWithKeyboard(ctx, msg.Chat.ID,
			"Домашка не существует, что-то пошло не так", acc.Keyboard)
		return
	}

	group, err := b.repo.GetStudyGroup(ctx, homework.GroupID)
	if err != nil || group == nil {
		logger.Error().Err(err).Int64("group_id", homework.GroupID).Msg("get group failed")
		b.sendWithKeyboard(ctx, msg.Chat.ID, "Что-то пошло не так", acc.Keyboard)
		return
	}

	submission, err := b.repo.GetUserHomework(ctx, homeworkID, userID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("get submission failed")
		b.sendWithKeyboard(ctx, msg.Chat.ID, "Что-то пошло не так", acc.Keyboard)
		return
	}
	alreadyCompleted := submission != nil && submission.Completed

	userName := ""
	if acc.User != nil {
		userName = acc.User.FullName()
	}
	token, err := b.signer.Issue(uplink.Claims{
		UserID:       userID,
		UserName:     userName,
		HomeworkID:   homework.ID,
		HomeworkName: homework.Name,
		GroupTitle:   group.Title,
	})
	if err != nil {
		logger.Error().Err(err).Msg("issue upload token failed")
		b.sendWithKeyboard(ctx, msg.Chat.ID, "Что-то пошло не так", acc.Keyboard)
		return
	}
	b.send(ctx, msg.Chat.ID, fmt.Sprintf(
		"→ Загрузите PDF файл для домашнего задания по ссылке %s/?token=%s в течение 5 минут",
		b.cfg.UploadBaseURL, token))

	if !alreadyCompleted {
		if err := b.repo.MarkHomeworkCompleted(ctx, homeworkID, userID); err != nil {
			logger.Error().Err(err).Int64("homework_id", homeworkID).
				Int64("user_id", userID).Msg("mark completed failed")
			b.send(ctx, msg.Chat.ID, "Что-то пошло не так")
			return
		}
	}

	verb := "отправлен"
	if alreadyCompleted {
		verb = "заменен"
	}
	b.sendWithKeyboard(ctx, msg.Chat.ID,
		fmt.Sprintf("Файл для %s успешно %s", homework.Name, verb), acc.Keyboard)

	admins, err := b.repo.ListAdmins(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("list admins failed")
		return
	}
	adminIDs := make([]int64, 0, len(admins))
	for _, a := range admins {
		adminIDs = append(adminIDs, a.ID)
	}
	username := msg.From.UserName
	if username != "" {
		username = " (@" + username + ")"
	}
	b.notify(ctx, adminIDs, fmt.Sprintf("%s%s загрузил домашнее задание для %s",
		userName, username, homework.Name), nil)
}

// completeNotifyStudents refreshes the identity cache and broadcasts the
// composed message to every known user.
func (b *Bot) completeNotifyStudents(ctx context.Context, msg *tgbotapi.Message, acc access, state *flow.AppState) {
	logger := zerolog.Ctx(ctx)

	if err := b.cache.Refresh(ctx, b.repo); err != nil {
		logger.Error().Err(err).Msg("cache refresh before broadcast failed")
		b.send(ctx, msg.Chat.ID, "Что-то пошло не так")
		return
	}

	text := "🔔 Сообщение от преподавателя: \n\n " + state.String("notifyStudentsText")
	sent := b.notify(ctx, b.cache.IDs(), text, nil)

	b.sendWithKeyboard(ctx, msg.Chat.ID, "Сообщение успешно отправлено", acc.Keyboard)
	logger.Info().Int("notified", len(sent)).Msg("broadcast delivered")
}

// splitFullName splits a validated "Фамилия Имя Отчество" string. The
// registration step guarantees three parts; anything else degrades to
// empty fields rather than panicking.
func splitFullName(name string) [3]string {
	var out [3]string
	parts := strings.Fields(name)
	for i := 0; i < len(parts) && i < 3; i++ {
		out[i] = parts[i]
	}
	return out
}
