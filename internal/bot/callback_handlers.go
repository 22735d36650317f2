package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mpsb/internal/flow"
	"mpsb/internal/models"
)

// handleCallback routes an inline-button press by its action prefix.
// Callback handlers are stateless with respect to the session except for
// the two that deliberately seed a flow.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	logger := zerolog.Ctx(ctx)
	payload := decodeCallback(cq.Data)

	logger.Info().Str("action", payload.Action).Str("payload", cq.Data).
		Int64("user_id", cq.From.ID).Msg("callback received")

	// Stop the client spinner; individual handlers may answer again with
	// their own text.
	if _, err := b.tg.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		logger.Debug().Err(err).Msg("answer callback failed")
	}

	if cq.Message == nil {
		return
	}

	switch payload.Action {
	case cbNone:
		return
	case cbHomeworks:
		b.cbRenderHomeworks(ctx, cq, payload)
	case cbOpenHomework:
		b.cbOpenHomeworkDetail(ctx, cq, payload)
	case cbSendHomework:
		b.cbStartSendHomework(ctx, cq, payload)
	case cbDeleteUserHomework:
		b.cbDeleteOwnSubmission(ctx, cq, payload)
	case cbUsersRender:
		b.cbRenderStudents(ctx, cq, payload)
	case cbApprove:
		b.cbApproveRequest(ctx, cq, payload)
	case cbDisapprove:
		b.cbRejectRequest(ctx, cq, payload)
	case cbRequestsRender:
		b.cbRenderRequests(ctx, cq, payload)
	case cbOpenRequest:
		b.cbOpenRequestDetail(ctx, cq, payload)
	case cbStudyGroupsRender:
		b.cbRenderStudyGroups(ctx, cq, payload)
	case cbOpenStudyGroup:
		b.cbOpenStudyGroupDetail(ctx, cq, payload)
	case cbSelectStudyGroup:
		b.cbStartCreateHomework(ctx, cq, payload)
	case cbGroupHomeworks:
		b.cbRenderGroupHomeworks(ctx, cq, payload)
	case cbHomeworkUsers:
		b.cbRenderCompleters(ctx, cq, payload)
	case cbGradeMenu:
		b.cbOpenGradeMenu(ctx, cq, payload)
	case cbSetGrade:
		b.cbSetGradeValue(ctx, cq, payload)
	case cbDeleteHomework:
		b.cbConfirmDeletePrompt(ctx, cq, payload)
	case cbConfirmDeleteHomework:
		b.cbDeleteHomeworkConfirmed(ctx, cq, payload)
	case cbCancelDeleteHomework:
		b.cbDeleteHomeworkCancelled(ctx, cq, payload)
	default:
		logger.Warn().Str("action", payload.Action).Msg("unknown callback action")
	}
}

func (b *Bot) edit(ctx context.Context, cq *tgbotapi.CallbackQuery, text string, kbd tgbotapi.InlineKeyboardMarkup) {
	b.editMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID, text, kbd)
}

// isGraded reports whether the user's submission was already checked by
// the teacher; graded work can be neither replaced nor deleted.
func (b *Bot) isGraded(ctx context.Context, homeworkID, userID int64) (bool, error) {
	submission, err := b.repo.GetUserHomework(ctx, homeworkID, userID)
	if err != nil {
		return false, err
	}
	return submission != nil && submission.Checked, nil
}

// __ homework list (student side) __

func (b *Bot) cbRenderHomeworks(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	acc := b.resolveAccess(ctx, cq.From.ID)
	homeworks, err := b.repo.ListUserHomeworks(ctx, cq.From.ID, acc.Role == models.RoleAdmin)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", cq.From.ID).Msg("list homeworks failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}
	text, kbd := renderHomeworksPage(homeworks, payload.Page(0))
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbOpenHomeworkDetail(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	page := payload.Page(0)
	homeworkID, ok := payload.Int64(1)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("homework id is not numeric")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil || homework == nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("get homework failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	submission, err := b.repo.GetUserHomework(ctx, homeworkID, cq.From.ID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("get submission failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}
	completed := submission != nil && submission.Completed
	expired := homework.IsExpired(time.Now())

	var rows [][]tgbotapi.InlineKeyboardButton
	if !expired {
		if completed {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(labelUpdate,
					encodeCallback(cbSendHomework, homeworkID, 1)),
				tgbotapi.NewInlineKeyboardButtonData(labelDelete,
					encodeCallback(cbDeleteUserHomework, homeworkID)),
			))
		} else {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(labelSend,
					encodeCallback(cbSendHomework, homeworkID, 0)),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(labelBack,
			encodeCallback(cbHomeworks, int64(page))),
	))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Домашнее задание %s\n", homework.Name)
	if group, err := b.repo.GetStudyGroup(ctx, homework.GroupID); err == nil && group != nil {
		fmt.Fprintf(&sb, "Задано для: %s\n", group.Title)
	}
	fmt.Fprintf(&sb, "Задано: %s\n", homework.CreatedAt.Format("02.01.2006"))
	if homework.Deadline != nil {
		fmt.Fprintf(&sb, "Сделать до %s\n", homework.Deadline.Format("02.01.2006"))
	}
	grade := "нет"
	if submission != nil && submission.Checked {
		grade = "проверено"
		if submission.Score > 0 {
			grade = fmt.Sprintf("%d", submission.Score)
		}
	}
	fmt.Fprintf(&sb, "Оценка: %s\n", grade)
	if expired && !completed {
		sb.WriteString("🚫 Просрочено")
	}

	b.edit(ctx, cq, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) cbStartSendHomework(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	homeworkID, ok := payload.Int64(0)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("homework id is not numeric")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil || homework == nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("get homework failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	graded, err := b.isGraded(ctx, homeworkID, cq.From.ID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("graded check failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}
	if graded {
		b.send(ctx, cq.Message.Chat.ID,
			"👀 Оцененное домашнее задание не может быть удалено или изменено")
		return
	}

	state := &flow.AppState{
		CurrentFlow: flow.FlowSendHomework,
		Step:        flow.StepReadHomework,
		Data: map[string]any{
			"homeworkId":        homeworkID,
			"homeworkName":      homework.Name,
			"homeworkCompleted": payload.Str(1) == "1",
		},
	}
	if err := b.sessions.Save(ctx, cq.From.ID, state); err != nil {
		logger.Error().Err(err).Int64("user_id", cq.From.ID).Msg("session save failed")
		return
	}

	b.sendWithKeyboard(ctx, cq.Message.Chat.ID, "Отправьте домашку в PDF файле", cancelKeyboard())
}

func (b *Bot) cbDeleteOwnSubmission(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	homeworkID, ok := payload.Int64(0)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("homework id is not numeric")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	graded, err := b.isGraded(ctx, homeworkID, cq.From.ID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("graded check failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}
	if graded {
		b.send(ctx, cq.Message.Chat.ID,
			"👀 Оцененное домашнее задание не может быть удалено или изменено")
		return
	}

	if err := b.repo.DeleteUserHomework(ctx, homeworkID, cq.From.ID); err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("delete submission failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	acc := b.resolveAccess(ctx, cq.From.ID)
	homeworks, err := b.repo.ListUserHomeworks(ctx, cq.From.ID, acc.Role == models.RoleAdmin)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", cq.From.ID).Msg("list homeworks failed")
		return
	}
	text, kbd := renderHomeworksPage(homeworks, 0)
	b.edit(ctx, cq, text, kbd)
	b.send(ctx, cq.Message.Chat.ID, "Домашка удалена успешно")
}

// __ student roster / requests (admin side) __

func (b *Bot) cbRenderStudents(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	users, err := b.repo.ListStudents(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list students failed")
		return
	}
	text, kbd := renderStudentsPage(users, payload.Page(0))
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbRenderRequests(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	users, err := b.repo.ListPendingRequests(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list pending requests failed")
		return
	}
	text, kbd := renderRequestsPage(users, payload.Page(0))
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbOpenRequestDetail(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	page := payload.Page(0)
	userID, ok := payload.Int64(1)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("user id is not numeric")
		return
	}

	user, err := b.repo.GetUser(ctx, userID)
	if err != nil || user == nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("request user missing")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	text := fmt.Sprintf("ℹ️ Запрос от: %s\nАккаунт: @%s\n\nВыберите действие ниже",
		user.FullName(), user.Username)

	kbd := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👤 Профиль", "https://t.me/"+user.Username),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Принять", encodeCallback(cbApprove, userID)),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Отклонить", encodeCallback(cbDisapprove, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelBack, encodeCallback(cbRequestsRender, int64(page))),
		),
	)
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbApproveRequest(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	applicantID, ok := payload.Int64(0)
	if !ok {
		b.send(ctx, cq.Message.Chat.ID, "🛠️ Айди пользователя невалидно")
		return
	}

	if err := b.repo.UpdateUserRole(ctx, applicantID, models.RoleUser); err != nil {
		logger.Error().Err(err).Int64("user_id", applicantID).Msg("verify user failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}
	if user, err := b.repo.GetUser(ctx, applicantID); err == nil && user != nil {
		b.cache.Put(user)
	}

	b.editMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID,
		cq.Message.Text+"\n✅ Принято", tgbotapi.NewInlineKeyboardMarkup())

	b.notify(ctx, []int64{applicantID},
		"✅ Администратор одобрил вашу заявку, ура!", studentKeyboard())
	b.retractPendingRequest(ctx, applicantID)
}

func (b *Bot) cbRejectRequest(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	applicantID, ok := payload.Int64(0)
	if !ok {
		b.send(ctx, cq.Message.Chat.ID, "🛠️ Айди пользователя невалидно")
		return
	}

	b.retractPendingRequest(ctx, applicantID)
	if err := b.repo.DeleteUser(ctx, applicantID); err != nil {
		logger.Error().Err(err).Int64("user_id", applicantID).Msg("delete applicant failed")
	}
	b.cache.Remove(applicantID)

	b.send(ctx, cq.Message.Chat.ID, "🚫 Заявка пользователя отклонена")
	b.notify(ctx, []int64{applicantID},
		"🚫 Увы, преподаватель отклонил вашу заявку. Вы можете отправить новую", nil)
}

// __ management (admin side) __

func (b *Bot) cbRenderStudyGroups(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	groups, err := b.repo.ListStudyGroups(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list study groups failed")
		return
	}
	text, kbd := renderStudyGroupsPage(groups, payload.Page(0))
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbOpenStudyGroupDetail(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	page := payload.Page(0)
	groupID, ok := payload.Int64(1)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("group id is not numeric")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	group, err := b.repo.GetStudyGroup(ctx, groupID)
	if err != nil || group == nil {
		logger.Error().Err(err).Int64("group_id", groupID).Msg("study group missing")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	members, err := b.repo.ListGroupMembers(ctx, groupID)
	if err != nil {
		logger.Error().Err(err).Int64("group_id", groupID).Msg("list members failed")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ученики %s: \n", group.Title)
	for _, m := range members {
		sb.WriteString("\n" + m.FullName())
	}

	kbd := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Проверить домашки",
				encodeCallback(cbGroupHomeworks, groupID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Создать ДЗ",
				encodeCallback(cbSelectStudyGroup, groupID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelBack,
				encodeCallback(cbStudyGroupsRender, int64(page))),
		),
	)
	b.edit(ctx, cq, sb.String(), kbd)
}

func (b *Bot) cbStartCreateHomework(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	groupID, ok := payload.Int64(0)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("group id is not numeric")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	state := &flow.AppState{
		CurrentFlow: flow.FlowCreateHomework,
		Step:        flow.StepReadName,
		Data:        map[string]any{"studyGroupId": groupID},
	}
	if err := b.sessions.Save(ctx, cq.From.ID, state); err != nil {
		logger.Error().Err(err).Int64("user_id", cq.From.ID).Msg("session save failed")
		return
	}

	b.sendWithKeyboard(ctx, cq.Message.Chat.ID,
		"Введите название домашнего задания:", cancelKeyboard())
}

func (b *Bot) cbRenderGroupHomeworks(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	groupID, ok := payload.Int64(0)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("group id is not numeric")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	homeworks, err := b.repo.ListGroupHomeworks(ctx, groupID)
	if err != nil {
		logger.Error().Err(err).Int64("group_id", groupID).Msg("list group homeworks failed")
		return
	}
	text, kbd := renderGroupHomeworksPage(homeworks)
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbRenderCompleters(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	homeworkID, ok := payload.Int64(0)
	if !ok {
		logger.Error().Str("payload", cq.Data).Msg("homework id is not numeric")
		return
	}

	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil || homework == nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("homework missing")
		return
	}

	users, err := b.repo.ListCompleters(ctx, homeworkID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("list completers failed")
		return
	}
	text, kbd := renderCompletersPage(users, homework)
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbOpenGradeMenu(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	homeworkID, ok1 := payload.Int64(0)
	userID, ok2 := payload.Int64(1)
	if !ok1 || !ok2 {
		zerolog.Ctx(ctx).Error().Str("payload", cq.Data).Msg("grade menu args invalid")
		return
	}
	text, kbd := renderGradeMenu(homeworkID, userID)
	b.edit(ctx, cq, text, kbd)
}

func (b *Bot) cbSetGradeValue(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	homeworkID, ok1 := payload.Int64(0)
	userID, ok2 := payload.Int64(1)
	gradeStr := payload.Str(2)
	if !ok1 || !ok2 || gradeStr == "" {
		logger.Error().Str("payload", cq.Data).Msg("set grade args invalid")
		return
	}

	var err error
	if gradeStr == "checked" {
		err = b.repo.SetGrade(ctx, homeworkID, userID, 0, true)
	} else {
		score := 0
		switch gradeStr {
		case "2", "3", "4", "5":
			score = int(gradeStr[0] - '0')
		default:
			logger.Error().Str("grade", gradeStr).Msg("grade out of range")
			return
		}
		err = b.repo.SetGrade(ctx, homeworkID, userID, score, true)
	}
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).
			Int64("user_id", userID).Msg("set grade failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil || homework == nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("homework missing")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	gradeLabel := gradeStr
	if gradeStr == "checked" {
		gradeLabel = "Проверено"
	}
	b.notify(ctx, []int64{userID}, fmt.Sprintf(
		"⚠️ Преподаватель проверил вашу работу (%s),\nоценка: %s", homework.Name, gradeLabel), nil)

	if _, err := b.tg.Request(tgbotapi.NewCallback(cq.ID, "Оценка сохранена")); err != nil {
		logger.Debug().Err(err).Msg("answer callback failed")
	}

	users, err := b.repo.ListCompleters(ctx, homeworkID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("list completers failed")
		return
	}
	text, kbd := renderCompletersPage(users, homework)
	b.edit(ctx, cq, text, kbd)
}

// __ homework deletion (admin side) __

func (b *Bot) cbConfirmDeletePrompt(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	homeworkID, ok := payload.Int64(0)
	if !ok {
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}

	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("get homework failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}
	if homework == nil {
		b.send(ctx, cq.Message.Chat.ID, "Домашняя работа не найдена")
		return
	}

	kbd := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Удалить",
				encodeCallback(cbConfirmDeleteHomework, homeworkID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена",
				encodeCallback(cbCancelDeleteHomework, homeworkID)),
		),
	)
	b.edit(ctx, cq, fmt.Sprintf(
		"⚠️ Вы уверены, что хотите удалить домашнюю работу:\n\n%s", homework.Name), kbd)
}

func (b *Bot) cbDeleteHomeworkConfirmed(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	homeworkID, ok := payload.Int64(0)
	if !ok {
		b.send(ctx, cq.Message.Chat.ID, "Ошибка удаления")
		return
	}

	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil || homework == nil {
		b.editMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID,
			"❌ Домашняя работа уже удалена или произошла ошибка",
			tgbotapi.NewInlineKeyboardMarkup())
		return
	}

	graded, err := b.isGraded(ctx, homeworkID, cq.From.ID)
	if err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("graded check failed")
		b.send(ctx, cq.Message.Chat.ID, "Что-то пошло не так")
		return
	}
	if graded {
		b.send(ctx, cq.Message.Chat.ID,
			"👀 Оцененное домашнее задание не может быть удалено или изменено")
		return
	}

	members, err := b.repo.ListGroupMembers(ctx, homework.GroupID)
	if err != nil {
		logger.Error().Err(err).Int64("group_id", homework.GroupID).Msg("list members failed")
	}

	if err := b.repo.DeleteHomework(ctx, homeworkID); err != nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("delete homework failed")
		b.editMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID,
			"❌ Домашняя работа уже удалена или произошла ошибка",
			tgbotapi.NewInlineKeyboardMarkup())
		return
	}

	recipients := make([]int64, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, m.ID)
	}
	b.notify(ctx, recipients, "🗑️ Преподаватель удалил работу "+homework.Name, nil)

	b.editMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID,
		"✅ Домашняя работа успешно удалена", tgbotapi.NewInlineKeyboardMarkup())
}

func (b *Bot) cbDeleteHomeworkCancelled(ctx context.Context, cq *tgbotapi.CallbackQuery, payload callbackPayload) {
	logger := zerolog.Ctx(ctx)
	homeworkID, ok := payload.Int64(0)
	if !ok {
		return
	}

	homework, err := b.repo.GetHomework(ctx, homeworkID)
	if err != nil || homework == nil {
		logger.Error().Err(err).Int64("homework_id", homeworkID).Msg("homework missing")
		return
	}

	homeworks, err := b.repo.ListGroupHomeworks(ctx, homework.GroupID)
	if err != nil {
		logger.Error().Err(err).Int64("group_id", homework.GroupID).Msg("list group homeworks failed")
		return
	}
	text, kbd := renderGroupHomeworksPage(homeworks)
	b.edit(ctx, cq, text, kbd)
}
