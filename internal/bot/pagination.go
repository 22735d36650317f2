package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mpsb/internal/models"
)

const defaultPageSize = 5

// clampPage confines a requested page to [0, ceil(count/pageSize)-1] with a
// minimum of one page even for empty collections.
func clampPage(page, count, pageSize int) (safePage, totalPages int) {
	totalPages = (count + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	safePage = page
	if safePage > totalPages-1 {
		safePage = totalPages - 1
	}
	if safePage < 0 {
		safePage = 0
	}
	return safePage, totalPages
}

// pagerRow builds the trailing navigation row. Edge pages get an inert
// placeholder instead of an arrow; the page indicator is always inert.
func pagerRow(action string, safePage, totalPages int) []tgbotapi.InlineKeyboardButton {
	prev := tgbotapi.NewInlineKeyboardButtonData(" ", cbNone)
	if safePage > 0 {
		prev = tgbotapi.NewInlineKeyboardButtonData("←", encodeCallback(action, int64(safePage-1)))
	}
	next := tgbotapi.NewInlineKeyboardButtonData(" ", cbNone)
	if safePage < totalPages-1 {
		next = tgbotapi.NewInlineKeyboardButtonData("→", encodeCallback(action, int64(safePage+1)))
	}
	indicator := tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("📄 %d/%d", safePage+1, totalPages), cbNone)
	return []tgbotapi.InlineKeyboardButton{prev, indicator, next}
}

func pageBounds(safePage, count, pageSize int) (start, end int) {
	start = safePage * pageSize
	end = start + pageSize
	if start > count {
		start = count
	}
	if end > count {
		end = count
	}
	return start, end
}

// renderHomeworksPage lists a student's homeworks, one button per item,
// with completion and deadline markers.
func renderHomeworksPage(homeworks []models.HomeworkStatus, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	safePage, totalPages := clampPage(page, len(homeworks), defaultPageSize)
	start, end := pageBounds(safePage, len(homeworks), defaultPageSize)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, hw := range homeworks[start:end] {
		label := hw.Name
		if hw.Completed {
			label += " | ✅"
		}
		if hw.Deadline != nil {
			label += " | " + hw.Deadline.Format("2006-01-02 15:04")
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label,
				encodeCallback(cbOpenHomework, int64(safePage), hw.ID)),
		))
	}
	rows = append(rows, pagerRow(cbHomeworks, safePage, totalPages))

	return "📚 Домашние задания | Нажмите на дз чтобы отправить",
		tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderStudentsPage lists verified students with profile links.
func renderStudentsPage(users []models.User, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	safePage, totalPages := clampPage(page, len(users), defaultPageSize)
	start, end := pageBounds(safePage, len(users), defaultPageSize)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, u := range users[start:end] {
		label := fmt.Sprintf("%s %s | %s", u.LastName, u.FirstName, u.Username)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(label, "https://t.me/"+u.Username),
		))
	}
	rows = append(rows, pagerRow(cbUsersRender, safePage, totalPages))

	return "👥 Студенты | Нажмите на пользователя чтобы перейти в лс",
		tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderRequestsPage lists users with unresolved registration requests.
func renderRequestsPage(users []models.User, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	safePage, totalPages := clampPage(page, len(users), defaultPageSize)
	start, end := pageBounds(safePage, len(users), defaultPageSize)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, u := range users[start:end] {
		label := fmt.Sprintf("%s %s | %s", u.LastName, u.FirstName, u.Username)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label,
				encodeCallback(cbOpenRequest, int64(safePage), u.ID)),
		))
	}
	rows = append(rows, pagerRow(cbRequestsRender, safePage, totalPages))

	return "✉️ Запросы: | Нажмите на запрос, чтобы принять или отклонить",
		tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderStudyGroupsPage lists study groups for the management menu.
func renderStudyGroupsPage(groups []models.StudyGroup, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	safePage, totalPages := clampPage(page, len(groups), defaultPageSize)
	start, end := pageBounds(safePage, len(groups), defaultPageSize)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range groups[start:end] {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 "+g.Title,
				encodeCallback(cbOpenStudyGroup, int64(safePage), g.ID)),
		))
	}
	rows = append(rows, pagerRow(cbStudyGroupsRender, safePage, totalPages))

	return "👥 Выберите группу", tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderGroupHomeworksPage lists a group's homeworks for grading.
func renderGroupHomeworksPage(homeworks []models.Homework) (string, tgbotapi.InlineKeyboardMarkup) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, hw := range homeworks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✔️ "+hw.Name,
				encodeCallback(cbHomeworkUsers, hw.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(labelBack, encodeCallback(cbStudyGroupsRender, 0)),
	))

	return "Домашние задания группы:", tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderCompletersPage lists the students that submitted a homework, each
// opening that student's grade menu.
func renderCompletersPage(users []models.User, homework *models.Homework) (string, tgbotapi.InlineKeyboardMarkup) {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelDelete,
				encodeCallback(cbDeleteHomework, homework.ID)),
		),
	}
	for _, u := range users {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(u.FullName(),
				encodeCallback(cbGradeMenu, homework.ID, u.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(labelBack,
			encodeCallback(cbGroupHomeworks, homework.GroupID)),
	))

	text := fmt.Sprintf("Выполнили: %s\nВсего: %d", homework.Name, len(users))
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderGradeMenu offers grades 2..5 plus a checked-only mark.
func renderGradeMenu(homeworkID, userID int64) (string, tgbotapi.InlineKeyboardMarkup) {
	var gradeButtons []tgbotapi.InlineKeyboardButton
	for _, g := range []string{"2", "3", "4", "5"} {
		gradeButtons = append(gradeButtons, tgbotapi.NewInlineKeyboardButtonData(g,
			fmt.Sprintf("%s:%d:%d:%s", cbSetGrade, homeworkID, userID, g)))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		gradeButtons,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Проверено",
				fmt.Sprintf("%s:%d:%d:checked", cbSetGrade, homeworkID, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelBack,
				encodeCallback(cbHomeworkUsers, homeworkID)),
		),
	}

	return "Выберите оценку:", tgbotapi.NewInlineKeyboardMarkup(rows...)
}
