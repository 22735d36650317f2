package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mpsb/internal/models"
)

// Reply keyboard button labels.
const (
	cmdHomework      = "💼 Домашки"
	cmdManage        = "🎛️ Управлять"
	cmdRequests      = "✉️ Запросы"
	cmdStudents      = "👥 Студенты"
	cmdInfo          = "ℹ️ Инфо"
	cmdRegister      = "❤️ Регистрация"
	cmdNotify        = "🔔 Сообщить студентам"
	cmdResendRequest = "🛠️ Отменить заявку"

	answerCancel  = "🚫 Отменить"
	answerAccept  = "✅ Принять"
	answerEdit    = "✏️ Изменить"
	labelBack     = "← Назад"
	labelSend     = "📁 Отправить"
	labelUpdate   = "🔄 Заменить"
	labelDelete   = "🗑️ Удалить"
	labelTutoring = "Репетиторство"
	labelNoDeadln = "Дедлайна нет"
)

func buildReplyKeyboard(rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		keyboard = append(keyboard, buttons)
	}
	kbd := tgbotapi.NewReplyKeyboard(keyboard...)
	kbd.ResizeKeyboard = true
	return kbd
}

func teacherKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return buildReplyKeyboard(
		[]string{cmdHomework, cmdManage},
		[]string{cmdRequests, cmdNotify},
		[]string{cmdStudents},
	)
}

func studentKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return buildReplyKeyboard([]string{cmdHomework})
}

func guestKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return buildReplyKeyboard([]string{cmdResendRequest})
}

func unregisteredKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return buildReplyKeyboard([]string{cmdRegister})
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return buildReplyKeyboard([]string{answerCancel})
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return buildReplyKeyboard([]string{answerAccept, answerEdit})
}

// keyboardForRole returns the fixed keyboard layout for a role. user is nil
// for identities that do not exist at all.
func keyboardForRole(user *models.User) tgbotapi.ReplyKeyboardMarkup {
	if user == nil {
		return unregisteredKeyboard()
	}
	switch user.Role {
	case models.RoleAdmin:
		return teacherKeyboard()
	case models.RoleUser:
		return studentKeyboard()
	default:
		return guestKeyboard()
	}
}
