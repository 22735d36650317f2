package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mpsb/internal/flow"
)

// buildRegistry wires every (flow, step) handler. Called once from New,
// before any update is processed.
func (b *Bot) buildRegistry() *flow.Registry {
	builder := flow.NewBuilder()

	// registration
	builder.Register(flow.FlowRegistration, flow.StepNotifyOfRegister, b.stepNotifyOfRegister)
	builder.Register(flow.FlowRegistration, flow.StepEnterName, b.stepEnterName)
	builder.Register(flow.FlowRegistration, flow.StepConfirmName, b.stepConfirmName)
	builder.Register(flow.FlowRegistration, flow.StepEnterEmail, b.stepEnterEmail)
	builder.Register(flow.FlowRegistration, flow.StepConfirmEmail, b.stepConfirmEmail)
	builder.Register(flow.FlowRegistration, flow.StepGetClassNumber, b.stepGetClassNumber)
	builder.Register(flow.FlowRegistration, flow.StepGetClassLetter, b.stepGetClassLetter)

	// createHomework
	builder.Register(flow.FlowCreateHomework, flow.StepReadName, b.stepReadHomeworkName)
	builder.Register(flow.FlowCreateHomework, flow.StepEnterDeadline, b.stepEnterDeadline)

	// sendHomework
	builder.Register(flow.FlowSendHomework, flow.StepReadHomework, b.stepReadHomeworkFile)

	// notifyStudents
	builder.Register(flow.FlowNotifyStudents, flow.StepNotifyInit, b.stepNotifyInit)
	builder.Register(flow.FlowNotifyStudents, flow.StepEnterText, b.stepNotifyEnterText)

	return builder.Build()
}

// __ registration __

func (b *Bot) stepNotifyOfRegister(ctx context.Context, req *flow.Request) (flow.Step, error) {
	b.removeKeyboard(ctx, req.ChatID,
		"Сперва необходимо зарегистрироваться, введите свое имя в формате Ф И О")
	return flow.StepEnterName, nil
}

func (b *Bot) stepEnterName(ctx context.Context, req *flow.Request) (flow.Step, error) {
	if req.Text == "" {
		b.send(ctx, req.ChatID, "Текст не может быть пустым")
		return "", nil
	}

	parts := strings.Fields(req.Text)
	if len(parts) != 3 {
		b.send(ctx, req.ChatID, "Неправильный формат. Пример: Иванов Иван Иванович")
		return "", nil
	}

	req.State.Data["name"] = strings.Join(parts, " ")

	msg := fmt.Sprintf("Подтвердите имя %s", strings.Join(parts, " "))
	b.sendWithKeyboard(ctx, req.ChatID, msg, confirmKeyboard())
	return flow.StepConfirmName, nil
}

func (b *Bot) stepConfirmName(ctx context.Context, req *flow.Request) (flow.Step, error) {
	switch req.Text {
	case answerEdit:
		b.removeKeyboard(ctx, req.ChatID, "Введите имя заново:")
		return flow.StepEnterName, nil
	case answerAccept:
		b.removeKeyboard(ctx, req.ChatID, "Введите вашу почту: ")
		return flow.StepEnterEmail, nil
	default:
		b.send(ctx, req.ChatID, "Используйте кнопки")
		return "", nil
	}
}

func (b *Bot) stepEnterEmail(ctx context.Context, req *flow.Request) (flow.Step, error) {
	email := strings.TrimSpace(req.Text)
	if !strings.Contains(email, "@") {
		b.send(ctx, req.ChatID, "Почта должна содержать символ '@'")
		return "", nil
	}

	req.State.Data["email"] = email
	b.sendWithKeyboard(ctx, req.ChatID, "Подтвердите почту: "+email, confirmKeyboard())
	return flow.StepConfirmEmail, nil
}

func (b *Bot) stepConfirmEmail(ctx context.Context, req *flow.Request) (flow.Step, error) {
	switch req.Text {
	case answerEdit:
		b.removeKeyboard(ctx, req.ChatID, "Введите почту заново")
		return flow.StepEnterEmail, nil
	case answerAccept:
		b.sendWithKeyboard(ctx, req.ChatID,
			"Введите НОМЕР вашего класса (1, 2, 8, 5) или выберите репетиторство",
			buildReplyKeyboard([]string{labelTutoring}))
		return flow.StepGetClassNumber, nil
	default:
		b.send(ctx, req.ChatID, "Используйте кнопки")
		return "", nil
	}
}

func (b *Bot) stepGetClassNumber(ctx context.Context, req *flow.Request) (flow.Step, error) {
	if req.Text == labelTutoring {
		req.State.Data["groupTitle"] = labelTutoring
		b.sendWithKeyboard(ctx, req.ChatID, "Ждем принятия заявки", guestKeyboard())
		return flow.StepRegistrationDone, nil
	}

	if req.Text == "" {
		b.send(ctx, req.ChatID, "Текст не может быть пустым")
		return "", nil
	}

	grade, err := strconv.Atoi(strings.TrimSpace(req.Text))
	if err != nil {
		b.send(ctx, req.ChatID, "Неправильный формат. Пример: 3, 8, 11")
		return "", nil
	}
	if grade < 1 || grade > 11 {
		b.send(ctx, req.ChatID, "Неправильный формат. 1 <= Класс <= 11")
		return "", nil
	}

	req.State.Data["classNumber"] = grade
	b.send(ctx, req.ChatID, "Введите букву вашего класса (А, Б, В...)")
	return flow.StepGetClassLetter, nil
}

func (b *Bot) stepGetClassLetter(ctx context.Context, req *flow.Request) (flow.Step, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		b.send(ctx, req.ChatID, "Текст не может быть пустым")
		return "", nil
	}

	upper := strings.ToUpper(text)
	if upper != "МАТОЛ" {
		first, _ := utf8.DecodeRuneInString(upper)
		if utf8.RuneCountInString(upper) > 1 || unicode.IsDigit(first) {
			b.send(ctx, req.ChatID, "Должна быть только одна буква русского алфавита или МАТОЛ")
			return "", nil
		}
	}

	grade := req.State.Int64("classNumber")
	req.State.Data["classLetter"] = upper
	req.State.Data["groupGrade"] = grade
	req.State.Data["groupLetter"] = upper
	req.State.Data["groupTitle"] = fmt.Sprintf("%d%s", grade, upper)

	b.sendWithKeyboard(ctx, req.ChatID,
		"Регистрация завершена!\nПожалуйста ожидайте принятия заявки или отправьте новую",
		guestKeyboard())
	return flow.StepRegistrationDone, nil
}

// __ createHomework __

func (b *Bot) stepReadHomeworkName(ctx context.Context, req *flow.Request) (flow.Step, error) {
	name := strings.TrimSpace(req.Text)
	if name == "" {
		b.send(ctx, req.ChatID, "Текст не может быть пустым")
		return "", nil
	}

	groupID := req.State.Int64("studyGroupId")
	homeworks, err := b.repo.ListGroupHomeworks(ctx, groupID)
	if err != nil {
		return "", fmt.Errorf("list group homeworks: %w", err)
	}
	for _, hw := range homeworks {
		if hw.Name == name {
			b.send(ctx, req.ChatID, "Такая домашка уже существует. Выберите другое название")
			return "", nil
		}
	}

	req.State.Data["homeworkName"] = name
	b.sendWithKeyboard(ctx, req.ChatID,
		fmt.Sprintf("Введите дедлайн для домашки %s \n Пример 15.08.2008 15:30", name),
		buildReplyKeyboard([]string{labelNoDeadln, answerCancel}))
	return flow.StepEnterDeadline, nil
}

func (b *Bot) stepEnterDeadline(ctx context.Context, req *flow.Request) (flow.Step, error) {
	text := strings.TrimSpace(req.Text)

	if text == labelNoDeadln {
		delete(req.State.Data, "homeworkDeadline")
	} else {
		deadline, ok := parseDeadline(text)
		if !ok {
			b.send(ctx, req.ChatID,
				"❌ Неправильный формат дедлайна.\nПример: 15.08.2008 15:30\nРазрешённые форматы:\n- DD.MM.YYYY\n- DD.MM.YYYY HH:mm")
			return "", nil
		}
		req.State.Data["homeworkDeadline"] = deadline.Format("2006-01-02T15:04:05Z07:00")
	}

	b.removeKeyboard(ctx, req.ChatID, "Создаем домашку...")
	return flow.StepCreateHomeworkDone, nil
}

// __ sendHomework __

func (b *Bot) stepReadHomeworkFile(ctx context.Context, req *flow.Request) (flow.Step, error) {
	msg := messageFrom(ctx)
	if msg == nil || msg.Document == nil {
		b.send(ctx, req.ChatID, "Разрешены только PDF файлы")
		return "", nil
	}

	doc := msg.Document
	if doc.MimeType != "application/pdf" {
		b.send(ctx, req.ChatID, "Разрешены только PDF файлы")
		return "", nil
	}

	fileName := doc.FileName
	if fileName == "" {
		fileName = "homework.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		fileName += ".pdf"
	}

	data, err := b.tg.DownloadFile(ctx, doc.FileID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_id", doc.FileID).Msg("file download failed")
		b.send(ctx, req.ChatID, "Произошла ошибка при загрузке файла.")
		return "", nil
	}

	dir := filepath.Join(os.TempDir(), uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	req.State.Data["homeworkPath"] = path
	return flow.StepSendHomeworkDone, nil
}

// __ notifyStudents __

func (b *Bot) stepNotifyInit(ctx context.Context, req *flow.Request) (flow.Step, error) {
	b.sendWithKeyboard(ctx, req.ChatID,
		"Введите текст, который вы хотите отправить студентам", cancelKeyboard())
	return flow.StepEnterText, nil
}

func (b *Bot) stepNotifyEnterText(ctx context.Context, req *flow.Request) (flow.Step, error) {
	if req.Text == "" {
		b.send(ctx, req.ChatID, "Текст не может быть пустым")
		return "", nil
	}
	req.State.Data["notifyStudentsText"] = req.Text
	return flow.StepNotifyStudentsDone, nil
}
