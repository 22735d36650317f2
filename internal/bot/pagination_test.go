package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpsb/internal/models"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		count      int
		wantPage   int
		wantTotals int
	}{
		{"empty collection still one page", 0, 0, 0, 1},
		{"exact fit", 0, 5, 0, 1},
		{"second page", 1, 6, 1, 2},
		{"overshoot clamps to last", 9, 12, 2, 3},
		{"negative clamps to first", -3, 12, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safePage, totalPages := clampPage(tt.page, tt.count, defaultPageSize)
			assert.Equal(t, tt.wantPage, safePage)
			assert.Equal(t, tt.wantTotals, totalPages)
		})
	}
}

func TestPagerRow(t *testing.T) {
	t.Run("single page is fully inert", func(t *testing.T) {
		row := pagerRow(cbHomeworks, 0, 1)
		require.Len(t, row, 3)
		assert.Equal(t, cbNone, *row[0].CallbackData)
		assert.Equal(t, "📄 1/1", row[1].Text)
		assert.Equal(t, cbNone, *row[1].CallbackData)
		assert.Equal(t, cbNone, *row[2].CallbackData)
	})

	t.Run("middle page has both arrows", func(t *testing.T) {
		row := pagerRow(cbHomeworks, 1, 3)
		assert.Equal(t, "homeworks:0", *row[0].CallbackData)
		assert.Equal(t, "📄 2/3", row[1].Text)
		assert.Equal(t, "homeworks:2", *row[2].CallbackData)
	})

	t.Run("last page has no forward arrow", func(t *testing.T) {
		row := pagerRow(cbHomeworks, 2, 3)
		assert.Equal(t, "homeworks:1", *row[0].CallbackData)
		assert.Equal(t, cbNone, *row[2].CallbackData)
	})
}

func TestRenderHomeworksPage(t *testing.T) {
	deadline := time.Date(2026, 9, 1, 15, 30, 0, 0, time.Local)
	homeworks := []models.HomeworkStatus{
		{Homework: models.Homework{ID: 1, Name: "Алгебра"}, Completed: true},
		{Homework: models.Homework{ID: 2, Name: "Геометрия", Deadline: &deadline}},
	}

	text, kbd := renderHomeworksPage(homeworks, 0)
	assert.Equal(t, "📚 Домашние задания | Нажмите на дз чтобы отправить", text)
	// one row per homework plus the pager
	require.Len(t, kbd.InlineKeyboard, 3)

	assert.Equal(t, "Алгебра | ✅", kbd.InlineKeyboard[0][0].Text)
	assert.Equal(t, "openHomework:0:1", *kbd.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "Геометрия | 2026-09-01 15:30", kbd.InlineKeyboard[1][0].Text)
}

func TestRenderHomeworksPage_Empty(t *testing.T) {
	_, kbd := renderHomeworksPage(nil, 0)
	// pager only
	require.Len(t, kbd.InlineKeyboard, 1)
	assert.Equal(t, "📄 1/1", kbd.InlineKeyboard[0][1].Text)
}

func TestRenderCompletersPage(t *testing.T) {
	homework := &models.Homework{ID: 5, Name: "Тригонометрия", GroupID: 3}
	users := []models.User{
		{ID: 10, LastName: "Иванов", FirstName: "Иван", Patronymic: "Иванович"},
	}

	text, kbd := renderCompletersPage(users, homework)
	assert.Equal(t, "Выполнили: Тригонометрия\nВсего: 1", text)
	require.Len(t, kbd.InlineKeyboard, 3)

	assert.Equal(t, "deleteHomework:5", *kbd.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "Иванов Иван Иванович", kbd.InlineKeyboard[1][0].Text)
	assert.Equal(t, "gradeMenu:5:10", *kbd.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "groupHomeworks:3", *kbd.InlineKeyboard[2][0].CallbackData)
}

func TestRenderGradeMenu(t *testing.T) {
	text, kbd := renderGradeMenu(5, 10)
	assert.Equal(t, "Выберите оценку:", text)
	require.Len(t, kbd.InlineKeyboard, 3)

	require.Len(t, kbd.InlineKeyboard[0], 4)
	assert.Equal(t, "setGrade:5:10:2", *kbd.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "setGrade:5:10:5", *kbd.InlineKeyboard[0][3].CallbackData)
	assert.Equal(t, "setGrade:5:10:checked", *kbd.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "homeworkUsers:5", *kbd.InlineKeyboard[2][0].CallbackData)
}
