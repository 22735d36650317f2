// Package report builds the teacher's XLSX score report: one sheet per
// study group, students down the rows and homeworks across the columns.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"mpsb/internal/models"
)

// Source is the read-only persistence surface the report needs.
type Source interface {
	ListStudyGroups(ctx context.Context) ([]models.StudyGroup, error)
	ListGroupMembers(ctx context.Context, groupID int64) ([]models.User, error)
	ListGroupHomeworks(ctx context.Context, groupID int64) ([]models.Homework, error)
	GetUserHomework(ctx context.Context, homeworkID, userID int64) (*models.UserHomework, error)
}

type Builder struct {
	src Source
}

func NewBuilder(src Source) *Builder {
	return &Builder{src: src}
}

// Build renders the full report and returns the XLSX bytes.
func (b *Builder) Build(ctx context.Context) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	groups, err := b.src.ListStudyGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list study groups: %w", err)
	}

	written := 0
	for _, group := range groups {
		ok, err := b.writeGroupSheet(ctx, f, group)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", group.Title, err)
		}
		if ok {
			written++
		}
	}

	if written > 0 {
		f.DeleteSheet("Sheet1")
	} else {
		f.SetCellValue("Sheet1", "A1", "Нет данных")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeGroupSheet emits one group's grid. Groups without members are
// skipped entirely; the second return value reports whether a sheet was
// written.
func (b *Builder) writeGroupSheet(ctx context.Context, f *excelize.File, group models.StudyGroup) (bool, error) {
	members, err := b.src.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return false, fmt.Errorf("list members: %w", err)
	}
	if len(members) == 0 {
		return false, nil
	}

	homeworks, err := b.src.ListGroupHomeworks(ctx, group.ID)
	if err != nil {
		return false, fmt.Errorf("list homeworks: %w", err)
	}

	sheet := sheetName(group.Title)
	if _, err := f.NewSheet(sheet); err != nil {
		return false, err
	}

	f.SetCellValue(sheet, "A1", "Ученик")
	for col, hw := range homeworks {
		cell, _ := excelize.CoordinatesToCellName(col+2, 1)
		f.SetCellValue(sheet, cell, hw.Name)
	}
	scoreCol := len(homeworks) + 2
	scoreHeader, _ := excelize.CoordinatesToCellName(scoreCol, 1)
	f.SetCellValue(sheet, scoreHeader, "Баллы")

	for row, member := range members {
		nameCell, _ := excelize.CoordinatesToCellName(1, row+2)
		f.SetCellValue(sheet, nameCell, member.FullName())

		for col, hw := range homeworks {
			submission, err := b.src.GetUserHomework(ctx, hw.ID, member.ID)
			if err != nil {
				return false, fmt.Errorf("submission %d/%d: %w", hw.ID, member.ID, err)
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, row+2)
			f.SetCellValue(sheet, cell, gradeLabel(submission))
		}

		scoreCell, _ := excelize.CoordinatesToCellName(scoreCol, row+2)
		f.SetCellValue(sheet, scoreCell, member.Score)
	}

	f.SetColWidth(sheet, "A", "A", 32)
	return true, nil
}

func gradeLabel(submission *models.UserHomework) string {
	switch {
	case submission == nil || !submission.Completed:
		return "—"
	case submission.Checked && submission.Score > 0:
		return fmt.Sprintf("%d", submission.Score)
	case submission.Checked:
		return "Проверено"
	default:
		return "✅"
	}
}

// sheetName confines a group title to Excel's 31-char sheet name limit
// and strips the characters Excel forbids.
func sheetName(title string) string {
	replacer := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
	name := strings.TrimSpace(replacer.Replace(title))
	if name == "" {
		name = "Группа"
	}
	runes := []rune(name)
	if len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}
