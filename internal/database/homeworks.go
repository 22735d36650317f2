package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mpsb/internal/models"
)

// GetHomework returns the homework with the given id, or (nil, nil) when
// it is missing or soft-deleted.
func (db *DB) GetHomework(ctx context.Context, id int64) (*models.Homework, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, group_id, deadline, deleted, expired, created_at
		FROM homeworks WHERE id = ? AND deleted = 0`, id)

	h := &models.Homework{}
	err := row.Scan(&h.ID, &h.Name, &h.GroupID, &h.Deadline, &h.Deleted, &h.Expired, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get homework %d: %w", id, err)
	}
	return h, nil
}

// CreateHomework inserts a homework and fills in its generated id.
func (db *DB) CreateHomework(ctx context.Context, h *models.Homework) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO homeworks (name, group_id, deadline) VALUES (?, ?, ?)`,
		h.Name, h.GroupID, h.Deadline)
	if err != nil {
		return fmt.Errorf("create homework %q: %w", h.Name, err)
	}
	h.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create homework %q: %w", h.Name, err)
	}
	return nil
}

// DeleteHomework soft-deletes a homework and all its submissions.
func (db *DB) DeleteHomework(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete homework %d: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE homeworks SET deleted = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete homework %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE user_homeworks SET deleted = 1 WHERE homework_id = ?`, id); err != nil {
		return fmt.Errorf("delete submissions of homework %d: %w", id, err)
	}
	return tx.Commit()
}

// ListGroupHomeworks returns the live homeworks of a group, newest first.
func (db *DB) ListGroupHomeworks(ctx context.Context, groupID int64) ([]models.Homework, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, group_id, deadline, deleted, expired, created_at
		FROM homeworks WHERE group_id = ? AND deleted = 0
		ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list homeworks of group %d: %w", groupID, err)
	}
	defer rows.Close()
	return scanHomeworks(rows)
}

// ListUserHomeworks returns the live homeworks of all groups the user is
// enrolled in, joined with the user's own submission state. Admins see
// every homework regardless of enrollment.
func (db *DB) ListUserHomeworks(ctx context.Context, userID int64, isAdmin bool) ([]models.HomeworkStatus, error) {
	query := `
		SELECT h.id, h.name, h.group_id, h.deadline, h.deleted, h.expired, h.created_at,
		       COALESCE(uh.completed, 0), COALESCE(uh.checked, 0), COALESCE(uh.score, 0)
		FROM homeworks h
		JOIN group_members gm ON gm.group_id = h.group_id AND gm.user_id = ?
		LEFT JOIN user_homeworks uh
			ON uh.homework_id = h.id AND uh.user_id = ? AND uh.deleted = 0
		WHERE h.deleted = 0
		ORDER BY h.created_at DESC`
	args := []any{userID, userID}
	if isAdmin {
		query = `
		SELECT h.id, h.name, h.group_id, h.deadline, h.deleted, h.expired, h.created_at,
		       COALESCE(uh.completed, 0), COALESCE(uh.checked, 0), COALESCE(uh.score, 0)
		FROM homeworks h
		LEFT JOIN user_homeworks uh
			ON uh.homework_id = h.id AND uh.user_id = ? AND uh.deleted = 0
		WHERE h.deleted = 0
		ORDER BY h.created_at DESC`
		args = []any{userID}
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list homeworks of user %d: %w", userID, err)
	}
	defer rows.Close()

	var list []models.HomeworkStatus
	for rows.Next() {
		var s models.HomeworkStatus
		if err := rows.Scan(&s.ID, &s.Name, &s.GroupID, &s.Deadline, &s.Deleted,
			&s.Expired, &s.CreatedAt, &s.Completed, &s.Checked, &s.Score); err != nil {
			return nil, fmt.Errorf("scan homework status: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetUserHomework returns the submission record for (homework, user), or
// (nil, nil) when the student never submitted.
func (db *DB) GetUserHomework(ctx context.Context, homeworkID, userID int64) (*models.UserHomework, error) {
	row := db.QueryRowContext(ctx, `
		SELECT homework_id, user_id, completed, checked, score, deleted, updated_at
		FROM user_homeworks WHERE homework_id = ? AND user_id = ? AND deleted = 0`,
		homeworkID, userID)

	uh := &models.UserHomework{}
	err := row.Scan(&uh.HomeworkID, &uh.UserID, &uh.Completed, &uh.Checked,
		&uh.Score, &uh.Deleted, &uh.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %d/%d: %w", homeworkID, userID, err)
	}
	return uh, nil
}

// GetGraded reports whether the submission was already checked by the
// teacher.
func (db *DB) GetGraded(ctx context.Context, homeworkID, userID int64) (bool, error) {
	uh, err := db.GetUserHomework(ctx, homeworkID, userID)
	if err != nil {
		return false, err
	}
	return uh != nil && uh.Checked, nil
}

// MarkHomeworkCompleted records a submission, creating the record when
// absent.
func (db *DB) MarkHomeworkCompleted(ctx context.Context, homeworkID, userID int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_homeworks (homework_id, user_id, completed, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(homework_id, user_id)
		DO UPDATE SET completed = 1, deleted = 0, updated_at = excluded.updated_at`,
		homeworkID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("mark submission %d/%d completed: %w", homeworkID, userID, err)
	}
	return nil
}

// DeleteUserHomework soft-deletes a student's own submission.
func (db *DB) DeleteUserHomework(ctx context.Context, homeworkID, userID int64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE user_homeworks SET deleted = 1, completed = 0, updated_at = ?
		WHERE homework_id = ? AND user_id = ?`, time.Now(), homeworkID, userID)
	if err != nil {
		return fmt.Errorf("delete submission %d/%d: %w", homeworkID, userID, err)
	}
	return nil
}

// SetGrade stores the grade for a submission. checked is set without a
// numeric score when the teacher marks the work as reviewed only.
func (db *DB) SetGrade(ctx context.Context, homeworkID, userID int64, score int, checked bool) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_homeworks (homework_id, user_id, completed, checked, score, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(homework_id, user_id)
		DO UPDATE SET checked = excluded.checked, score = excluded.score, updated_at = excluded.updated_at`,
		homeworkID, userID, checked, score, time.Now())
	if err != nil {
		return fmt.Errorf("set grade %d/%d: %w", homeworkID, userID, err)
	}
	return nil
}

// ListCompleters returns the students that submitted the given homework,
// joined with their grading state.
func (db *DB) ListCompleters(ctx context.Context, homeworkID int64) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.patronymic, u.email,
		       u.role, u.score, u.group_id, u.created_at
		FROM users u
		JOIN user_homeworks uh ON uh.user_id = u.id
		WHERE uh.homework_id = ? AND uh.completed = 1 AND uh.deleted = 0
		ORDER BY u.last_name, u.first_name`, homeworkID)
	if err != nil {
		return nil, fmt.Errorf("list completers of homework %d: %w", homeworkID, err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListExpiredHomeworks returns live homeworks whose deadline is in the past
// and that have not been marked expired yet.
func (db *DB) ListExpiredHomeworks(ctx context.Context, now time.Time) ([]models.Homework, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, group_id, deadline, deleted, expired, created_at
		FROM homeworks
		WHERE deleted = 0 AND expired = 0 AND deadline IS NOT NULL AND deadline <= ?`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired homeworks: %w", err)
	}
	defer rows.Close()
	return scanHomeworks(rows)
}

// MarkHomeworkExpired flags a homework so the sweeper processes it once.
func (db *DB) MarkHomeworkExpired(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, `UPDATE homeworks SET expired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark homework %d expired: %w", id, err)
	}
	return nil
}

func scanHomeworks(rows *sql.Rows) ([]models.Homework, error) {
	var list []models.Homework
	for rows.Next() {
		var h models.Homework
		if err := rows.Scan(&h.ID, &h.Name, &h.GroupID, &h.Deadline, &h.Deleted,
			&h.Expired, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan homework: %w", err)
		}
		list = append(list, h)
	}
	return list, rows.Err()
}
