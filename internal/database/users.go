package database

import (
	"context"
	"database/sql"
	"fmt"

	"mpsb/internal/models"
)

// GetUser returns the user with the given telegram id, or (nil, nil) when
// no such user exists.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name, patronymic, email, role, score, group_id, created_at
		FROM users WHERE id = ?`, id)

	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Patronymic,
		&u.Email, &u.Role, &u.Score, &u.GroupID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// CreateUser inserts or replaces a user record.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users
			(id, username, first_name, last_name, patronymic, email, role, score, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Patronymic, u.Email, u.Role, u.Score, u.GroupID)
	if err != nil {
		return fmt.Errorf("create user %d: %w", u.ID, err)
	}
	return nil
}

// UpdateUserRole changes the role of a single user.
func (db *DB) UpdateUserRole(ctx context.Context, id int64, role models.Role) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("update role for user %d: %w", id, err)
	}
	return nil
}

// DeleteUser removes the user together with their enrollments and
// submissions (cascaded by the schema).
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// ListUsers returns all users ordered by last name.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, username, first_name, last_name, patronymic, email, role, score, group_id, created_at
		FROM users ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListAdmins returns all users with the teacher role.
func (db *DB) ListAdmins(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, username, first_name, last_name, patronymic, email, role, score, group_id, created_at
		FROM users WHERE role = ?`, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListStudents returns all verified students ordered by score descending,
// as shown on the teacher's roster.
func (db *DB) ListStudents(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, username, first_name, last_name, patronymic, email, role, score, group_id, created_at
		FROM users WHERE role = ? ORDER BY score DESC, last_name`, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListGroupMembers returns every user enrolled in the given group.
func (db *DB) ListGroupMembers(ctx context.Context, groupID int64) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.patronymic, u.email,
		       u.role, u.score, u.group_id, u.created_at
		FROM users u
		JOIN group_members gm ON gm.user_id = u.id
		WHERE gm.group_id = ?
		ORDER BY u.last_name, u.first_name`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members of group %d: %w", groupID, err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// AddUserToGroup enrolls a user into a group; already-enrolled is a no-op.
func (db *DB) AddUserToGroup(ctx context.Context, userID, groupID int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO group_members (user_id, group_id) VALUES (?, ?)`, userID, groupID)
	if err != nil {
		return fmt.Errorf("enroll user %d into group %d: %w", userID, groupID, err)
	}
	return nil
}

// AddScore adjusts a user's score by delta (may be negative).
func (db *DB) AddScore(ctx context.Context, userID int64, delta int) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET score = score + ? WHERE id = ?`, delta, userID)
	if err != nil {
		return fmt.Errorf("add score for user %d: %w", userID, err)
	}
	return nil
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Patronymic,
			&u.Email, &u.Role, &u.Score, &u.GroupID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
