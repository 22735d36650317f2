package database

import (
	"context"
	"database/sql"
	"fmt"

	"mpsb/internal/models"
)

// GetStudyGroup returns the group with the given id, or (nil, nil) when it
// does not exist.
func (db *DB) GetStudyGroup(ctx context.Context, id int64) (*models.StudyGroup, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, grade, letter, title FROM study_groups WHERE id = ?`, id)

	g := &models.StudyGroup{}
	err := row.Scan(&g.ID, &g.Grade, &g.Letter, &g.Title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get study group %d: %w", id, err)
	}
	return g, nil
}

// FindStudyGroupByTitle returns the group with the given title, or (nil, nil).
func (db *DB) FindStudyGroupByTitle(ctx context.Context, title string) (*models.StudyGroup, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, grade, letter, title FROM study_groups WHERE title = ?`, title)

	g := &models.StudyGroup{}
	err := row.Scan(&g.ID, &g.Grade, &g.Letter, &g.Title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find study group %q: %w", title, err)
	}
	return g, nil
}

// CreateStudyGroup inserts a new group and fills in its generated id.
func (db *DB) CreateStudyGroup(ctx context.Context, g *models.StudyGroup) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO study_groups (grade, letter, title) VALUES (?, ?, ?)`,
		g.Grade, g.Letter, g.Title)
	if err != nil {
		return fmt.Errorf("create study group %q: %w", g.Title, err)
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create study group %q: %w", g.Title, err)
	}
	return nil
}

// FindOrCreateStudyGroup returns the group with the given title, creating
// it first when absent.
func (db *DB) FindOrCreateStudyGroup(ctx context.Context, g *models.StudyGroup) (*models.StudyGroup, error) {
	existing, err := db.FindStudyGroupByTitle(ctx, g.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if err := db.CreateStudyGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ListStudyGroups returns all groups ordered by title.
func (db *DB) ListStudyGroups(ctx context.Context) ([]models.StudyGroup, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, grade, letter, title FROM study_groups ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list study groups: %w", err)
	}
	defer rows.Close()

	var groups []models.StudyGroup
	for rows.Next() {
		var g models.StudyGroup
		if err := rows.Scan(&g.ID, &g.Grade, &g.Letter, &g.Title); err != nil {
			return nil, fmt.Errorf("scan study group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
