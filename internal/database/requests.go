package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"mpsb/internal/models"
)

// GetPendingRequest returns the registration request of a user, or
// (nil, nil) when there is none.
func (db *DB) GetPendingRequest(ctx context.Context, userID int64) (*models.PendingRequest, error) {
	row := db.QueryRowContext(ctx,
		`SELECT user_id, messages, created_at FROM pending_requests WHERE user_id = ?`, userID)

	var raw string
	r := &models.PendingRequest{}
	err := row.Scan(&r.UserID, &raw, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending request %d: %w", userID, err)
	}
	r.Messages = decodeMessageRefs(raw)
	return r, nil
}

// CreatePendingRequest records a registration request together with the
// admin notification messages announcing it.
func (db *DB) CreatePendingRequest(ctx context.Context, r *models.PendingRequest) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pending_requests (user_id, messages) VALUES (?, ?)`,
		r.UserID, encodeMessageRefs(r.Messages))
	if err != nil {
		return fmt.Errorf("create pending request %d: %w", r.UserID, err)
	}
	return nil
}

// DeletePendingRequest removes the registration request of a user.
func (db *DB) DeletePendingRequest(ctx context.Context, userID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM pending_requests WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete pending request %d: %w", userID, err)
	}
	return nil
}

// ListPendingRequests returns the users with an unresolved registration
// request, oldest first.
func (db *DB) ListPendingRequests(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.patronymic, u.email,
		       u.role, u.score, u.group_id, u.created_at
		FROM users u
		JOIN pending_requests pr ON pr.user_id = u.id
		ORDER BY pr.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// Message refs are stored as "chat:message" pairs joined with commas.

func encodeMessageRefs(refs []models.MessageRef) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		parts = append(parts, fmt.Sprintf("%d:%d", ref.ChatID, ref.MessageID))
	}
	return strings.Join(parts, ",")
}

func decodeMessageRefs(raw string) []models.MessageRef {
	if raw == "" {
		return nil
	}
	var refs []models.MessageRef
	for _, part := range strings.Split(raw, ",") {
		chat, msg, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		chatID, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			continue
		}
		messageID, err := strconv.Atoi(msg)
		if err != nil {
			continue
		}
		refs = append(refs, models.MessageRef{ChatID: chatID, MessageID: messageID})
	}
	return refs
}
