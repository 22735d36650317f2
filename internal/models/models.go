// Package models defines the domain entities shared between the bot,
// the repositories and the background workers.
package models

import (
	"fmt"
	"time"
)

// Role defines the access level of a registered user.
type Role string

const (
	// RoleGuest is assigned to freshly registered users awaiting approval,
	// and resolved for identities that do not exist at all.
	RoleGuest Role = "GUEST"
	// RoleUser is a verified student.
	RoleUser Role = "USER"
	// RoleAdmin is a teacher with full management access.
	RoleAdmin Role = "ADMIN"
)

// User is a tutoring service participant keyed by their Telegram id.
type User struct {
	ID         int64
	Username   string
	FirstName  string
	LastName   string
	Patronymic string
	Email      string
	Role       Role
	Score      int
	GroupID    int64 // primary study group
	CreatedAt  time.Time
}

// FullName renders "Фамилия Имя Отчество" the way lists and reports show it.
func (u *User) FullName() string {
	return fmt.Sprintf("%s %s %s", u.LastName, u.FirstName, u.Patronymic)
}

// IsAdmin reports whether the user holds the teacher role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// StudyGroup is a class (e.g. "8Б") or the fixed tutoring-only group.
type StudyGroup struct {
	ID     int64
	Grade  int    // 0 for non-class groups
	Letter string // empty for non-class groups
	Title  string
}

// TutoringGroupTitle is the title of the fixed tutoring-only group a user
// can pick instead of a school class.
const TutoringGroupTitle = "Репетиторство"

// CatchAllGroupID is the fixed catch-all group every non-tutoring user is
// additionally enrolled into.
const CatchAllGroupID int64 = 0

// Homework is an assignment scoped to a single study group.
type Homework struct {
	ID        int64
	Name      string
	GroupID   int64
	Deadline  *time.Time // nil means no deadline
	Deleted   bool
	Expired   bool
	CreatedAt time.Time
}

// IsExpired reports whether the deadline has already passed. A homework
// without a deadline never expires.
func (h *Homework) IsExpired(now time.Time) bool {
	return h.Deadline != nil && now.After(*h.Deadline)
}

// UserHomework is the per-student submission record for one homework.
type UserHomework struct {
	HomeworkID int64
	UserID     int64
	Completed  bool
	Checked    bool
	Score      int // 0 when "checked" without a numeric grade
	Deleted    bool
	UpdatedAt  time.Time
}

// HomeworkStatus is a homework joined with the acting user's submission
// state, as shown in the paginated homework list.
type HomeworkStatus struct {
	Homework
	Completed bool
	Checked   bool
	Score     int
}

// PendingRequest tracks an unresolved registration approval request and
// the admin messages announcing it, so they can be retracted later.
type PendingRequest struct {
	UserID    int64
	Messages  []MessageRef
	CreatedAt time.Time
}

// MessageRef locates a single sent chat message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}
