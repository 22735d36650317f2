package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpsb/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, id int64, role models.Role, groupID int64) *models.User {
	t.Helper()
	u := &models.User{
		ID: id, Username: "ivanov",
		LastName: "Иванов", FirstName: "Иван", Patronymic: "Иванович",
		Email: "i@mail.ru", Role: role, GroupID: groupID,
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func TestDB_SeedsCatchAllGroup(t *testing.T) {
	db := newTestDB(t)

	group, err := db.GetStudyGroup(context.Background(), models.CatchAllGroupID)
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, "Матол", group.Title)
}

func TestDB_UserLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	missing, err := db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	seedUser(t, db, 42, models.RoleGuest, 0)

	user, err := db.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, models.RoleGuest, user.Role)
	assert.Equal(t, "Иванов Иван Иванович", user.FullName())

	require.NoError(t, db.UpdateUserRole(ctx, 42, models.RoleUser))
	user, err = db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	require.NoError(t, db.AddScore(ctx, 42, -1))
	require.NoError(t, db.AddScore(ctx, 42, 3))
	user, err = db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, user.Score)

	require.NoError(t, db.DeleteUser(ctx, 42))
	user, err = db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestDB_RoleLists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, 1, models.RoleAdmin, 0)
	seedUser(t, db, 2, models.RoleUser, 0)
	seedUser(t, db, 3, models.RoleGuest, 0)

	admins, err := db.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, int64(1), admins[0].ID)

	students, err := db.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, int64(2), students[0].ID)

	all, err := db.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDB_GroupMembership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	group, err := db.FindOrCreateStudyGroup(ctx, &models.StudyGroup{Grade: 8, Letter: "Б", Title: "8Б"})
	require.NoError(t, err)
	require.NotZero(t, group.ID)

	// same title resolves to the same group
	again, err := db.FindOrCreateStudyGroup(ctx, &models.StudyGroup{Grade: 8, Letter: "Б", Title: "8Б"})
	require.NoError(t, err)
	assert.Equal(t, group.ID, again.ID)

	seedUser(t, db, 42, models.RoleUser, group.ID)
	require.NoError(t, db.AddUserToGroup(ctx, 42, group.ID))
	// enrolling twice is a no-op
	require.NoError(t, db.AddUserToGroup(ctx, 42, group.ID))

	members, err := db.ListGroupMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(42), members[0].ID)
}

func TestDB_HomeworkLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	group, err := db.FindOrCreateStudyGroup(ctx, &models.StudyGroup{Title: "8Б"})
	require.NoError(t, err)
	seedUser(t, db, 42, models.RoleUser, group.ID)
	require.NoError(t, db.AddUserToGroup(ctx, 42, group.ID))

	deadline := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	homework := &models.Homework{Name: "Алгебра 5", GroupID: group.ID, Deadline: &deadline}
	require.NoError(t, db.CreateHomework(ctx, homework))
	require.NotZero(t, homework.ID)

	got, err := db.GetHomework(ctx, homework.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Deadline)
	assert.True(t, got.Deadline.Equal(deadline))

	statuses, err := db.ListUserHomeworks(ctx, 42, false)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Completed)

	require.NoError(t, db.MarkHomeworkCompleted(ctx, homework.ID, 42))
	statuses, err = db.ListUserHomeworks(ctx, 42, false)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Completed)

	completers, err := db.ListCompleters(ctx, homework.ID)
	require.NoError(t, err)
	require.Len(t, completers, 1)
	assert.Equal(t, int64(42), completers[0].ID)

	require.NoError(t, db.SetGrade(ctx, homework.ID, 42, 5, true))
	graded, err := db.GetGraded(ctx, homework.ID, 42)
	require.NoError(t, err)
	assert.True(t, graded)

	sub, err := db.GetUserHomework(ctx, homework.ID, 42)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, 5, sub.Score)

	require.NoError(t, db.DeleteHomework(ctx, homework.ID))
	got, err = db.GetHomework(ctx, homework.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// the submission was soft-deleted along with it
	sub, err = db.GetUserHomework(ctx, homework.ID, 42)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestDB_AdminSeesAllHomeworks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, 1, models.RoleAdmin, 0)
	require.NoError(t, db.AddUserToGroup(ctx, 1, models.CatchAllGroupID))

	group, err := db.FindOrCreateStudyGroup(ctx, &models.StudyGroup{Grade: 8, Letter: "Б", Title: "8Б"})
	require.NoError(t, err)
	require.NoError(t, db.CreateHomework(ctx, &models.Homework{Name: "Алгебра", GroupID: group.ID}))

	// the admin is not enrolled in 8Б but still sees its homework
	statuses, err := db.ListUserHomeworks(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "Алгебра", statuses[0].Name)

	// students stay scoped to their enrollments
	statuses, err = db.ListUserHomeworks(ctx, 1, false)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestDB_DeleteUserHomework(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, 42, models.RoleUser, 0)
	homework := &models.Homework{Name: "Алгебра", GroupID: 0}
	require.NoError(t, db.CreateHomework(ctx, homework))
	require.NoError(t, db.MarkHomeworkCompleted(ctx, homework.ID, 42))
	require.NoError(t, db.DeleteUserHomework(ctx, homework.ID, 42))

	sub, err := db.GetUserHomework(ctx, homework.ID, 42)
	require.NoError(t, err)
	assert.Nil(t, sub)

	// resubmission revives the record
	require.NoError(t, db.MarkHomeworkCompleted(ctx, homework.ID, 42))
	sub, err = db.GetUserHomework(ctx, homework.ID, 42)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, sub.Completed)
}

func TestDB_ExpiredHomeworks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	overdue := &models.Homework{Name: "Просроченная", GroupID: 0, Deadline: &past}
	require.NoError(t, db.CreateHomework(ctx, overdue))
	upcoming := &models.Homework{Name: "Будущая", GroupID: 0, Deadline: &future}
	require.NoError(t, db.CreateHomework(ctx, upcoming))
	open := &models.Homework{Name: "Бессрочная", GroupID: 0}
	require.NoError(t, db.CreateHomework(ctx, open))

	expired, err := db.ListExpiredHomeworks(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, overdue.ID, expired[0].ID)

	require.NoError(t, db.MarkHomeworkExpired(ctx, overdue.ID))
	expired, err = db.ListExpiredHomeworks(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestDB_PendingRequests(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, 42, models.RoleGuest, 0)

	missing, err := db.GetPendingRequest(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	request := &models.PendingRequest{
		UserID: 42,
		Messages: []models.MessageRef{
			{ChatID: 500, MessageID: 3},
			{ChatID: 501, MessageID: 9},
		},
	}
	require.NoError(t, db.CreatePendingRequest(ctx, request))

	got, err := db.GetPendingRequest(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, request.Messages, got.Messages)

	users, err := db.ListPendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(42), users[0].ID)

	require.NoError(t, db.DeletePendingRequest(ctx, 42))
	got, err = db.GetPendingRequest(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMessageRefCodec(t *testing.T) {
	refs := []models.MessageRef{{ChatID: 1, MessageID: 2}, {ChatID: 3, MessageID: 4}}
	assert.Equal(t, "1:2,3:4", encodeMessageRefs(refs))
	assert.Equal(t, refs, decodeMessageRefs("1:2,3:4"))
	assert.Nil(t, decodeMessageRefs(""))
	// malformed pairs are skipped
	assert.Equal(t, []models.MessageRef{{ChatID: 3, MessageID: 4}}, decodeMessageRefs("junk,3:4"))
}
