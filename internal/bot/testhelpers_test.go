package bot

import (
	"context"
	"fmt"
	"sort"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"mpsb/internal/flow"
	"mpsb/internal/metrics"
	"mpsb/internal/models"
	"mpsb/internal/uplink"
)

// fakeTelegram records everything the bot tries to send.
type fakeTelegram struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	failFor  map[int64]bool // chat ids whose sends fail
	file     []byte
	nextID   int
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{failFor: map[int64]bool{}, file: []byte("%PDF-1.4 test")}
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok && f.failFor[msg.ChatID] {
		return tgbotapi.Message{}, fmt.Errorf("chat %d unavailable", msg.ChatID)
	}
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return nil
}

func (f *fakeTelegram) StopReceivingUpdates() {}

func (f *fakeTelegram) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	return f.file, nil
}

// texts returns the plain message texts sent so far, in order.
func (f *fakeTelegram) texts() []string {
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeTelegram) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// textsTo returns message texts sent to one chat.
func (f *fakeTelegram) textsTo(chatID int64) []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

// memSessions is an in-memory session.Store.
type memSessions struct {
	states map[int64]*flow.AppState
	saves  int
}

func newMemSessions() *memSessions {
	return &memSessions{states: map[int64]*flow.AppState{}}
}

func (s *memSessions) Load(ctx context.Context, userID int64) (*flow.AppState, error) {
	state, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	copied := *state
	copied.Data = map[string]any{}
	for k, v := range state.Data {
		copied.Data[k] = v
	}
	return &copied, nil
}

func (s *memSessions) Save(ctx context.Context, userID int64, state *flow.AppState) error {
	s.states[userID] = state
	s.saves++
	return nil
}

func (s *memSessions) Reset(ctx context.Context, userID int64) error {
	delete(s.states, userID)
	return nil
}

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	users       map[int64]*models.User
	groups      map[int64]*models.StudyGroup
	memberships map[int64][]int64 // group id -> user ids
	homeworks   map[int64]*models.Homework
	submissions map[string]*models.UserHomework // "hw:user"
	requests    map[int64]*models.PendingRequest
	nextGroupID int64
	nextHwID    int64

	listGroupHomeworksErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       map[int64]*models.User{},
		groups:      map[int64]*models.StudyGroup{0: {ID: 0, Title: "Матол"}},
		memberships: map[int64][]int64{},
		homeworks:   map[int64]*models.Homework{},
		submissions: map[string]*models.UserHomework{},
		requests:    map[int64]*models.PendingRequest{},
		nextGroupID: 1,
		nextHwID:    1,
	}
}

func subKey(homeworkID, userID int64) string {
	return fmt.Sprintf("%d:%d", homeworkID, userID)
}

func (r *fakeRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeRepo) CreateUser(ctx context.Context, u *models.User) error {
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdateUserRole(ctx context.Context, id int64, role models.Role) error {
	if u, ok := r.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (r *fakeRepo) DeleteUser(ctx context.Context, id int64) error {
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.usersWhere(func(u *models.User) bool { return true }), nil
}

func (r *fakeRepo) ListAdmins(ctx context.Context) ([]models.User, error) {
	return r.usersWhere(func(u *models.User) bool { return u.Role == models.RoleAdmin }), nil
}

func (r *fakeRepo) ListStudents(ctx context.Context) ([]models.User, error) {
	return r.usersWhere(func(u *models.User) bool { return u.Role == models.RoleUser }), nil
}

func (r *fakeRepo) usersWhere(pred func(*models.User) bool) []models.User {
	var out []models.User
	for _, u := range r.users {
		if pred(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeRepo) ListGroupMembers(ctx context.Context, groupID int64) ([]models.User, error) {
	var out []models.User
	for _, id := range r.memberships[groupID] {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeRepo) AddUserToGroup(ctx context.Context, userID, groupID int64) error {
	for _, id := range r.memberships[groupID] {
		if id == userID {
			return nil
		}
	}
	r.memberships[groupID] = append(r.memberships[groupID], userID)
	return nil
}

func (r *fakeRepo) AddScore(ctx context.Context, userID int64, delta int) error {
	if u, ok := r.users[userID]; ok {
		u.Score += delta
	}
	return nil
}

func (r *fakeRepo) GetStudyGroup(ctx context.Context, id int64) (*models.StudyGroup, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	copied := *g
	return &copied, nil
}

func (r *fakeRepo) FindOrCreateStudyGroup(ctx context.Context, g *models.StudyGroup) (*models.StudyGroup, error) {
	for _, existing := range r.groups {
		if existing.Title == g.Title {
			copied := *existing
			return &copied, nil
		}
	}
	created := *g
	created.ID = r.nextGroupID
	r.nextGroupID++
	r.groups[created.ID] = &created
	copied := created
	return &copied, nil
}

func (r *fakeRepo) ListStudyGroups(ctx context.Context) ([]models.StudyGroup, error) {
	var out []models.StudyGroup
	for _, g := range r.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) GetHomework(ctx context.Context, id int64) (*models.Homework, error) {
	hw, ok := r.homeworks[id]
	if !ok || hw.Deleted {
		return nil, nil
	}
	copied := *hw
	return &copied, nil
}

func (r *fakeRepo) CreateHomework(ctx context.Context, h *models.Homework) error {
	created := *h
	created.ID = r.nextHwID
	created.CreatedAt = time.Now()
	r.nextHwID++
	r.homeworks[created.ID] = &created
	h.ID = created.ID
	return nil
}

func (r *fakeRepo) DeleteHomework(ctx context.Context, id int64) error {
	if hw, ok := r.homeworks[id]; ok {
		hw.Deleted = true
	}
	return nil
}

func (r *fakeRepo) ListGroupHomeworks(ctx context.Context, groupID int64) ([]models.Homework, error) {
	if r.listGroupHomeworksErr != nil {
		return nil, r.listGroupHomeworksErr
	}
	var out []models.Homework
	for _, hw := range r.homeworks {
		if hw.GroupID == groupID && !hw.Deleted {
			out = append(out, *hw)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) ListUserHomeworks(ctx context.Context, userID int64, isAdmin bool) ([]models.HomeworkStatus, error) {
	groupSet := map[int64]bool{}
	for gid, members := range r.memberships {
		for _, id := range members {
			if id == userID {
				groupSet[gid] = true
			}
		}
	}

	var out []models.HomeworkStatus
	for _, hw := range r.homeworks {
		if hw.Deleted || (!isAdmin && !groupSet[hw.GroupID]) {
			continue
		}
		status := models.HomeworkStatus{Homework: *hw}
		if sub, ok := r.submissions[subKey(hw.ID, userID)]; ok && !sub.Deleted {
			status.Completed = sub.Completed
			status.Checked = sub.Checked
			status.Score = sub.Score
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) GetUserHomework(ctx context.Context, homeworkID, userID int64) (*models.UserHomework, error) {
	sub, ok := r.submissions[subKey(homeworkID, userID)]
	if !ok || sub.Deleted {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeRepo) MarkHomeworkCompleted(ctx context.Context, homeworkID, userID int64) error {
	key := subKey(homeworkID, userID)
	if sub, ok := r.submissions[key]; ok {
		sub.Completed = true
		sub.Deleted = false
		return nil
	}
	r.submissions[key] = &models.UserHomework{
		HomeworkID: homeworkID, UserID: userID, Completed: true,
	}
	return nil
}

func (r *fakeRepo) DeleteUserHomework(ctx context.Context, homeworkID, userID int64) error {
	if sub, ok := r.submissions[subKey(homeworkID, userID)]; ok {
		sub.Deleted = true
	}
	return nil
}

func (r *fakeRepo) SetGrade(ctx context.Context, homeworkID, userID int64, score int, checked bool) error {
	key := subKey(homeworkID, userID)
	if sub, ok := r.submissions[key]; ok {
		sub.Completed = true
		sub.Checked = checked
		sub.Score = score
		return nil
	}
	r.submissions[key] = &models.UserHomework{
		HomeworkID: homeworkID, UserID: userID,
		Completed: true, Checked: checked, Score: score,
	}
	return nil
}

func (r *fakeRepo) ListCompleters(ctx context.Context, homeworkID int64) ([]models.User, error) {
	var out []models.User
	for _, sub := range r.submissions {
		if sub.HomeworkID == homeworkID && sub.Completed && !sub.Deleted {
			if u, ok := r.users[sub.UserID]; ok {
				out = append(out, *u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) GetPendingRequest(ctx context.Context, userID int64) (*models.PendingRequest, error) {
	req, ok := r.requests[userID]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRepo) CreatePendingRequest(ctx context.Context, req *models.PendingRequest) error {
	copied := *req
	r.requests[req.UserID] = &copied
	return nil
}

func (r *fakeRepo) DeletePendingRequest(ctx context.Context, userID int64) error {
	delete(r.requests, userID)
	return nil
}

func (r *fakeRepo) ListPendingRequests(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for userID := range r.requests {
		if u, ok := r.users[userID]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// testBot wires a Bot onto the fakes.
type testBot struct {
	bot      *Bot
	tg       *fakeTelegram
	repo     *fakeRepo
	sessions *memSessions
	cache    *IdentityCache
}

func newTestBot() *testBot {
	tg := newFakeTelegram()
	repo := newFakeRepo()
	sessions := newMemSessions()
	cache := NewIdentityCache()

	b := New(
		tg,
		repo,
		sessions,
		cache,
		uplink.NewSigner("test-secret", 5*time.Minute),
		metrics.New(prometheus.NewRegistry()),
		zerolog.Nop(),
		Config{UploadBaseURL: "https://upload.test"},
	)
	return &testBot{bot: b, tg: tg, repo: repo, sessions: sessions, cache: cache}
}

// seedUser registers a user straight into the repo and cache.
func (tb *testBot) seedUser(id int64, role models.Role, groupID int64) *models.User {
	u := &models.User{
		ID: id, Username: fmt.Sprintf("user%d", id),
		LastName: "Иванов", FirstName: "Иван", Patronymic: "Иванович",
		Email: fmt.Sprintf("u%d@mail.ru", id), Role: role, GroupID: groupID,
	}
	tb.repo.users[id] = u
	tb.cache.Put(u)
	return u
}

func makeMessage(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: fmt.Sprintf("user%d", userID)},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
}

func makeCallback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cq1",
		From: &tgbotapi.User{ID: userID, UserName: fmt.Sprintf("user%d", userID)},
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: userID},
			Text:      "menu",
		},
		Data: data,
	}
}
