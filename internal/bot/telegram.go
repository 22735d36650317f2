package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mpsb/internal/models"
)

// TelegramClient abstracts the Telegram API surface the bot uses, so tests
// can substitute a fake transport.
type TelegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

// NewTelegramClient connects to the Telegram API with the given token.
func NewTelegramClient(token string, debug bool) (TelegramClient, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}
	api.Debug = debug
	return &realTelegramClient{api: api}, nil
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(config)
}

func (c *realTelegramClient) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *realTelegramClient) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}

	url := file.Link(c.api.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Repository is the persistence surface the bot depends on. *database.DB
// implements it.
type Repository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserRole(ctx context.Context, id int64, role models.Role) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	ListStudents(ctx context.Context) ([]models.User, error)
	ListGroupMembers(ctx context.Context, groupID int64) ([]models.User, error)
	AddUserToGroup(ctx context.Context, userID, groupID int64) error
	AddScore(ctx context.Context, userID int64, delta int) error

	GetStudyGroup(ctx context.Context, id int64) (*models.StudyGroup, error)
	FindOrCreateStudyGroup(ctx context.Context, g *models.StudyGroup) (*models.StudyGroup, error)
	ListStudyGroups(ctx context.Context) ([]models.StudyGroup, error)

	GetHomework(ctx context.Context, id int64) (*models.Homework, error)
	CreateHomework(ctx context.Context, h *models.Homework) error
	DeleteHomework(ctx context.Context, id int64) error
	ListGroupHomeworks(ctx context.Context, groupID int64) ([]models.Homework, error)
	ListUserHomeworks(ctx context.Context, userID int64, isAdmin bool) ([]models.HomeworkStatus, error)
	GetUserHomework(ctx context.Context, homeworkID, userID int64) (*models.UserHomework, error)
	MarkHomeworkCompleted(ctx context.Context, homeworkID, userID int64) error
	DeleteUserHomework(ctx context.Context, homeworkID, userID int64) error
	SetGrade(ctx context.Context, homeworkID, userID int64, score int, checked bool) error
	ListCompleters(ctx context.Context, homeworkID int64) ([]models.User, error)

	GetPendingRequest(ctx context.Context, userID int64) (*models.PendingRequest, error)
	CreatePendingRequest(ctx context.Context, r *models.PendingRequest) error
	DeletePendingRequest(ctx context.Context, userID int64) error
	ListPendingRequests(ctx context.Context) ([]models.User, error)
}
