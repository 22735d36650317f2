package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mpsb/internal/models"
)

// SweeperRepository is the persistence surface the deadline sweeper needs.
// *database.DB implements it.
type SweeperRepository interface {
	ListExpiredHomeworks(ctx context.Context, now time.Time) ([]models.Homework, error)
	MarkHomeworkExpired(ctx context.Context, homeworkID int64) error
	ListGroupMembers(ctx context.Context, groupID int64) ([]models.User, error)
	ListCompleters(ctx context.Context, homeworkID int64) ([]models.User, error)
	AddScore(ctx context.Context, userID int64, delta int) error
}

// Broadcaster delivers a text to a set of chats. *bot.Bot implements it.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients []int64, text string) int
}

// DeadlineSweeper periodically expires homeworks whose deadline passed,
// penalizing and notifying every group member that never submitted. Each
// homework is expired exactly once.
type DeadlineSweeper struct {
	repo      SweeperRepository
	broadcast Broadcaster
	interval  time.Duration
	penalty   int
	logger    zerolog.Logger
}

func NewDeadlineSweeper(repo SweeperRepository, broadcast Broadcaster, interval time.Duration, penalty int, logger zerolog.Logger) *DeadlineSweeper {
	return &DeadlineSweeper{
		repo:      repo,
		broadcast: broadcast,
		interval:  interval,
		penalty:   penalty,
		logger:    logger.With().Str("component", "deadline_sweeper").Logger(),
	}
}

// Run blocks until ctx is cancelled, sweeping every interval.
func (s *DeadlineSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("deadline sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("deadline sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *DeadlineSweeper) sweep(ctx context.Context) {
	expired, err := s.repo.ListExpiredHomeworks(ctx, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("list expired homeworks failed")
		return
	}

	for _, hw := range expired {
		if err := s.expireOne(ctx, hw); err != nil {
			s.logger.Error().Err(err).Int64("homework_id", hw.ID).
				Str("name", hw.Name).Msg("expire homework failed")
		}
	}
}

// expireOne marks the homework expired first so a partial failure below
// never causes a second round of penalties on the next tick.
func (s *DeadlineSweeper) expireOne(ctx context.Context, hw models.Homework) error {
	if err := s.repo.MarkHomeworkExpired(ctx, hw.ID); err != nil {
		return err
	}

	members, err := s.repo.ListGroupMembers(ctx, hw.GroupID)
	if err != nil {
		return err
	}
	completers, err := s.repo.ListCompleters(ctx, hw.ID)
	if err != nil {
		return err
	}
	done := make(map[int64]bool, len(completers))
	for _, u := range completers {
		done[u.ID] = true
	}

	var laggards []int64
	for _, m := range members {
		if done[m.ID] {
			continue
		}
		if err := s.repo.AddScore(ctx, m.ID, s.penalty); err != nil {
			s.logger.Error().Err(err).Int64("user_id", m.ID).
				Int64("homework_id", hw.ID).Msg("apply penalty failed")
			continue
		}
		laggards = append(laggards, m.ID)
	}

	text := "⏰ Дедлайн истек: " + hw.Name +
		"\nДомашнее задание больше нельзя отправить, с вашего счета снят балл"
	reached := s.broadcast.Broadcast(ctx, laggards, text)

	s.logger.Info().Int64("homework_id", hw.ID).Str("name", hw.Name).
		Int("penalized", len(laggards)).Int("notified", reached).
		Msg("homework expired")
	return nil
}
