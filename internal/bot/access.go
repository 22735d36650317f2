package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mpsb/internal/models"
)

// access is attached to every inbound event before any handler sees it.
type access struct {
	User     *models.User // nil when the identity does not exist
	Role     models.Role
	Keyboard tgbotapi.ReplyKeyboardMarkup
}

// resolveAccess derives the acting identity, its role and keyboard.
// Cache-first with repository fallback and cache fill on miss; unresolved
// identities act as guests.
func (b *Bot) resolveAccess(ctx context.Context, userID int64) access {
	user, ok := b.cache.Get(userID)
	if !ok {
		var err error
		user, err = b.repo.GetUser(ctx, userID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).
				Msg("access resolve failed, treating as guest")
			user = nil
		}
		if user != nil {
			b.cache.Put(user)
		}
	}

	role := models.RoleGuest
	if user != nil {
		role = user.Role
	}
	return access{User: user, Role: role, Keyboard: keyboardForRole(user)}
}
