// Package cleanup удаляет данные вышедших участников.
// Каждый модуль отдаёт собственный PurgeUser; ошибка одного модуля
// не останавливает очистку остальных.
package cleanup

import (
	"context"

	"github.com/disgoorg/disgo/events"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/features/profile"
)

// Purger удаляет данные одного модуля для пользователя.
type Purger interface {
	PurgeUser(ctx context.Context, userID int64) error
}

// Handler выполняет очистку по событию выхода участника.
type Handler struct {
	purgers  map[string]Purger
	profiles *profile.Service
}

// NewHandler создаёт обработчик очистки. Ключ карты — имя модуля для логов.
func NewHandler(purgers map[string]Purger, profiles *profile.Service) *Handler {
	return &Handler{purgers: purgers, profiles: profiles}
}

// OnMemberLeave удаляет все данные вышедшего участника.
func (h *Handler) OnMemberLeave(ctx context.Context, e *events.GuildMemberLeave) {
	if e.User.Bot {
		return
	}
	h.Purge(ctx, int64(e.User.ID))
}

// Purge вычищает данные участника из всех модулей.
func (h *Handler) Purge(ctx context.Context, userID int64) {
	for name, purger := range h.purgers {
		if err := purger.PurgeUser(ctx, userID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user":   userID,
				"module": name,
			}).Error("Ошибка очистки данных")
		}
	}

	// Профиль удаляется отдельно: вместе со строкой гасятся треды
	if h.profiles != nil {
		if err := h.profiles.Delete(ctx, userID); err != nil {
			log.WithError(err).WithField("user", userID).Debug("Профиль не найден или не удалён")
		}
	}

	log.WithField("user", userID).Info("Данные вышедшего участника удалены")
}
