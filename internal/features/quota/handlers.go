// Package quota — handlers.go обрабатывает стафф-команду /reset_activity_limit.
package quota

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/events"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
)

// Handler обрабатывает команды квот.
type Handler struct {
	service *Service
	checker *access.Checker
	cfg     *config.Config
}

// NewHandler создаёт обработчик квот.
func NewHandler(service *Service, checker *access.Checker, cfg *config.Config) *Handler {
	return &Handler{service: service, checker: checker, cfg: cfg}
}

// HandleReset — команда /reset_activity_limit (роли из STAFF_ACCESS_ROLES).
// Сбрасывает недельную квоту активности для указанного участника.
// Без параметра activity сбрасываются все активности сразу.
func (h *Handler) HandleReset(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffAccessRoles) {
		discordutil.Error(e, "You do not have permission to reset activity limits.")
		return
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")

	activity, ok := data.OptString("activity")
	if !ok {
		removed, err := h.service.ResetUserAll(ctx, int64(target.ID))
		if err != nil {
			log.WithError(err).Error("Ошибка сброса квот")
			discordutil.Error(e, "Failed to reset activity limits.")
			return
		}
		discordutil.Text(e, fmt.Sprintf("Reset **all** activity limits for %s (%d uses cleared this week).",
			target.Mention(), removed), false)
		return
	}

	if _, known := h.cfg.QuotaLimits[activity]; !known {
		discordutil.Error(e, fmt.Sprintf("Unknown activity %q.", activity))
		return
	}

	removed, err := h.service.ResetUser(ctx, int64(target.ID), activity)
	if err != nil {
		log.WithError(err).Error("Ошибка сброса квоты")
		discordutil.Error(e, "Failed to reset the activity limit.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Reset **%s** limit for %s (%d uses cleared this week).",
		activity, target.Mention(), removed), false)
}
