// Package roles — handlers.go обрабатывает подачу анкет, кнопки
// одобрения/отказа и вход новых участников.
package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
	"royalacademy.app/discord-bot/internal/features/profile"
)

// ApplyModalID — custom_id модальной формы анкеты.
const ApplyModalID = "roles:apply"

// Минимальная длина анкеты в символах.
const minApplicationLen = 50

// affiliationOrder задаёт порядок кнопок в сообщении для стаффа.
var affiliationOrder = []string{
	"ourea", "gaia", "salacia", "noblia", "ordinaria", "professor", "royal staff",
}

// Повторное событие входа того же участника в пределах этого окна игнорируется.
const joinDebounce = time.Second

// Handler обрабатывает приём в академию.
type Handler struct {
	repo    *Repository
	rest    rest.Rest
	checker *access.Checker
	cfg     *config.Config

	mu         sync.Mutex
	lastJoinID snowflake.ID
	lastJoinAt time.Time
}

// NewHandler создаёт обработчик анкет.
func NewHandler(repo *Repository, restClient rest.Rest, checker *access.Checker, cfg *config.Config) *Handler {
	return &Handler{repo: repo, rest: restClient, checker: checker, cfg: cfg}
}

// HandleApply — команда /apply. Открывает модальную форму анкеты.
func (h *Handler) HandleApply(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	modal := discord.NewModalCreateBuilder().
		SetCustomID(ApplyModalID).
		SetTitle("Academy application").
		AddActionRow(discord.NewParagraphTextInput("application", "Character background and details").
			WithRequired(true).
			WithPlaceholder("Tell us about your character (50+ characters)").
			WithMinLength(minApplicationLen).
			WithMaxLength(1500)).
		Build()
	if err := e.Modal(modal); err != nil {
		log.WithError(err).Error("Ошибка открытия формы анкеты")
	}
}

// HandleApplyModal сохраняет анкету и отправляет её стаффу на рассмотрение.
func (h *Handler) HandleApplyModal(ctx context.Context, e *events.ModalSubmitInteractionCreate) {
	userID := int64(e.User().ID)
	text := strings.TrimSpace(e.Data.Text("application"))
	if len([]rune(text)) < minApplicationLen {
		discordutil.ModalError(e, fmt.Sprintf("Your application must be at least %d characters long.", minApplicationLen))
		return
	}

	err := h.repo.Create(ctx, userID, text)
	if errors.Is(err, common.ErrApplicationExists) {
		discordutil.ModalError(e, "You have already submitted an application.")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка сохранения анкеты")
		discordutil.ModalError(e, "Failed to submit the application. Please try again later.")
		return
	}

	h.sendStaffAlert(e.User(), text)
	discordutil.ModalText(e, "✅ **Application submitted!** Staff will review it shortly.", true)

	log.WithField("user", userID).Info("Анкета отправлена")
}

// sendStaffAlert публикует анкету с кнопками решения в канал стаффа.
func (h *Handler) sendStaffAlert(applicant discord.User, text string) {
	if h.cfg.StaffAlertChannelID == 0 {
		return
	}

	// Лимит Discord на поле embed — 1024 символа
	text = common.TruncateRunes(text, 1024)
	embed := discord.NewEmbedBuilder().
		SetTitle("🚨 New application!").
		SetColor(0xED4245).
		AddField("Applicant", applicant.Mention(), false).
		AddField("Background", text, false).
		Build()

	builder := discord.NewMessageCreateBuilder().
		SetContent(fmt.Sprintf("📝 Application from %s", applicant.Mention())).
		SetEmbeds(embed)

	// Discord ограничивает ряд пятью кнопками
	var row []discord.InteractiveComponent
	for _, key := range affiliationOrder {
		affiliation, ok := profile.Affiliations[key]
		if !ok {
			continue
		}
		action := Action{Kind: KindApprove, RoleKey: key, UserID: int64(applicant.ID)}
		row = append(row, discord.NewSecondaryButton(affiliation.Name, action.CustomID()))
		if len(row) == 5 {
			builder.AddActionRow(row...)
			row = nil
		}
	}
	reject := Action{Kind: KindReject, UserID: int64(applicant.ID)}
	row = append(row, discord.NewDangerButton("❌ Reject", reject.CustomID()))
	builder.AddActionRow(row...)

	if _, err := h.rest.CreateMessage(h.cfg.StaffAlertChannelID, builder.Build()); err != nil {
		log.WithError(err).Error("Ошибка отправки анкеты стаффу")
	}
}

// HandleAction обрабатывает кнопки одобрения и отказа.
func (h *Handler) HandleAction(ctx context.Context, e *events.ComponentInteractionCreate) {
	action, ok := ParseAction(e.Data.CustomID())
	if !ok {
		return
	}

	if !h.checker.HasAnyRole(ctx, e.Member().RoleIDs, h.cfg.StaffAccessRoles) {
		discordutil.ComponentError(e, "Only staff can review applications.")
		return
	}

	switch action.Kind {
	case KindApprove:
		h.approve(ctx, e, action)
	case KindReject:
		h.reject(ctx, e, action)
	}
}

func (h *Handler) approve(ctx context.Context, e *events.ComponentInteractionCreate, action Action) {
	affiliation, ok := profile.Affiliations[action.RoleKey]
	if !ok {
		discordutil.ComponentError(e, "Unknown affiliation.")
		return
	}

	targetID := snowflake.ID(action.UserID)

	roleID, ok := h.checker.RoleIDByName(ctx, affiliation.Name)
	if !ok {
		discordutil.ComponentError(e, fmt.Sprintf("Role %q not found on this server.", affiliation.Name))
		return
	}
	if err := h.rest.AddMemberRole(h.cfg.GuildID, targetID, roleID); err != nil {
		log.WithError(err).WithField("user", action.UserID).Error("Ошибка выдачи роли")
		discordutil.ComponentError(e, "Failed to assign the role.")
		return
	}

	// Стартовая роль снимается после зачисления
	if starterID, ok := h.checker.RoleIDByName(ctx, h.cfg.StartRoleName); ok {
		if err := h.rest.RemoveMemberRole(h.cfg.GuildID, targetID, starterID); err != nil {
			log.WithError(err).WithField("user", action.UserID).Warn("Не удалось снять стартовую роль")
		}
	}

	if err := h.repo.Delete(ctx, action.UserID); err != nil {
		log.WithError(err).Error("Ошибка удаления анкеты")
	}

	h.resolveAlert(e, fmt.Sprintf("✅ Assigned **%s** to <@%d>", affiliation.Name, action.UserID))

	log.WithFields(log.Fields{
		"user":        action.UserID,
		"affiliation": affiliation.Name,
	}).Info("Анкета одобрена")
}

func (h *Handler) reject(ctx context.Context, e *events.ComponentInteractionCreate, action Action) {
	if err := h.repo.Delete(ctx, action.UserID); err != nil {
		log.WithError(err).Error("Ошибка удаления анкеты")
	}

	h.resolveAlert(e, "🛑 Application rejected")
	h.notifyRejected(snowflake.ID(action.UserID))

	log.WithField("user", action.UserID).Info("Анкета отклонена")
}

// resolveAlert заменяет сообщение с анкетой итогом и убирает кнопки.
func (h *Handler) resolveAlert(e *events.ComponentInteractionCreate, content string) {
	err := e.UpdateMessage(discord.NewMessageUpdateBuilder().
		SetContent(content).
		SetEmbeds().
		ClearContainerComponents().
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка обновления сообщения с анкетой")
	}
}

// notifyRejected отправляет отказ в личные сообщения. Закрытые ЛС не ошибка.
func (h *Handler) notifyRejected(userID snowflake.ID) {
	dm, err := h.rest.CreateDMChannel(userID)
	if err != nil {
		log.WithError(err).WithField("user", userID).Debug("ЛС недоступны")
		return
	}
	_, err = h.rest.CreateMessage(dm.ID(), discord.NewMessageCreateBuilder().
		SetContent("❌ Your application was not approved. Feel free to submit a new one with `/apply`.").
		Build())
	if err != nil {
		log.WithError(err).WithField("user", userID).Debug("ЛС недоступны")
	}
}

// OnMemberJoin выдаёт стартовую роль и приветствует нового участника.
// Платформа иногда шлёт событие дважды, повтор гасится по времени.
func (h *Handler) OnMemberJoin(ctx context.Context, e *events.GuildMemberJoin) {
	if e.Member.User.Bot {
		return
	}

	h.mu.Lock()
	now := time.Now()
	if e.Member.User.ID == h.lastJoinID && now.Sub(h.lastJoinAt) < joinDebounce {
		h.mu.Unlock()
		return
	}
	h.lastJoinID = e.Member.User.ID
	h.lastJoinAt = now
	h.mu.Unlock()

	if starterID, ok := h.checker.RoleIDByName(ctx, h.cfg.StartRoleName); ok {
		if err := h.rest.AddMemberRole(e.GuildID, e.Member.User.ID, starterID); err != nil {
			log.WithError(err).WithField("user", e.Member.User.ID).Warn("Не удалось выдать стартовую роль")
		}
	}

	if h.cfg.WelcomeChannelID != 0 {
		_, err := h.rest.CreateMessage(h.cfg.WelcomeChannelID, discord.NewMessageCreateBuilder().
			SetContentf("**Welcome** %s to the academy! ✨\nSubmit your application with `/apply` to join an affiliation.", e.Member.User.Mention()).
			Build())
		if err != nil {
			log.WithError(err).Error("Ошибка отправки приветствия")
		}
	}

	log.WithField("user", e.Member.User.ID).Info("Новый участник")
}
