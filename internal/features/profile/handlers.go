// Package profile — handlers.go обрабатывает команды профилей и двухшаговую
// регистрацию: модальная форма анкеты, затем меню выбора факультета.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
	"royalacademy.app/discord-bot/internal/features/economy"
	"royalacademy.app/discord-bot/internal/features/rpreward"
)

// Custom ID модальной формы и меню выбора факультета.
const (
	SetupModalID        = "profile:setup"
	AffiliationSelectID = "profile:affiliation"
)

// Анкета, ожидающая выбора факультета, живёт не дольше этого срока.
const pendingFormTTL = 10 * time.Minute

type pendingForm struct {
	form      Form
	channelID snowflake.ID
	expires   time.Time
}

// Handler обрабатывает команды профилей.
type Handler struct {
	service *Service
	wallet  *economy.Service
	rp      *rpreward.Service
	checker *access.Checker
	cfg     *config.Config

	mu      sync.Mutex
	pending map[int64]pendingForm // анкеты между модалкой и выбором факультета
}

// NewHandler создаёт обработчик профилей.
func NewHandler(service *Service, wallet *economy.Service, rp *rpreward.Service, checker *access.Checker, cfg *config.Config) *Handler {
	return &Handler{
		service: service,
		wallet:  wallet,
		rp:      rp,
		checker: checker,
		cfg:     cfg,
		pending: make(map[int64]pendingForm),
	}
}

// HandleSetup — команда /setup_profile. Открывает модальную форму анкеты.
func (h *Handler) HandleSetup(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if p, err := h.service.Get(ctx, int64(e.User().ID)); err == nil {
		discordutil.Error(e, fmt.Sprintf("You already have a profile! <#%d>", p.BioThreadID))
		return
	}

	modal := discord.NewModalCreateBuilder().
		SetCustomID(SetupModalID).
		SetTitle("Student profile").
		AddActionRow(discord.NewShortTextInput("name", "Character name").WithRequired(true)).
		AddActionRow(discord.NewShortTextInput("grade", "Grade / year").WithRequired(true)).
		AddActionRow(discord.NewShortTextInput("faceclaim", "Faceclaim").WithRequired(true)).
		AddActionRow(discord.NewShortTextInput("image_url", "Character image (URL)").WithRequired(true)).
		Build()
	if err := e.Modal(modal); err != nil {
		log.WithError(err).Error("Ошибка открытия модальной формы")
	}
}

// HandleSetupModal принимает анкету и предлагает выбрать факультет.
func (h *Handler) HandleSetupModal(ctx context.Context, e *events.ModalSubmitInteractionCreate) {
	data := e.Data
	form := Form{
		Name:      strings.TrimSpace(data.Text("name")),
		Grade:     strings.TrimSpace(data.Text("grade")),
		Faceclaim: strings.TrimSpace(data.Text("faceclaim")),
		ImageURL:  strings.TrimSpace(data.Text("image_url")),
	}

	userID := int64(e.User().ID)
	channelID := e.ChannelID()

	h.mu.Lock()
	h.pending[userID] = pendingForm{form: form, channelID: channelID, expires: time.Now().Add(pendingFormTTL)}
	h.mu.Unlock()

	var options []discord.StringSelectMenuOption
	for key, affiliation := range Affiliations {
		options = append(options, discord.StringSelectMenuOption{
			Label: affiliation.Name,
			Value: key,
		})
	}

	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent("Almost done! Pick your affiliation:").
		AddActionRow(discord.NewStringSelectMenu(AffiliationSelectID, "Pick an affiliation...", options...)).
		SetEphemeral(true).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на модальную форму")
	}
}

// HandleAffiliationSelect завершает регистрацию: создаёт треды и профиль.
func (h *Handler) HandleAffiliationSelect(ctx context.Context, e *events.ComponentInteractionCreate) {
	values := e.StringSelectMenuInteractionData().Values
	if len(values) == 0 {
		return
	}
	userID := int64(e.User().ID)

	h.mu.Lock()
	pending, ok := h.pending[userID]
	if ok {
		delete(h.pending, userID)
	}
	h.mu.Unlock()
	if !ok || time.Now().After(pending.expires) {
		discordutil.ComponentError(e, "Your profile form expired. Run /setup_profile again.")
		return
	}

	// Создание пяти тредов занимает секунды, отвечаем отложенно
	if err := e.DeferCreateMessage(false); err != nil {
		log.WithError(err).Error("Ошибка отложенного ответа")
		return
	}

	p, err := h.service.Setup(ctx, pending.channelID, userID, pending.form, values[0])
	if errors.Is(err, common.ErrProfileExists) {
		h.followUp(e, "You already have a profile!")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка создания профиля")
		h.followUp(e, "❌ Profile setup failed. Please try again later.")
		return
	}

	h.followUp(e, fmt.Sprintf("✅ Welcome to the academy! Your biography thread: <#%d>", p.BioThreadID))
}

// HandleProfile — команда /profile. Показывает карточку профиля.
func (h *Handler) HandleProfile(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	targetID := int64(e.User().ID)
	if target, ok := data.OptUser("user"); ok {
		targetID = int64(target.ID)
	}

	p, err := h.service.Get(ctx, targetID)
	if errors.Is(err, common.ErrProfileNotFound) {
		discordutil.Error(e, "This member has not set up a profile yet.")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка получения профиля")
		discordutil.Error(e, "Failed to load the profile.")
		return
	}

	balance, err := h.wallet.GetBalance(ctx, targetID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
	}
	stats, err := h.rp.TotalStats(ctx, targetID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики постов")
	}

	discordutil.Embed(e, h.buildCard(e, p, balance, stats.Posts), false)
}

// HandleAddIDCard — команда /add_id_card (роли из STAFF_ACCESS_ROLES).
func (h *Handler) HandleAddIDCard(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffAccessRoles) {
		discordutil.Error(e, "You do not have permission to manage ID cards.")
		return
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")
	url := strings.TrimSpace(data.String("image_url"))

	err := h.service.SetIDCard(ctx, int64(target.ID), url)
	if errors.Is(err, common.ErrProfileNotFound) {
		discordutil.Error(e, "This member has no profile yet.")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка сохранения карточки")
		discordutil.Error(e, "Failed to save the ID card.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Saved an ID card for %s.", target.Mention()), true)
}

// HandleRemoveIDCard — команда /remove_id_card (роли из STAFF_ACCESS_ROLES).
func (h *Handler) HandleRemoveIDCard(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffAccessRoles) {
		discordutil.Error(e, "You do not have permission to manage ID cards.")
		return
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")

	err := h.service.SetIDCard(ctx, int64(target.ID), "")
	if errors.Is(err, common.ErrProfileNotFound) {
		discordutil.Error(e, "This member has no profile yet.")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка удаления карточки")
		discordutil.Error(e, "Failed to remove the ID card.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Removed %s's ID card.", target.Mention()), true)
}

// HandleIDCard — команда /my_id_card. Свою карточку видит каждый,
// чужую — роли из STAFF_ACCESS_ROLES.
func (h *Handler) HandleIDCard(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	targetID := int64(e.User().ID)
	if target, ok := data.OptUser("user"); ok && int64(target.ID) != targetID {
		if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffAccessRoles) {
			discordutil.Error(e, "You can only view your own ID card.")
			return
		}
		targetID = int64(target.ID)
	}

	p, err := h.service.Get(ctx, targetID)
	if errors.Is(err, common.ErrProfileNotFound) || (err == nil && p.IDCardURL == "") {
		discordutil.Error(e, "No ID card on file.")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка получения профиля")
		discordutil.Error(e, "Failed to load the ID card.")
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("🆔 Student ID Card").
		SetImage(p.IDCardURL).
		SetFooterText(fmt.Sprintf("Card Holder: %s", p.Name)).
		SetColor(0xF1C40F).
		Build()
	discordutil.Embed(e, embed, false)
}

// HandleDelete — команда /delete_profile (роли из STAFF_ACCESS_ROLES).
// Удаляет профиль вместе с тредами.
func (h *Handler) HandleDelete(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffAccessRoles) {
		discordutil.Error(e, "You do not have permission to delete profiles.")
		return
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")

	err := h.service.Delete(ctx, int64(target.ID))
	if errors.Is(err, common.ErrProfileNotFound) {
		discordutil.Error(e, "This member has no profile.")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка удаления профиля")
		discordutil.Error(e, "Failed to delete the profile.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Deleted %s's profile and threads.", target.Mention()), false)
}

// buildCard собирает embed карточки студента.
func (h *Handler) buildCard(e *events.ApplicationCommandInteractionCreate, p Profile, balance, rpPosts int64) discord.Embed {
	affiliation, ok := AffiliationByName(p.Affiliation)
	if !ok {
		affiliation = Affiliation{Name: p.Affiliation, Color: 0x95A5A6}
	}

	builder := discord.NewEmbedBuilder().
		SetTitle("The Royal Academy").
		SetDescription(fmt.Sprintf("**%s**", p.Name)).
		SetColor(affiliation.Color).
		AddField("Grade", p.Grade, true).
		AddField("Affiliation", affiliation.Name, true).
		AddField("Faceclaim", p.Faceclaim, true).
		AddField("💰 Balance", fmt.Sprintf("`%s %s`", common.FormatNumber(balance), h.cfg.CurrencySymbol), true).
		AddField("🎭 Roleplay posts", fmt.Sprintf("**%s**", common.FormatNumber(rpPosts)), true)

	if affiliation.LogoURL != "" {
		builder.SetThumbnail(affiliation.LogoURL)
	}
	if p.ImageURL != "" {
		builder.SetImage(p.ImageURL)
	}

	var guildID int64
	if id := e.GuildID(); id != nil {
		guildID = int64(*id)
	}
	var links []string
	for i, name := range []string{"Biography", "Wallet", "Inventory", "Trading", "Desk"} {
		threadID := p.ThreadIDs()[i]
		if threadID != 0 {
			links = append(links, fmt.Sprintf("• **⚜ %s** (https://discord.com/channels/%d/%d)", name, guildID, threadID))
		}
	}
	if len(links) > 0 {
		builder.AddField("🔗 Private threads", strings.Join(links, "\n"), false)
	}

	builder.SetFooterText(fmt.Sprintf("Enrolled: %s", common.FormatDateTime(p.CreatedAt)))
	return builder.Build()
}

// followUp редактирует отложенный ответ.
func (h *Handler) followUp(e *events.ComponentInteractionCreate, content string) {
	_, err := e.Client().Rest().UpdateInteractionResponse(
		e.ApplicationID(), e.Token(),
		discord.NewMessageUpdateBuilder().SetContent(content).Build())
	if err != nil {
		log.WithError(err).Error("Ошибка обновления ответа")
	}
}
