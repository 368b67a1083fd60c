// Package activities — handlers.go строит интерфейс мини-игр:
// embed'ы, меню ингредиентов, кнопки лобби и раундов.
package activities

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
)

// Custom ID компонентов мини-игр.
const (
	PotionSelectID = "activities:potion:select"
	PotionBrewID   = "activities:potion:brew"
	TeaJoinID      = "activities:tea:join"
	TeaStartID     = "activities:tea:start"
	TeaCancelID    = "activities:tea:cancel"
	TeaSubmitID    = "activities:tea:submit"
	// TeaTopicsPrefix дополняется id сообщения лобби
	TeaTopicsPrefix = "activities:tea:topics:"
)

// Паузы «для драматизма» перед оглашением результата.
const (
	wishPause = 2 * time.Second
	brewPause = 3 * time.Second
)

// Handler обрабатывает команды и компоненты мини-игр.
type Handler struct {
	service *Service
	rest    rest.Rest
	cfg     *config.Config
}

// NewHandler создаёт обработчик мини-игр.
func NewHandler(service *Service, restClient rest.Rest, cfg *config.Config) *Handler {
	return &Handler{service: service, rest: restClient, cfg: cfg}
}

// --- Колодец желаний ---

// HandleWish — команда /wish.
func (h *Handler) HandleWish(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if err := e.DeferCreateMessage(false); err != nil {
		log.WithError(err).Error("Ошибка отложенного ответа")
		return
	}

	userID := int64(e.User().ID)
	res, err := h.service.Wish(ctx, userID)
	switch {
	case errors.Is(err, common.ErrQuotaExceeded):
		h.editResponse(e.ApplicationID(), e.Token(), fmt.Sprintf("❌ You used all %d wishes for this week.", h.service.quota.Limit(ActivityWish)), nil)
		return
	case errors.Is(err, common.ErrInsufficientFunds), errors.Is(err, common.ErrUserNotFound):
		h.editResponse(e.ApplicationID(), e.Token(), fmt.Sprintf("❌ Not enough funds (need %d %s).", h.cfg.WishCost, h.cfg.CurrencySymbol), nil)
		return
	case err != nil:
		log.WithError(err).Error("Ошибка броска в колодец")
		h.editResponse(e.ApplicationID(), e.Token(), "❌ The well is silent. Try again later.", nil)
		return
	}

	h.editResponse(e.ApplicationID(), e.Token(),
		fmt.Sprintf("🪙 **%s** tosses %d %s into the well...\n*Plop!*", e.User().EffectiveName(), res.Cost, h.cfg.CurrencySymbol), nil)
	time.Sleep(wishPause)

	embed := h.wishEmbed(res)
	h.editResponse(e.ApplicationID(), e.Token(), "", &embed)
}

func (h *Handler) wishEmbed(res WishResult) discord.Embed {
	builder := discord.NewEmbedBuilder().SetTitle("⛲ The well answers")

	switch res.Multiplier {
	case 0:
		builder.SetDescription("The coin sinks into darkness... nothing happens.\n💸 **Money gone**").
			SetColor(0x546E7A)
	case 1:
		builder.SetDescription("A calm settles over you... the goddess returns your coin.").
			SetColor(0x95A5A6)
	case 2:
		builder.SetDescription("The water shimmers! A small wish comes true.").
			SetColor(0x2ECC71)
	case 3:
		builder.SetDescription("The fountain erupts skyward! Your wish is powerful.").
			SetColor(0xF1C40F)
	default:
		builder.SetDescription("🌈 **A miracle!** The goddess of the well appears!").
			SetColor(0x9B59B6).
			SetImage("https://iili.io/f3RX0e1.png")
	}

	if res.Prize > 0 {
		builder.SetDescription(builder.Description + fmt.Sprintf("\n✨ **Returned:** `%d %s` (x%d)", res.Prize, h.cfg.CurrencySymbol, res.Multiplier))
	}
	builder.SetFooterText(fmt.Sprintf("Wishes left: %d/%d | Balance: %s %s",
		res.Remaining, h.service.quota.Limit(ActivityWish), common.FormatNumber(res.NewBalance), h.cfg.CurrencySymbol))
	return builder.Build()
}

// --- Варка зелий ---

// HandleBrew — команда /brew_potion. Открывает лабораторию.
func (h *Handler) HandleBrew(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	userID := int64(e.User().ID)

	if err := h.service.CheckBrewQuota(ctx, userID); err != nil {
		if errors.Is(err, common.ErrQuotaExceeded) {
			discordutil.Error(e, fmt.Sprintf("You used all %d brews for this week.", h.service.quota.Limit(ActivityBrew)))
			return
		}
		log.WithError(err).Error("Ошибка проверки квоты варки")
		discordutil.Error(e, "The lab is closed. Try again later.")
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("⚗️ Potion Lab").
		SetDescription("Pick **at least 3 ingredients** to start the experiment.\n\n💰 **Brewing rules:**\n• Ingredients are paid for when brewing starts\n• Pricier ingredients mean better odds!").
		SetColor(0x6A1B9A).
		AddField("📜 Price list", h.priceList(), false).
		Build()

	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		AddActionRow(h.ingredientSelect(nil)).
		AddActionRow(h.brewButton(true)).
		SetEphemeral(true).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка открытия лаборатории")
		return
	}

	msg, err := h.rest.GetInteractionResponse(e.ApplicationID(), e.Token())
	if err != nil {
		log.WithError(err).Error("Ошибка получения сообщения лаборатории")
		return
	}
	h.service.OpenBrew(msg.ID, userID)
}

func (h *Handler) priceList() string {
	lines := make([]string, 0, len(PotionIngredients))
	for _, ing := range PotionIngredients {
		lines = append(lines, fmt.Sprintf("%s %s: **%d %s**", ing.Emoji, ing.Label, ing.Price, h.cfg.CurrencySymbol))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) ingredientSelect(selected []string) discord.StringSelectMenuComponent {
	chosen := make(map[string]bool, len(selected))
	for _, key := range selected {
		chosen[key] = true
	}

	options := make([]discord.StringSelectMenuOption, 0, len(PotionIngredients))
	for _, ing := range PotionIngredients {
		options = append(options, discord.StringSelectMenuOption{
			Label:       ing.Label,
			Value:       ing.Key,
			Emoji:       &discord.ComponentEmoji{Name: ing.Emoji},
			Description: fmt.Sprintf("Price: %d %s", ing.Price, h.cfg.CurrencySymbol),
			Default:     chosen[ing.Key],
		})
	}

	return discord.NewStringSelectMenu(PotionSelectID, "Pick ingredients...", options...).
		WithMinValues(1).
		WithMaxValues(len(PotionIngredients))
}

func (h *Handler) brewButton(disabled bool) discord.ButtonComponent {
	return discord.NewDangerButton("🔥 Start brewing", PotionBrewID).WithDisabled(disabled)
}

// HandlePotionSelect обновляет выбор ингредиентов.
func (h *Handler) HandlePotionSelect(ctx context.Context, e *events.ComponentInteractionCreate) {
	userID := int64(e.User().ID)
	values := e.StringSelectMenuInteractionData().Values

	total, err := h.service.SelectIngredients(e.Message.ID, userID, values)
	switch {
	case errors.Is(err, common.ErrNotYourSession):
		discordutil.ComponentError(e, "This cauldron is not yours.")
		return
	case errors.Is(err, common.ErrSessionNotFound):
		discordutil.ComponentError(e, "The brewing session expired. Run /brew_potion again.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка выбора ингредиентов")
		return
	}

	var names []string
	for _, key := range values {
		if ing, ok := IngredientByKey(key); ok {
			names = append(names, fmt.Sprintf("%s %s", ing.Emoji, ing.Label))
		}
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("⚗️ Potion Lab").
		SetColor(0x6A1B9A).
		AddField("📜 Price list", h.priceList(), false).
		AddField("Selected", strings.Join(names, "\n"), false).
		AddField("Total", fmt.Sprintf("**%s %s**", common.FormatNumber(total), h.cfg.CurrencySymbol), false).
		Build()

	err = e.UpdateMessage(discord.NewMessageUpdateBuilder().
		SetEmbeds(embed).
		AddActionRow(h.ingredientSelect(values)).
		AddActionRow(h.brewButton(len(values) < MinPotionIngredients)).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка обновления лаборатории")
	}
}

// HandlePotionBrew списывает стоимость и разыгрывает качество зелья.
func (h *Handler) HandlePotionBrew(ctx context.Context, e *events.ComponentInteractionCreate) {
	userID := int64(e.User().ID)
	messageID := e.Message.ID

	cost, _, err := h.service.BeginBrew(ctx, messageID, userID)
	switch {
	case errors.Is(err, common.ErrNotYourSession):
		discordutil.ComponentError(e, "This cauldron is not yours.")
		return
	case errors.Is(err, common.ErrSessionNotFound):
		discordutil.ComponentError(e, "The brewing session expired. Run /brew_potion again.")
		return
	case errors.Is(err, common.ErrInsufficientFunds), errors.Is(err, common.ErrUserNotFound):
		discordutil.ComponentError(e, "Not enough funds for these ingredients.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка старта варки")
		discordutil.ComponentError(e, "The cauldron refuses to light. Try again later.")
		return
	}

	// Выбор заблокирован, кнопки гаснут
	err = e.UpdateMessage(discord.NewMessageUpdateBuilder().
		SetContentf("🔥 Brewing for %d %s...", cost, h.cfg.CurrencySymbol).
		ClearContainerComponents().
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка обновления лаборатории")
	}

	time.Sleep(brewPause)

	res, err := h.service.ResolveBrew(ctx, messageID, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка розыгрыша зелья")
		return
	}

	embed := h.brewEmbed(res)
	_, err = h.rest.UpdateInteractionResponse(e.ApplicationID(), e.Token(),
		discord.NewMessageUpdateBuilder().SetContent("").SetEmbeds(embed).Build())
	if err != nil {
		log.WithError(err).Error("Ошибка публикации результата варки")
	}
}

func (h *Handler) brewEmbed(res BrewResult) discord.Embed {
	builder := discord.NewEmbedBuilder()

	switch res.Tier {
	case TierFail:
		builder.SetTitle("💥 The cauldron explodes!").
			SetDescription("Failure! Nothing to sell.").
			SetColor(0x8B0000)
	case TierLow:
		builder.SetTitle("🧪 Low quality").SetColor(0x95A5A6)
	case TierMedium:
		builder.SetTitle("⚗️ Medium quality").SetColor(0x3498DB)
	case TierGood:
		builder.SetTitle("✨ Good quality").SetColor(0xF1C40F)
	case TierExcellent:
		builder.SetTitle("👑 Excellent quality").SetColor(0x9B59B6)
	}

	builder.AddField("Invested", fmt.Sprintf("%d %s", res.Cost, h.cfg.CurrencySymbol), true)
	if res.Reward > 0 {
		builder.SetDescription(fmt.Sprintf("Cost returned + profit of %d %s", res.Reward-res.Cost, h.cfg.CurrencySymbol))
		builder.AddField("Sold for", fmt.Sprintf("+%d %s", res.Reward, h.cfg.CurrencySymbol), true)
	} else {
		builder.AddField("Result", "Everything lost", true)
	}
	builder.SetFooterText(fmt.Sprintf("Brews left: %d/%d", res.Remaining, h.service.quota.Limit(ActivityBrew)))
	return builder.Build()
}

// --- Чайные вечеринки ---

// HandleTeaParty — команда /host_teaparty. Открывает лобби.
func (h *Handler) HandleTeaParty(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	hostID := int64(e.User().ID)

	theme := "Afternoon tea"
	if v, ok := data.OptString("theme"); ok && strings.TrimSpace(v) != "" {
		theme = strings.TrimSpace(v)
	}
	maxParticipants := 6
	if v, ok := data.OptInt("max_participants"); ok {
		maxParticipants = v
	}
	if maxParticipants < 2 || maxParticipants > 10 {
		discordutil.Error(e, "Participant count must be between 2 and 10.")
		return
	}

	if err := h.service.HostParty(ctx, hostID); err != nil {
		if errors.Is(err, common.ErrQuotaExceeded) {
			discordutil.Error(e, "You used all your tea party slots for this week.")
			return
		}
		log.WithError(err).Error("Ошибка открытия лобби")
		discordutil.Error(e, "Failed to open the lobby. Try again later.")
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("☕ Tea Party: %s", theme)).
		SetDescriptionf("**%s** is opening a tea table!\nSeats: **%d**\n\n*When everyone has arrived, the host presses Start to begin the roleplay.*", e.User().EffectiveName(), maxParticipants).
		SetColor(0xFFB6C1).
		AddField("Guests", fmt.Sprintf("1. %s (Host)", e.User().Mention()), false).
		Build()

	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		AddActionRow(
			discord.NewSuccessButton("Join", TeaJoinID),
			discord.NewPrimaryButton("Start", TeaStartID),
			discord.NewDangerButton("Cancel", TeaCancelID),
		).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка отправки лобби")
		return
	}

	msg, err := h.rest.GetInteractionResponse(e.ApplicationID(), e.Token())
	if err != nil {
		log.WithError(err).Error("Ошибка получения сообщения лобби")
		return
	}
	h.service.RegisterLobby(msg.ID, &TeaSession{
		HostID:          hostID,
		Theme:           theme,
		MaxParticipants: maxParticipants,
		ChannelID:       msg.ChannelID,
		Participants:    []int64{hostID},
	})
}

// HandleTeaJoin добавляет гостя в лобби.
func (h *Handler) HandleTeaJoin(ctx context.Context, e *events.ComponentInteractionCreate) {
	userID := int64(e.User().ID)

	participants, err := h.service.JoinParty(e.Message.ID, userID)
	switch {
	case errors.Is(err, common.ErrAlreadyJoined):
		discordutil.ComponentError(e, "You are already at the table.")
		return
	case errors.Is(err, common.ErrLobbyFull):
		discordutil.ComponentError(e, "All seats are taken.")
		return
	case errors.Is(err, common.ErrSessionNotFound):
		discordutil.ComponentError(e, "This lobby is no longer open.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка вступления в лобби")
		return
	}

	if len(e.Message.Embeds) == 0 {
		return
	}
	embed := e.Message.Embeds[0]
	lines := make([]string, 0, len(participants))
	for i, id := range participants {
		suffix := ""
		if i == 0 {
			suffix = " (Host)"
		}
		lines = append(lines, fmt.Sprintf("%d. <@%d>%s", i+1, id, suffix))
	}
	embed.Fields = []discord.EmbedField{{Name: "Guests", Value: strings.Join(lines, "\n")}}

	if err := e.UpdateMessage(discord.NewMessageUpdateBuilder().SetEmbeds(embed).Build()); err != nil {
		log.WithError(err).Error("Ошибка обновления лобби")
	}
}

// HandleTeaCancel закрывает лобби и возвращает квоту хозяину.
func (h *Handler) HandleTeaCancel(ctx context.Context, e *events.ComponentInteractionCreate) {
	userID := int64(e.User().ID)

	err := h.service.CancelParty(ctx, e.Message.ID, userID)
	switch {
	case errors.Is(err, common.ErrNotYourSession):
		discordutil.ComponentError(e, "Only the host can cancel the party.")
		return
	case errors.Is(err, common.ErrSessionNotFound):
		discordutil.ComponentError(e, "This lobby is no longer open.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка отмены лобби")
		return
	}

	err = e.UpdateMessage(discord.NewMessageUpdateBuilder().
		SetContent("🛑 The tea party was cancelled.").
		SetEmbeds().
		ClearContainerComponents().
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка обновления лобби")
	}
}

// HandleTeaStart открывает модальную форму тем роллплея.
func (h *Handler) HandleTeaStart(ctx context.Context, e *events.ComponentInteractionCreate) {
	modal := discord.NewModalCreateBuilder().
		SetCustomID(TeaTopicsPrefix + e.Message.ID.String()).
		SetTitle("Roleplay topics").
		AddActionRow(discord.NewShortTextInput("topic1", "Topic 1").WithRequired(true).WithValue("Introductions over tea")).
		AddActionRow(discord.NewShortTextInput("topic2", "Topic 2").WithRequired(true).WithValue("Tasting the desserts")).
		AddActionRow(discord.NewShortTextInput("topic3", "Topic 3").WithRequired(true).WithValue("Stories from the academy")).
		Build()
	if err := e.Modal(modal); err != nil {
		log.WithError(err).Error("Ошибка открытия формы тем")
	}
}

// HandleTeaTopics начинает вечеринку после ввода тем.
func (h *Handler) HandleTeaTopics(ctx context.Context, e *events.ModalSubmitInteractionCreate) {
	rawID := strings.TrimPrefix(e.Data.CustomID, TeaTopicsPrefix)
	lobbyID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return
	}
	messageID := snowflake.ID(lobbyID)
	userID := int64(e.User().ID)

	topics := [teaRounds]string{
		e.Data.Text("topic1"),
		e.Data.Text("topic2"),
		e.Data.Text("topic3"),
	}

	sess, err := h.service.StartParty(messageID, userID, topics)
	switch {
	case errors.Is(err, common.ErrNotYourSession):
		discordutil.ModalError(e, "Only the host can start the party.")
		return
	case errors.Is(err, common.ErrSessionNotFound):
		discordutil.ModalError(e, "This lobby is no longer open.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка старта вечеринки")
		return
	}

	discordutil.ModalText(e, "✅ **The party begins!**", true)

	// Лобби закрывается, кнопки убираются
	_, err = h.rest.UpdateMessage(sess.ChannelID, messageID, discord.NewMessageUpdateBuilder().
		SetContent("✅ **The party has started!**").
		ClearContainerComponents().
		Build())
	if err != nil {
		log.WithError(err).Warn("Не удалось закрыть лобби")
	}

	h.postRound(messageID, sess)
}

// postRound публикует сообщение очередного раунда и перевешивает сессию.
func (h *Handler) postRound(currentID snowflake.ID, sess *TeaSession) {
	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("☕ Round %d/%d", sess.Round, teaRounds)).
		SetDescriptionf("**Topic:** %s\n\nWrite your roleplay message in this channel, then press Submit.", sess.Topics[sess.Round-1]).
		SetColor(0xF1C40F).
		Build()

	msg, err := h.rest.CreateMessage(sess.ChannelID, discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		AddActionRow(discord.NewSuccessButton("Submit RP", TeaSubmitID)).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка публикации раунда")
		return
	}
	h.service.Sessions().RekeyTea(currentID, msg.ID)
}

// HandleTeaSubmit проверяет RP-сообщение участника и закрывает раунд,
// когда отметились все.
func (h *Handler) HandleTeaSubmit(ctx context.Context, e *events.ComponentInteractionCreate) {
	userID := int64(e.User().ID)
	messageID := e.Message.ID

	sess, err := h.service.Sessions().BeginSubmit(messageID, userID)
	switch {
	case errors.Is(err, common.ErrNotYourSession):
		discordutil.ComponentError(e, "You are not at this table.")
		return
	case errors.Is(err, common.ErrAlreadyJoined):
		// Первый клик ещё обрабатывается
		discordutil.ComponentError(e, "Hold on, your previous submit is still being checked.")
		return
	case errors.Is(err, common.ErrSessionNotFound):
		discordutil.ComponentError(e, "This round is already over.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка обработки клика")
		return
	}

	verified := h.verifyRoleplay(sess, e.User().ID)
	state := h.service.Sessions().CompleteSubmit(messageID, userID, verified)
	if !verified {
		discordutil.ComponentError(e, "No roleplay message found for this round. Post one first!")
		return
	}

	h.updateRoundStatus(e, state)

	if !state.AllDone {
		return
	}

	next, ok := h.service.Sessions().AdvanceRound(messageID)
	if !ok {
		return
	}
	if next.Phase == TeaPhaseFinished {
		h.finishParty(ctx, next)
		return
	}
	h.postRound(messageID, next)
}

// verifyRoleplay ищет свежее сообщение участника в канале вечеринки.
func (h *Handler) verifyRoleplay(sess *TeaSession, userID snowflake.ID) bool {
	messages, err := h.rest.GetMessages(sess.ChannelID, 0, 0, 0, 20)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения истории канала")
		return false
	}
	for _, msg := range messages {
		if msg.Author.ID == userID && msg.ID.Time().After(sess.RoundStart) {
			return true
		}
	}
	return false
}

func (h *Handler) updateRoundStatus(e *events.ComponentInteractionCreate, state SubmitState) {
	if state.Session == nil || len(e.Message.Embeds) == 0 {
		return
	}

	done := make(map[int64]bool, len(state.Done))
	for _, id := range state.Done {
		done[id] = true
	}
	lines := make([]string, 0, len(state.Session.Participants))
	for _, id := range state.Session.Participants {
		mark := "⏳"
		if done[id] {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("<@%d>: %s", id, mark))
	}

	embed := e.Message.Embeds[0]
	embed.Fields = []discord.EmbedField{{Name: "Status", Value: strings.Join(lines, "\n")}}

	if err := e.UpdateMessage(discord.NewMessageUpdateBuilder().SetEmbeds(embed).Build()); err != nil {
		log.WithError(err).Error("Ошибка обновления статуса раунда")
	}
}

func (h *Handler) finishParty(ctx context.Context, sess *TeaSession) {
	embed := discord.NewEmbedBuilder().
		SetTitle("🎉 The party is over!").
		SetDescription("Thank you all for coming.").
		SetColor(0x9B59B6).
		Build()
	if _, err := h.rest.CreateMessage(sess.ChannelID, discord.NewMessageCreateBuilder().SetEmbeds(embed).Build()); err != nil {
		log.WithError(err).Error("Ошибка прощального сообщения")
	}

	h.service.FinishParty(ctx, sess)
}

// editResponse редактирует отложенный ответ на команду.
func (h *Handler) editResponse(appID snowflake.ID, token, content string, embed *discord.Embed) {
	builder := discord.NewMessageUpdateBuilder().SetContent(content)
	if embed != nil {
		builder.SetEmbeds(*embed)
	}
	if _, err := h.rest.UpdateInteractionResponse(appID, token, builder.Build()); err != nil {
		log.WithError(err).Error("Ошибка обновления ответа")
	}
}
