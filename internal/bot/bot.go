// Package bot связывает Discord gateway с обработчиками фич.
// Каждое взаимодействие проходит конвейер: recover от паники →
// фильтр гильдии → логирование → rate limit → маршрутизация.
package bot

import (
	"context"
	"fmt"
	"strings"

	disbot "github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/bot/filters"
	"royalacademy.app/discord-bot/internal/bot/middleware"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
	"royalacademy.app/discord-bot/internal/features/activities"
	"royalacademy.app/discord-bot/internal/features/cleanup"
	"royalacademy.app/discord-bot/internal/features/economy"
	"royalacademy.app/discord-bot/internal/features/inventory"
	"royalacademy.app/discord-bot/internal/features/profile"
	"royalacademy.app/discord-bot/internal/features/quota"
	"royalacademy.app/discord-bot/internal/features/roles"
	"royalacademy.app/discord-bot/internal/features/rpreward"
	"royalacademy.app/discord-bot/internal/features/shop"
)

// Handlers — обработчики всех фич, которые маршрутизирует бот.
type Handlers struct {
	Economy    *economy.Handler
	Quota      *quota.Handler
	RPReward   *rpreward.Handler
	Shop       *shop.Handler
	Inventory  *inventory.Handler
	Profile    *profile.Handler
	Roles      *roles.Handler
	Activities *activities.Handler
	Cleanup    *cleanup.Handler
}

// Bot маршрутизирует события Discord к обработчикам фич.
type Bot struct {
	cfg    *config.Config
	client disbot.Client

	guildFilter *filters.GuildFilter
	rateLimiter *middleware.RateLimiter

	handlers Handlers
}

// New создаёт бота и подписывает его на события клиента.
func New(cfg *config.Config, client disbot.Client, handlers Handlers) *Bot {
	b := &Bot{
		cfg:         cfg,
		client:      client,
		guildFilter: filters.NewGuildFilter(cfg.GuildID),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		handlers:    handlers,
	}

	client.AddEventListeners(
		disbot.NewListenerFunc(b.onReady),
		disbot.NewListenerFunc(b.onCommand),
		disbot.NewListenerFunc(b.onComponent),
		disbot.NewListenerFunc(b.onModal),
		disbot.NewListenerFunc(b.onMessageCreate),
		disbot.NewListenerFunc(b.onMessageDelete),
		disbot.NewListenerFunc(b.onMemberJoin),
		disbot.NewListenerFunc(b.onMemberLeave),
	)
	return b
}

// Start регистрирует слэш-команды в гильдии и открывает gateway.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.client.Rest().SetGuildCommands(
		b.client.ApplicationID(), b.cfg.GuildID, commands()); err != nil {
		return fmt.Errorf("не удалось зарегистрировать команды: %w", err)
	}
	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("не удалось открыть gateway: %w", err)
	}
	return nil
}

// Stop закрывает gateway и останавливает фоновые горутины.
func (b *Bot) Stop(ctx context.Context) {
	b.rateLimiter.Close()
	b.client.Close(ctx)
}

func (b *Bot) onReady(e *events.Ready) {
	log.WithField("username", e.User.Username).Info("Бот запущен и слушает события")
}

// Каждый listener уводит обработку в отдельную горутину:
// gateway disgo раздаёт события последовательно, и обработчик
// с паузой или длинной REST-серией не должен задерживать остальных.
// Сессии минигр при параллельной обработке защищены замками SessionManager.

func (b *Bot) onCommand(e *events.ApplicationCommandInteractionCreate) {
	middleware.Go(func() { b.handleCommand(e) })
}

func (b *Bot) handleCommand(e *events.ApplicationCommandInteractionCreate) {
	if !b.guildFilter.Allow(e.GuildID()) {
		return
	}

	userID := int64(e.User().ID)
	data := e.SlashCommandInteractionData()
	middleware.LogInteraction("command", userID, e.User().Username, data.CommandName())

	if !b.rateLimiter.Allow(userID) {
		discordutil.Error(e, "Slow down! Try again in a minute.")
		return
	}

	ctx := context.Background()
	switch data.CommandName() {
	// Экономика
	case "balance":
		b.handlers.Economy.HandleBalance(ctx, e)
	case "grant_royals":
		b.handlers.Economy.HandleGrant(ctx, e)
	case "take_royals":
		b.handlers.Economy.HandleTake(ctx, e)
	case "transfer":
		b.handlers.Economy.HandleTransfer(ctx, e)
	case "wipe_royals":
		b.handlers.Economy.HandleWipe(ctx, e)
	case "transactions":
		b.handlers.Economy.HandleTransactions(ctx, e)

	// Квоты и награды за посты
	case "reset_activity_limit":
		b.handlers.Quota.HandleReset(ctx, e)
	case "roleplay_stats":
		b.handlers.RPReward.HandleStats(ctx, e)
	case "rp_leaderboard":
		b.handlers.RPReward.HandleLeaderboard(ctx, e)

	// Магазин и инвентарь
	case "shop":
		b.handlers.Shop.HandleShop(ctx, e)
	case "add_shop_item":
		b.handlers.Shop.HandleAddItem(ctx, e)
	case "edit_shop_item":
		b.handlers.Shop.HandleEditItem(ctx, e)
	case "remove_shop_item":
		b.handlers.Shop.HandleRemoveItem(ctx, e)
	case "sales_history":
		b.handlers.Shop.HandleSalesHistory(ctx, e)
	case "inventory":
		b.handlers.Inventory.HandleInventory(ctx, e)
	case "transfer_item":
		b.handlers.Inventory.HandleTransferItem(ctx, e)
	case "display_item":
		b.handlers.Inventory.HandleDisplayItem(ctx, e)
	case "undisplay_item":
		b.handlers.Inventory.HandleUndisplayItem(ctx, e)

	// Профили
	case "setup_profile":
		b.handlers.Profile.HandleSetup(ctx, e)
	case "profile":
		b.handlers.Profile.HandleProfile(ctx, e)
	case "add_id_card":
		b.handlers.Profile.HandleAddIDCard(ctx, e)
	case "remove_id_card":
		b.handlers.Profile.HandleRemoveIDCard(ctx, e)
	case "my_id_card":
		b.handlers.Profile.HandleIDCard(ctx, e)
	case "delete_profile":
		b.handlers.Profile.HandleDelete(ctx, e)

	// Приём в академию
	case "apply":
		b.handlers.Roles.HandleApply(ctx, e)

	// Мини-игры
	case "wish":
		b.handlers.Activities.HandleWish(ctx, e)
	case "brew_potion":
		b.handlers.Activities.HandleBrew(ctx, e)
	case "host_teaparty":
		b.handlers.Activities.HandleTeaParty(ctx, e)

	default:
		log.WithField("command", data.CommandName()).Warn("Неизвестная команда")
	}
}

func (b *Bot) onComponent(e *events.ComponentInteractionCreate) {
	middleware.Go(func() { b.handleComponent(e) })
}

func (b *Bot) handleComponent(e *events.ComponentInteractionCreate) {
	if !b.guildFilter.Allow(e.GuildID()) {
		return
	}

	userID := int64(e.User().ID)
	customID := e.Data.CustomID()
	middleware.LogInteraction("component", userID, e.User().Username, customID)

	if !b.rateLimiter.Allow(userID) {
		discordutil.ComponentError(e, "Slow down! Try again in a minute.")
		return
	}

	ctx := context.Background()
	switch {
	case customID == shop.ShopSelectID:
		b.handlers.Shop.HandleShopSelect(ctx, e)
	case customID == shop.BuySelectID:
		b.handlers.Shop.HandleBuySelect(ctx, e)
	case customID == profile.AffiliationSelectID:
		b.handlers.Profile.HandleAffiliationSelect(ctx, e)
	case customID == activities.PotionSelectID:
		b.handlers.Activities.HandlePotionSelect(ctx, e)
	case customID == activities.PotionBrewID:
		b.handlers.Activities.HandlePotionBrew(ctx, e)
	case customID == activities.TeaJoinID:
		b.handlers.Activities.HandleTeaJoin(ctx, e)
	case customID == activities.TeaStartID:
		b.handlers.Activities.HandleTeaStart(ctx, e)
	case customID == activities.TeaCancelID:
		b.handlers.Activities.HandleTeaCancel(ctx, e)
	case customID == activities.TeaSubmitID:
		b.handlers.Activities.HandleTeaSubmit(ctx, e)
	case strings.HasPrefix(customID, roles.ActionPrefix):
		b.handlers.Roles.HandleAction(ctx, e)
	default:
		log.WithField("custom_id", customID).Warn("Неизвестный компонент")
	}
}

func (b *Bot) onModal(e *events.ModalSubmitInteractionCreate) {
	middleware.Go(func() { b.handleModal(e) })
}

func (b *Bot) handleModal(e *events.ModalSubmitInteractionCreate) {
	if !b.guildFilter.Allow(e.GuildID()) {
		return
	}

	userID := int64(e.User().ID)
	customID := e.Data.CustomID
	middleware.LogInteraction("modal", userID, e.User().Username, customID)

	if !b.rateLimiter.Allow(userID) {
		discordutil.ModalError(e, "Slow down! Try again in a minute.")
		return
	}

	ctx := context.Background()
	switch {
	case customID == profile.SetupModalID:
		b.handlers.Profile.HandleSetupModal(ctx, e)
	case customID == roles.ApplyModalID:
		b.handlers.Roles.HandleApplyModal(ctx, e)
	case strings.HasPrefix(customID, activities.TeaTopicsPrefix):
		b.handlers.Activities.HandleTeaTopics(ctx, e)
	default:
		log.WithField("custom_id", customID).Warn("Неизвестная модальная форма")
	}
}

func (b *Bot) onMessageCreate(e *events.GuildMessageCreate) {
	if e.GuildID != b.cfg.GuildID {
		return
	}
	middleware.Go(func() {
		b.handlers.RPReward.OnMessageCreate(context.Background(), e)
	})
}

func (b *Bot) onMessageDelete(e *events.GuildMessageDelete) {
	if e.GuildID != b.cfg.GuildID {
		return
	}
	middleware.Go(func() {
		b.handlers.RPReward.OnMessageDelete(context.Background(), e)
	})
}

func (b *Bot) onMemberJoin(e *events.GuildMemberJoin) {
	if e.GuildID != b.cfg.GuildID {
		return
	}
	middleware.Go(func() {
		b.handlers.Roles.OnMemberJoin(context.Background(), e)
	})
}

func (b *Bot) onMemberLeave(e *events.GuildMemberLeave) {
	if e.GuildID != b.cfg.GuildID {
		return
	}
	middleware.Go(func() {
		b.handlers.Cleanup.OnMemberLeave(context.Background(), e)
	})
}
