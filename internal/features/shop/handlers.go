// Package shop — handlers.go обрабатывает команды магазина и меню покупки:
// /shop, /add_shop_item, /edit_shop_item, /remove_shop_item, /sales_history.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
)

// Custom ID компонентов магазина.
const (
	// ShopSelectID — меню выбора витрины в /shop.
	ShopSelectID = "shop:browse"
	// BuySelectID — меню выбора товара под витриной.
	BuySelectID = "shop:buy"
)

// Handler обрабатывает команды магазина.
type Handler struct {
	service *Service
	checker *access.Checker
	cfg     *config.Config
}

// NewHandler создаёт обработчик магазина.
func NewHandler(service *Service, checker *access.Checker, cfg *config.Config) *Handler {
	return &Handler{service: service, checker: checker, cfg: cfg}
}

// HandleShop — команда /shop. Сначала предлагает выбрать витрину;
// при единственной витрине показывает её сразу.
func (h *Handler) HandleShop(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	shops, err := h.service.Shops(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения витрин")
		discordutil.Error(e, "Failed to load the shop.")
		return
	}
	if len(shops) == 0 {
		discordutil.Text(e, "The shop is empty right now. Check back later!", true)
		return
	}

	if len(shops) == 1 {
		embed, options, err := h.showcase(ctx, shops[0])
		if err != nil {
			log.WithError(err).Error("Ошибка получения витрины")
			discordutil.Error(e, "Failed to load the shop.")
			return
		}
		builder := discord.NewMessageCreateBuilder().
			SetEmbeds(embed).
			SetEphemeral(true)
		if len(options) > 0 {
			builder.AddActionRow(discord.NewStringSelectMenu(BuySelectID, "Pick an item to buy", options...))
		}
		if err := e.CreateMessage(builder.Build()); err != nil {
			log.WithError(err).Error("Ошибка ответа на взаимодействие")
		}
		return
	}

	var options []discord.StringSelectMenuOption
	for _, name := range shops {
		if len(options) == 25 {
			break
		}
		options = append(options, discord.StringSelectMenuOption{
			Label: name,
			Value: name,
		})
	}
	err = e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent("Which shop would you like to browse?").
		AddActionRow(discord.NewStringSelectMenu(ShopSelectID, "Pick a shop", options...)).
		SetEphemeral(true).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на взаимодействие")
	}
}

// HandleShopSelect обрабатывает выбор витрины: то же сообщение
// превращается в витрину выбранного магазина.
func (h *Handler) HandleShopSelect(ctx context.Context, e *events.ComponentInteractionCreate) {
	values := e.StringSelectMenuInteractionData().Values
	if len(values) == 0 {
		return
	}

	embed, options, err := h.showcase(ctx, values[0])
	if err != nil {
		log.WithError(err).Error("Ошибка получения витрины")
		discordutil.ComponentError(e, "Failed to load the shop.")
		return
	}

	builder := discord.NewMessageUpdateBuilder().
		SetContent("").
		SetEmbeds(embed)
	if len(options) > 0 {
		builder.AddActionRow(discord.NewStringSelectMenu(BuySelectID, "Pick an item to buy", options...))
	}
	if err := e.UpdateMessage(builder.Build()); err != nil {
		log.WithError(err).Error("Ошибка обновления сообщения")
	}
}

// showcase собирает embed витрины и меню покупки для одного магазина.
func (h *Handler) showcase(ctx context.Context, shopName string) (discord.Embed, []discord.StringSelectMenuOption, error) {
	items, err := h.service.ItemsByShop(ctx, shopName)
	if err != nil {
		return discord.Embed{}, nil, err
	}

	var sb strings.Builder
	var options []discord.StringSelectMenuOption
	for _, item := range items {
		stock := "unlimited"
		if item.Stock != UnlimitedStock {
			stock = fmt.Sprintf("%d left", item.Stock)
		}
		sb.WriteString(fmt.Sprintf("**%s** — %s %s (%s)\n%s\n\n",
			item.Name, common.FormatNumber(item.Price), h.cfg.CurrencySymbol, stock, item.Description))

		// В меню попадают только доступные к покупке товары
		if item.InStock() && len(options) < 25 {
			options = append(options, discord.StringSelectMenuOption{
				Label:       item.Name,
				Value:       strconv.FormatInt(item.ID, 10),
				Description: fmt.Sprintf("%s %s", common.FormatNumber(item.Price), h.cfg.CurrencySymbol),
			})
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("Nothing on the shelves right now.")
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(shopName).
		SetDescription(sb.String()).
		SetColor(0xF1C40F).
		Build()
	return embed, options, nil
}

// HandleBuySelect обрабатывает выбор товара в меню витрины.
func (h *Handler) HandleBuySelect(ctx context.Context, e *events.ComponentInteractionCreate) {
	values := e.StringSelectMenuInteractionData().Values
	if len(values) == 0 {
		return
	}
	itemID, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		discordutil.ComponentError(e, "Unknown item.")
		return
	}

	item, err := h.service.Purchase(ctx, int64(e.User().ID), itemID, 1)
	switch {
	case errors.Is(err, common.ErrItemNotFound):
		discordutil.ComponentError(e, "This item is no longer sold.")
		return
	case errors.Is(err, common.ErrOutOfStock):
		discordutil.ComponentError(e, "This item is out of stock.")
		return
	case errors.Is(err, common.ErrInsufficientFunds):
		discordutil.ComponentError(e, "You cannot afford this item.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка покупки")
		discordutil.ComponentError(e, "Purchase failed.")
		return
	}

	builder := discord.NewEmbedBuilder().
		SetTitle("Purchase complete").
		SetDescription(fmt.Sprintf("You bought **%s** for **%s %s**! Check `/inventory`.",
			item.Name, common.FormatNumber(item.Price), h.cfg.CurrencySymbol)).
		SetColor(0xF1C40F)
	if item.ImageURL != "" {
		builder.SetImage(item.ImageURL)
	}
	discordutil.ComponentEmbed(e, builder.Build(), true)
}

// HandleAddItem — команда /add_shop_item (роли из SHOP_ADMIN_ROLES).
func (h *Handler) HandleAddItem(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.ShopAdminRoles) {
		discordutil.Error(e, "You do not have permission to manage the shop.")
		return
	}

	data := e.SlashCommandInteractionData()
	name := strings.TrimSpace(data.String("name"))
	shopName := strings.TrimSpace(data.String("shop"))
	description := strings.TrimSpace(data.String("description"))
	price := int64(data.Int("price"))
	stock := int64(UnlimitedStock)
	if v, ok := data.OptInt("stock"); ok {
		stock = int64(v)
	}
	imageURL := ""
	if v, ok := data.OptString("image_url"); ok {
		imageURL = v
	}

	_, err := h.service.AddItem(ctx, name, shopName, description, imageURL, price, stock)
	switch {
	case errors.Is(err, common.ErrItemExists):
		discordutil.Error(e, fmt.Sprintf("An item named %q already exists.", name))
		return
	case errors.Is(err, common.ErrInvalidAmount):
		discordutil.Error(e, "Price must be positive and stock must be -1 (unlimited) or above.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка добавления товара")
		discordutil.Error(e, "Failed to add the item.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Added **%s** to **%s** for **%s %s**.",
		name, shopName, common.FormatNumber(price), h.cfg.CurrencySymbol), false)
}

// HandleEditItem — команда /edit_shop_item (роли из SHOP_ADMIN_ROLES).
func (h *Handler) HandleEditItem(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.ShopAdminRoles) {
		discordutil.Error(e, "You do not have permission to manage the shop.")
		return
	}

	data := e.SlashCommandInteractionData()
	name := strings.TrimSpace(data.String("name"))

	item, err := h.service.ItemByName(ctx, name)
	if errors.Is(err, common.ErrItemNotFound) {
		discordutil.Error(e, fmt.Sprintf("No item named %q in the shop.", name))
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка поиска товара")
		discordutil.Error(e, "Failed to look up the item.")
		return
	}

	description := item.Description
	if v, ok := data.OptString("description"); ok {
		description = strings.TrimSpace(v)
	}
	imageURL := item.ImageURL
	if v, ok := data.OptString("image_url"); ok {
		imageURL = strings.TrimSpace(v)
	}
	price := item.Price
	if v, ok := data.OptInt("price"); ok {
		price = int64(v)
	}
	stock := item.Stock
	if v, ok := data.OptInt("stock"); ok {
		stock = int64(v)
	}

	err = h.service.EditItem(ctx, item.ID, description, imageURL, price, stock)
	switch {
	case errors.Is(err, common.ErrInvalidAmount):
		discordutil.Error(e, "Price must be positive and stock must be -1 (unlimited) or above.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка обновления товара")
		discordutil.Error(e, "Failed to update the item.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Updated **%s**.", item.Name), false)
}

// HandleRemoveItem — команда /remove_shop_item (роли из SHOP_ADMIN_ROLES).
func (h *Handler) HandleRemoveItem(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.ShopAdminRoles) {
		discordutil.Error(e, "You do not have permission to manage the shop.")
		return
	}

	data := e.SlashCommandInteractionData()
	name := strings.TrimSpace(data.String("name"))

	item, err := h.service.ItemByName(ctx, name)
	if errors.Is(err, common.ErrItemNotFound) {
		discordutil.Error(e, fmt.Sprintf("No item named %q in the shop.", name))
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка поиска товара")
		discordutil.Error(e, "Failed to look up the item.")
		return
	}

	if err := h.service.RemoveItem(ctx, item.ID); err != nil {
		log.WithError(err).Error("Ошибка удаления товара")
		discordutil.Error(e, "Failed to remove the item.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Removed **%s** from the shop.", item.Name), false)
}

// HandleSalesHistory — команда /sales_history (роли из SUPERVISOR_ROLES).
func (h *Handler) HandleSalesHistory(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.SupervisorRoles) {
		discordutil.Error(e, "You do not have permission to view sales history.")
		return
	}

	sales, err := h.service.Sales(ctx, 20)
	if err != nil {
		log.WithError(err).Error("Ошибка получения истории продаж")
		discordutil.Error(e, "Failed to fetch sales history.")
		return
	}
	if len(sales) == 0 {
		discordutil.Text(e, "No sales recorded yet.", true)
		return
	}

	var sb strings.Builder
	for _, sale := range sales {
		sb.WriteString(fmt.Sprintf("%s | <@%d> bought **%s** x%d for %s %s\n",
			common.FormatDateTime(sale.CreatedAt), sale.BuyerID, sale.ItemName,
			sale.Quantity, common.FormatNumber(sale.Price*sale.Quantity), h.cfg.CurrencySymbol))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("Last %d sales", len(sales))).
		SetDescription(sb.String()).
		SetColor(0xF1C40F).
		Build()
	discordutil.Embed(e, embed, true)
}
