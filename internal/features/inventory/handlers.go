// Package inventory — handlers.go обрабатывает команды инвентаря:
// /inventory, /transfer_item, /display_item, /undisplay_item.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/discordutil"
	"royalacademy.app/discord-bot/internal/features/shop"
)

// Handler обрабатывает команды инвентаря.
type Handler struct {
	repo *Repository
	shop *shop.Service
}

// NewHandler создаёт обработчик инвентаря.
func NewHandler(repo *Repository, shopService *shop.Service) *Handler {
	return &Handler{repo: repo, shop: shopService}
}

// HandleInventory — команда /inventory. Показывает свой инвентарь.
func (h *Handler) HandleInventory(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	userID := int64(e.User().ID)

	items, err := h.repo.List(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения инвентаря")
		discordutil.Error(e, "Failed to load your inventory.")
		return
	}
	if len(items) == 0 {
		discordutil.Text(e, "Your inventory is empty. Visit `/shop`!", true)
		return
	}

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("**%s** x%d\n", item.Name, item.Quantity))
	}
	if display, ok, err := h.repo.Display(ctx, userID); err == nil && ok {
		sb.WriteString(fmt.Sprintf("\nOn display: **%s**", display))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Your inventory").
		SetDescription(sb.String()).
		SetColor(0xF1C40F).
		Build()
	discordutil.Embed(e, embed, true)
}

// HandleTransferItem — команда /transfer_item. Передаёт предмет участнику.
func (h *Handler) HandleTransferItem(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	target := data.User("user")
	name := strings.TrimSpace(data.String("item"))
	quantity := int64(1)
	if v, ok := data.OptInt("quantity"); ok {
		quantity = int64(v)
	}

	if int64(target.ID) == int64(e.User().ID) {
		discordutil.Error(e, "You cannot transfer items to yourself.")
		return
	}
	if quantity <= 0 {
		discordutil.Error(e, "Quantity must be a positive number.")
		return
	}

	item, err := h.shop.ItemByName(ctx, name)
	if errors.Is(err, common.ErrItemNotFound) {
		discordutil.Error(e, fmt.Sprintf("No item named %q exists.", name))
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка поиска предмета")
		discordutil.Error(e, "Failed to look up the item.")
		return
	}

	err = h.repo.Transfer(ctx, int64(e.User().ID), int64(target.ID), item.ID, quantity)
	switch {
	case errors.Is(err, common.ErrNotEnoughItems):
		discordutil.Error(e, "You do not have that many of this item.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка передачи предмета")
		discordutil.Error(e, "Item transfer failed.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Gave **%s** x%d to %s.", item.Name, quantity, target.Mention()), false)
}

// HandleDisplayItem — команда /display_item. Ставит предмет на витрину профиля.
func (h *Handler) HandleDisplayItem(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	name := strings.TrimSpace(data.String("item"))

	item, err := h.shop.ItemByName(ctx, name)
	if errors.Is(err, common.ErrItemNotFound) {
		discordutil.Error(e, fmt.Sprintf("No item named %q exists.", name))
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка поиска предмета")
		discordutil.Error(e, "Failed to look up the item.")
		return
	}

	err = h.repo.SetDisplay(ctx, int64(e.User().ID), item.ID)
	switch {
	case errors.Is(err, common.ErrNotEnoughItems):
		discordutil.Error(e, "You do not own this item.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка установки витрины")
		discordutil.Error(e, "Failed to display the item.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("**%s** is now displayed on your profile.", item.Name), true)
}

// HandleUndisplayItem — команда /undisplay_item. Снимает предмет с витрины.
func (h *Handler) HandleUndisplayItem(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if err := h.repo.ClearDisplay(ctx, int64(e.User().ID)); err != nil {
		log.WithError(err).Error("Ошибка очистки витрины")
		discordutil.Error(e, "Failed to clear your display.")
		return
	}
	discordutil.Text(e, "Your profile display has been cleared.", true)
}
