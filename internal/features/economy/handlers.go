// Package economy — handlers.go обрабатывает слэш-команды экономики:
// /balance, /grant_royals, /take_royals, /transfer, /wipe_royals, /transactions.
package economy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
	checker *access.Checker
	cfg     *config.Config
}

// NewHandler создаёт обработчик экономики.
func NewHandler(service *Service, checker *access.Checker, cfg *config.Config) *Handler {
	return &Handler{service: service, checker: checker, cfg: cfg}
}

// HandleBalance — команда /balance. Свой баланс видит каждый,
// чужой — только роли с полным доступом.
func (h *Handler) HandleBalance(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	targetID := int64(e.User().ID)
	target, targetGiven := data.OptUser("user")

	if targetGiven && int64(target.ID) != targetID {
		if !h.checker.HasRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffSupremeRole) {
			discordutil.Error(e, "You can only view your own balance.")
			return
		}
		targetID = int64(target.ID)
	}

	balance, err := h.service.GetBalance(ctx, targetID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		discordutil.Error(e, "Failed to fetch the balance.")
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Royal Treasury").
		SetDescription(fmt.Sprintf("<@%d> holds **%s %s**.",
			targetID, common.FormatNumber(balance), h.cfg.CurrencySymbol)).
		SetColor(0xF1C40F).
		Build()
	discordutil.Embed(e, embed, true)
}

// HandleGrant — команда /grant_royals (только роли из STAFF_GRANT_ROLES).
func (h *Handler) HandleGrant(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffGrantRoles) {
		discordutil.Error(e, "You do not have permission to grant Royals.")
		return
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")
	amount := int64(data.Int("amount"))
	reason := strings.TrimSpace(data.String("reason"))

	err := h.service.Grant(ctx, int64(e.User().ID), int64(target.ID), amount, reason)
	switch {
	case errors.Is(err, common.ErrInvalidAmount):
		discordutil.Error(e, "Amount must be a positive number.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка выдачи Royals")
		discordutil.Error(e, "Failed to grant Royals.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Granted **%s %s** to %s. Reason: %s",
		common.FormatNumber(amount), h.cfg.CurrencySymbol, target.Mention(), reason), false)
}

// HandleTake — команда /take_royals (только роли из STAFF_GRANT_ROLES).
func (h *Handler) HandleTake(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffGrantRoles) {
		discordutil.Error(e, "You do not have permission to take Royals.")
		return
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")
	amount := int64(data.Int("amount"))
	reason := strings.TrimSpace(data.String("reason"))

	err := h.service.Take(ctx, int64(e.User().ID), int64(target.ID), amount, reason)
	switch {
	case errors.Is(err, common.ErrInvalidAmount):
		discordutil.Error(e, "Amount must be a positive number.")
		return
	case errors.Is(err, common.ErrInsufficientFunds):
		discordutil.Error(e, "The member does not have that many Royals.")
		return
	case errors.Is(err, common.ErrUserNotFound):
		discordutil.Error(e, "The member has no Royals account yet.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка изъятия Royals")
		discordutil.Error(e, "Failed to take Royals.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Took **%s %s** from %s. Reason: %s",
		common.FormatNumber(amount), h.cfg.CurrencySymbol, target.Mention(), reason), false)
}

// HandleTransfer — команда /transfer, доступна всем участникам.
func (h *Handler) HandleTransfer(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	target := data.User("user")
	amount := int64(data.Int("amount"))

	err := h.service.Transfer(ctx, int64(e.User().ID), int64(target.ID), amount)
	switch {
	case errors.Is(err, common.ErrSelfTransfer):
		discordutil.Error(e, "You cannot transfer Royals to yourself.")
		return
	case errors.Is(err, common.ErrInvalidAmount):
		discordutil.Error(e, "Amount must be a positive number.")
		return
	case errors.Is(err, common.ErrInsufficientFunds):
		discordutil.Error(e, "You do not have enough Royals for this transfer.")
		return
	case errors.Is(err, common.ErrUserNotFound):
		discordutil.Error(e, "You have no Royals to transfer yet.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка перевода")
		discordutil.Error(e, "Transfer failed.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Transferred **%s %s** to %s.",
		common.FormatNumber(amount), h.cfg.CurrencySymbol, target.Mention()), false)
}

// HandleWipe — команда /wipe_royals (только STAFF_SUPREME_ROLE).
func (h *Handler) HandleWipe(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	if !h.checker.HasRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffSupremeRole) {
		discordutil.Error(e, "You do not have permission to wipe balances.")
		return
	}

	data := e.SlashCommandInteractionData()
	target := data.User("user")

	burned, err := h.service.Wipe(ctx, int64(e.User().ID), int64(target.ID))
	switch {
	case errors.Is(err, common.ErrUserNotFound):
		discordutil.Error(e, "The member has no Royals account.")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка обнуления счёта")
		discordutil.Error(e, "Failed to wipe the balance.")
		return
	}

	discordutil.Text(e, fmt.Sprintf("Wiped %s's balance. **%s %s** burned.",
		target.Mention(), common.FormatNumber(burned), h.cfg.CurrencySymbol), false)
}

// HandleTransactions — команда /transactions. Показывает последние
// 10 операций запросившего.
func (h *Handler) HandleTransactions(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	userID := int64(e.User().ID)

	transactions, err := h.service.GetTransactions(ctx, userID, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		discordutil.Error(e, "Failed to fetch transaction history.")
		return
	}
	if len(transactions) == 0 {
		discordutil.Text(e, "You have no transactions yet.", true)
		return
	}

	var sb strings.Builder
	for i, tx := range transactions {
		sign := "+"
		if tx.FromUserID == userID {
			sign = "-"
		}
		sb.WriteString(fmt.Sprintf("%d. %s | %s%s %s | %s | %s\n",
			i+1,
			common.FormatDateTime(tx.CreatedAt),
			sign,
			common.FormatNumber(tx.Amount),
			h.cfg.CurrencySymbol,
			tx.TransactionType,
			tx.Description,
		))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("Last %d transactions", len(transactions))).
		SetDescription(sb.String()).
		SetColor(0xF1C40F).
		Build()
	discordutil.Embed(e, embed, true)
}
