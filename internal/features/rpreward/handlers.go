// Package rpreward — handlers.go связывает сервис наград с событиями Discord:
// новые и удалённые сообщения, команды /roleplay_stats и /rp_leaderboard.
package rpreward

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/discordutil"
)

// Handler обрабатывает события наград за посты.
type Handler struct {
	service *Service
	checker *access.Checker
	cfg     *config.Config
	rest    rest.Rest

	// Кэш "тред -> родительский канал", чтобы не дёргать REST
	// на каждое сообщение
	mu      sync.Mutex
	parents map[snowflake.ID]snowflake.ID
}

// NewHandler создаёт обработчик наград за посты.
func NewHandler(service *Service, checker *access.Checker, cfg *config.Config, restClient rest.Rest) *Handler {
	return &Handler{
		service: service,
		checker: checker,
		cfg:     cfg,
		rest:    restClient,
		parents: make(map[snowflake.ID]snowflake.ID),
	}
}

// OnMessageCreate проверяет новое сообщение на награду.
func (h *Handler) OnMessageCreate(ctx context.Context, e *events.GuildMessageCreate) {
	channelID := h.resolveChannel(e.ChannelID)

	awarded, err := h.service.HandleNewPost(ctx, Post{
		MessageID: int64(e.MessageID),
		AuthorID:  int64(e.Message.Author.ID),
		ChannelID: int64(channelID),
		Content:   e.Message.Content,
		IsBot:     e.Message.Author.Bot,
	})
	if err != nil {
		log.WithError(err).Error("Ошибка начисления награды за пост")
		return
	}
	if awarded > 0 {
		log.WithFields(log.Fields{
			"message": e.MessageID,
			"user":    e.Message.Author.ID,
		}).Debug("RP reward paid")
	}
}

// OnMessageDelete отзывает награду за удалённое сообщение.
func (h *Handler) OnMessageDelete(ctx context.Context, e *events.GuildMessageDelete) {
	_, _, err := h.service.HandleDeleted(ctx, int64(e.MessageID))
	if err != nil {
		log.WithError(err).Error("Ошибка отзыва награды")
	}
}

// HandleStats — команда /roleplay_stats. Свою статистику видит каждый,
// чужую — роли из STAFF_ACCESS_ROLES.
func (h *Handler) HandleStats(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	targetID := int64(e.User().ID)

	if target, ok := data.OptUser("user"); ok && int64(target.ID) != targetID {
		if !h.checker.HasAnyRole(ctx, discordutil.MemberRoleIDs(e), h.cfg.StaffAccessRoles) {
			discordutil.Error(e, "You can only view your own roleplay stats.")
			return
		}
		targetID = int64(target.ID)
	}

	weekly, err := h.service.WeeklyStats(ctx, targetID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики постов")
		discordutil.Error(e, "Failed to fetch roleplay stats.")
		return
	}
	total, err := h.service.TotalStats(ctx, targetID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики постов")
		discordutil.Error(e, "Failed to fetch roleplay stats.")
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Roleplay activity").
		SetDescription(fmt.Sprintf("Stats for <@%d>", targetID)).
		AddField("This week", fmt.Sprintf("%d posts, %s %s earned",
			weekly.Posts, common.FormatNumber(weekly.Earned), h.cfg.CurrencySymbol), true).
		AddField("All time", fmt.Sprintf("%d posts, %s %s earned",
			total.Posts, common.FormatNumber(total.Earned), h.cfg.CurrencySymbol), true).
		SetColor(0x9B59B6).
		Build()
	discordutil.Embed(e, embed, true)
}

// HandleLeaderboard — команда /rp_leaderboard. Топ-10 недели, виден всем.
func (h *Handler) HandleLeaderboard(ctx context.Context, e *events.ApplicationCommandInteractionCreate) {
	entries, err := h.service.WeeklyLeaderboard(ctx, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения таблицы лидеров")
		discordutil.Error(e, "Failed to fetch the leaderboard.")
		return
	}
	if len(entries) == 0 {
		discordutil.Text(e, "No rewarded roleplay posts this week yet.", true)
		return
	}

	var sb strings.Builder
	for i, entry := range entries {
		sb.WriteString(fmt.Sprintf("**%d.** <@%d> — %d posts, %s %s\n",
			i+1, entry.UserID, entry.Posts, common.FormatNumber(entry.Earned), h.cfg.CurrencySymbol))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Roleplay leaderboard — this week").
		SetDescription(sb.String()).
		SetColor(0x9B59B6).
		Build()
	discordutil.Embed(e, embed, false)
}

// resolveChannel возвращает родительский канал для тредов
// и сам канал для остальных случаев.
func (h *Handler) resolveChannel(channelID snowflake.ID) snowflake.ID {
	// Канал напрямую в карте наград: резолвить нечего
	if _, ok := h.cfg.RPRewardChannels[channelID]; ok {
		return channelID
	}

	h.mu.Lock()
	parent, cached := h.parents[channelID]
	h.mu.Unlock()
	if cached {
		return parent
	}

	resolved := channelID
	if ch, err := h.rest.GetChannel(channelID); err == nil {
		if thread, ok := ch.(discord.GuildThread); ok && thread.ParentID() != nil {
			resolved = *thread.ParentID()
		}
	} else {
		log.WithError(err).WithField("channel", channelID).Debug("Не удалось получить канал")
		return channelID
	}

	h.mu.Lock()
	h.parents[channelID] = resolved
	h.mu.Unlock()
	return resolved
}
