// Package notify доставляет участникам личные уведомления об операциях
// с их счётом: выдачи, изъятия, переводы, награды.
//
// Уведомления всегда best-effort: основная операция уже зафиксирована
// в базе, и неудачная доставка (закрытые ЛС, удалённый тред) не должна
// её откатывать. Ошибки доставки только логируются.
package notify

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"
)

// Notice описывает одно уведомление участнику.
type Notice struct {
	UserID      int64  // Кому доставить
	Title       string // Заголовок embed
	Description string // Текст embed
	Color       int    // Цвет embed (0 — цвет по умолчанию)
}

// Цвета embed для типовых уведомлений.
const (
	ColorCredit  = 0x57F287 // Зелёный: начисление
	ColorDebit   = 0xED4245 // Красный: списание
	ColorNeutral = 0x5865F2 // Синий: информация
)

// Notifier доставляет уведомления участникам.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// ThreadLookup находит личный тред-кошелёк участника.
// Реализуется сервисом профилей; ok=false означает, что у участника
// нет оформленного профиля с тредами.
type ThreadLookup interface {
	WalletThreadID(ctx context.Context, userID int64) (snowflake.ID, bool)
}

// DiscordNotifier шлёт уведомления в тред-кошелёк участника,
// а при его отсутствии — в ЛС.
type DiscordNotifier struct {
	rest    rest.Rest
	threads ThreadLookup
}

// NewDiscordNotifier создаёт нотификатор поверх REST-клиента Discord.
func NewDiscordNotifier(restClient rest.Rest, threads ThreadLookup) *DiscordNotifier {
	return &DiscordNotifier{rest: restClient, threads: threads}
}

// Notify доставляет уведомление. Сначала пробует тред-кошелёк,
// затем ЛС. Ошибка возвращается только если не удалось ни то, ни другое.
func (d *DiscordNotifier) Notify(ctx context.Context, n Notice) error {
	color := n.Color
	if color == 0 {
		color = ColorNeutral
	}
	embed := discord.NewEmbedBuilder().
		SetTitle(n.Title).
		SetDescription(n.Description).
		SetColor(color).
		Build()
	msg := discord.NewMessageCreateBuilder().SetEmbeds(embed).Build()

	if threadID, ok := d.threads.WalletThreadID(ctx, n.UserID); ok {
		if _, err := d.rest.CreateMessage(threadID, msg); err == nil {
			return nil
		} else {
			log.WithError(err).WithField("user_id", n.UserID).
				Debug("wallet thread unreachable, falling back to DM")
		}
	}

	channel, err := d.rest.CreateDMChannel(snowflake.ID(n.UserID))
	if err != nil {
		return fmt.Errorf("не удалось открыть ЛС: %w", err)
	}
	if _, err := d.rest.CreateMessage(channel.ID(), msg); err != nil {
		return fmt.Errorf("не удалось отправить уведомление: %w", err)
	}
	return nil
}
