// Package profile — service.go создаёт связку личных тредов и управляет
// жизненным циклом профиля.
//
// При регистрации создаются пять приватных тредов: Biography, Wallet,
// Inventory, Trading и Desk. Между запросами к Discord выдерживается
// пауза, чтобы не упереться в rate limit на создание тредов.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/config"
)

// Паузы между запросами к Discord при создании связки тредов.
const (
	threadCreatePause = 500 * time.Millisecond
	threadInvitePause = 200 * time.Millisecond
)

// threadNames — названия тредов в порядке создания.
var threadNames = []string{
	"📜—Biography",
	"💰—Wallet",
	"📦—Inventory",
	"⚔️—Trading",
	"📚—Desk",
}

// Form — данные анкеты из модальной формы.
type Form struct {
	Name      string
	Grade     string
	Faceclaim string
	ImageURL  string
}

// Service управляет профилями и их тредами.
type Service struct {
	repo    *Repository
	rest    rest.Rest
	checker *access.Checker
	cfg     *config.Config
}

// NewService создаёт сервис профилей.
func NewService(repo *Repository, restClient rest.Rest, checker *access.Checker, cfg *config.Config) *Service {
	return &Service{repo: repo, rest: restClient, checker: checker, cfg: cfg}
}

// Get возвращает профиль участника.
func (s *Service) Get(ctx context.Context, userID int64) (Profile, error) {
	return s.repo.Get(ctx, userID)
}

// SetIDCard сохраняет URL карточки студента.
func (s *Service) SetIDCard(ctx context.Context, userID int64, url string) error {
	return s.repo.SetIDCard(ctx, userID, url)
}

// WalletThreadID возвращает тред-кошелёк участника.
// Реализует notify.ThreadLookup.
func (s *Service) WalletThreadID(ctx context.Context, userID int64) (snowflake.ID, bool) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil || p.WalletThreadID == 0 {
		return 0, false
	}
	return snowflake.ID(p.WalletThreadID), true
}

// Setup создаёт связку тредов и сохраняет профиль.
// Треды создаются в канале, где вызвана команда регистрации.
func (s *Service) Setup(ctx context.Context, channelID snowflake.ID, userID int64, form Form, affiliationKey string) (Profile, error) {
	affiliation, ok := Affiliations[affiliationKey]
	if !ok {
		return Profile{}, fmt.Errorf("неизвестный факультет %q", affiliationKey)
	}

	threads := make([]snowflake.ID, 0, len(threadNames))
	for i, name := range threadNames {
		if i > 0 {
			time.Sleep(threadCreatePause)
		}
		thread, err := s.rest.CreateThread(channelID, discord.GuildPrivateThreadCreate{Name: name})
		if err != nil {
			s.cleanupThreads(threads)
			return Profile{}, fmt.Errorf("ошибка создания треда %q: %w", name, err)
		}
		threads = append(threads, thread.ID())
	}

	p := Profile{
		UserID:            userID,
		Name:              form.Name,
		Grade:             form.Grade,
		Faceclaim:         form.Faceclaim,
		ImageURL:          form.ImageURL,
		Affiliation:       affiliation.Name,
		BioThreadID:       int64(threads[0]),
		WalletThreadID:    int64(threads[1]),
		InventoryThreadID: int64(threads[2]),
		TradingThreadID:   int64(threads[3]),
		DeskThreadID:      int64(threads[4]),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.cleanupThreads(threads)
		return Profile{}, err
	}

	// Приглашаем владельца в каждый тред
	for _, threadID := range threads {
		if err := s.rest.AddThreadMember(threadID, snowflake.ID(userID)); err != nil {
			log.WithError(err).WithField("thread", threadID).Warn("Не удалось добавить участника в тред")
		}
		time.Sleep(threadInvitePause)
	}

	// Стартовые сообщения закрепляют назначение тредов
	staffTag := s.staffMentions(ctx)
	s.sendIntro(threads[0], fmt.Sprintf("%s\n> **Biography**\n> <@%d>", staffTag, userID))
	s.sendIntro(threads[1], fmt.Sprintf("%s\n> **Wallet**\n> Use `/balance`", staffTag))

	log.WithFields(log.Fields{
		"user":        userID,
		"affiliation": affiliation.Name,
	}).Info("Профиль создан")
	return p, nil
}

// Delete удаляет профиль и его треды.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	p, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return err
	}

	for _, threadID := range p.ThreadIDs() {
		if threadID == 0 {
			continue
		}
		if err := s.rest.DeleteChannel(snowflake.ID(threadID)); err != nil {
			log.WithError(err).WithField("thread", threadID).Warn("Не удалось удалить тред")
		}
	}

	log.WithField("user", userID).Info("Профиль удалён")
	return nil
}

// staffMentions собирает упоминания стафф-ролей для стартовых сообщений.
func (s *Service) staffMentions(ctx context.Context) string {
	var mentions []string
	for _, roleName := range s.cfg.StaffAccessRoles {
		if roleID, ok := s.checker.RoleIDByName(ctx, roleName); ok {
			mentions = append(mentions, fmt.Sprintf("<@&%d>", roleID))
		}
	}
	if len(mentions) == 0 {
		return "Staff"
	}
	return strings.Join(mentions, " ")
}

func (s *Service) sendIntro(threadID snowflake.ID, content string) {
	_, err := s.rest.CreateMessage(threadID, discord.NewMessageCreateBuilder().SetContent(content).Build())
	if err != nil {
		log.WithError(err).WithField("thread", threadID).Warn("Не удалось отправить стартовое сообщение")
	}
}

// cleanupThreads удаляет уже созданные треды при неудачной регистрации.
func (s *Service) cleanupThreads(threads []snowflake.ID) {
	for _, threadID := range threads {
		if err := s.rest.DeleteChannel(threadID); err != nil {
			log.WithError(err).WithField("thread", threadID).Warn("Не удалось удалить тред")
		}
	}
}
