// Package rpreward — service.go содержит правила начисления наград за посты.
//
// Пост вознаграждается, если:
//   - канал (для тредов — родительский) входит в карту наград;
//   - автор не бот;
//   - длина текста не меньше минимальной;
//   - с прошлой награды автора прошло не меньше кулдауна.
//
// Кулдаун держится в памяти: после рестарта бота он обнуляется,
// что допустимо для антиспам-меры.
package rpreward

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/features/economy"
)

// Post описывает новое сообщение для проверки на награду.
// ChannelID уже указывает на родительский канал, если пост в треде.
type Post struct {
	MessageID int64
	AuthorID  int64
	ChannelID int64
	Content   string
	IsBot     bool
}

// Service применяет правила наград и ведёт кулдауны авторов.
type Service struct {
	repo    *Repository
	wallet  *economy.Service
	rewards map[int64]int64 // канал -> награда за пост
	minLen  int
	cool    time.Duration

	mu        sync.Mutex
	lastAward map[int64]time.Time // автор -> время последней награды

	now func() time.Time
}

// NewService создаёт сервис наград за посты.
func NewService(repo *Repository, wallet *economy.Service, rewards map[int64]int64, minLength int, cooldown time.Duration) *Service {
	return &Service{
		repo:      repo,
		wallet:    wallet,
		rewards:   rewards,
		minLen:    minLength,
		cool:      cooldown,
		lastAward: make(map[int64]time.Time),
		now:       time.Now,
	}
}

// HandleNewPost проверяет сообщение и при выполнении всех условий
// начисляет награду. Возвращает начисленную сумму (0 — награды нет).
func (s *Service) HandleNewPost(ctx context.Context, post Post) (int64, error) {
	amount, tracked := s.rewards[post.ChannelID]
	if !tracked || post.IsBot {
		return 0, nil
	}
	if len([]rune(post.Content)) < s.minLen {
		return 0, nil
	}
	if !s.tryCooldown(post.AuthorID) {
		return 0, nil
	}

	// Сначала запись награды: ключ message_id исключает двойную
	// выплату за одно сообщение даже при повторной доставке события.
	err := s.repo.Record(ctx, Reward{
		MessageID: post.MessageID,
		UserID:    post.AuthorID,
		ChannelID: post.ChannelID,
		Amount:    amount,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.releaseCooldown(post.AuthorID)
		return 0, err
	}

	err = s.wallet.Credit(ctx, common.SystemID, post.AuthorID, amount,
		economy.TxTypeRPReward, fmt.Sprintf("Roleplay post in <#%d>", post.ChannelID))
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"user":    post.AuthorID,
		"channel": post.ChannelID,
		"amount":  amount,
	}).Debug("Награда за пост начислена")
	return amount, nil
}

// HandleDeleted отзывает награду за удалённое сообщение.
// Списание принудительное: баланс может уйти в минус.
// ok=false означает, что сообщение награды не получало.
func (s *Service) HandleDeleted(ctx context.Context, messageID int64) (Reward, bool, error) {
	reward, ok, err := s.repo.Find(ctx, messageID)
	if err != nil || !ok {
		return Reward{}, false, err
	}

	// Запись удаляется только ПОСЛЕ успешного списания:
	// при сбое списания отзыв остаётся возможным.
	err = s.wallet.ForceDebit(ctx, reward.UserID, reward.Amount,
		economy.TxTypeRPRevoke, fmt.Sprintf("Deleted roleplay post in <#%d>", reward.ChannelID))
	if err != nil {
		return Reward{}, false, err
	}
	if err := s.repo.Delete(ctx, messageID); err != nil {
		return Reward{}, false, err
	}

	log.WithFields(log.Fields{
		"user":   reward.UserID,
		"amount": reward.Amount,
	}).Info("Награда за удалённый пост отозвана")
	return reward, true, nil
}

// WeeklyStats возвращает статистику пользователя за текущую неделю.
func (s *Service) WeeklyStats(ctx context.Context, userID int64) (Stats, error) {
	return s.repo.StatsSince(ctx, userID, common.WeekStartUTC(s.now()))
}

// TotalStats возвращает статистику пользователя за всё время.
func (s *Service) TotalStats(ctx context.Context, userID int64) (Stats, error) {
	return s.repo.StatsSince(ctx, userID, time.Time{})
}

// WeeklyLeaderboard возвращает top-N за текущую неделю.
func (s *Service) WeeklyLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return s.repo.Leaderboard(ctx, common.WeekStartUTC(s.now()), limit)
}

// PurgeUser удаляет записи о наградах участника и его кулдаун.
func (s *Service) PurgeUser(ctx context.Context, userID int64) error {
	s.releaseCooldown(userID)
	return s.repo.PurgeUser(ctx, userID)
}

// tryCooldown атомарно проверяет и занимает кулдаун автора.
func (s *Service) tryCooldown(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if last, ok := s.lastAward[userID]; ok && now.Sub(last) < s.cool {
		return false
	}
	s.lastAward[userID] = now
	return true
}

func (s *Service) releaseCooldown(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastAward, userID)
}
