// Package activities — service.go реализует бизнес-логику мини-игр.
// Платёж всегда фиксируется в леджере до отправки уведомлений,
// провал уведомления не откатывает ставку.
package activities

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/features/economy"
	"royalacademy.app/discord-bot/internal/features/quota"
	"royalacademy.app/discord-bot/internal/notify"
)

// Названия активностей в журнале квот.
const (
	ActivityWish     = "wish"
	ActivityBrew     = "brew_potion"
	ActivityTeaParty = "host_teaparty"
)

// MinPotionIngredients — минимум ингредиентов для варки.
const MinPotionIngredients = 3

// Service реализует мини-игры поверх кошелька и квот.
type Service struct {
	wallet   *economy.Service
	quota    *quota.Service
	sessions *Manager
	notifier notify.Notifier
	cfg      *config.Config

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService создаёт сервис мини-игр.
func NewService(wallet *economy.Service, quotaSvc *quota.Service, sessions *Manager, notifier notify.Notifier, cfg *config.Config) *Service {
	return &Service{
		wallet:   wallet,
		quota:    quotaSvc,
		sessions: sessions,
		notifier: notifier,
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Sessions открывает менеджер сессий обработчикам и фоновым задачам.
func (s *Service) Sessions() *Manager {
	return s.sessions
}

// --- Колодец желаний ---

// WishResult — итог броска монетки.
type WishResult struct {
	Cost       int64
	Multiplier int
	Prize      int64
	NewBalance int64
	Remaining  int
}

// Wish бросает монетку в колодец. Стоимость списывается безвозвратно,
// выигрыш зависит от выпавшего множителя. Квота тратится при любом исходе.
func (s *Service) Wish(ctx context.Context, userID int64) (WishResult, error) {
	remaining, err := s.quota.Remaining(ctx, userID, ActivityWish)
	if err != nil {
		return WishResult{}, err
	}
	if remaining <= 0 {
		return WishResult{}, common.ErrQuotaExceeded
	}

	cost := s.cfg.WishCost
	if err := s.wallet.Debit(ctx, userID, common.SystemID, cost, economy.TxTypeWishToss, "Wishing well toss"); err != nil {
		return WishResult{}, err
	}

	multiplier := s.draw(DrawWishMultiplier)
	prize := cost * int64(multiplier)
	if prize > 0 {
		if err := s.wallet.Credit(ctx, common.SystemID, userID, prize, economy.TxTypeWishGrant, fmt.Sprintf("Wishing well grant (x%d)", multiplier)); err != nil {
			log.WithError(err).WithField("user", userID).Error("Ошибка выплаты выигрыша колодца")
		}
	}

	if err := s.quota.Consume(ctx, userID, ActivityWish); err != nil {
		log.WithError(err).WithField("user", userID).Error("Ошибка списания квоты колодца")
	}

	newBalance, err := s.wallet.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
	}
	remaining, _ = s.quota.Remaining(ctx, userID, ActivityWish)

	res := WishResult{
		Cost:       cost,
		Multiplier: multiplier,
		Prize:      prize,
		NewBalance: newBalance,
		Remaining:  remaining,
	}

	log.WithFields(log.Fields{
		"user":       userID,
		"multiplier": multiplier,
		"prize":      prize,
	}).Info("Бросок в колодец желаний")

	s.sendReceipt(ctx, userID, notify.Notice{
		UserID:      userID,
		Title:       "🧾 Wishing well",
		Description: fmt.Sprintf("Paid: %d %s\nReceived: %d %s\nBalance: %d %s", cost, s.cfg.CurrencySymbol, prize, s.cfg.CurrencySymbol, newBalance, s.cfg.CurrencySymbol),
		Color:       receiptColor(prize > 0),
	})
	return res, nil
}

// --- Варка зелий ---

// CheckBrewQuota проверяет квоту перед открытием лаборатории.
func (s *Service) CheckBrewQuota(ctx context.Context, userID int64) error {
	remaining, err := s.quota.Remaining(ctx, userID, ActivityBrew)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return common.ErrQuotaExceeded
	}
	return nil
}

// OpenBrew регистрирует сессию выбора ингредиентов.
func (s *Service) OpenBrew(messageID snowflake.ID, userID int64) {
	s.sessions.PutPotion(messageID, userID)
}

// SelectIngredients сохраняет выбор и возвращает его стоимость.
func (s *Service) SelectIngredients(messageID snowflake.ID, userID int64, keys []string) (int64, error) {
	return s.sessions.SelectIngredients(messageID, userID, keys)
}

// BeginBrew фиксирует выбор и списывает стоимость ингредиентов.
func (s *Service) BeginBrew(ctx context.Context, messageID snowflake.ID, userID int64) (cost, newBalance int64, err error) {
	sess, err := s.sessions.LockPotion(messageID, userID, MinPotionIngredients)
	if err != nil {
		return 0, 0, err
	}
	cost = sess.Cost()

	if err := s.wallet.Debit(ctx, userID, common.SystemID, cost, economy.TxTypeBrewCost, "Potion ingredients"); err != nil {
		s.sessions.UnlockPotion(messageID)
		return 0, 0, err
	}

	newBalance, berr := s.wallet.GetBalance(ctx, userID)
	if berr != nil {
		log.WithError(berr).Error("Ошибка получения баланса")
	}

	s.sendReceipt(ctx, userID, notify.Notice{
		UserID:      userID,
		Title:       "🧾 Potion ingredients",
		Description: fmt.Sprintf("Paid: -%d %s\nBalance: %d %s", cost, s.cfg.CurrencySymbol, newBalance, s.cfg.CurrencySymbol),
		Color:       notify.ColorDebit,
	})
	return cost, newBalance, nil
}

// BrewResult — итог варки.
type BrewResult struct {
	Cost       int64
	Tier       Tier
	Reward     int64
	NewBalance int64
	Remaining  int
}

// ResolveBrew разыгрывает качество зелья и выплачивает выручку.
// Квота тратится и на провал: котёл уже использован.
func (s *Service) ResolveBrew(ctx context.Context, messageID snowflake.ID, userID int64) (BrewResult, error) {
	sess, err := s.sessions.TakePotion(messageID, userID)
	if err != nil {
		return BrewResult{}, err
	}
	cost := sess.Cost()

	tier := s.draw(func(rng *rand.Rand) int { return int(DrawPotionTier(rng, cost)) })
	reward := PotionReward(Tier(tier), cost)

	if err := s.quota.Consume(ctx, userID, ActivityBrew); err != nil {
		log.WithError(err).WithField("user", userID).Error("Ошибка списания квоты варки")
	}
	if reward > 0 {
		if err := s.wallet.Credit(ctx, common.SystemID, userID, reward, economy.TxTypeBrewSold, fmt.Sprintf("Potion sold (%s)", Tier(tier))); err != nil {
			log.WithError(err).WithField("user", userID).Error("Ошибка выплаты за зелье")
		}
	}

	newBalance, berr := s.wallet.GetBalance(ctx, userID)
	if berr != nil {
		log.WithError(berr).Error("Ошибка получения баланса")
	}
	remaining, _ := s.quota.Remaining(ctx, userID, ActivityBrew)

	log.WithFields(log.Fields{
		"user":   userID,
		"cost":   cost,
		"tier":   Tier(tier).String(),
		"reward": reward,
	}).Info("Зелье сварено")

	if reward > 0 {
		s.sendReceipt(ctx, userID, notify.Notice{
			UserID:      userID,
			Title:       "💰 Potion sold",
			Description: fmt.Sprintf("Quality: %s\nReceived: +%d %s\nBalance: %d %s", Tier(tier), reward, s.cfg.CurrencySymbol, newBalance, s.cfg.CurrencySymbol),
			Color:       notify.ColorCredit,
		})
	}

	return BrewResult{
		Cost:       cost,
		Tier:       Tier(tier),
		Reward:     reward,
		NewBalance: newBalance,
		Remaining:  remaining,
	}, nil
}

// --- Чайные вечеринки ---

// HostParty списывает слот квоты хозяина перед открытием лобби.
func (s *Service) HostParty(ctx context.Context, hostID int64) error {
	return s.quota.Consume(ctx, hostID, ActivityTeaParty)
}

// RegisterLobby привязывает лобби к сообщению с кнопками.
func (s *Service) RegisterLobby(messageID snowflake.ID, sess *TeaSession) {
	s.sessions.PutTea(messageID, sess)
}

// JoinParty добавляет гостя в лобби.
func (s *Service) JoinParty(messageID snowflake.ID, userID int64) ([]int64, error) {
	return s.sessions.JoinTea(messageID, userID)
}

// CancelParty закрывает лобби и возвращает хозяину слот квоты.
func (s *Service) CancelParty(ctx context.Context, messageID snowflake.ID, hostID int64) error {
	if err := s.sessions.CancelTea(messageID, hostID); err != nil {
		return err
	}
	if err := s.quota.ReleaseLast(ctx, hostID, ActivityTeaParty); err != nil {
		log.WithError(err).WithField("user", hostID).Error("Ошибка возврата квоты")
	}
	return nil
}

// StartParty начинает первый раунд роллплея.
func (s *Service) StartParty(messageID snowflake.ID, hostID int64, topics [teaRounds]string) (*TeaSession, error) {
	return s.sessions.StartTea(messageID, hostID, topics)
}

// FinishParty выплачивает награды всем участникам.
func (s *Service) FinishParty(ctx context.Context, sess *TeaSession) {
	for _, userID := range sess.Participants {
		amount := s.cfg.TeaGuestReward
		if userID == sess.HostID {
			amount = s.cfg.TeaHostReward
		}
		if err := s.wallet.Credit(ctx, common.SystemID, userID, amount, economy.TxTypeTeaParty, "Tea party reward"); err != nil {
			log.WithError(err).WithField("user", userID).Error("Ошибка выплаты за чаепитие")
			continue
		}
		balance, _ := s.wallet.GetBalance(ctx, userID)
		s.sendReceipt(ctx, userID, notify.Notice{
			UserID:      userID,
			Title:       "☕ Tea party reward",
			Description: fmt.Sprintf("Received: +%d %s\nBalance: %d %s", amount, s.cfg.CurrencySymbol, balance, s.cfg.CurrencySymbol),
			Color:       notify.ColorCredit,
		})
	}

	log.WithFields(log.Fields{
		"host":         sess.HostID,
		"participants": len(sess.Participants),
	}).Info("Чаепитие завершено")
}

// SweepSessions выметает истёкшие сессии и возвращает квоту
// хозяевам несыгранных лобби.
func (s *Service) SweepSessions(ctx context.Context) int {
	expired := s.sessions.Sweep()
	for _, lobby := range expired {
		if err := s.quota.ReleaseLast(ctx, lobby.HostID, ActivityTeaParty); err != nil {
			log.WithError(err).WithField("user", lobby.HostID).Error("Ошибка возврата квоты за умершее лобби")
		}
	}
	return len(expired)
}

// draw выполняет розыгрыш под мьютексом: rand.Rand не потокобезопасен.
func (s *Service) draw(fn func(*rand.Rand) int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return fn(s.rng)
}

func (s *Service) sendReceipt(ctx context.Context, userID int64, n notify.Notice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.WithError(err).WithField("user", userID).Debug("Уведомление не доставлено")
	}
}

func receiptColor(win bool) int {
	if win {
		return notify.ColorCredit
	}
	return notify.ColorDebit
}
