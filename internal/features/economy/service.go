// Package economy — service.go содержит бизнес-логику экономики.
// Валидация сумм, переводы, выдачи и изъятия стаффом, история операций.
package economy

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/notify"
)

// Service управляет экономикой сервера (Royals).
type Service struct {
	repo     *Repository
	notifier notify.Notifier
	symbol   string // Символ валюты для уведомлений
}

// NewService создаёт новый сервис экономики.
// notifier может быть nil: тогда уведомления не отправляются.
func NewService(repo *Repository, notifier notify.Notifier, currencySymbol string) *Service {
	return &Service{repo: repo, notifier: notifier, symbol: currencySymbol}
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Grant выдаёт Royals от имени стаффа.
func (s *Service) Grant(ctx context.Context, staffID, userID, amount int64, reason string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.Credit(ctx, staffID, userID, amount, TxTypeGrant, reason); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"staff":  staffID,
		"user":   userID,
		"amount": amount,
	}).Info("Royals выданы")

	s.send(ctx, notify.Notice{
		UserID:      userID,
		Title:       "Royals received",
		Description: fmt.Sprintf("You received **%s %s**.\nReason: %s", common.FormatNumber(amount), s.symbol, reason),
		Color:       notify.ColorCredit,
	})
	return nil
}

// Take изымает Royals от имени стаффа.
// При нехватке средств возвращает common.ErrInsufficientFunds.
func (s *Service) Take(ctx context.Context, staffID, userID, amount int64, reason string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.Debit(ctx, userID, staffID, amount, TxTypeTake, reason); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"staff":  staffID,
		"user":   userID,
		"amount": amount,
	}).Info("Royals изъяты")

	s.send(ctx, notify.Notice{
		UserID:      userID,
		Title:       "Royals deducted",
		Description: fmt.Sprintf("**%s %s** were deducted from your balance.\nReason: %s", common.FormatNumber(amount), s.symbol, reason),
		Color:       notify.ColorDebit,
	})
	return nil
}

// Transfer переводит Royals между участниками.
// Выполняет все необходимые проверки:
//   - нельзя переводить себе
//   - сумма должна быть положительной
//   - у отправителя должно хватать средств
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	if fromUserID == toUserID {
		return common.ErrSelfTransfer
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	description := fmt.Sprintf("Transfer of %d %s", amount, s.symbol)
	if err := s.repo.Transfer(ctx, fromUserID, toUserID, amount, description); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     toUserID,
		"amount": amount,
	}).Info("Перевод выполнен")

	s.send(ctx, notify.Notice{
		UserID:      toUserID,
		Title:       "Transfer received",
		Description: fmt.Sprintf("<@%d> sent you **%s %s**.", fromUserID, common.FormatNumber(amount), s.symbol),
		Color:       notify.ColorCredit,
	})
	return nil
}

// Wipe обнуляет счёт пользователя. Возвращает сгоревшую сумму.
func (s *Service) Wipe(ctx context.Context, staffID, userID int64) (int64, error) {
	burned, err := s.repo.Wipe(ctx, staffID, userID)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"staff":  staffID,
		"user":   userID,
		"burned": burned,
	}).Warn("Счёт обнулён")

	return burned, nil
}

// Credit начисляет Royals от имени системы или другого источника.
// Используется другими сервисами: наградами за посты, активностями, чаепитиями.
func (s *Service) Credit(ctx context.Context, fromID, userID, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.Credit(ctx, fromID, userID, amount, txType, description)
}

// Debit списывает Royals в пользу системы (взносы активностей, покупки).
func (s *Service) Debit(ctx context.Context, userID, toID, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.Debit(ctx, userID, toID, amount, txType, description)
}

// ForceDebit списывает Royals без проверки баланса (отзыв наград).
func (s *Service) ForceDebit(ctx context.Context, userID, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.ForceDebit(ctx, userID, amount, txType, description)
}

// GetTransactions возвращает последние операции пользователя.
func (s *Service) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	return s.repo.GetTransactions(ctx, userID, limit)
}

// PurgeUser удаляет все данные экономики участника.
func (s *Service) PurgeUser(ctx context.Context, userID int64) error {
	return s.repo.PurgeUser(ctx, userID)
}

// send отправляет уведомление best-effort: операция уже зафиксирована,
// неудачная доставка её не отменяет.
func (s *Service) send(ctx context.Context, n notify.Notice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.WithError(err).WithField("user_id", n.UserID).
			Debug("Не удалось доставить уведомление")
	}
}
