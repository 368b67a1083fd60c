// Package shop — service.go содержит бизнес-логику магазина.
package shop

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/notify"
)

// Service управляет магазином предметов.
type Service struct {
	repo     *Repository
	notifier notify.Notifier
	symbol   string
}

// NewService создаёт сервис магазина.
func NewService(repo *Repository, notifier notify.Notifier, currencySymbol string) *Service {
	return &Service{repo: repo, notifier: notifier, symbol: currencySymbol}
}

// Shops возвращает названия витрин, на которых есть товары.
func (s *Service) Shops(ctx context.Context) ([]string, error) {
	return s.repo.Shops(ctx)
}

// ItemsByShop возвращает товары одной витрины.
func (s *Service) ItemsByShop(ctx context.Context, shopName string) ([]Item, error) {
	return s.repo.ItemsByShop(ctx, strings.TrimSpace(shopName))
}

// ItemByName ищет товар по точному названию.
func (s *Service) ItemByName(ctx context.Context, name string) (Item, error) {
	return s.repo.ItemByName(ctx, strings.TrimSpace(name))
}

// AddItem добавляет товар на витрину shopName.
// stock = UnlimitedStock означает неограниченный запас.
func (s *Service) AddItem(ctx context.Context, name, shopName, description, imageURL string, price, stock int64) (int64, error) {
	name = strings.TrimSpace(name)
	shopName = strings.TrimSpace(shopName)
	if name == "" || shopName == "" || price <= 0 || stock < UnlimitedStock {
		return 0, common.ErrInvalidAmount
	}

	id, err := s.repo.CreateItem(ctx, name, shopName, description, strings.TrimSpace(imageURL), price, stock)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"item":  name,
		"shop":  shopName,
		"price": price,
		"stock": stock,
	}).Info("Товар добавлен в магазин")
	return id, nil
}

// EditItem обновляет описание, картинку, цену и остаток товара.
func (s *Service) EditItem(ctx context.Context, itemID int64, description, imageURL string, price, stock int64) error {
	if price <= 0 || stock < UnlimitedStock {
		return common.ErrInvalidAmount
	}
	return s.repo.UpdateItem(ctx, itemID, description, strings.TrimSpace(imageURL), price, stock)
}

// RemoveItem снимает товар с продажи вместе с его экземплярами
// в инвентарях участников.
func (s *Service) RemoveItem(ctx context.Context, itemID int64) error {
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	log.WithField("item_id", itemID).Info("Товар снят с продажи")
	return nil
}

// Purchase проводит покупку и уведомляет покупателя.
func (s *Service) Purchase(ctx context.Context, buyerID, itemID, quantity int64) (Item, error) {
	item, err := s.repo.Purchase(ctx, buyerID, itemID, quantity)
	if err != nil {
		return Item{}, err
	}

	log.WithFields(log.Fields{
		"buyer":    buyerID,
		"item":     item.Name,
		"quantity": quantity,
	}).Info("Покупка совершена")

	if s.notifier != nil {
		notice := notify.Notice{
			UserID: buyerID,
			Title:  "Purchase complete",
			Description: fmt.Sprintf("You bought **%s** x%d for **%s %s**.",
				item.Name, quantity, common.FormatNumber(item.Price*quantity), s.symbol),
			Color: notify.ColorDebit,
		}
		if err := s.notifier.Notify(ctx, notice); err != nil {
			log.WithError(err).Debug("Не удалось доставить уведомление о покупке")
		}
	}
	return item, nil
}

// Sales возвращает последние продажи для стаффа.
func (s *Service) Sales(ctx context.Context, limit int) ([]Sale, error) {
	return s.repo.Sales(ctx, limit)
}

// PurgeUser удаляет историю покупок вышедшего участника.
func (s *Service) PurgeUser(ctx context.Context, userID int64) error {
	return s.repo.PurgeUser(ctx, userID)
}
