// Package shop — repository.go выполняет операции с таблицами
// shop_items и sales_history. Покупка проводится одной транзакцией БД:
// списание Royals, уменьшение запаса, зачисление в инвентарь и запись
// в историю продаж происходят все вместе либо не происходят вовсе.
package shop

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/features/economy"
)

// Repository предоставляет методы для работы с магазином.
type Repository struct {
	db *sql.DB
}

// NewRepository создаёт репозиторий магазина.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateItem добавляет товар. Название должно быть уникальным
// среди всех витрин сразу.
func (r *Repository) CreateItem(ctx context.Context, name, shopName, description, imageURL string, price, stock int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO shop_items (name, shop_name, description, image_url, price, stock)
		VALUES (?, ?, ?, ?, ?, ?)
	`, name, shopName, description, imageURL, price, stock)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, common.ErrItemExists
		}
		return 0, fmt.Errorf("ошибка создания товара: %w", err)
	}
	return res.LastInsertId()
}

// UpdateItem меняет описание, картинку, цену и остаток товара.
func (r *Repository) UpdateItem(ctx context.Context, itemID int64, description, imageURL string, price, stock int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shop_items SET description = ?, image_url = ?, price = ?, stock = ? WHERE id = ?
	`, description, imageURL, price, stock, itemID)
	if err != nil {
		return fmt.Errorf("ошибка обновления товара: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrItemNotFound
	}
	return nil
}

// DeleteItem снимает товар с продажи одной транзакцией: вместе с товаром
// удаляются его экземпляры из инвентарей и выставленные витрины профилей.
// История продаж не затрагивается, она хранит собственную копию названия.
func (r *Repository) DeleteItem(ctx context.Context, itemID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM shop_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("ошибка удаления товара: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrItemNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("ошибка очистки инвентарей: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM active_displays WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("ошибка очистки витрин профилей: %w", err)
	}

	return tx.Commit()
}

// Shops возвращает названия витрин, на которых есть товары.
func (r *Repository) Shops(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT shop_name FROM shop_items ORDER BY shop_name
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения витрин: %w", err)
	}
	defer rows.Close()

	var shops []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования витрины: %w", err)
		}
		shops = append(shops, name)
	}
	return shops, rows.Err()
}

// ItemsByShop возвращает товары одной витрины.
func (r *Repository) ItemsByShop(ctx context.Context, shopName string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, shop_name, description, image_url, price, stock, created_at
		FROM shop_items WHERE shop_name = ? ORDER BY price, name
	`, shopName)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товаров: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.ShopName, &item.Description, &item.ImageURL, &item.Price, &item.Stock, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemByID возвращает товар по ID.
func (r *Repository) ItemByID(ctx context.Context, itemID int64) (Item, error) {
	var item Item
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, shop_name, description, image_url, price, stock, created_at
		FROM shop_items WHERE id = ?
	`, itemID).Scan(&item.ID, &item.Name, &item.ShopName, &item.Description, &item.ImageURL, &item.Price, &item.Stock, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return Item{}, common.ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("ошибка поиска товара: %w", err)
	}
	return item, nil
}

// ItemByName возвращает товар по точному названию.
func (r *Repository) ItemByName(ctx context.Context, name string) (Item, error) {
	var item Item
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, shop_name, description, image_url, price, stock, created_at
		FROM shop_items WHERE name = ?
	`, name).Scan(&item.ID, &item.Name, &item.ShopName, &item.Description, &item.ImageURL, &item.Price, &item.Stock, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return Item{}, common.ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("ошибка поиска товара: %w", err)
	}
	return item, nil
}

// Purchase проводит покупку товара участником.
// Вся покупка — одна транзакция БД: при любой ошибке не происходит ничего.
// Возможные ошибки: common.ErrItemNotFound, common.ErrOutOfStock,
// common.ErrInsufficientFunds.
func (r *Repository) Purchase(ctx context.Context, buyerID, itemID, quantity int64) (Item, error) {
	if quantity <= 0 {
		return Item{}, common.ErrInvalidAmount
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	var item Item
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, shop_name, description, image_url, price, stock
		FROM shop_items WHERE id = ?
	`, itemID).Scan(&item.ID, &item.Name, &item.ShopName, &item.Description, &item.ImageURL, &item.Price, &item.Stock)
	if err == sql.ErrNoRows {
		return Item{}, common.ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("ошибка поиска товара: %w", err)
	}

	if item.Stock != UnlimitedStock && item.Stock < quantity {
		return Item{}, common.ErrOutOfStock
	}

	total := item.Price * quantity

	// Списание Royals с проверкой баланса
	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM royals WHERE user_id = ?`, buyerID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return Item{}, common.ErrInsufficientFunds
	}
	if err != nil {
		return Item{}, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if balance < total {
		return Item{}, common.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE royals SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, total, buyerID); err != nil {
		return Item{}, fmt.Errorf("ошибка списания: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (from_user_id, to_user_id, amount, transaction_type, description)
		VALUES (?, ?, ?, ?, ?)
	`, buyerID, common.SystemID, total, economy.TxTypeShopPurchase,
		fmt.Sprintf("Purchase: %s x%d", item.Name, quantity)); err != nil {
		return Item{}, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	// Уменьшение запаса
	if item.Stock != UnlimitedStock {
		if _, err := tx.ExecContext(ctx, `
			UPDATE shop_items SET stock = stock - ? WHERE id = ?
		`, quantity, itemID); err != nil {
			return Item{}, fmt.Errorf("ошибка уменьшения запаса: %w", err)
		}
	}

	// Зачисление в инвентарь
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory (user_id, item_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = quantity + excluded.quantity
	`, buyerID, itemID, quantity); err != nil {
		return Item{}, fmt.Errorf("ошибка зачисления в инвентарь: %w", err)
	}

	// Запись в историю продаж
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales_history (item_id, item_name, buyer_id, price, quantity)
		VALUES (?, ?, ?, ?, ?)
	`, itemID, item.Name, buyerID, item.Price, quantity); err != nil {
		return Item{}, fmt.Errorf("ошибка записи продажи: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Sales возвращает последние N продаж.
func (r *Repository) Sales(ctx context.Context, limit int) ([]Sale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item_id, item_name, buyer_id, price, quantity, created_at
		FROM sales_history ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории продаж: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.ItemID, &sale.ItemName, &sale.BuyerID, &sale.Price, &sale.Quantity, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования продажи: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// PurgeUser удаляет историю покупок вышедшего участника.
func (r *Repository) PurgeUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sales_history WHERE buyer_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка очистки истории покупок: %w", err)
	}
	return nil
}
