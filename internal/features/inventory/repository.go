// Package inventory хранит предметы участников, купленные в магазине.
// repository.go работает с таблицами inventory и active_displays.
package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"royalacademy.app/discord-bot/internal/common"
)

// Item — позиция инвентаря участника.
type Item struct {
	ItemID   int64  `db:"item_id"`
	Name     string `db:"name"`
	Quantity int64  `db:"quantity"`
}

// Repository предоставляет методы для работы с инвентарём.
type Repository struct {
	db *sql.DB
}

// NewRepository создаёт репозиторий инвентаря.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// List возвращает инвентарь участника с названиями предметов.
func (r *Repository) List(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.item_id, s.name, i.quantity
		FROM inventory i
		JOIN shop_items s ON s.id = i.item_id
		WHERE i.user_id = ? AND i.quantity > 0
		ORDER BY s.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Quantity); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Quantity возвращает количество предмета у участника.
func (r *Repository) Quantity(ctx context.Context, userID, itemID int64) (int64, error) {
	var quantity int64
	err := r.db.QueryRowContext(ctx, `
		SELECT quantity FROM inventory WHERE user_id = ? AND item_id = ?
	`, userID, itemID).Scan(&quantity)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения количества: %w", err)
	}
	return quantity, nil
}

// Transfer передаёт предметы между участниками.
// Атомарная операция: списание у отправителя и зачисление получателю
// происходят в одной транзакции БД.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID, itemID, quantity int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	var have int64
	err = tx.QueryRowContext(ctx, `
		SELECT quantity FROM inventory WHERE user_id = ? AND item_id = ?
	`, fromUserID, itemID).Scan(&have)
	if err == sql.ErrNoRows || (err == nil && have < quantity) {
		return common.ErrNotEnoughItems
	}
	if err != nil {
		return fmt.Errorf("ошибка проверки инвентаря: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE inventory SET quantity = quantity - ?
		WHERE user_id = ? AND item_id = ?
	`, quantity, fromUserID, itemID); err != nil {
		return fmt.Errorf("ошибка списания предмета: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory (user_id, item_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = quantity + excluded.quantity
	`, toUserID, itemID, quantity); err != nil {
		return fmt.Errorf("ошибка зачисления предмета: %w", err)
	}

	return tx.Commit()
}

// SetDisplay выставляет предмет на витрину профиля.
// Предмет должен быть в инвентаре участника.
func (r *Repository) SetDisplay(ctx context.Context, userID, itemID int64) error {
	quantity, err := r.Quantity(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return common.ErrNotEnoughItems
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO active_displays (user_id, item_id) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET item_id = excluded.item_id
	`, userID, itemID)
	if err != nil {
		return fmt.Errorf("ошибка установки витрины: %w", err)
	}
	return nil
}

// Display возвращает название предмета на витрине участника.
// ok=false — витрина пуста.
func (r *Repository) Display(ctx context.Context, userID int64) (string, bool, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `
		SELECT s.name FROM active_displays d
		JOIN shop_items s ON s.id = d.item_id
		WHERE d.user_id = ?
	`, userID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ошибка получения витрины: %w", err)
	}
	return name, true, nil
}

// ClearDisplay убирает предмет с витрины.
func (r *Repository) ClearDisplay(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM active_displays WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("ошибка очистки витрины: %w", err)
	}
	return nil
}

// PurgeUser удаляет инвентарь и витрину участника.
func (r *Repository) PurgeUser(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка удаления инвентаря: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM active_displays WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка удаления витрины: %w", err)
	}

	return tx.Commit()
}
