// Package profile — repository.go выполняет операции с таблицей profiles.
package profile

import (
	"context"
	"database/sql"
	"fmt"

	"royalacademy.app/discord-bot/internal/common"
)

// Repository предоставляет методы для работы с профилями.
type Repository struct {
	db *sql.DB
}

// NewRepository создаёт репозиторий профилей.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новый профиль.
// Если профиль уже существует — возвращает common.ErrProfileExists.
func (r *Repository) Create(ctx context.Context, p Profile) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = ?)`, p.UserID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки профиля: %w", err)
	}
	if exists {
		return common.ErrProfileExists
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (
			user_id, name, grade, faceclaim, image_url, id_card_url, affiliation,
			bio_thread_id, wallet_thread_id, inventory_thread_id, trading_thread_id, desk_thread_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.UserID, p.Name, p.Grade, p.Faceclaim, p.ImageURL, p.IDCardURL, p.Affiliation,
		p.BioThreadID, p.WalletThreadID, p.InventoryThreadID, p.TradingThreadID, p.DeskThreadID)
	if err != nil {
		return fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return nil
}

// Get возвращает профиль участника.
// Если профиля нет — common.ErrProfileNotFound.
func (r *Repository) Get(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, name, grade, faceclaim, image_url, id_card_url, affiliation,
			bio_thread_id, wallet_thread_id, inventory_thread_id, trading_thread_id, desk_thread_id,
			created_at
		FROM profiles WHERE user_id = ?
	`, userID).Scan(
		&p.UserID, &p.Name, &p.Grade, &p.Faceclaim, &p.ImageURL, &p.IDCardURL, &p.Affiliation,
		&p.BioThreadID, &p.WalletThreadID, &p.InventoryThreadID, &p.TradingThreadID, &p.DeskThreadID,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return Profile{}, common.ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("ошибка получения профиля: %w", err)
	}
	return p, nil
}

// SetIDCard сохраняет URL карточки студента.
func (r *Repository) SetIDCard(ctx context.Context, userID int64, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET id_card_url = ? WHERE user_id = ?`, url, userID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения карточки: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrProfileNotFound
	}
	return nil
}

// Delete удаляет профиль. Возвращает удалённый профиль,
// чтобы вызывающий мог убрать треды.
func (r *Repository) Delete(ctx context.Context, userID int64) (Profile, error) {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return Profile{}, fmt.Errorf("ошибка удаления профиля: %w", err)
	}
	return p, nil
}
