// Package roles ведёт приём в академию: анкеты участников,
// их рассмотрение стаффом и выдачу факультетских ролей.
// repository.go выполняет операции с таблицей applications.
package roles

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"royalacademy.app/discord-bot/internal/common"
)

// Application — анкета участника на вступление.
type Application struct {
	UserID      int64     `db:"user_id"`
	Text        string    `db:"application_text"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// Repository предоставляет методы для работы с анкетами.
type Repository struct {
	db *sql.DB
}

// NewRepository создаёт репозиторий анкет.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create сохраняет анкету. Повторная подача — common.ErrApplicationExists.
func (r *Repository) Create(ctx context.Context, userID int64, text string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE user_id = ?)`, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки анкеты: %w", err)
	}
	if exists {
		return common.ErrApplicationExists
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO applications (user_id, application_text) VALUES (?, ?)`,
		userID, text)
	if err != nil {
		return fmt.Errorf("ошибка сохранения анкеты: %w", err)
	}
	return nil
}

// Get возвращает анкету участника.
func (r *Repository) Get(ctx context.Context, userID int64) (Application, error) {
	var a Application
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, application_text, submitted_at FROM applications WHERE user_id = ?`,
		userID).Scan(&a.UserID, &a.Text, &a.SubmittedAt)
	if err == sql.ErrNoRows {
		return Application{}, common.ErrItemNotFound
	}
	if err != nil {
		return Application{}, fmt.Errorf("ошибка получения анкеты: %w", err)
	}
	return a, nil
}

// Delete удаляет анкету после рассмотрения.
func (r *Repository) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM applications WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления анкеты: %w", err)
	}
	return nil
}

// PurgeUser удаляет анкету вышедшего участника.
func (r *Repository) PurgeUser(ctx context.Context, userID int64) error {
	return r.Delete(ctx, userID)
}
