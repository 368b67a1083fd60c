// Package rpreward начисляет Royals за ролевые посты в отслеживаемых каналах.
// repository.go ведёт таблицу rp_rewards: одна запись на каждое
// вознаграждённое сообщение, ключ — ID сообщения.
package rpreward

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Reward представляет выплаченную награду за пост.
type Reward struct {
	MessageID int64     `db:"message_id"` // ID сообщения Discord
	UserID    int64     `db:"user_id"`    // Автор поста
	ChannelID int64     `db:"channel_id"` // Канал (для тредов — родительский)
	Amount    int64     `db:"amount"`     // Выплачено Royals
	CreatedAt time.Time `db:"created_at"`
}

// Stats — агрегированная статистика наград пользователя.
type Stats struct {
	Posts  int64 // Вознаграждённых постов
	Earned int64 // Всего заработано Royals
}

// LeaderboardEntry — строка таблицы лидеров.
type LeaderboardEntry struct {
	UserID int64
	Stats
}

// Repository предоставляет методы для работы с таблицей rp_rewards.
type Repository struct {
	db *sql.DB
}

// NewRepository создаёт репозиторий наград за посты.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record сохраняет выплаченную награду.
func (r *Repository) Record(ctx context.Context, reward Reward) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rp_rewards (message_id, user_id, channel_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, reward.MessageID, reward.UserID, reward.ChannelID, reward.Amount, reward.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи награды: %w", err)
	}
	return nil
}

// Find возвращает запись о награде за сообщение.
// ok=false означает, что сообщение награды не получало.
func (r *Repository) Find(ctx context.Context, messageID int64) (Reward, bool, error) {
	var reward Reward
	err := r.db.QueryRowContext(ctx, `
		SELECT message_id, user_id, channel_id, amount, created_at
		FROM rp_rewards WHERE message_id = ?
	`, messageID).Scan(&reward.MessageID, &reward.UserID, &reward.ChannelID, &reward.Amount, &reward.CreatedAt)
	if err == sql.ErrNoRows {
		return Reward{}, false, nil
	}
	if err != nil {
		return Reward{}, false, fmt.Errorf("ошибка поиска награды: %w", err)
	}
	return reward, true, nil
}

// Delete удаляет запись о награде.
func (r *Repository) Delete(ctx context.Context, messageID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM rp_rewards WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("ошибка удаления награды: %w", err)
	}
	return nil
}

// StatsSince возвращает статистику пользователя с указанного момента.
// Нулевое since — статистика за всё время.
func (r *Repository) StatsSince(ctx context.Context, userID int64, since time.Time) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM rp_rewards WHERE user_id = ? AND created_at >= ?
	`, userID, since).Scan(&s.Posts, &s.Earned)
	if err != nil {
		return Stats{}, fmt.Errorf("ошибка подсчёта статистики: %w", err)
	}
	return s, nil
}

// Leaderboard возвращает top-N участников по заработанному за период.
func (r *Repository) Leaderboard(ctx context.Context, since time.Time, limit int) ([]LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*), COALESCE(SUM(amount), 0)
		FROM rp_rewards
		WHERE created_at >= ?
		GROUP BY user_id
		ORDER BY SUM(amount) DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения таблицы лидеров: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Posts, &e.Earned); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeUser удаляет все записи о наградах участника.
func (r *Repository) PurgeUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rp_rewards WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления наград: %w", err)
	}
	return nil
}
