// Package quota ведёт недельные лимиты платных активностей.
//
// Неделя считается от понедельника 00:00 UTC. Лимиты задаются таблицей
// «активность -> число использований» из конфигурации: новая активность
// добавляется строчкой в конфиге, без изменения этого пакета.
package quota

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/common"
)

// Service учитывает использование активностей и следит за лимитами.
type Service struct {
	db     *sql.DB
	limits map[string]int

	// now подменяется в тестах для контроля границы недели
	now func() time.Time
}

// NewService создаёт сервис квот с лимитами из конфигурации.
func NewService(db *sql.DB, limits map[string]int) *Service {
	return &Service{db: db, limits: limits, now: time.Now}
}

// Limit возвращает недельный лимит активности. 0 — активность не лимитируется.
func (s *Service) Limit(activity string) int {
	return s.limits[activity]
}

// Used возвращает, сколько раз пользователь использовал активность
// с начала текущей недели.
func (s *Service) Used(ctx context.Context, userID int64, activity string) (int, error) {
	weekStart := common.WeekStartUTC(s.now())

	var used int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_logs
		WHERE user_id = ? AND activity = ? AND created_at >= ?
	`, userID, activity, weekStart).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта использований: %w", err)
	}
	return used, nil
}

// Remaining возвращает, сколько использований осталось на этой неделе.
func (s *Service) Remaining(ctx context.Context, userID int64, activity string) (int, error) {
	limit, ok := s.limits[activity]
	if !ok {
		return 0, fmt.Errorf("неизвестная активность %q", activity)
	}

	used, err := s.Used(ctx, userID, activity)
	if err != nil {
		return 0, err
	}
	if used >= limit {
		return 0, nil
	}
	return limit - used, nil
}

// Consume записывает одно использование активности.
// Если недельный лимит исчерпан — возвращает common.ErrQuotaExceeded
// и ничего не записывает.
func (s *Service) Consume(ctx context.Context, userID int64, activity string) error {
	remaining, err := s.Remaining(ctx, userID, activity)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return common.ErrQuotaExceeded
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, activity, created_at) VALUES (?, ?, ?)
	`, userID, activity, s.now().UTC())
	if err != nil {
		return fmt.Errorf("ошибка записи использования: %w", err)
	}

	log.WithFields(log.Fields{
		"user":     userID,
		"activity": activity,
	}).Debug("Использование активности записано")
	return nil
}

// ReleaseLast снимает последнее использование активности на этой неделе.
// Вызывается, когда активность сорвалась не по вине участника
// (лобби чаепития распущено по таймауту).
func (s *Service) ReleaseLast(ctx context.Context, userID int64, activity string) error {
	weekStart := common.WeekStartUTC(s.now())

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM activity_logs WHERE id = (
			SELECT id FROM activity_logs
			WHERE user_id = ? AND activity = ? AND created_at >= ?
			ORDER BY id DESC LIMIT 1
		)
	`, userID, activity, weekStart)
	if err != nil {
		return fmt.Errorf("ошибка снятия использования: %w", err)
	}
	return nil
}

// ResetUser сбрасывает ВСЕ использования активности пользователя
// на текущей неделе. Команда стаффа.
func (s *Service) ResetUser(ctx context.Context, userID int64, activity string) (int64, error) {
	weekStart := common.WeekStartUTC(s.now())

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM activity_logs
		WHERE user_id = ? AND activity = ? AND created_at >= ?
	`, userID, activity, weekStart)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса квоты: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"user":     userID,
		"activity": activity,
		"removed":  removed,
	}).Info("Квота сброшена стаффом")
	return removed, nil
}

// ResetUserAll сбрасывает использования ВСЕХ активностей пользователя
// на текущей неделе. Команда стаффа без указания активности.
func (s *Service) ResetUserAll(ctx context.Context, userID int64) (int64, error) {
	weekStart := common.WeekStartUTC(s.now())

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM activity_logs
		WHERE user_id = ? AND created_at >= ?
	`, userID, weekStart)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса квот: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"user":    userID,
		"removed": removed,
	}).Info("Все квоты сброшены стаффом")
	return removed, nil
}

// PurgeUser удаляет весь журнал активностей участника.
func (s *Service) PurgeUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления журнала активностей: %w", err)
	}
	return nil
}
