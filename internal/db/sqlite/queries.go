// Package sqlite — вспомогательные функции для работы с БД.
// queries.go содержит общие утилиты для выполнения запросов.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// ExecMigrationSQL выполняет один SQL-запрос миграции в транзакции.
// Если запрос упадёт — транзакция откатится автоматически.
// Повторное применение той же версии — no-op.
//
// Параметры:
//   - ctx: контекст
//   - db: подключение к базе
//   - version: номер миграции (для записи в schema_migrations)
//   - query: SQL-код миграции
func ExecMigrationSQL(ctx context.Context, db *sql.DB, version int, query string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback()

	// Проверяем, не была ли эта миграция уже применена
	var exists bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		// Миграция уже применена — пропускаем
		return nil
	}

	// Выполняем SQL миграции
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	// Записываем версию миграции
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version) VALUES (?)", version,
	); err != nil {
		return fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	// Фиксируем транзакцию
	return tx.Commit()
}
