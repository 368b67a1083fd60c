// Package sqlite управляет подключением к встроенной базе данных SQLite.
// Вся state бота живёт в одном файле, что упрощает деплой и бэкапы:
// достаточно скопировать файл базы.
//
// Используется драйвер modernc.org/sqlite (чистый Go, без cgo),
// поэтому сборка не требует установленного C-компилятора.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	log "github.com/sirupsen/logrus"

	// Регистрация драйвера "sqlite" в database/sql
	_ "modernc.org/sqlite"
)

// Open открывает (и при необходимости создаёт) файл базы данных.
//
// Параметры:
//   - ctx: контекст для отмены операции
//   - path: путь к файлу базы
//
// Возвращает:
//   - *sql.DB: готовое к использованию подключение
//   - error: ошибка, если база недоступна
//
// Пример:
//
//	db, err := sqlite.Open(ctx, cfg.DBPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
func Open(ctx context.Context, path string) (*sql.DB, error) {
	// WAL позволяет читать во время записи; busy_timeout даёт
	// конкурирующим транзакциям шанс дождаться своей очереди
	// вместо немедленной ошибки SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_pragma": []string{
			"journal_mode(WAL)",
			"busy_timeout(5000)",
			"foreign_keys(ON)",
			"synchronous(NORMAL)",
		},
	}.Encode())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы: %w", err)
	}

	// SQLite допускает только одного писателя; один коннект
	// избавляет от SQLITE_BUSY внутри самого процесса.
	db.SetMaxOpenConns(1)

	// Проверяем, что база доступна
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.WithField("path", path).Info("Подключение к SQLite установлено")
	return db, nil
}

// InitMigrations создаёт таблицу для отслеживания применённых миграций.
func InitMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	log.Info("Система миграций готова")
	return nil
}
