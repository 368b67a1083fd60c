// Package economy — repository.go выполняет все операции с таблицами royals и transactions.
// Каждое изменение баланса и соответствующая запись в журнал выполняются
// в одной транзакции БД: баланс без записи в журнале существовать не может.
package economy

import (
	"context"
	"database/sql"
	"fmt"

	"royalacademy.app/discord-bot/internal/common"
)

// Repository предоставляет методы для работы со счетами и транзакциями.
type Repository struct {
	db *sql.DB
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureAccount гарантирует, что у пользователя есть запись счёта.
// Если нет — создаёт с нулевым балансом.
func (r *Repository) EnsureAccount(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO royals (user_id, balance) VALUES (?, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}
	return nil
}

// GetBalance возвращает текущий баланс пользователя.
// Для пользователя без счёта возвращает 0: первый взгляд на кошелёк
// не должен требовать регистрации.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM royals WHERE user_id = ?`, userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// Credit начисляет Royals на счёт пользователя.
// Счёт создаётся автоматически, если его ещё нет.
//
// Параметры:
//   - fromID: источник средств (common.SystemID для системных начислений)
//   - userID: кому начислить
//   - amount: сколько (положительное число)
//   - txType: тип транзакции (GRANT, RP_REWARD, TEA_PARTY, ...)
//   - description: описание для журнала
func (r *Repository) Credit(ctx context.Context, fromID, userID, amount int64, txType, description string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if err := creditTx(ctx, tx, userID, amount); err != nil {
		return err
	}
	if err := logTx(ctx, tx, fromID, userID, amount, txType, description); err != nil {
		return err
	}

	return tx.Commit()
}

// Debit списывает Royals со счёта пользователя.
// Списание с уходом в минус запрещено: при нехватке средств
// возвращается common.ErrInsufficientFunds и баланс не меняется.
func (r *Repository) Debit(ctx context.Context, userID, toID, amount int64, txType, description string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	balance, err := balanceForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	if balance < amount {
		return common.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE royals SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, amount, userID); err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}
	if err := logTx(ctx, tx, userID, toID, amount, txType, description); err != nil {
		return err
	}

	return tx.Commit()
}

// ForceDebit списывает Royals без проверки достаточности средств.
// Единственное применение — отзыв уже выплаченной награды за удалённый
// ролевой пост: баланс при этом может стать отрицательным.
func (r *Repository) ForceDebit(ctx context.Context, userID, amount int64, txType, description string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO royals (user_id, balance) VALUES (?, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE royals SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, amount, userID); err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}
	if err := logTx(ctx, tx, userID, common.SystemID, amount, txType, description); err != nil {
		return err
	}

	return tx.Commit()
}

// Transfer переводит Royals от одного участника к другому.
// Атомарная операция: списание, начисление и запись в журнал
// происходят в одной транзакции БД, либо не происходят вовсе.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	balance, err := balanceForUpdate(ctx, tx, fromUserID)
	if err != nil {
		return err
	}
	if balance < amount {
		return common.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE royals SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, amount, fromUserID); err != nil {
		return fmt.Errorf("ошибка списания у отправителя: %w", err)
	}
	if err := creditTx(ctx, tx, toUserID, amount); err != nil {
		return fmt.Errorf("ошибка начисления получателю: %w", err)
	}
	if err := logTx(ctx, tx, fromUserID, toUserID, amount, TxTypeTransfer, description); err != nil {
		return err
	}

	return tx.Commit()
}

// Wipe обнуляет счёт пользователя и записывает в журнал, сколько сгорело.
// Возвращает баланс на момент обнуления.
func (r *Repository) Wipe(ctx context.Context, staffID, userID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	balance, err := balanceForUpdate(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE royals SET balance = 0, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, userID); err != nil {
		return 0, fmt.Errorf("ошибка обнуления: %w", err)
	}
	if err := logTx(ctx, tx, userID, staffID, balance,
		TxTypeWipe, fmt.Sprintf("Balance wipe (%d burned)", balance)); err != nil {
		return 0, err
	}

	return balance, tx.Commit()
}

// GetTransactions возвращает последние N транзакций пользователя.
// Включает как входящие, так и исходящие операции.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_user_id, to_user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE from_user_id = ? OR to_user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.FromUserID, &t.ToUserID,
			&t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

// PurgeUser удаляет счёт и журнал транзакций пользователя.
// Вызывается при выходе участника с сервера.
func (r *Repository) PurgeUser(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE from_user_id = ? OR to_user_id = ?`, userID, userID); err != nil {
		return fmt.Errorf("ошибка удаления транзакций: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM royals WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка удаления счёта: %w", err)
	}

	return tx.Commit()
}

// balanceForUpdate читает баланс внутри открытой транзакции.
// Возвращает common.ErrUserNotFound, если счёта нет.
func balanceForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	var balance int64
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM royals WHERE user_id = ?`, userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, common.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// creditTx начисляет сумму на счёт внутри открытой транзакции,
// создавая счёт при необходимости.
func creditTx(ctx context.Context, tx *sql.Tx, userID, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO royals (user_id, balance) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = balance + excluded.balance,
			updated_at = CURRENT_TIMESTAMP
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления: %w", err)
	}
	return nil
}

// logTx записывает операцию в журнал внутри открытой транзакции.
func logTx(ctx context.Context, tx *sql.Tx, fromID, toID, amount int64, txType, description string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (from_user_id, to_user_id, amount, transaction_type, description)
		VALUES (?, ?, ?, ?, ?)
	`, fromID, toID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}
