package inventory

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/db/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("открытие базы: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`
		CREATE TABLE shop_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL,
			stock INTEGER NOT NULL DEFAULT -1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE inventory (
			user_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, item_id)
		);
		CREATE TABLE active_displays (
			user_id INTEGER PRIMARY KEY,
			item_id INTEGER NOT NULL
		);
		INSERT INTO shop_items (id, name, price) VALUES (1, 'Rose Tiara', 40), (2, 'Rose Tea', 5);
		INSERT INTO inventory (user_id, item_id, quantity) VALUES (1, 1, 3), (1, 2, 1);
	`); err != nil {
		t.Fatalf("создание схемы: %v", err)
	}
	return db
}

func TestListReturnsOwnedItems(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	items, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("предметов = %d, ожидалось 2", len(items))
	}
	// Сортировка по названию: Rose Tea раньше Rose Tiara
	if items[0].Name != "Rose Tea" || items[1].Quantity != 3 {
		t.Errorf("инвентарь: %+v", items)
	}
}

func TestTransferMovesItems(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	if err := repo.Transfer(ctx, 1, 2, 1, 2); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	from, _ := repo.Quantity(ctx, 1, 1)
	to, _ := repo.Quantity(ctx, 2, 1)
	if from != 1 || to != 2 {
		t.Errorf("количества = %d/%d, ожидалось 1/2", from, to)
	}
}

func TestTransferNotEnoughItems(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	err := repo.Transfer(ctx, 1, 2, 1, 10)
	if !errors.Is(err, common.ErrNotEnoughItems) {
		t.Fatalf("ожидалась ErrNotEnoughItems, получено %v", err)
	}

	// Неудачная передача ничего не меняет
	from, _ := repo.Quantity(ctx, 1, 1)
	to, _ := repo.Quantity(ctx, 2, 1)
	if from != 3 || to != 0 {
		t.Errorf("количества = %d/%d, ожидалось 3/0", from, to)
	}
}

func TestDisplayRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	// Чужим предметом витрину не украсить
	err := repo.SetDisplay(ctx, 2, 1)
	if !errors.Is(err, common.ErrNotEnoughItems) {
		t.Fatalf("ожидалась ErrNotEnoughItems, получено %v", err)
	}

	if err := repo.SetDisplay(ctx, 1, 1); err != nil {
		t.Fatalf("SetDisplay: %v", err)
	}
	name, ok, err := repo.Display(ctx, 1)
	if err != nil || !ok || name != "Rose Tiara" {
		t.Errorf("витрина = %q ok=%v err=%v", name, ok, err)
	}

	if err := repo.ClearDisplay(ctx, 1); err != nil {
		t.Fatalf("ClearDisplay: %v", err)
	}
	_, ok, _ = repo.Display(ctx, 1)
	if ok {
		t.Error("витрина не очищена")
	}
}

func TestPurgeUser(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	if err := repo.SetDisplay(ctx, 1, 1); err != nil {
		t.Fatalf("SetDisplay: %v", err)
	}
	if err := repo.PurgeUser(ctx, 1); err != nil {
		t.Fatalf("PurgeUser: %v", err)
	}

	items, _ := repo.List(ctx, 1)
	if len(items) != 0 {
		t.Errorf("инвентарь не очищен: %+v", items)
	}
	_, ok, _ := repo.Display(ctx, 1)
	if ok {
		t.Error("витрина не очищена")
	}
}
