package profile

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"royalacademy.app/discord-bot/internal/common"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("открытие базы: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE profiles (
			user_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			grade TEXT NOT NULL,
			faceclaim TEXT NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			id_card_url TEXT NOT NULL DEFAULT '',
			affiliation TEXT NOT NULL,
			bio_thread_id INTEGER NOT NULL DEFAULT 0,
			wallet_thread_id INTEGER NOT NULL DEFAULT 0,
			inventory_thread_id INTEGER NOT NULL DEFAULT 0,
			trading_thread_id INTEGER NOT NULL DEFAULT 0,
			desk_thread_id INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		t.Fatalf("создание схемы: %v", err)
	}
	return db
}

func testProfile(userID int64) Profile {
	return Profile{
		UserID:            userID,
		Name:              "Elizabeth Ashford",
		Grade:             "Second year",
		Faceclaim:         "Anna Karenina",
		ImageURL:          "https://example.com/liz.png",
		Affiliation:       "ourea",
		BioThreadID:       101,
		WalletThreadID:    102,
		InventoryThreadID: 103,
		TradingThreadID:   104,
		DeskThreadID:      105,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testProfile(1)); err != nil {
		t.Fatalf("создание профиля: %v", err)
	}

	p, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("получение профиля: %v", err)
	}
	if p.Name != "Elizabeth Ashford" || p.Affiliation != "ourea" {
		t.Errorf("неожиданный профиль: %+v", p)
	}
	want := []int64{101, 102, 103, 104, 105}
	got := p.ThreadIDs()
	if len(got) != len(want) {
		t.Fatalf("неожиданные треды: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("тред %d: ожидался %d, получен %d", i, want[i], got[i])
		}
	}
	if p.CreatedAt.IsZero() {
		t.Error("ожидалась дата создания")
	}
}

func TestCreateDuplicate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testProfile(1)); err != nil {
		t.Fatalf("создание профиля: %v", err)
	}
	if err := repo.Create(ctx, testProfile(1)); !errors.Is(err, common.ErrProfileExists) {
		t.Errorf("ожидалась ErrProfileExists, получено %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	if _, err := repo.Get(context.Background(), 42); !errors.Is(err, common.ErrProfileNotFound) {
		t.Errorf("ожидалась ErrProfileNotFound, получено %v", err)
	}
}

func TestSetIDCard(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.SetIDCard(ctx, 1, "https://example.com/card.png"); !errors.Is(err, common.ErrProfileNotFound) {
		t.Errorf("ожидалась ErrProfileNotFound, получено %v", err)
	}

	if err := repo.Create(ctx, testProfile(1)); err != nil {
		t.Fatalf("создание профиля: %v", err)
	}
	if err := repo.SetIDCard(ctx, 1, "https://example.com/card.png"); err != nil {
		t.Fatalf("сохранение карточки: %v", err)
	}

	p, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("получение профиля: %v", err)
	}
	if p.IDCardURL != "https://example.com/card.png" {
		t.Errorf("карточка не сохранилась: %q", p.IDCardURL)
	}

	if err := repo.SetIDCard(ctx, 1, ""); err != nil {
		t.Fatalf("очистка карточки: %v", err)
	}
	p, _ = repo.Get(ctx, 1)
	if p.IDCardURL != "" {
		t.Errorf("карточка не очистилась: %q", p.IDCardURL)
	}
}

func TestDeleteReturnsProfile(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testProfile(1)); err != nil {
		t.Fatalf("создание профиля: %v", err)
	}

	p, err := repo.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("удаление профиля: %v", err)
	}
	if p.BioThreadID != 101 || p.DeskThreadID != 105 {
		t.Errorf("удалённый профиль вернулся без тредов: %+v", p)
	}

	if _, err := repo.Get(ctx, 1); !errors.Is(err, common.ErrProfileNotFound) {
		t.Errorf("профиль не удалён: %v", err)
	}

	if _, err := repo.Delete(ctx, 1); !errors.Is(err, common.ErrProfileNotFound) {
		t.Errorf("повторное удаление: ожидалась ErrProfileNotFound, получено %v", err)
	}
}
