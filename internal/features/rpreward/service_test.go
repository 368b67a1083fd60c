package rpreward

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"royalacademy.app/discord-bot/internal/db/sqlite"
	"royalacademy.app/discord-bot/internal/features/economy"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("открытие базы: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`
		CREATE TABLE royals (
			user_id INTEGER PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_user_id INTEGER NOT NULL,
			to_user_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			transaction_type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE rp_rewards (
			message_id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			channel_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		t.Fatalf("создание схемы: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *sql.DB) (*Service, *economy.Service) {
	t.Helper()
	wallet := economy.NewService(economy.NewRepository(db), nil, "R")
	rewards := map[int64]int64{1000: 5}
	s := NewService(NewRepository(db), wallet, rewards, 10, time.Minute)
	return s, wallet
}

func longPost(messageID, authorID, channelID int64) Post {
	return Post{
		MessageID: messageID,
		AuthorID:  authorID,
		ChannelID: channelID,
		Content:   "a long enough roleplay post for the reward rules",
	}
}

func TestRewardPaidForQualifyingPost(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s, wallet := newTestService(t, db)

	awarded, err := s.HandleNewPost(ctx, longPost(101, 1, 1000))
	if err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}
	if awarded != 5 {
		t.Errorf("награда = %d, ожидалось 5", awarded)
	}

	balance, _ := wallet.GetBalance(ctx, 1)
	if balance != 5 {
		t.Errorf("баланс = %d, ожидалось 5", balance)
	}
}

func TestNoRewardCases(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s, _ := newTestService(t, db)

	tests := []struct {
		name string
		post Post
	}{
		{"неотслеживаемый канал", longPost(102, 1, 9999)},
		{"короткий пост", Post{MessageID: 103, AuthorID: 1, ChannelID: 1000, Content: "short"}},
		{"сообщение бота", func() Post {
			p := longPost(104, 1, 1000)
			p.IsBot = true
			return p
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			awarded, err := s.HandleNewPost(ctx, tt.post)
			if err != nil {
				t.Fatalf("HandleNewPost: %v", err)
			}
			if awarded != 0 {
				t.Errorf("награда = %d, ожидался 0", awarded)
			}
		})
	}
}

func TestCooldownBlocksSecondReward(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s, wallet := newTestService(t, db)

	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	if _, err := s.HandleNewPost(ctx, longPost(201, 1, 1000)); err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}

	// Второй пост внутри кулдауна не вознаграждается
	awarded, err := s.HandleNewPost(ctx, longPost(202, 1, 1000))
	if err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}
	if awarded != 0 {
		t.Errorf("награда внутри кулдауна = %d, ожидался 0", awarded)
	}

	// После истечения кулдауна награда снова начисляется
	current = current.Add(2 * time.Minute)
	awarded, err = s.HandleNewPost(ctx, longPost(203, 1, 1000))
	if err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}
	if awarded != 5 {
		t.Errorf("награда после кулдауна = %d, ожидалось 5", awarded)
	}

	balance, _ := wallet.GetBalance(ctx, 1)
	if balance != 10 {
		t.Errorf("баланс = %d, ожидалось 10", balance)
	}
}

func TestDeletedPostRevokesReward(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s, wallet := newTestService(t, db)

	if _, err := s.HandleNewPost(ctx, longPost(301, 1, 1000)); err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}

	reward, ok, err := s.HandleDeleted(ctx, 301)
	if err != nil {
		t.Fatalf("HandleDeleted: %v", err)
	}
	if !ok || reward.Amount != 5 {
		t.Fatalf("отзыв не сработал: ok=%v reward=%+v", ok, reward)
	}

	balance, _ := wallet.GetBalance(ctx, 1)
	if balance != 0 {
		t.Errorf("баланс после отзыва = %d, ожидался 0", balance)
	}

	// Повторное удаление того же сообщения — no-op
	_, ok, err = s.HandleDeleted(ctx, 301)
	if err != nil {
		t.Fatalf("повторный HandleDeleted: %v", err)
	}
	if ok {
		t.Error("награда отозвана дважды")
	}
}

func TestRevokeAfterSpendingGoesNegative(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s, wallet := newTestService(t, db)

	if _, err := s.HandleNewPost(ctx, longPost(401, 1, 1000)); err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}
	// Участник успел потратить часть награды
	if err := wallet.Debit(ctx, 1, 0, 3, economy.TxTypeShopPurchase, "spent"); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	if _, _, err := s.HandleDeleted(ctx, 401); err != nil {
		t.Fatalf("HandleDeleted: %v", err)
	}

	balance, _ := wallet.GetBalance(ctx, 1)
	if balance != -3 {
		t.Errorf("баланс = %d, ожидалось -3", balance)
	}
}

func TestStatsAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s, _ := newTestService(t, db)

	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	if _, err := s.HandleNewPost(ctx, longPost(501, 1, 1000)); err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := s.HandleNewPost(ctx, longPost(502, 2, 1000)); err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := s.HandleNewPost(ctx, longPost(503, 2, 1000)); err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}

	stats, err := s.WeeklyStats(ctx, 2)
	if err != nil {
		t.Fatalf("WeeklyStats: %v", err)
	}
	if stats.Posts != 2 || stats.Earned != 10 {
		t.Errorf("статистика = %+v, ожидалось 2 поста / 10", stats)
	}

	entries, err := s.WeeklyLeaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("WeeklyLeaderboard: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != 2 {
		t.Errorf("таблица лидеров = %+v, ожидался лидер user 2", entries)
	}
}

func TestFailedRevocationKeepsRecord(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	walletDB := newTestDB(t)

	// Кошелёк живёт в отдельной базе, чтобы сломать только списание
	wallet := economy.NewService(economy.NewRepository(walletDB), nil, "R")
	s := NewService(NewRepository(db), wallet, map[int64]int64{1000: 5}, 10, time.Minute)

	if _, err := s.HandleNewPost(ctx, longPost(401, 1, 1000)); err != nil {
		t.Fatalf("HandleNewPost: %v", err)
	}

	walletDB.Close()

	if _, _, err := s.HandleDeleted(ctx, 401); err == nil {
		t.Fatal("ожидалась ошибка списания")
	}

	// Запись о награде должна пережить сбой: отзыв можно повторить
	_, ok, err := NewRepository(db).Find(ctx, 401)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok {
		t.Error("запись о награде удалена, хотя списание не прошло")
	}
}
