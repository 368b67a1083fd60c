package quota

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/db/sqlite"
)

func newTestService(t *testing.T, limits map[string]int) *Service {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("открытие базы: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`
		CREATE TABLE activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			activity TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		t.Fatalf("создание схемы: %v", err)
	}
	return NewService(db, limits)
}

func TestConsumeUpToLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, map[string]int{"wish": 2})

	for i := 0; i < 2; i++ {
		if err := s.Consume(ctx, 1, "wish"); err != nil {
			t.Fatalf("использование %d: %v", i+1, err)
		}
	}

	// Третье использование на той же неделе запрещено
	err := s.Consume(ctx, 1, "wish")
	if !errors.Is(err, common.ErrQuotaExceeded) {
		t.Fatalf("ожидалась ErrQuotaExceeded, получено %v", err)
	}

	remaining, err := s.Remaining(ctx, 1, "wish")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 0 {
		t.Errorf("остаток = %d, ожидался 0", remaining)
	}
}

func TestQuotaIsPerUserAndPerActivity(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, map[string]int{"wish": 2, "brew_potion": 2})

	if err := s.Consume(ctx, 1, "wish"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := s.Consume(ctx, 1, "wish"); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	// Лимит одного пользователя не влияет на другого
	if err := s.Consume(ctx, 2, "wish"); err != nil {
		t.Errorf("квота второго пользователя затронута: %v", err)
	}
	// И не влияет на другую активность
	if err := s.Consume(ctx, 1, "brew_potion"); err != nil {
		t.Errorf("квота другой активности затронута: %v", err)
	}
}

func TestWeekRolloverResetsQuota(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, map[string]int{"wish": 2})

	// Пятница текущей недели
	current := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	if err := s.Consume(ctx, 1, "wish"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := s.Consume(ctx, 1, "wish"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := s.Consume(ctx, 1, "wish"); !errors.Is(err, common.ErrQuotaExceeded) {
		t.Fatalf("ожидалась ErrQuotaExceeded, получено %v", err)
	}

	// Понедельник 00:00 UTC следующей недели: квота обнуляется сама
	current = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if err := s.Consume(ctx, 1, "wish"); err != nil {
		t.Errorf("после начала новой недели: %v", err)
	}
}

func TestReleaseLastFreesOneSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, map[string]int{"host_teaparty": 2})

	if err := s.Consume(ctx, 1, "host_teaparty"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := s.Consume(ctx, 1, "host_teaparty"); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if err := s.ReleaseLast(ctx, 1, "host_teaparty"); err != nil {
		t.Fatalf("ReleaseLast: %v", err)
	}

	remaining, err := s.Remaining(ctx, 1, "host_teaparty")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 1 {
		t.Errorf("остаток после возврата = %d, ожидался 1", remaining)
	}
}

func TestResetUserClearsWeek(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, map[string]int{"wish": 2})

	_ = s.Consume(ctx, 1, "wish")
	_ = s.Consume(ctx, 1, "wish")

	removed, err := s.ResetUser(ctx, 1, "wish")
	if err != nil {
		t.Fatalf("ResetUser: %v", err)
	}
	if removed != 2 {
		t.Errorf("снято = %d, ожидалось 2", removed)
	}

	remaining, _ := s.Remaining(ctx, 1, "wish")
	if remaining != 2 {
		t.Errorf("остаток после сброса = %d, ожидалось 2", remaining)
	}
}

func TestResetUserAllClearsEveryActivity(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, map[string]int{"wish": 2, "brew_potion": 2})

	_ = s.Consume(ctx, 1, "wish")
	_ = s.Consume(ctx, 1, "brew_potion")
	_ = s.Consume(ctx, 1, "brew_potion")
	// Чужие использования сброс не трогает
	_ = s.Consume(ctx, 2, "wish")

	removed, err := s.ResetUserAll(ctx, 1)
	if err != nil {
		t.Fatalf("ResetUserAll: %v", err)
	}
	if removed != 3 {
		t.Errorf("снято = %d, ожидалось 3", removed)
	}

	for _, activity := range []string{"wish", "brew_potion"} {
		remaining, _ := s.Remaining(ctx, 1, activity)
		if remaining != 2 {
			t.Errorf("остаток %s = %d, ожидалось 2", activity, remaining)
		}
	}
	remaining, _ := s.Remaining(ctx, 2, "wish")
	if remaining != 1 {
		t.Errorf("остаток второго участника = %d, ожидался 1", remaining)
	}
}
