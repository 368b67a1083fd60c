package activities

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"royalacademy.app/discord-bot/internal/common"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/features/economy"
	"royalacademy.app/discord-bot/internal/features/quota"
)

func newTestService(t *testing.T) (*Service, *economy.Service) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("открытие базы: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE royals (
			user_id INTEGER PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
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
		CREATE TABLE activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			activity TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		t.Fatalf("создание схемы: %v", err)
	}

	cfg := &config.Config{
		CurrencySymbol: "R",
		WishCost:       10,
		TeaHostReward:  50,
		TeaGuestReward: 20,
		QuotaLimits: map[string]int{
			ActivityWish:     2,
			ActivityBrew:     2,
			ActivityTeaParty: 2,
		},
	}

	wallet := economy.NewService(economy.NewRepository(db), nil, "R")
	quotaSvc := quota.NewService(db, cfg.QuotaLimits)
	sessions := NewManager(5*time.Minute, 5*time.Minute, 20*time.Minute)

	svc := NewService(wallet, quotaSvc, sessions, nil, cfg)
	return svc, wallet
}

// forceDraw подменяет генератор так, чтобы розыгрыш дал нужный индекс.
func forceDraw(t *testing.T, svc *Service, weights []int, want int) {
	t.Helper()
	for seed := uint64(0); seed < 5000; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed))
		if drawWeighted(rng, weights) == want {
			svc.rng = rand.New(rand.NewPCG(seed, seed))
			return
		}
	}
	t.Fatalf("не нашлось зерна для исхода %d", want)
}

func TestWishWorstCase(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := wallet.Credit(ctx, common.SystemID, 1, 10, economy.TxTypeGrant, "seed"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	forceDraw(t, svc, wishWeights, 0)
	res, err := svc.Wish(ctx, 1)
	if err != nil {
		t.Fatalf("бросок: %v", err)
	}
	if res.Multiplier != 0 || res.Prize != 0 {
		t.Errorf("ожидался проигрыш, получено %+v", res)
	}
	if res.NewBalance != 0 {
		t.Errorf("баланс = %d, ожидался 0", res.NewBalance)
	}
	if res.Remaining != 1 {
		t.Errorf("остаток квоты = %d, ожидался 1", res.Remaining)
	}
}

func TestWishJackpot(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := wallet.Credit(ctx, common.SystemID, 1, 100, economy.TxTypeGrant, "seed"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	forceDraw(t, svc, wishWeights, 4)
	res, err := svc.Wish(ctx, 1)
	if err != nil {
		t.Fatalf("бросок: %v", err)
	}
	if res.Prize != 40 {
		t.Errorf("выигрыш = %d, ожидался 40", res.Prize)
	}
	// 100 - 10 + 40
	if res.NewBalance != 130 {
		t.Errorf("баланс = %d, ожидался 130", res.NewBalance)
	}
}

func TestWishInsufficientFunds(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := wallet.Credit(ctx, common.SystemID, 1, 5, economy.TxTypeGrant, "seed"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	if _, err := svc.Wish(ctx, 1); !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("ожидалась ErrInsufficientFunds, получено %v", err)
	}
	// Квота не тронута при отказе
	balance, _ := wallet.GetBalance(ctx, 1)
	if balance != 5 {
		t.Errorf("баланс изменился: %d", balance)
	}
}

func TestWishQuotaExhausted(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := wallet.Credit(ctx, common.SystemID, 1, 1000, economy.TxTypeGrant, "seed"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Wish(ctx, 1); err != nil {
			t.Fatalf("бросок %d: %v", i+1, err)
		}
	}
	if _, err := svc.Wish(ctx, 1); !errors.Is(err, common.ErrQuotaExceeded) {
		t.Errorf("ожидалась ErrQuotaExceeded, получено %v", err)
	}
}

func TestBrewLifecycle(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := wallet.Credit(ctx, common.SystemID, 1, 500, economy.TxTypeGrant, "seed"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	if err := svc.CheckBrewQuota(ctx, 1); err != nil {
		t.Fatalf("проверка квоты: %v", err)
	}

	svc.OpenBrew(100, 1)
	cost, err := svc.SelectIngredients(100, 1, []string{"dew", "lizard", "spider_eye"})
	if err != nil {
		t.Fatalf("выбор: %v", err)
	}
	if cost != 50 {
		t.Errorf("стоимость = %d, ожидалось 50", cost)
	}

	gotCost, newBalance, err := svc.BeginBrew(ctx, 100, 1)
	if err != nil {
		t.Fatalf("старт варки: %v", err)
	}
	if gotCost != 50 || newBalance != 450 {
		t.Errorf("стоимость %d, баланс %d", gotCost, newBalance)
	}

	forceDraw(t, svc, potionWeights(50), int(TierGood))
	res, err := svc.ResolveBrew(ctx, 100, 1)
	if err != nil {
		t.Fatalf("розыгрыш: %v", err)
	}
	if res.Tier != TierGood {
		t.Errorf("качество = %v", res.Tier)
	}
	// Возврат 50 + бонус 40+50*0.05 = 92
	if res.Reward != 92 {
		t.Errorf("выплата = %d, ожидалось 92", res.Reward)
	}
	if res.NewBalance != 542 {
		t.Errorf("баланс = %d, ожидалось 542", res.NewBalance)
	}
	if res.Remaining != 1 {
		t.Errorf("остаток квоты = %d", res.Remaining)
	}

	// Сессия одноразовая
	if _, err := svc.ResolveBrew(ctx, 100, 1); !errors.Is(err, common.ErrSessionNotFound) {
		t.Errorf("повторный розыгрыш: %v", err)
	}
}

func TestBrewInsufficientFundsUnlocksSession(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := wallet.Credit(ctx, common.SystemID, 1, 20, economy.TxTypeGrant, "seed"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	svc.OpenBrew(100, 1)
	if _, err := svc.SelectIngredients(100, 1, []string{"dew", "lizard", "spider_eye"}); err != nil {
		t.Fatalf("выбор: %v", err)
	}

	if _, _, err := svc.BeginBrew(ctx, 100, 1); !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("ожидалась ErrInsufficientFunds, получено %v", err)
	}

	// После отказа выбор можно поменять на дешёвый и сварить
	if _, err := svc.SelectIngredients(100, 1, []string{"dew", "dew", "dew"}); err != nil {
		t.Errorf("сессия должна остаться живой: %v", err)
	}
}

func TestBrewFailBurnsCost(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := wallet.Credit(ctx, common.SystemID, 1, 500, economy.TxTypeGrant, "seed"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	svc.OpenBrew(100, 1)
	if _, err := svc.SelectIngredients(100, 1, []string{"dew", "lizard", "spider_eye"}); err != nil {
		t.Fatalf("выбор: %v", err)
	}
	if _, _, err := svc.BeginBrew(ctx, 100, 1); err != nil {
		t.Fatalf("старт варки: %v", err)
	}

	forceDraw(t, svc, potionWeights(50), int(TierFail))
	res, err := svc.ResolveBrew(ctx, 100, 1)
	if err != nil {
		t.Fatalf("розыгрыш: %v", err)
	}
	if res.Reward != 0 {
		t.Errorf("провал должен сжечь вложения, выплата %d", res.Reward)
	}
	if res.NewBalance != 450 {
		t.Errorf("баланс = %d, ожидалось 450", res.NewBalance)
	}
	// Квота списана и на провал
	if res.Remaining != 1 {
		t.Errorf("остаток квоты = %d", res.Remaining)
	}
}

func TestTeaPartyFullFlow(t *testing.T) {
	svc, wallet := newTestService(t)
	ctx := context.Background()

	if err := svc.HostParty(ctx, 1); err != nil {
		t.Fatalf("открытие лобби: %v", err)
	}
	svc.RegisterLobby(200, &TeaSession{HostID: 1, MaxParticipants: 3, Participants: []int64{1}})

	if _, err := svc.JoinParty(200, 2); err != nil {
		t.Fatalf("вступление гостя: %v", err)
	}

	sess, err := svc.StartParty(200, 1, [3]string{"знакомство", "десерты", "школьные истории"})
	if err != nil {
		t.Fatalf("старт: %v", err)
	}

	messageID := snowflake64(200)
	for round := 1; round <= 3; round++ {
		for _, userID := range []int64{1, 2} {
			if _, err := svc.Sessions().BeginSubmit(messageID, userID); err != nil {
				t.Fatalf("раунд %d, участник %d: %v", round, userID, err)
			}
			svc.Sessions().CompleteSubmit(messageID, userID, true)
		}
		sess, _ = svc.Sessions().AdvanceRound(messageID)
	}

	if sess.Phase != TeaPhaseFinished {
		t.Fatalf("вечеринка не завершилась: фаза %d", sess.Phase)
	}
	svc.FinishParty(ctx, sess)

	hostBalance, _ := wallet.GetBalance(ctx, 1)
	guestBalance, _ := wallet.GetBalance(ctx, 2)
	if hostBalance != 50 {
		t.Errorf("награда хозяина = %d, ожидалось 50", hostBalance)
	}
	if guestBalance != 20 {
		t.Errorf("награда гостя = %d, ожидалось 20", guestBalance)
	}
}

func TestTeaPartyCancelRefundsQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.HostParty(ctx, 1); err != nil {
		t.Fatalf("открытие лобби: %v", err)
	}
	svc.RegisterLobby(200, &TeaSession{HostID: 1, MaxParticipants: 3, Participants: []int64{1}})

	if err := svc.CancelParty(ctx, 200, 1); err != nil {
		t.Fatalf("отмена: %v", err)
	}

	// Слот возвращён, можно открыть ещё дважды
	for i := 0; i < 2; i++ {
		if err := svc.HostParty(ctx, 1); err != nil {
			t.Fatalf("повторное лобби %d: %v", i+1, err)
		}
	}
	if err := svc.HostParty(ctx, 1); !errors.Is(err, common.ErrQuotaExceeded) {
		t.Errorf("ожидалась ErrQuotaExceeded, получено %v", err)
	}
}

func TestSweepReleasesHostQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	current := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	svc.sessions.now = func() time.Time { return current }

	if err := svc.HostParty(ctx, 1); err != nil {
		t.Fatalf("открытие лобби: %v", err)
	}
	if err := svc.HostParty(ctx, 1); err != nil {
		t.Fatalf("второе лобби: %v", err)
	}
	svc.RegisterLobby(200, &TeaSession{HostID: 1, MaxParticipants: 3, Participants: []int64{1}})

	current = current.Add(6 * time.Minute)
	if n := svc.SweepSessions(ctx); n != 1 {
		t.Fatalf("вымет лобби: %d", n)
	}

	// Один слот вернулся
	if err := svc.HostParty(ctx, 1); err != nil {
		t.Errorf("слот не вернулся: %v", err)
	}
}
