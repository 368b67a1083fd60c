package activities

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"royalacademy.app/discord-bot/internal/common"
)

func newTestManager() *Manager {
	return NewManager(5*time.Minute, 5*time.Minute, 20*time.Minute)
}

func TestPotionSelectionAndLock(t *testing.T) {
	m := newTestManager()
	m.PutPotion(100, 1)

	cost, err := m.SelectIngredients(100, 1, []string{"dew", "lizard", "dragon"})
	if err != nil {
		t.Fatalf("выбор ингредиентов: %v", err)
	}
	if cost != 270 {
		t.Errorf("стоимость = %d, ожидалось 270", cost)
	}

	// Чужой клик отклоняется
	if _, err := m.SelectIngredients(100, 2, []string{"dew"}); !errors.Is(err, common.ErrNotYourSession) {
		t.Errorf("ожидалась ErrNotYourSession, получено %v", err)
	}

	s, err := m.LockPotion(100, 1, 3)
	if err != nil {
		t.Fatalf("фиксация варки: %v", err)
	}
	if s.Cost() != 270 {
		t.Errorf("стоимость после фиксации = %d", s.Cost())
	}

	// После фиксации выбор менять нельзя
	if _, err := m.SelectIngredients(100, 1, []string{"dew"}); !errors.Is(err, common.ErrSessionNotFound) {
		t.Errorf("ожидалась ErrSessionNotFound, получено %v", err)
	}
}

func TestPotionLockRequiresMinIngredients(t *testing.T) {
	m := newTestManager()
	m.PutPotion(100, 1)
	if _, err := m.SelectIngredients(100, 1, []string{"dew", "lizard"}); err != nil {
		t.Fatalf("выбор ингредиентов: %v", err)
	}
	if _, err := m.LockPotion(100, 1, 3); !errors.Is(err, common.ErrSessionNotFound) {
		t.Errorf("фиксация двух ингредиентов должна отклоняться, получено %v", err)
	}
}

func TestPotionExpires(t *testing.T) {
	m := newTestManager()
	current := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	m.PutPotion(100, 1)
	current = current.Add(6 * time.Minute)

	if _, err := m.SelectIngredients(100, 1, []string{"dew"}); !errors.Is(err, common.ErrSessionNotFound) {
		t.Errorf("истёкшая сессия должна пропасть, получено %v", err)
	}
}

func snowflake64(id int64) snowflake.ID {
	return snowflake.ID(id)
}

func TestTeaLobbyJoinRules(t *testing.T) {
	m := newTestManager()
	m.PutTea(200, &TeaSession{HostID: 1, MaxParticipants: 3, Participants: []int64{1}})

	if _, err := m.JoinTea(200, 2); err != nil {
		t.Fatalf("вступление: %v", err)
	}
	if _, err := m.JoinTea(200, 2); !errors.Is(err, common.ErrAlreadyJoined) {
		t.Errorf("повторное вступление: %v", err)
	}
	if _, err := m.JoinTea(200, 3); err != nil {
		t.Fatalf("вступление третьего: %v", err)
	}
	if _, err := m.JoinTea(200, 4); !errors.Is(err, common.ErrLobbyFull) {
		t.Errorf("переполненное лобби: %v", err)
	}
}

func TestTeaCancelHostOnly(t *testing.T) {
	m := newTestManager()
	m.PutTea(200, &TeaSession{HostID: 1, MaxParticipants: 3, Participants: []int64{1, 2}})

	if err := m.CancelTea(200, 2); !errors.Is(err, common.ErrNotYourSession) {
		t.Errorf("отмена гостем: %v", err)
	}
	if err := m.CancelTea(200, 1); err != nil {
		t.Fatalf("отмена хозяином: %v", err)
	}
	if _, err := m.JoinTea(200, 3); !errors.Is(err, common.ErrSessionNotFound) {
		t.Errorf("лобби должно исчезнуть: %v", err)
	}
}

func TestTeaDuplicateSubmitRejected(t *testing.T) {
	m := newTestManager()
	m.PutTea(200, &TeaSession{HostID: 1, MaxParticipants: 2, Participants: []int64{1, 2}})
	if _, err := m.StartTea(200, 1, [3]string{"а", "б", "в"}); err != nil {
		t.Fatalf("старт: %v", err)
	}

	if _, err := m.BeginSubmit(200, 1); err != nil {
		t.Fatalf("первый клик: %v", err)
	}
	// Повтор до завершения обработки первого клика
	if _, err := m.BeginSubmit(200, 1); !errors.Is(err, common.ErrAlreadyJoined) {
		t.Errorf("повторный клик: %v", err)
	}

	m.CompleteSubmit(200, 1, true)
	// После завершения обработки клик снова разрешён
	if _, err := m.BeginSubmit(200, 1); err != nil {
		t.Errorf("клик после обработки: %v", err)
	}
}

func TestTeaSingleFlightTransition(t *testing.T) {
	m := newTestManager()
	m.PutTea(200, &TeaSession{HostID: 1, MaxParticipants: 2, Participants: []int64{1, 2}})
	if _, err := m.StartTea(200, 1, [3]string{"а", "б", "в"}); err != nil {
		t.Fatalf("старт: %v", err)
	}

	// Оба участника закрывают раунд почти одновременно
	var wg sync.WaitGroup
	fired := make(chan bool, 2)
	for _, userID := range []int64{1, 2} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := m.BeginSubmit(200, id); err != nil {
				return
			}
			state := m.CompleteSubmit(200, id, true)
			fired <- state.AllDone
		}(userID)
	}
	wg.Wait()
	close(fired)

	transitions := 0
	for allDone := range fired {
		if allDone {
			transitions++
		}
	}
	if transitions != 1 {
		t.Errorf("переход должен сработать ровно один раз, сработал %d", transitions)
	}
}

func TestTeaAdvanceThroughRoundsToFinish(t *testing.T) {
	m := newTestManager()
	m.PutTea(200, &TeaSession{HostID: 1, MaxParticipants: 2, Participants: []int64{1}})
	if _, err := m.StartTea(200, 1, [3]string{"а", "б", "в"}); err != nil {
		t.Fatalf("старт: %v", err)
	}

	messageID := int64(200)
	for round := 1; round <= 3; round++ {
		if _, err := m.BeginSubmit(snowflake64(messageID), 1); err != nil {
			t.Fatalf("раунд %d, клик: %v", round, err)
		}
		state := m.CompleteSubmit(snowflake64(messageID), 1, true)
		if !state.AllDone {
			t.Fatalf("раунд %d должен закрыться", round)
		}

		s, ok := m.AdvanceRound(snowflake64(messageID))
		if !ok {
			t.Fatalf("раунд %d: переход не сработал", round)
		}
		if round < 3 {
			if s.Round != round+1 {
				t.Errorf("после раунда %d номер = %d", round, s.Round)
			}
			// Сообщение нового раунда
			m.RekeyTea(snowflake64(messageID), snowflake64(messageID+1))
			messageID++
		} else if s.Phase != TeaPhaseFinished {
			t.Errorf("после третьего раунда фаза = %d", s.Phase)
		}
	}
}

func TestSweepReleasesDeadLobbies(t *testing.T) {
	m := newTestManager()
	current := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	m.PutTea(200, &TeaSession{HostID: 7, MaxParticipants: 2, Participants: []int64{7}})
	m.PutTea(201, &TeaSession{HostID: 8, MaxParticipants: 2, Participants: []int64{8}})
	if _, err := m.StartTea(201, 8, [3]string{"а", "б", "в"}); err != nil {
		t.Fatalf("старт: %v", err)
	}
	m.PutPotion(300, 9)

	if expired := m.Sweep(); len(expired) != 0 {
		t.Fatalf("живые сессии не должны выметаться: %v", expired)
	}

	current = current.Add(6 * time.Minute)
	expired := m.Sweep()
	// Истекло только несыгранное лобби; начатая вечеринка живёт 20 минут
	if len(expired) != 1 || expired[0].HostID != 7 {
		t.Errorf("ожидалось одно умершее лобби хозяина 7, получено %v", expired)
	}

	current = current.Add(20 * time.Minute)
	if expired := m.Sweep(); len(expired) != 0 {
		t.Errorf("начатая вечеринка не возвращает квоту: %v", expired)
	}
}
