package cleanup

import (
	"context"
	"errors"
	"testing"
)

type fakePurger struct {
	calls []int64
	err   error
}

func (f *fakePurger) PurgeUser(_ context.Context, userID int64) error {
	f.calls = append(f.calls, userID)
	return f.err
}

func TestPurgeCallsEveryModule(t *testing.T) {
	economy := &fakePurger{}
	quota := &fakePurger{}
	h := NewHandler(map[string]Purger{"economy": economy, "quota": quota}, nil)

	h.Purge(context.Background(), 42)

	for name, p := range map[string]*fakePurger{"economy": economy, "quota": quota} {
		if len(p.calls) != 1 || p.calls[0] != 42 {
			t.Errorf("модуль %s: вызовы %v", name, p.calls)
		}
	}
}

func TestPurgeContinuesAfterError(t *testing.T) {
	broken := &fakePurger{err: errors.New("база недоступна")}
	healthy := &fakePurger{}
	h := NewHandler(map[string]Purger{"a_broken": broken, "b_healthy": healthy}, nil)

	h.Purge(context.Background(), 7)

	if len(healthy.calls) != 1 {
		t.Errorf("очистка остановилась на ошибке: вызовы %v", healthy.calls)
	}
}
