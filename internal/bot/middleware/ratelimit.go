package middleware

import (
	"sync"
	"time"
)

// RateLimiter ограничивает частоту взаимодействий одного участника
// (команды, кнопки, модальные формы) скользящим окном.
// Это защита от случайного спама кнопками; жёсткие лимиты на соединение
// держит сам Discord.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, не исчерпал ли участник лимит обращений,
// и при положительном ответе учитывает текущее обращение.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := rl.prune(userID, now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.seen[userID] = recent
		return false
	}

	rl.seen[userID] = append(recent, now)
	return true
}

// prune выбрасывает обращения участника старше cutoff.
// Вызывать под mu.
func (rl *RateLimiter) prune(userID int64, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range rl.seen[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

// cleanup периодически убирает участников, давно не трогавших бота,
// чтобы карта не росла бесконечно.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for userID := range rl.seen {
				recent := rl.prune(userID, cutoff)
				if len(recent) == 0 {
					delete(rl.seen, userID)
				} else {
					rl.seen[userID] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}
