package middleware

import (
	"testing"
	"time"
)

func TestGoDoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})

	start := time.Now()
	Go(func() {
		<-release
		close(done)
	})
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Go заблокировал вызывающего на %v", elapsed)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("обработчик так и не выполнился")
	}
}

func TestGoRecoversPanic(t *testing.T) {
	Go(func() { panic("boom") })

	// Паника в одном обработчике не мешает следующему
	done := make(chan struct{})
	Go(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("после паники обработчики перестали выполняться")
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Fatalf("обращение %d отклонено до исчерпания лимита", i+1)
		}
	}
	if rl.Allow(1) {
		t.Error("обращение сверх лимита пропущено")
	}
	// Лимит персональный
	if !rl.Allow(2) {
		t.Error("лимит одного участника задел другого")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	defer rl.Close()

	if !rl.Allow(1) {
		t.Fatal("первое обращение отклонено")
	}
	if rl.Allow(1) {
		t.Fatal("второе обращение в окне пропущено")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow(1) {
		t.Error("обращение после сдвига окна отклонено")
	}
}
