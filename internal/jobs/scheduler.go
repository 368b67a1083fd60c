// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежеминутная уборка просроченных
// игровых сессий и еженедельная отметка начала квотной недели.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"royalacademy.app/discord-bot/internal/features/activities"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	activities *activities.Service
}

// NewScheduler создаёт планировщик задач.
// Квотная неделя считается с понедельника 00:00 UTC, поэтому и cron живёт в UTC.
func NewScheduler(activitiesService *activities.Service) *Scheduler {
	c := cron.New(cron.WithLocation(time.UTC))

	return &Scheduler{
		cron:       c,
		activities: activitiesService,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Уборка каждую минуту: просроченные сессии зелий и лобби чаепитий.
	// Лобби, умершее до старта, возвращает хозяину квотный слот.
	s.cron.AddFunc("* * * * *", func() {
		if released := s.activities.SweepSessions(ctx); released > 0 {
			log.WithField("released", released).Info("[CRON] Просроченные лобби убраны, квоты возвращены")
		}
	})

	// Начало новой квотной недели. Сброса как такового нет:
	// квоты считаются запросом по текущей неделе, это просто отметка в логе.
	s.cron.AddFunc("0 0 * * 1", func() {
		log.Info("[CRON] Новая квотная неделя")
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (UTC)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
