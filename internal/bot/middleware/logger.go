// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// LogInteraction логирует входящее взаимодействие.
// Записывает: user_id, username, вид (command/component/modal)
// и имя — первые 50 символов, custom id бывает длинным.
func LogInteraction(kind string, userID int64, username, name string) {
	if len(name) > 50 {
		name = name[:50] + "..."
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
		"kind":     kind,
		"name":     name,
		"time":     time.Now().Format("15:04:05"),
	}).Debug("Входящее взаимодействие")
}
