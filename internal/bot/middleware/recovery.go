package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic гасит панику в обработчике события гильдии.
// Одно сломанное взаимодействие не должно ронять весь бот:
// паника уходит в лог со стеком, gateway продолжает работать.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"component": "recovery",
			"reason":    fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике события — восстановлено")
	}
}
