package middleware

// Go запускает обработчик в отдельной горутине с защитой от паники.
// disgo раздаёт события одного шарда последовательно: обработчик
// с долгой операцией (пауза перед оглашением результата, создание
// пяти тредов) задержал бы все остальные события гильдии.
func Go(fn func()) {
	go func() {
		defer RecoverFromPanic()
		fn()
	}()
}
