// Package common содержит общие утилиты, используемые во всём проекте:
// форматирование сумм Royals, работа с границей недели, вывод дат.
package common

import (
	"fmt"
	"time"
)

// SystemID — идентификатор «системы» в журнале транзакций.
// Начисления от бота (награды, минигры) записываются с source_id = 0,
// списания в пользу бота — с target_id = 0.
const SystemID int64 = 0

// WeekStartUTC возвращает понедельник 00:00 UTC недели, в которую попадает t.
// Недельные квоты считаются запросом count(*) от этой границы,
// поэтому явного сброса по расписанию не требуется.
//
// Примеры:
//
//	WeekStartUTC(среда 15:30)      → понедельник 00:00 той же недели
//	WeekStartUTC(понедельник 00:00) → тот же момент
//	WeekStartUTC(воскресенье 23:59) → понедельник прошлой недели
func WeekStartUTC(t time.Time) time.Time {
	t = t.UTC()
	// time.Weekday: воскресенье = 0, понедельник = 1
	offset := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatRoyals форматирует сумму с разделителями тысяч и символом валюты.
// Пример: FormatRoyals(2350, "R") → "2 350 R"
func FormatRoyals(amount int64, symbol string) string {
	return fmt.Sprintf("%s %s", FormatNumber(amount), symbol)
}

// FormatSignedRoyals создаёт строку вида "+100 R" или "-50 R".
// Знак «+» добавляется автоматически для неотрицательных сумм.
func FormatSignedRoyals(amount int64, symbol string) string {
	if amount >= 0 {
		return fmt.Sprintf("+%s %s", FormatNumber(amount), symbol)
	}
	return fmt.Sprintf("%s %s", FormatNumber(amount), symbol)
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Рекурсивно добавляем разделители
	rest := n / 1000
	last := n % 1000

	if rest > 0 {
		return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
	}
	return fmt.Sprintf("%d", last)
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (UTC).
// Используется для отображения дат транзакций и истории продаж.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04")
}

// TruncateRunes обрезает строку до max рун.
// Резать по байтам нельзя: срез посреди многобайтовой руны
// оставляет некорректный UTF-8.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
