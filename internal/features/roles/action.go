// Package roles — action.go кодирует действия стаффа по анкете
// в custom_id кнопок. Вместо разбора строки «по подчёркиваниям»
// используется типизированный дескриптор с проверкой полей.
package roles

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionPrefix — общий префикс custom_id кнопок модуля.
const ActionPrefix = "roles:"

// Kind — вид действия по анкете.
type Kind string

const (
	KindApprove Kind = "approve"
	KindReject  Kind = "reject"
)

// Action — действие стаффа по анкете участника.
// Для KindApprove RoleKey указывает выбранный факультет.
type Action struct {
	Kind    Kind
	RoleKey string
	UserID  int64
}

// CustomID сериализует действие для кнопки.
func (a Action) CustomID() string {
	return fmt.Sprintf("%s%s:%s:%d", ActionPrefix, a.Kind, a.RoleKey, a.UserID)
}

// ParseAction восстанавливает действие из custom_id кнопки.
// Возвращает false для чужих или повреждённых идентификаторов.
func ParseAction(customID string) (Action, bool) {
	rest, ok := strings.CutPrefix(customID, ActionPrefix)
	if !ok {
		return Action{}, false
	}

	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return Action{}, false
	}

	kind := Kind(parts[0])
	switch kind {
	case KindApprove:
		if parts[1] == "" {
			return Action{}, false
		}
	case KindReject:
		if parts[1] != "" {
			return Action{}, false
		}
	default:
		return Action{}, false
	}

	userID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || userID <= 0 {
		return Action{}, false
	}

	return Action{Kind: kind, RoleKey: parts[1], UserID: userID}, true
}
