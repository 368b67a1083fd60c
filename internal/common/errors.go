// Package common — errors.go определяет доменные ошибки,
// которые используются во всех модулях бота.
// Обработчики команд различают их через errors.Is и переводят
// в понятные пользователю сообщения; дальше границы обработчика
// эти ошибки не уходят.
package common

import "errors"

// Ошибки экономики (Royals)
var (
	// ErrInsufficientFunds — недостаточно Royals на счёте
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrSelfTransfer — попытка перевести Royals самому себе
	ErrSelfTransfer = errors.New("self transfer rejected")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("user not found")
)

// Ошибки квот и активностей
var (
	// ErrQuotaExceeded — недельный лимит активности исчерпан
	ErrQuotaExceeded = errors.New("weekly quota exceeded")
	// ErrNotYourSession — кнопка нажата не владельцем сессии
	ErrNotYourSession = errors.New("not your session")
	// ErrAlreadyJoined — участник уже в лобби
	ErrAlreadyJoined = errors.New("already joined")
	// ErrSessionNotFound — сессия истекла или не существует
	ErrSessionNotFound = errors.New("session not found")
	// ErrLobbyFull — лобби уже набрало максимум участников
	ErrLobbyFull = errors.New("lobby is full")
)

// Ошибки магазина и инвентаря
var (
	// ErrOutOfStock — товар закончился
	ErrOutOfStock = errors.New("out of stock")
	// ErrItemNotFound — товар или предмет не найден
	ErrItemNotFound = errors.New("item not found")
	// ErrItemExists — товар с таким именем уже есть
	ErrItemExists = errors.New("item already exists")
	// ErrNotEnoughItems — в инвентаре меньше предметов, чем запрошено
	ErrNotEnoughItems = errors.New("not enough items")
)

// Ошибки доступа и анкет
var (
	// ErrPermissionDenied — нет роли с нужными правами
	ErrPermissionDenied = errors.New("permission denied")
	// ErrApplicationExists — анкета уже отправлена
	ErrApplicationExists = errors.New("application already submitted")
	// ErrProfileExists — профиль уже создан
	ErrProfileExists = errors.New("profile already exists")
	// ErrProfileNotFound — профиль ещё не создан
	ErrProfileNotFound = errors.New("profile not found")
)
