// Package economy управляет валютой сервера — Royals.
// models.go описывает структуры для счетов и транзакций.
package economy

import "time"

// Account представляет счёт участника.
// Каждый участник имеет ровно одну запись в таблице royals.
type Account struct {
	UserID    int64     `db:"user_id"` // Discord user ID
	Balance   int64     `db:"balance"` // Текущий баланс (начинается с 0)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию с Royals.
// Все движения валюты (выдачи, переводы, покупки, награды) записываются сюда.
type Transaction struct {
	ID              int64     `db:"id"`               // ID транзакции
	FromUserID      int64     `db:"from_user_id"`     // Отправитель (SystemID для начислений системой)
	ToUserID        int64     `db:"to_user_id"`       // Получатель (SystemID для списаний в систему)
	Amount          int64     `db:"amount"`           // Сумма (всегда положительная)
	TransactionType string    `db:"transaction_type"` // Тип операции, см. константы TxType*
	Description     string    `db:"description"`      // Описание для отображения
	CreatedAt       time.Time `db:"created_at"`       // Время транзакции
}

// Допустимые типы транзакций.
const (
	TxTypeGrant        = "GRANT"           // Выдача стаффом
	TxTypeTake         = "TAKE"            // Изъятие стаффом
	TxTypeTransfer     = "TRANSFER"        // Перевод между участниками
	TxTypeWipe         = "WIPE"            // Обнуление счёта
	TxTypeRPReward     = "RP_REWARD"       // Награда за ролевой пост
	TxTypeRPRevoke     = "RP_REVOKE"       // Отзыв награды (пост удалён)
	TxTypeWishToss     = "LUCK_WISH_TOSS"  // Монетка брошена в колодец
	TxTypeWishGrant    = "LUCK_WISH_GRANT" // Колодец исполнил желание
	TxTypeBrewCost     = "LUCK_BREW_COST"  // Оплата ингредиентов зелья
	TxTypeBrewSold     = "LUCK_BREW_SOLD"  // Выручка от продажи зелья
	TxTypeTeaParty     = "TEA_PARTY"       // Награда за чаепитие
	TxTypeShopPurchase = "SHOP_PURCHASE"   // Покупка в магазине
)
