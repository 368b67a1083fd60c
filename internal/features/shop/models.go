// Package shop — магазин предметов за Royals.
// models.go описывает структуры товаров и записей о продажах.
package shop

import "time"

// UnlimitedStock — значение stock для товаров без ограничения запаса.
const UnlimitedStock int64 = -1

// Item представляет товар магазина.
type Item struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`        // Уникальное название
	ShopName    string    `db:"shop_name"`   // Витрина, на которой продаётся товар
	Description string    `db:"description"` // Описание для витрины
	ImageURL    string    `db:"image_url"`   // Картинка товара; пустая строка — без картинки
	Price       int64     `db:"price"`       // Цена в Royals
	Stock       int64     `db:"stock"`       // Остаток; UnlimitedStock — не ограничен
	CreatedAt   time.Time `db:"created_at"`
}

// InStock сообщает, можно ли сейчас купить товар.
func (i Item) InStock() bool {
	return i.Stock == UnlimitedStock || i.Stock > 0
}

// Sale представляет одну продажу.
// Название товара дублируется: история продаж переживает удаление товара.
type Sale struct {
	ID        int64     `db:"id"`
	ItemID    int64     `db:"item_id"`
	ItemName  string    `db:"item_name"`
	BuyerID   int64     `db:"buyer_id"`
	Price     int64     `db:"price"`
	Quantity  int64     `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
}
