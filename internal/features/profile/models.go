// Package profile ведёт студенческие профили: анкета персонажа,
// пять личных тредов и карточка студента.
// models.go описывает структуру профиля и справочник факультетов.
package profile

import "time"

// Profile представляет профиль участника.
// Пять тредов создаются при регистрации и живут вместе с профилем.
type Profile struct {
	UserID            int64     `db:"user_id"`
	Name              string    `db:"name"`      // Имя персонажа
	Grade             string    `db:"grade"`     // Курс/год обучения
	Faceclaim         string    `db:"faceclaim"` // Внешность персонажа
	ImageURL          string    `db:"image_url"`
	IDCardURL         string    `db:"id_card_url"` // Пустая строка — карточки нет
	Affiliation       string    `db:"affiliation"`
	BioThreadID       int64     `db:"bio_thread_id"`
	WalletThreadID    int64     `db:"wallet_thread_id"`
	InventoryThreadID int64     `db:"inventory_thread_id"`
	TradingThreadID   int64     `db:"trading_thread_id"`
	DeskThreadID      int64     `db:"desk_thread_id"`
	CreatedAt         time.Time `db:"created_at"`
}

// ThreadIDs возвращает все треды профиля в порядке создания.
func (p Profile) ThreadIDs() []int64 {
	return []int64{p.BioThreadID, p.WalletThreadID, p.InventoryThreadID, p.TradingThreadID, p.DeskThreadID}
}

// Affiliation описывает факультет или статус в академии.
type Affiliation struct {
	Name    string
	LogoURL string
	Color   int
}

// Affiliations — справочник факультетов. Ключ — значение в меню выбора.
var Affiliations = map[string]Affiliation{
	"ourea":       {Name: "Ourea", LogoURL: "https://iili.io/f3RXGzg.png", Color: 0x2ECC71},
	"gaia":        {Name: "Gaia", LogoURL: "https://iili.io/f3RXVLJ.png", Color: 0xF1C40F},
	"salacia":     {Name: "Salacia", LogoURL: "https://iili.io/f3RXMXa.png", Color: 0x3498DB},
	"noblia":      {Name: "Noblia", LogoURL: "https://iili.io/f3RX0e1.png", Color: 0xE74C3C},
	"ordinaria":   {Name: "Ordinaria", LogoURL: "https://iili.io/f3RXh1R.png", Color: 0x1ABC9C},
	"professor":   {Name: "Professor", LogoURL: "https://iili.io/f3RXjgp.png", Color: 0xE67E22},
	"royal staff": {Name: "Royal Staff", LogoURL: "https://iili.io/f3RXjgp.png", Color: 0x9B59B6},
}

// AffiliationByName ищет факультет по отображаемому имени.
func AffiliationByName(name string) (Affiliation, bool) {
	for _, a := range Affiliations {
		if a.Name == name {
			return a, true
		}
	}
	return Affiliation{}, false
}
