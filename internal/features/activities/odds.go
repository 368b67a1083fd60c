// Package activities реализует школьные мини-игры: бросок монетки
// в колодец желаний, варку зелий и чайные вечеринки.
// odds.go описывает таблицы шансов и взвешенные розыгрыши.
package activities

import (
	"math/rand/v2"
)

// wishWeights — веса множителей выигрыша колодца (x0..x4).
// Чем выше множитель, тем реже он выпадает.
var wishWeights = []int{50, 30, 13, 5, 2}

// DrawWishMultiplier разыгрывает множитель выигрыша колодца.
func DrawWishMultiplier(rng *rand.Rand) int {
	return drawWeighted(rng, wishWeights)
}

// Ingredient — ингредиент для варки зелья.
type Ingredient struct {
	Key   string
	Label string
	Price int64
	Emoji string
}

// PotionIngredients — прейскурант лаборатории по возрастанию цены.
var PotionIngredients = []Ingredient{
	{Key: "dew", Label: "Morning Dew", Price: 5, Emoji: "💧"},
	{Key: "lizard", Label: "Dried Lizard Tail", Price: 15, Emoji: "🦎"},
	{Key: "spider_eye", Label: "Spider Eye", Price: 30, Emoji: "🕷️"},
	{Key: "bat_wing", Label: "Bat Wing", Price: 50, Emoji: "🦇"},
	{Key: "ent_sap", Label: "Ent Sap", Price: 80, Emoji: "🌳"},
	{Key: "mandrake", Label: "Mandrake Root", Price: 120, Emoji: "🌱"},
	{Key: "unicorn", Label: "Unicorn Hair", Price: 180, Emoji: "🦄"},
	{Key: "dragon", Label: "Dragon Scale", Price: 250, Emoji: "🐉"},
	{Key: "moonstone", Label: "Moonstone Dust", Price: 350, Emoji: "🌑"},
	{Key: "phoenix", Label: "Phoenix Feather", Price: 500, Emoji: "🔥"},
}

// IngredientByKey ищет ингредиент по ключу из меню выбора.
func IngredientByKey(key string) (Ingredient, bool) {
	for _, ing := range PotionIngredients {
		if ing.Key == key {
			return ing, true
		}
	}
	return Ingredient{}, false
}

// IngredientsCost считает стоимость выбранных ингредиентов.
// Неизвестные ключи игнорируются.
func IngredientsCost(keys []string) int64 {
	var total int64
	for _, key := range keys {
		if ing, ok := IngredientByKey(key); ok {
			total += ing.Price
		}
	}
	return total
}

// Tier — качество сваренного зелья.
type Tier int

const (
	TierFail Tier = iota
	TierLow
	TierMedium
	TierGood
	TierExcellent
)

// String возвращает название качества для чеков и логов.
func (t Tier) String() string {
	switch t {
	case TierFail:
		return "Fail"
	case TierLow:
		return "Low"
	case TierMedium:
		return "Medium"
	case TierGood:
		return "Good"
	case TierExcellent:
		return "Excellent"
	}
	return "Unknown"
}

// potionWeights возвращает веса качеств для стоимости варки.
// Дорогие ингредиенты смещают шансы к высоким качествам.
func potionWeights(cost int64) []int {
	switch {
	case cost < 100:
		return []int{15, 50, 25, 9, 1}
	case cost < 300:
		return []int{10, 30, 40, 18, 2}
	case cost < 600:
		return []int{8, 15, 35, 35, 7}
	default:
		return []int{5, 5, 20, 45, 25}
	}
}

// DrawPotionTier разыгрывает качество зелья для данной стоимости варки.
func DrawPotionTier(rng *rand.Rand, cost int64) Tier {
	return Tier(drawWeighted(rng, potionWeights(cost)))
}

// PotionBonus считает прибыль сверх вложений для качества.
// Бонус растёт линейно со стоимостью варки и выходит на
// максимум при вложении 1000.
func PotionBonus(tier Tier, cost int64) int64 {
	scale := float64(cost) / 1000
	if scale > 1 {
		scale = 1
	}
	switch tier {
	case TierLow:
		return int64(10 + 10*scale)
	case TierMedium:
		return int64(30 + 20*scale)
	case TierGood:
		return int64(40 + 50*scale)
	case TierExcellent:
		return int64(100 + 100*scale)
	}
	return 0
}

// PotionReward считает полную выплату: возврат вложений плюс бонус.
// Провал сжигает вложения целиком.
func PotionReward(tier Tier, cost int64) int64 {
	if tier == TierFail {
		return 0
	}
	return cost + PotionBonus(tier, cost)
}

// drawWeighted выбирает индекс пропорционально весам.
func drawWeighted(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := rng.IntN(total)
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}
