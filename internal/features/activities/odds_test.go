package activities

import (
	"math/rand/v2"
	"testing"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestDrawWishMultiplierDistribution(t *testing.T) {
	rng := newTestRand()
	counts := make([]int, 5)
	const draws = 100000
	for i := 0; i < draws; i++ {
		m := DrawWishMultiplier(rng)
		if m < 0 || m > 4 {
			t.Fatalf("множитель вне диапазона: %d", m)
		}
		counts[m]++
	}

	// Доли должны примерно соответствовать весам 50/30/13/5/2
	wantShare := []float64{0.50, 0.30, 0.13, 0.05, 0.02}
	for i, want := range wantShare {
		got := float64(counts[i]) / draws
		if got < want*0.85 || got > want*1.15 {
			t.Errorf("множитель %d: доля %.4f, ожидалось около %.2f", i, got, want)
		}
	}
}

func TestPotionWeightBands(t *testing.T) {
	tests := []struct {
		cost int64
		want []int
	}{
		{50, []int{15, 50, 25, 9, 1}},
		{99, []int{15, 50, 25, 9, 1}},
		{100, []int{10, 30, 40, 18, 2}},
		{299, []int{10, 30, 40, 18, 2}},
		{300, []int{8, 15, 35, 35, 7}},
		{599, []int{8, 15, 35, 35, 7}},
		{600, []int{5, 5, 20, 45, 25}},
		{2000, []int{5, 5, 20, 45, 25}},
	}

	for _, tt := range tests {
		got := potionWeights(tt.cost)
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("стоимость %d: веса %v, ожидались %v", tt.cost, got, tt.want)
				break
			}
		}
	}
}

func TestPotionBonusScaling(t *testing.T) {
	tests := []struct {
		name string
		tier Tier
		cost int64
		want int64
	}{
		{"провал без бонуса", TierFail, 500, 0},
		{"низкое качество, дешёвая варка", TierLow, 100, 11},
		{"среднее качество", TierMedium, 500, 40},
		{"хорошее качество", TierGood, 500, 65},
		{"отличное качество, максимум", TierExcellent, 1000, 200},
		{"бонус не растёт выше 1000", TierExcellent, 2500, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PotionBonus(tt.tier, tt.cost); got != tt.want {
				t.Errorf("PotionBonus(%v, %d) = %d, ожидалось %d", tt.tier, tt.cost, got, tt.want)
			}
		})
	}
}

func TestPotionRewardFailBurnsCost(t *testing.T) {
	if got := PotionReward(TierFail, 700); got != 0 {
		t.Errorf("провал должен вернуть 0, получено %d", got)
	}
	if got := PotionReward(TierGood, 500); got != 565 {
		t.Errorf("выплата за Good при 500 = %d, ожидалось 565", got)
	}
}

func TestIngredientsCost(t *testing.T) {
	got := IngredientsCost([]string{"dew", "phoenix", "dragon"})
	if got != 755 {
		t.Errorf("стоимость = %d, ожидалось 755", got)
	}
	// Неизвестный ключ не меняет сумму
	if got := IngredientsCost([]string{"dew", "nonsense"}); got != 5 {
		t.Errorf("стоимость с мусорным ключом = %d, ожидалось 5", got)
	}
}

func TestDrawPotionTierInRange(t *testing.T) {
	rng := newTestRand()
	for i := 0; i < 1000; i++ {
		tier := DrawPotionTier(rng, 700)
		if tier < TierFail || tier > TierExcellent {
			t.Fatalf("качество вне диапазона: %d", tier)
		}
	}
}
