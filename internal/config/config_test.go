package config

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"обычный список", "Empress of TRA,Vault Keeper", []string{"Empress of TRA", "Vault Keeper"}},
		{"пробелы и пустые элементы", " a , ,b,", []string{"a", "b"}},
		{"пустая строка", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCSV(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parseCSV(%q) = %v, ожидалось %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseCSV(%q)[%d] = %q, ожидалось %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseChannelRewards(t *testing.T) {
	got, err := parseChannelRewards("1441113703062835291:1, 1441113703062835292:2")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ожидались 2 канала, получено %d", len(got))
	}
	if got[snowflake.ID(1441113703062835292)] != 2 {
		t.Errorf("награда канала = %d, ожидалось 2", got[snowflake.ID(1441113703062835292)])
	}

	if _, err := parseChannelRewards("abc:1"); err == nil {
		t.Error("ожидалась ошибка для нечислового ID канала")
	}
	if _, err := parseChannelRewards("1441113703062835291:0"); err == nil {
		t.Error("ожидалась ошибка для нулевой награды")
	}
}

func TestParseQuotaLimits(t *testing.T) {
	got, err := parseQuotaLimits("wish:2,brew_potion:2,host_teaparty:2")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got["wish"] != 2 || got["brew_potion"] != 2 || got["host_teaparty"] != 2 {
		t.Errorf("лимиты разобраны неверно: %v", got)
	}

	if _, err := parseQuotaLimits("wish"); err == nil {
		t.Error("ожидалась ошибка для пары без двоеточия")
	}
}
