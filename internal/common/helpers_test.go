package common

import (
	"testing"
	"time"
	"unicode/utf8"
)

func TestWeekStartUTC(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "среда середина недели",
			in:   time.Date(2024, 5, 15, 15, 30, 0, 0, time.UTC),
			want: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "понедельник ровно полночь",
			in:   time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "воскресенье поздний вечер",
			in:   time.Date(2024, 5, 19, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "не-UTC время приводится к UTC",
			in:   time.Date(2024, 5, 13, 1, 0, 0, 0, time.FixedZone("MSK", 3*60*60)),
			want: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStartUTC(tt.in)
			if !got.Equal(tt.want) {
				t.Fatalf("WeekStartUTC(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{150, "150"},
		{2350, "2 350"},
		{1000000, "1 000 000"},
		{-50, "-50"},
		{-2350, "-2 350"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSignedRoyals(t *testing.T) {
	if got := FormatSignedRoyals(100, "R"); got != "+100 R" {
		t.Errorf("FormatSignedRoyals(100) = %q", got)
	}
	if got := FormatSignedRoyals(-50, "R"); got != "-50 R" {
		t.Errorf("FormatSignedRoyals(-50) = %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"короткая строка не меняется", "hello", 10, "hello"},
		{"ровно на границе", "hello", 5, "hello"},
		{"ASCII обрезается", "hello world", 5, "hello"},
		{"кириллица режется по рунам", "привет мир", 6, "привет"},
		{"эмодзи не ломаются", "🌹🌹🌹🌹", 2, "🌹🌹"},
		{"пустая строка", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, ожидалось %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("результат не является корректным UTF-8: %q", got)
			}
		})
	}
}
