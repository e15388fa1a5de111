package config

import "testing"

func TestLocale(t *testing.T) {
	tests := []struct {
		locale any
		want   string
	}{
		{"zh-cn", "zh-CN"},
		{"zh_CN", "zh-CN"},
		{"EN", "en"},
		{"fr", "fr"},
		{"auto", "auto"},
		{"", DefaultLocale},
		{"!!", DefaultLocale},
		{42, DefaultLocale},
	}

	for _, tt := range tests {
		conf := Conf{KeyLocale: tt.locale}
		if got := Locale(conf); got != tt.want {
			t.Errorf("Locale(%v) = %q, want %q", tt.locale, got, tt.want)
		}
	}

	if got := Locale(Conf{}); got != DefaultLocale {
		t.Errorf("Locale(empty) = %q, want %q", got, DefaultLocale)
	}
}
