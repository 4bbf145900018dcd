package corrector

import "testing"

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"2,01", 2.01, true},
		{"2.01", 2.01, true},
		{"12,25000", 12.25, true},
		{"1.234.567,89", 1234567.89, true},
		{"1 234,5", 1234.5, true},
		// Every separator but the last is treated as thousands grouping.
		{"1.234.567.89", 1234567.89, true},
		{"", 0, true},
		{"   ", 0, true},
		{"0", 0, true},
		{"-1,5", -1.5, true},
		{"abc", 0, false},
		{"12a,5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDecimal(tt.input)
			if ok != tt.ok {
				t.Errorf("ok: got %v, want %v", ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("got %f, want %f", got, tt.expected)
			}
		})
	}
}

// Irrecoverable input must come back as zero with ok=false, never a panic.
func TestParseDecimalNeverPanics(t *testing.T) {
	for _, input := range []string{"garbage", "...", ",", "&%$", "1e", "--3", ">3"} {
		got, ok := ParseDecimal(input)
		if ok {
			t.Errorf("ParseDecimal(%q): expected ok=false", input)
		}
		if got != 0 {
			t.Errorf("ParseDecimal(%q) = %f, want 0", input, got)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		expected string
	}{
		{24.6225, 4, "24,6225"},
		{12.25 * 2.01, 4, "24,6225"},
		{0, 4, "0,0000"},
		{2, 2, "2,00"},
		{1234567.89, 4, "1234567,8900"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatDecimal(tt.value, tt.decimals); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
