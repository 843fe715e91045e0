package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAmount(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1,234.56", true},
		{"£1,234.56", true},
		{"-45.00", true},
		{"(45.00)", true},
		{"200.00 CR", true},
		{"200.00 DR", true},
		{"0.99", true},
		{"1234", false},       // no decimal part, likely a reference
		{"12345678", false},   // account number
		{"01/02/2024", false}, // date
		{"CARD PAYMENT", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAmount(tt.input))
		})
	}
}

func TestIsLooseAmount(t *testing.T) {
	assert.True(t, IsLooseAmount("1234"))
	assert.True(t, IsLooseAmount("1,234.56"))
	assert.False(t, IsLooseAmount("CARD"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain", "1234.56", 1234.56, true},
		{"thousands separator", "1,234.56", 1234.56, true},
		{"currency symbol", "£1,234.56", 1234.56, true},
		{"negative sign", "-45.00", -45, true},
		{"parenthesized negative", "(45.00)", -45, true},
		{"debit suffix", "100.00 DR", -100, true},
		{"credit suffix", "200.00 CR", 200, true},
		{"explicit plus", "+10.00", 10, true},
		{"empty", "", 0, false},
		{"lone dash", "-", 0, false},
		{"words", "BALANCE", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}

func TestDetectCurrency(t *testing.T) {
	assert.Equal(t, "GBP", DetectCurrency("£1,234.56"))
	assert.Equal(t, "USD", DetectCurrency("$99.00"))
	assert.Equal(t, "EUR", DetectCurrency("Totals in EUR"))
	assert.Equal(t, "", DetectCurrency("1,234.56"))
}

func TestSanitizeOCR(t *testing.T) {
	t.Run("semicolon read as decimal point", func(t *testing.T) {
		assert.Equal(t, "1,234.56", SanitizeOCR("1,234;56"))
		assert.Equal(t, "1,234.56", SanitizeOCR("1,234; 56"))
	})

	t.Run("colon between digits", func(t *testing.T) {
		assert.Equal(t, "950.00", SanitizeOCR("950:00"))
	})

	t.Run("trailing colon after digits", func(t *testing.T) {
		assert.Equal(t, "950 end", SanitizeOCR("950: end"))
	})

	t.Run("clean text untouched", func(t *testing.T) {
		assert.Equal(t, "CARD PAYMENT 45.00", SanitizeOCR("CARD PAYMENT 45.00"))
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1234.56", Format(1234.56))
	assert.Equal(t, "45.00", Format(45))
	assert.Equal(t, "0.10", Format(0.1))
}
