package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBrand(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"American Express", "american_express"},
		{"Diners Club", "diners_club"},
		{"Visa", "visa"},
		{"Unknown Brand", "Unknown Brand"},
		{"visa", "visa"}, // already canonical, passes through
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBrand(tt.input))
		})
	}
}
