package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected int64
	}{
		{"typical price", 19.99, 1999},
		{"float noise", 98.55, 9855},
		{"whole dollars", 100, 10000},
		{"zero", 0, 0},
		{"single cent", 0.01, 1},
		{"above half cent rounds up", 10.006, 1001},
		{"below half cent rounds down", 10.004, 1000},
		{"large amount", 9999.99, 999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToMinorUnits(tt.amount))
		})
	}
}
