package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateAmount(t *testing.T) {
	tests := []struct {
		name      string
		price     int64
		employees int
		want      float64
	}{
		{
			name:      "small company",
			price:     100,
			employees: 5,
			want:      600.00,
		},
		{
			name:      "single employee",
			price:     100,
			employees: 1,
			want:      120.00,
		},
		{
			name:      "large headcount",
			price:     250,
			employees: 480,
			want:      144000.00,
		},
		{
			name:      "rounds to two decimals",
			price:     99,
			employees: 7,
			want:      831.60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EstimateAmount(tt.price, tt.employees), 0.001)
		})
	}
}

func TestSplitVAT(t *testing.T) {
	tests := []struct {
		name    string
		total   float64
		wantHT  float64
		wantTVA float64
	}{
		{
			name:    "round total",
			total:   600.00,
			wantHT:  500.00,
			wantTVA: 100.00,
		},
		{
			name:    "uneven total",
			total:   831.60,
			wantHT:  693.00,
			wantTVA: 138.60,
		},
		{
			name:    "parts always sum back",
			total:   45.67,
			wantHT:  38.06,
			wantTVA: 7.61,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ht, tva := SplitVAT(tt.total)
			assert.InDelta(t, tt.wantHT, ht, 0.001)
			assert.InDelta(t, tt.wantTVA, tva, 0.001)
			assert.InDelta(t, tt.total, ht+tva, 0.001)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.234))
	assert.Equal(t, 1.24, round2(1.236))
	assert.Equal(t, 0.0, round2(0))
}
