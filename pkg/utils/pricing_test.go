package utils

import (
	"math"
	"testing"
)

func TestAddGST(t *testing.T) {
	if got := AddGST(100); math.Abs(got-103) > 1e-9 {
		t.Errorf("AddGST(100) = %v, want 103", got)
	}
	if got := AddGST(0); got != 0 {
		t.Errorf("AddGST(0) = %v, want 0", got)
	}
}

func TestPurityPrice(t *testing.T) {
	tests := []struct {
		price24 float64
		ratio   float64
		want    float64
	}{
		{24000, 22.0 / 24.0, 22000},
		{24000, 18.0 / 24.0, 18000},
		{100000, 0.89, 89000},
	}
	for _, tt := range tests {
		if got := PurityPrice(tt.price24, tt.ratio); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("PurityPrice(%v, %v) = %v, want %v", tt.price24, tt.ratio, got, tt.want)
		}
	}
}
