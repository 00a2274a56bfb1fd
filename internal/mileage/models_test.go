package mileage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		earned int64
		want   Tier
	}{
		{0, TierBronze},
		{9999, TierBronze},
		{10000, TierSilver},
		{29999, TierSilver},
		{30000, TierGold},
		{99999, TierGold},
		{100000, TierVIP},
		{2500000, TierVIP},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.earned), "earned=%d", tt.earned)
	}
}
