package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackPower(t *testing.T) {
	cases := []struct {
		name, desc string
		power      int
		score      int
		eta        string
	}{
		{"Stretch", "", 40, 4, "30 minutes - 2 hours"},
		{"Buy milk", "", 25, 2, "30 minutes - 2 hours"},
		{"Plan the weekend", "", 50, 5, "2-6 hours"},
		{"Refactor the billing module to support invoices", "", 75, 7, "6+ hours"},
		{"Write notes", "research and then email the summary", 50, 5, "2-6 hours"},
		{"Clean up", "fix the sink", 25, 2, "30 minutes - 2 hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FallbackPower(tc.name, tc.desc)
			assert.Equal(t, tc.power, got.Power)
			assert.Equal(t, tc.score, got.DifficultyScore)
			assert.Equal(t, tc.eta, got.EstimatedTime)
			assert.False(t, got.AIGenerated)
			assert.Equal(t, FallbackReasoning, got.Reasoning)
		})
	}
}

func TestEstimatedTimeBuckets(t *testing.T) {
	assert.Equal(t, "< 30 minutes", EstimatedTime(1))
	assert.Equal(t, "< 30 minutes", EstimatedTime(20))
	assert.Equal(t, "30 minutes - 2 hours", EstimatedTime(21))
	assert.Equal(t, "2-6 hours", EstimatedTime(60))
	assert.Equal(t, "6+ hours", EstimatedTime(80))
	assert.Equal(t, "Multiple days", EstimatedTime(81))
}
