package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/dscqs/internal/core/config"
)

func TestSlider_NudgeClampsAndSnaps(t *testing.T) {
	scale := config.ScaleConfig{Min: 1, Max: 5, Step: 0.5, Labels: config.DefaultLabels}
	s := Slider{Name: "A", Scale: scale, Value: Midpoint(scale)}
	assert.InDelta(t, 3.0, s.Value, 1e-9)

	s.Nudge(1)
	assert.InDelta(t, 3.5, s.Value, 1e-9)

	s.Nudge(10)
	assert.InDelta(t, 5.0, s.Value, 1e-9)

	s.Nudge(-100)
	assert.InDelta(t, 1.0, s.Value, 1e-9)
}

func TestMidpoint_SnapsToStep(t *testing.T) {
	scale := config.ScaleConfig{Min: 0, Max: 5, Step: 1}
	assert.InDelta(t, 3.0, Midpoint(scale), 1e-9)
}

func TestSlider_Label(t *testing.T) {
	scale := config.ScaleConfig{Min: 0, Max: 100, Step: 1, Labels: config.DefaultLabels}

	tests := []struct {
		value float64
		want  string
	}{
		{100, "Excellent"},
		{81, "Excellent"},
		{79, "Good"},
		{50, "Fair"},
		{30, "Poor"},
		{0, "Bad"},
	}

	for _, tt := range tests {
		s := Slider{Scale: scale, Value: tt.value}
		assert.Equal(t, tt.want, s.Label(), "value %v", tt.value)
	}
}

func TestSlider_LabelWithoutLabels(t *testing.T) {
	s := Slider{Scale: config.ScaleConfig{Min: 0, Max: 10, Step: 1}, Value: 4}
	assert.Empty(t, s.Label())
}

func TestScoreboard(t *testing.T) {
	b := NewScoreboard()

	_, ok := b.Values(0)
	assert.False(t, ok)

	b.Reset(0, 50)
	b.Set(0, 1, 20)
	b.Set(1, 0, 99) // stale trial
	b.Set(0, 2, 99) // no such slot

	values, ok := b.Values(0)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{50, 20}, values)
}
