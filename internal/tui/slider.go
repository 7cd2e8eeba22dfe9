package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/colonyops/dscqs/internal/core/config"
	"github.com/colonyops/dscqs/internal/core/styles"
)

// Slider is a continuous quality scale input.
type Slider struct {
	Name  string
	Scale config.ScaleConfig
	Value float64
}

// Midpoint returns the neutral starting value of the scale.
func Midpoint(scale config.ScaleConfig) float64 {
	return snap(scale, scale.Min+(scale.Max-scale.Min)/2)
}

func snap(scale config.ScaleConfig, v float64) float64 {
	v = math.Max(scale.Min, math.Min(scale.Max, v))
	steps := math.Round((v - scale.Min) / scale.Step)
	v = scale.Min + steps*scale.Step
	v = math.Max(scale.Min, math.Min(scale.Max, v))
	return math.Round(v*1e6) / 1e6
}

// Nudge moves the value by n steps, clamped to the scale.
func (s *Slider) Nudge(n int) {
	s.Value = snap(s.Scale, s.Value+float64(n)*s.Scale.Step)
}

// Fraction is the position of the value on the scale, from 0 to 1.
func (s Slider) Fraction() float64 {
	return (s.Value - s.Scale.Min) / (s.Scale.Max - s.Scale.Min)
}

// Label returns the quality label of the band the value falls in. Labels
// are ordered best first, so the top band of the scale gets Labels[0].
func (s Slider) Label() string {
	n := len(s.Scale.Labels)
	if n == 0 {
		return ""
	}
	band := int((1 - s.Fraction()) * float64(n))
	band = max(0, min(n-1, band))
	return s.Scale.Labels[band]
}

// Bar renders the slider track at the given width.
func (s Slider) Bar(width int) string {
	width = max(width, 10)
	filled := int(math.Round(s.Fraction() * float64(width)))
	return styles.SliderFillStyle.Render(strings.Repeat("█", filled)) +
		styles.SliderTrackStyle.Render(strings.Repeat("─", width-filled))
}

// Readout is the numeric value followed by its label.
func (s Slider) Readout() string {
	return fmt.Sprintf("%g  %s", s.Value, s.Label())
}
