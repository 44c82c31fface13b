// Package effect provides named shaping curves for interpolated moves. A curve maps the
// progress of a move, a ratio in [0, 1], to the fraction of the distance covered.
package effect

import (
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/ease"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Curve warps a progress ratio.
type Curve func(ratio float64) float64

const twoPi = 2 * math.Pi

var curves = map[string]Curve{
	"linear":         ease.Linear,
	"in-quad":        ease.InQuad,
	"out-quad":       ease.OutQuad,
	"in-out-quad":    ease.InOutQuad,
	"in-cubic":       ease.InCubic,
	"out-cubic":      ease.OutCubic,
	"in-out-cubic":   ease.InOutCubic,
	"in-quart":       ease.InQuart,
	"out-quart":      ease.OutQuart,
	"in-out-quart":   ease.InOutQuart,
	"in-quint":       ease.InQuint,
	"out-quint":      ease.OutQuint,
	"in-out-quint":   ease.InOutQuint,
	"in-sine":        ease.InSine,
	"out-sine":       ease.OutSine,
	"in-out-sine":    ease.InOutSine,
	"in-expo":        ease.InExpo,
	"out-expo":       ease.OutExpo,
	"in-out-expo":    ease.InOutExpo,
	"in-circ":        ease.InCirc,
	"out-circ":       ease.OutCirc,
	"in-out-circ":    ease.InOutCirc,
	"out-bounce":     ease.OutBounce,
	"in-out-elastic": ease.InOutElastic,
	"in-out-back":    ease.InOutBack,
}

// Names lists the registered curves, sorted.
func Names() []string {
	names := maps.Keys(curves)
	slices.Sort(names)
	return names
}

// Easing looks up a curve by name, such as "in-out-quad". Names are case insensitive
// and underscores may stand in for dashes.
func Easing(name string) (Curve, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if c, ok := curves[key]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown easing %q, expected one of %v", name, Names())
}

// Reverse plays c backwards: the move starts at its destination.
func (c Curve) Reverse() Curve {
	return func(r float64) float64 { return 1 - c(1-r) }
}

// Clamped keeps the output of c within [0, 1]. Elastic and back curves overshoot.
func (c Curve) Clamped() Curve {
	return func(r float64) float64 { return clamp(c(r), 0, 1) }
}

// Sawtooth ramps from 0 to 1 cycles times over the course of a move. Each ramp ends just
// short of 1; the final sample of the move lands on 1.
func Sawtooth(cycles float64) Curve {
	return func(r float64) float64 {
		if r >= 1 {
			return 1
		}
		phase := math.Mod(r*cycles, 1)
		if phase < 0 {
			phase++
		}
		return phase
	}
}

// Sine oscillates between 0 and 1 cycles times, starting and ending at 0.
func Sine(cycles float64) Curve {
	return func(r float64) float64 {
		return (1 - math.Cos(twoPi*cycles*r)) / 2
	}
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
