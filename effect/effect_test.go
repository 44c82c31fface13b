package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEasingEndpoints(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"linear", "in-quad", "out-cubic", "in-out-quart", "in-quint", "in-out-sine", "out-circ", "out-bounce"} {
		c, err := Easing(name)
		require.NoError(t, err, name)
		assert.InDelta(t, 0, c(0), 1e-9, name)
		assert.InDelta(t, 1, c(1), 1e-9, name)
	}
}

func TestEasingLookup(t *testing.T) {
	t.Parallel()

	c, err := Easing(" In_Quart ")
	require.NoError(t, err)
	assert.InDelta(t, 0.0625, c(0.5), 1e-9)

	assert.Len(t, Names(), 25)

	_, err = Easing("wobble")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linear")
}

func TestCurveModifiers(t *testing.T) {
	t.Parallel()

	quad, err := Easing("in-quad")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, quad.Reverse()(0.5), 1e-9)

	back, err := Easing("in-out-back")
	require.NoError(t, err)
	clamped := back.Clamped()
	for _, r := range []float64{0, 0.1, 0.2, 0.8, 0.9, 1} {
		v := clamped(r)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestOscillators(t *testing.T) {
	t.Parallel()

	saw := Sawtooth(2)
	assert.InDelta(t, 0.5, saw(0.25), 1e-9)
	assert.InDelta(t, 0, saw(0.5), 1e-9)
	assert.Equal(t, 1.0, saw(1))

	sine := Sine(1)
	assert.InDelta(t, 0, sine(0), 1e-9)
	assert.InDelta(t, 1, sine(0.5), 1e-9)
	assert.InDelta(t, 0.5, sine(0.25), 1e-9)
}
