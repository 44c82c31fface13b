package timing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickBasedDerivedConstants(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		beatsPerBar  int64
		ticksPerBeat int64
	}{
		{4, 24},
		{3, 4},
		{7, 5},
		{1, 1},
	}

	for _, testCase := range testCases {
		m, err := NewTickBased(testCase.beatsPerBar, testCase.ticksPerBeat)
		require.NoError(t, err)

		n := testCase.beatsPerBar * testCase.ticksPerBeat
		assert.True(t, Equal(Int(n), m.TicksPerBar()))
		assert.True(t, Equal(R(1, n), m.TickDuration()))
		assert.True(t, Equal(Sub(Int(1), R(1, n)), m.InitialPosition()))
		assert.False(t, m.Tickless())
	}
}

func TestNewTickBasedRejectsZero(t *testing.T) {
	t.Parallel()

	_, err := NewTickBased(0, 24)
	require.Error(t, err)
	_, err = NewTickBased(4, -1)
	require.Error(t, err)
}

func TestTickBasedQuantize(t *testing.T) {
	t.Parallel()

	m, err := NewTickBased(4, 4)
	require.NoError(t, err)

	testCases := []struct {
		in       string
		expected string
		exact    bool
	}{
		{"1", "1", true},
		{"17/16", "17/16", true},
		{"1/3", "5/16", false},
		{"1/32", "1/16", false}, // half a tick rounds up
		{"3.5", "7/2", true},
		{"-1/32", "-1/16", false},
	}

	for _, testCase := range testCases {
		q, exact := m.Quantize(MustParse(testCase.in))
		assert.Equal(t, testCase.expected, Format(q), testCase.in)
		assert.Equal(t, testCase.exact, exact, testCase.in)
	}
}

func TestQuantizeIsIdempotent(t *testing.T) {
	t.Parallel()

	m, err := NewTickBased(4, 24)
	require.NoError(t, err)

	for _, s := range []string{"1/7", "22/7", "1.337", "0", "100/3"} {
		q, _ := m.Quantize(MustParse(s))
		qq, exact := m.Quantize(q)
		assert.True(t, exact)
		assert.True(t, Equal(q, qq), s)
	}
}

func TestTicklessModel(t *testing.T) {
	t.Parallel()

	m := NewTickless()
	assert.True(t, m.Tickless())
	assert.Nil(t, m.TicksPerBar())
	assert.Equal(t, 0, m.TickDuration().Sign())
	assert.Nil(t, m.InitialPosition())

	q, exact := m.Quantize(R(8, 7))
	assert.True(t, exact)
	assert.True(t, Equal(R(8, 7), q))

	next, ok := m.Advance(nil, R(4, 3))
	assert.True(t, ok)
	assert.True(t, Equal(R(4, 3), next))

	_, ok = m.Advance(R(4, 3), nil)
	assert.False(t, ok)
}

func TestRound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(2), Round(R(3, 2)).Int64())
	assert.Equal(t, int64(1), Round(R(4, 3)).Int64())
	assert.Equal(t, int64(-2), Round(R(-3, 2)).Int64())
	assert.Equal(t, int64(-1), Floor(R(-1, 3)).Int64())
	assert.Equal(t, int64(1), Ceil(R(1, 3)).Int64())
	assert.Equal(t, int64(2), Ceil(Int(2)).Int64())
}

func TestOutOfGridErrorMessage(t *testing.T) {
	t.Parallel()

	err := &OutOfGridError{Position: R(1, 3), Quantized: R(5, 16)}
	require.EqualError(t, err, "position 1/3 is not on the tick grid, quantized to 5/16")
}

func TestFromFloat(t *testing.T) {
	t.Parallel()

	r, err := FromFloat(3.5)
	require.NoError(t, err)
	assert.True(t, Equal(R(7, 2), r))

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FromFloat(f)
		assert.Error(t, err, "%v", f)
	}
}
