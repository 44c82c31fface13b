package series

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(c Cursor, limit int) []any {
	var out []any
	for i := 0; i < limit; i++ {
		v, ok := c.NextValue()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func TestFromSlice(t *testing.T) {
	t.Parallel()

	s := FromSlice(1, 2, 3)
	c := s.Instance()
	require.Equal(t, []any{1, 2, 3}, drain(c, 10))

	_, ok := c.NextValue()
	require.False(t, ok)

	c.Restart()
	require.Equal(t, []any{1, 2, 3}, drain(c, 10))

	// instances are independent
	a, b := s.Instance(), s.Instance()
	a.NextValue()
	v, _ := b.NextValue()
	require.Equal(t, 1, v)
}

func TestFunc(t *testing.T) {
	t.Parallel()

	squares := Func(func(i int) (any, bool) {
		if i >= 4 {
			return nil, false
		}
		return i * i, true
	})
	c := squares.Instance()
	require.Equal(t, []any{0, 1, 4, 9}, drain(c, 10))
	c.Restart()
	require.Equal(t, []any{0, 1}, drain(c, 2))
}

func TestRepeat(t *testing.T) {
	t.Parallel()

	c := Repeat(FromSlice("a", "b"), 2).Instance()
	require.Equal(t, []any{"a", "b", "a", "b"}, drain(c, 10))

	forever := Repeat(FromSlice("x"), 0).Instance()
	require.Len(t, drain(forever, 50), 50)

	empty := Repeat(FromSlice(), 0).Instance()
	require.Empty(t, drain(empty, 5))
}
