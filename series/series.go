// Package series defines the lazy value sequences consumed by the sequencer's playback
// operations, plus a few in-memory implementations.
package series

// Series is a lazy sequence definition. Each call to Instance returns an independent
// cursor positioned at the start.
type Series interface {
	Instance() Cursor
}

// Cursor walks one instance of a Series.
type Cursor interface {
	// NextValue returns the next element. ok is false once the cursor is exhausted;
	// an exhausted cursor keeps returning false until Restart.
	NextValue() (value any, ok bool)

	// Restart rewinds the cursor to its first element.
	Restart()
}

// FromSlice returns a finite series over values.
func FromSlice(values ...any) Series {
	return sliceSeries(values)
}

type sliceSeries []any

func (s sliceSeries) Instance() Cursor {
	return &sliceCursor{values: s}
}

type sliceCursor struct {
	values []any
	next   int
}

func (c *sliceCursor) NextValue() (any, bool) {
	if c.next >= len(c.values) {
		return nil, false
	}
	v := c.values[c.next]
	c.next++
	return v, true
}

func (c *sliceCursor) Restart() {
	c.next = 0
}

// Func returns a series whose i-th element is produced by fn(i). The series ends
// when fn returns ok == false.
func Func(fn func(i int) (any, bool)) Series {
	return funcSeries(fn)
}

type funcSeries func(i int) (any, bool)

func (f funcSeries) Instance() Cursor {
	return &funcCursor{fn: f}
}

type funcCursor struct {
	fn       func(i int) (any, bool)
	i        int
	finished bool
}

func (c *funcCursor) NextValue() (any, bool) {
	if c.finished {
		return nil, false
	}
	v, ok := c.fn(c.i)
	if !ok {
		c.finished = true
		return nil, false
	}
	c.i++
	return v, true
}

func (c *funcCursor) Restart() {
	c.i = 0
	c.finished = false
}

// Repeat loops s times times. A non-positive times repeats forever.
func Repeat(s Series, times int) Series {
	return &repeatSeries{source: s, times: times}
}

type repeatSeries struct {
	source Series
	times  int
}

func (r *repeatSeries) Instance() Cursor {
	return &repeatCursor{source: r.source.Instance(), times: r.times}
}

type repeatCursor struct {
	source Cursor
	times  int
	done   int
}

func (c *repeatCursor) NextValue() (any, bool) {
	for c.times <= 0 || c.done < c.times {
		if v, ok := c.source.NextValue(); ok {
			return v, true
		}
		c.done++
		c.source.Restart()
		if c.times <= 0 {
			// guard against looping an empty source forever
			if _, ok := c.source.NextValue(); !ok {
				return nil, false
			}
			c.source.Restart()
		}
	}
	return nil, false
}

func (c *repeatCursor) Restart() {
	c.done = 0
	c.source.Restart()
}
