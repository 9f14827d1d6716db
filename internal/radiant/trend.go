package radiant

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// TrendBuffer is a fixed-capacity rolling window over a scalar signal. It starts
// filled with a seed value so aggregates are defined before a full window of
// history exists.
type TrendBuffer[T Number] struct {
	buf    []T
	next   int
	sum    T
	pushed int
	seed   T
}

func NewTrendBuffer[T Number](capacity int, seed T) *TrendBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	tb := &TrendBuffer[T]{buf: make([]T, capacity), seed: seed}
	tb.Reset()
	return tb
}

// Reset refills the window with the seed value.
func (tb *TrendBuffer[T]) Reset() {
	for i := range tb.buf {
		tb.buf[i] = tb.seed
	}
	tb.next = 0
	tb.pushed = 0
	tb.recompute()
}

// Push evicts the oldest sample and inserts v.
func (tb *TrendBuffer[T]) Push(v T) {
	tb.sum += v - tb.buf[tb.next]
	tb.buf[tb.next] = v
	tb.next++
	if tb.next == len(tb.buf) {
		tb.next = 0
		// running sums drift for float samples; resync once per revolution
		tb.recompute()
	}
	if tb.pushed < len(tb.buf) {
		tb.pushed++
	}
}

func (tb *TrendBuffer[T]) recompute() {
	var s T
	for _, v := range tb.buf {
		s += v
	}
	tb.sum = s
}

func (tb *TrendBuffer[T]) Sum() T {
	return tb.sum
}

func (tb *TrendBuffer[T]) Mean() float64 {
	return float64(tb.sum) / float64(len(tb.buf))
}

// Latest returns the most recently pushed sample, or the seed.
func (tb *TrendBuffer[T]) Latest() T {
	if tb.pushed == 0 {
		return tb.seed
	}
	i := tb.next - 1
	if i < 0 {
		i = len(tb.buf) - 1
	}
	return tb.buf[i]
}

// Len is the number of real samples held, at most Cap.
func (tb *TrendBuffer[T]) Len() int { return tb.pushed }

func (tb *TrendBuffer[T]) Cap() int { return len(tb.buf) }

// Filled reports whether a full window of real samples has been pushed.
func (tb *TrendBuffer[T]) Filled() bool { return tb.pushed == len(tb.buf) }
