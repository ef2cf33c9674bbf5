package history

// View is a Bits window that hides the youngest skip bits of its source.
// It is how a resolution re-reads the history exactly as it stood at
// prediction time, after younger branches have appended on top of it.
type View struct {
	src  Bits
	skip int
}

// Skip returns a view of b with the youngest n bits removed.
func Skip(b Bits, n int) View {
	if n < 0 {
		n = 0
	}
	return View{src: b, skip: n}
}

// Len returns the number of bits visible through the view.
func (v View) Len() int {
	n := v.src.Len() - v.skip
	if n < 0 {
		return 0
	}
	return n
}

// Bit returns the outcome at age, counted from the youngest visible bit.
func (v View) Bit(age int) bool {
	if age < 0 {
		return false
	}
	return v.src.Bit(age + v.skip)
}

// Fold XOR-folds the youngest length bits of b into width bits: bit i of the
// history lands on bit i mod width of the result. The result depends only on
// the bit contents, length and width.
func Fold(b Bits, length, width int) uint64 {
	if width <= 0 {
		return 0
	}

	n := length
	if avail := b.Len(); avail < n {
		n = avail
	}

	var folded uint64
	pos := 0
	for i := 0; i < n; i++ {
		if b.Bit(i) {
			folded ^= 1 << pos
		}
		pos++
		if pos == width {
			pos = 0
		}
	}
	return folded
}

// Signs returns the history as ±1 values, youngest first, for the first n
// ages. Missing bits count as -1 (not taken).
func Signs(b Bits, n int) []int8 {
	out := make([]int8, n)
	for i := range out {
		if b.Bit(i) {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}
