package terrain

// Downsample builds a coarse tile from up to 16 child tiles at the next
// finer zoom. next holds the children in row-major order for (r, c) in
// 0..3, where child (r, c) is the tile at (2x+c-1, 2y+r-1, zoom+1): the
// four real children framed by their neighbors. Missing children are nil.
//
// Each position maps to a fixed copy kernel that decimates its source by
// two. The central kernels fill the coarse quadrants, set the TL/TR/BL/BR
// existence flags and fold the child min/max; the frame kernels populate
// the border ring so neighboring tiles and LODs stitch seamlessly.
//
// Decimating a 257-sample axis by two yields 129 values; each half
// receives all 129, the left half starting at index 0 and the right half
// starting at index 128, so the halves share index 128 and the kernel
// applied later writes it last. The overlap is
// the seam between the quadrants and must write the same value from both
// sides.
func Downsample(dst *Tile, next *[16]*Tile) {
	sample00(dst, next[0])
	sample01(dst, next[1])
	sample02(dst, next[2])
	sample03(dst, next[3])
	sample10(dst, next[4])
	sample11(dst, next[5])
	sample12(dst, next[6])
	sample13(dst, next[7])
	sample20(dst, next[8])
	sample21(dst, next[9])
	sample22(dst, next[10])
	sample23(dst, next[11])
	sample30(dst, next[12])
	sample31(dst, next[13])
	sample32(dst, next[14])
	sample33(dst, next[15])
}

func sample00(dst, next *Tile) {
	if next == nil {
		return
	}

	// top-left border sample
	h := next.Get(SamplesTile-3, SamplesTile-3)
	dst.Set(-1, -1, h)
}

func sample01(dst, next *Tile) {
	if next == nil {
		return
	}

	// top border samples
	n := 0
	for nn := 0; nn < SamplesTile; nn += 2 {
		h := next.Get(SamplesTile-3, nn)
		dst.Set(-1, n, h)
		n++
	}
}

func sample02(dst, next *Tile) {
	if next == nil {
		return
	}

	// top border samples
	n := 128
	for nn := 0; nn < SamplesTile; nn += 2 {
		h := next.Get(SamplesTile-3, nn)
		dst.Set(-1, n, h)
		n++
	}
}

func sample03(dst, next *Tile) {
	if next == nil {
		return
	}

	// top-right border sample
	h := next.Get(SamplesTile-3, 2)
	dst.Set(-1, 257, h)
}

func sample10(dst, next *Tile) {
	if next == nil {
		return
	}

	// left border samples
	m := 0
	for mm := 0; mm < SamplesTile; mm += 2 {
		h := next.Get(mm, SamplesTile-3)
		dst.Set(m, -1, h)
		m++
	}
}

func sample11(dst, next *Tile) {
	if next == nil {
		dst.AdjustMinMax(0, 0)
		return
	}

	dst.AdjustMinMax(next.Min(), next.Max())
	dst.Exists(NextTL)

	// top-left quadrant
	m := 0
	for mm := 0; mm < SamplesTile; mm += 2 {
		n := 0
		for nn := 0; nn < SamplesTile; nn += 2 {
			h := next.Get(mm, nn)
			dst.Set(m, n, h)
			n++
		}
		m++
	}
}

func sample12(dst, next *Tile) {
	if next == nil {
		dst.AdjustMinMax(0, 0)
		return
	}

	dst.AdjustMinMax(next.Min(), next.Max())
	dst.Exists(NextTR)

	// top-right quadrant
	m := 0
	for mm := 0; mm < SamplesTile; mm += 2 {
		n := 128
		for nn := 0; nn < SamplesTile; nn += 2 {
			h := next.Get(mm, nn)
			dst.Set(m, n, h)
			n++
		}
		m++
	}
}

func sample13(dst, next *Tile) {
	if next == nil {
		return
	}

	// right border samples
	m := 0
	for mm := 0; mm < SamplesTile; mm += 2 {
		h := next.Get(mm, 2)
		dst.Set(m, 257, h)
		m++
	}
}

func sample20(dst, next *Tile) {
	if next == nil {
		return
	}

	// left border samples
	m := 128
	for mm := 0; mm < SamplesTile; mm += 2 {
		h := next.Get(mm, SamplesTile-3)
		dst.Set(m, -1, h)
		m++
	}
}

func sample21(dst, next *Tile) {
	if next == nil {
		dst.AdjustMinMax(0, 0)
		return
	}

	dst.AdjustMinMax(next.Min(), next.Max())
	dst.Exists(NextBL)

	// bottom-left quadrant
	m := 128
	for mm := 0; mm < SamplesTile; mm += 2 {
		n := 0
		for nn := 0; nn < SamplesTile; nn += 2 {
			h := next.Get(mm, nn)
			dst.Set(m, n, h)
			n++
		}
		m++
	}
}

func sample22(dst, next *Tile) {
	if next == nil {
		dst.AdjustMinMax(0, 0)
		return
	}

	dst.AdjustMinMax(next.Min(), next.Max())
	dst.Exists(NextBR)

	// bottom-right quadrant
	m := 128
	for mm := 0; mm < SamplesTile; mm += 2 {
		n := 128
		for nn := 0; nn < SamplesTile; nn += 2 {
			h := next.Get(mm, nn)
			dst.Set(m, n, h)
			n++
		}
		m++
	}
}

func sample23(dst, next *Tile) {
	if next == nil {
		return
	}

	// right border samples
	m := 128
	for mm := 0; mm < SamplesTile; mm += 2 {
		h := next.Get(mm, 2)
		dst.Set(m, 257, h)
		m++
	}
}

func sample30(dst, next *Tile) {
	if next == nil {
		return
	}

	// bottom-left border sample
	h := next.Get(2, SamplesTile-3)
	dst.Set(257, -1, h)
}

func sample31(dst, next *Tile) {
	if next == nil {
		return
	}

	// bottom border samples
	n := 0
	for nn := 0; nn < SamplesTile; nn += 2 {
		h := next.Get(2, nn)
		dst.Set(257, n, h)
		n++
	}
}

func sample32(dst, next *Tile) {
	if next == nil {
		return
	}

	// bottom border samples
	n := 128
	for nn := 0; nn < SamplesTile; nn += 2 {
		h := next.Get(2, nn)
		dst.Set(257, n, h)
		n++
	}
}

func sample33(dst, next *Tile) {
	if next == nil {
		return
	}

	// bottom-right border sample
	h := next.Get(2, 2)
	dst.Set(257, 257, h)
}
