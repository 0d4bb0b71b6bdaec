package backdrop

import "math"

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// mapRange linearly maps v from [inLo,inHi] to [outLo,outHi] without clamping.
func mapRange(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	return outLo + (v-inLo)*(outHi-outLo)/(inHi-inLo)
}

// wave maps sin(phase) from [-1,1] into [lo,hi].
func wave(phase, lo, hi float64) float64 {
	return mapRange(math.Sin(phase), -1, 1, lo, hi)
}

// floorMod is the always-non-negative remainder of a / m.
func floorMod(a, m float64) float64 {
	r := math.Mod(a, m)
	if r < 0 {
		r += m
	}
	return r
}
