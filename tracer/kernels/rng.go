package kernels

// Hash a 32-bit value using the PCG output permutation.
func pcgHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// Derive the initial RNG state of a pixel from its coordinates.
func seedRNG(x, y int) uint32 {
	return pcgHash(uint32(x) ^ pcgHash(uint32(y)+0x9e3779b9))
}

// Advance the RNG state and return a uniform float in [0, 1).
func nextFloat(state *uint32) float32 {
	*state = pcgHash(*state)
	return float32(*state>>8) / (1 << 24)
}

// Maximum base of the Halton sequence dimensions.
const haltonMaxBase = 5

var haltonBases = [...]uint32{2, 3, 5}

// Faure permutations indexed by base. They scramble the digits of each
// base to break up the correlation between dimensions.
var faurePerms = buildFaurePermutations(haltonMaxBase)

func buildFaurePermutations(maxBase int) [][]uint32 {
	perms := make([][]uint32, maxBase+1)
	for base := 1; base <= maxBase && base <= 3; base++ {
		perms[base] = make([]uint32, base)
		for i := range perms[base] {
			perms[base][i] = uint32(i)
		}
	}

	for base := 4; base <= maxBase; base++ {
		perms[base] = make([]uint32, base)
		half := uint32(base / 2)
		if base&1 == 1 {
			// Odd bases extend the permutation of base - 1 around the middle digit
			for i := uint32(0); i < uint32(base-1); i++ {
				src := perms[base-1][i]
				dst := i
				if i >= half {
					dst++
				}
				if src >= half {
					src++
				}
				perms[base][dst] = src
			}
			perms[base][half] = half
		} else {
			// Even bases interleave two copies of the half base permutation
			for i := uint32(0); i < half; i++ {
				perms[base][i] = 2 * perms[half][i]
				perms[base][half+i] = 2*perms[half][i] + 1
			}
		}
	}
	return perms
}

// Get the Faure-scrambled Halton sample for the given dimension (0-2) and
// sample index. The result lies in [0, 1).
func haltonSample(dimension int, index uint32) float32 {
	base := haltonBases[dimension%len(haltonBases)]
	perm := faurePerms[base]

	invBase := 1 / float64(base)
	scale := invBase
	var result float64
	for index > 0 {
		result += float64(perm[index%base]) * scale
		index /= base
		scale *= invBase
	}
	return float32(result)
}

// Get the fractional part of a non-negative value.
func fract(v float32) float32 {
	return v - float32(int(v))
}
