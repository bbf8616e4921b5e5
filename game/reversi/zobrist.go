package reversi

import (
	"math/bits"

	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// zobrist keys, one per square and color
var keys [2][Size * Size]uint64

func init() {
	for c := range keys {
		for i := range keys[c] {
			keys[c][i] = frand.Uint64n(bignum) + 1
		}
	}
}

func hash(black, white uint64) uint64 {
	var h uint64
	for black != 0 {
		h ^= keys[0][bits.TrailingZeros64(black)]
		black &= black - 1
	}
	for white != 0 {
		h ^= keys[1][bits.TrailingZeros64(white)]
		white &= white - 1
	}
	return h
}
