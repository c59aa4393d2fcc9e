package engine

import (
	"math/rand"

	"github.com/pkg/errors"
)

// offsetGen draws uniformly random offsets in [0, fileSize-accessSize],
// rounded down to a multiple of align.
type offsetGen struct {
	rng   *rand.Rand
	slots int64
	align int64
}

func newOffsetGen(rng *rand.Rand, fileSize int64, accessSize int, align int64) (*offsetGen, error) {
	if align < 1 {
		align = 1
	}
	span := fileSize - int64(accessSize)
	if accessSize <= 0 || span < 0 {
		return nil, errors.Errorf("no valid offset for %d bytes in a %d byte target", accessSize, fileSize)
	}
	return &offsetGen{rng: rng, slots: span/align + 1, align: align}, nil
}

func (g *offsetGen) next() int64 {
	return g.rng.Int63n(g.slots) * g.align
}
