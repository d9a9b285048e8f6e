package fabric

import (
	"fmt"
	"strings"

	"github.com/ppiankov/overlap/internal/model"
)

// Grid cell markers
const (
	MarkEmpty    = '.'
	MarkClaimed  = 'o'
	MarkConflict = 'X'
)

// Render draws the bounding box of the fabric, one row per y. It fails when
// the box has more than maxCells cells; maxCells <= 0 disables the limit.
func (f *Fabric) Render(maxCells int) (string, error) {
	lo, hi, ok := f.Bounds()
	if !ok {
		return "", nil
	}
	return f.RenderRegion(lo, hi, maxCells)
}

// RenderRegion draws the cells from lo (inclusive) to hi (exclusive)
func (f *Fabric) RenderRegion(lo, hi model.Coordinate, maxCells int) (string, error) {
	width, height := hi.X-lo.X, hi.Y-lo.Y
	if width <= 0 || height <= 0 {
		return "", nil
	}
	if maxCells > 0 && width*height > maxCells {
		return "", fmt.Errorf("grid %dx%d exceeds %d cells", width, height, maxCells)
	}

	var b strings.Builder
	b.Grow((width + 1) * height)
	for y := lo.Y; y < hi.Y; y++ {
		for x := lo.X; x < hi.X; x++ {
			switch n := len(f.cells[model.Coordinate{X: x, Y: y}]); {
			case n == 0:
				b.WriteByte(MarkEmpty)
			case n == 1:
				b.WriteByte(MarkClaimed)
			default:
				b.WriteByte(MarkConflict)
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// UnionBounds returns the smallest box covering both fabrics. ok is false
// when both are empty.
func UnionBounds(a, b *Fabric) (lo, hi model.Coordinate, ok bool) {
	aLo, aHi, aOK := a.Bounds()
	bLo, bHi, bOK := b.Bounds()
	switch {
	case !aOK && !bOK:
		return lo, hi, false
	case !aOK:
		return bLo, bHi, true
	case !bOK:
		return aLo, aHi, true
	}
	lo = model.Coordinate{X: min(aLo.X, bLo.X), Y: min(aLo.Y, bLo.Y)}
	hi = model.Coordinate{X: max(aHi.X, bHi.X), Y: max(aHi.Y, bHi.Y)}
	return lo, hi, true
}
