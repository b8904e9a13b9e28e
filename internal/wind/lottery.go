package wind

import (
	"math/rand/v2"
	"strings"
)

// BuildingGrid is a raster of cells where true marks a cell holding a
// qualifying building. Cells are stored row-major.
type BuildingGrid struct {
	Width  int
	Height int
	Cells  []bool
}

// NewBuildingGrid creates an empty grid.
func NewBuildingGrid(width, height int) BuildingGrid {
	return BuildingGrid{Width: width, Height: height, Cells: make([]bool, width*height)}
}

// Set marks cell (x, y). Out-of-range coordinates are ignored.
func (g BuildingGrid) Set(x, y int) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Cells[y*g.Width+x] = true
}

// Count returns the number of building cells.
func (g BuildingGrid) Count() int {
	n := 0
	for _, c := range g.Cells {
		if c {
			n++
		}
	}
	return n
}

// CellState is the outcome of the lottery for one cell.
type CellState uint8

// Cell states.
const (
	CellEmpty CellState = iota
	CellUnpowered
	CellPowered
)

// PoweredGrid is the lottery result, same shape as the input grid.
type PoweredGrid struct {
	Width  int
	Height int
	Cells  []CellState
}

// Allocate draws, for every building cell, a uniform number from a PCG
// stream seeded with seed; the cell is powered when the draw is below the
// capped ratio. Draws happen in row-major order, so the same grid, ratio, and
// seed always give the same result.
func Allocate(grid BuildingGrid, cappedRatio float64, seed uint64) PoweredGrid {
	if cappedRatio < 0 {
		cappedRatio = 0
	}
	if cappedRatio > 1 {
		cappedRatio = 1
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := PoweredGrid{Width: grid.Width, Height: grid.Height, Cells: make([]CellState, len(grid.Cells))}
	for i, hasBuilding := range grid.Cells {
		if !hasBuilding {
			continue
		}
		if rng.Float64() < cappedRatio {
			out.Cells[i] = CellPowered
		} else {
			out.Cells[i] = CellUnpowered
		}
	}
	return out
}

// Counts returns the number of powered and unpowered building cells.
func (p PoweredGrid) Counts() (powered, unpowered int) {
	for _, c := range p.Cells {
		switch c {
		case CellPowered:
			powered++
		case CellUnpowered:
			unpowered++
		}
	}
	return powered, unpowered
}

// Fraction is the realised share of building cells that drew power.
func (p PoweredGrid) Fraction() float64 {
	powered, unpowered := p.Counts()
	if powered+unpowered == 0 {
		return 0
	}
	return float64(powered) / float64(powered+unpowered)
}

// String renders the grid with '#' for powered, 'o' for unpowered and '.'
// for empty cells, one row per line.
func (p PoweredGrid) String() string {
	var sb strings.Builder
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			switch p.Cells[y*p.Width+x] {
			case CellPowered:
				sb.WriteByte('#')
			case CellUnpowered:
				sb.WriteByte('o')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ScatterGrid builds a synthetic grid with count buildings placed by a seeded
// draw. It is used when only a building count is known, not footprints.
func ScatterGrid(width, height, count int, seed uint64) BuildingGrid {
	g := NewBuildingGrid(width, height)
	total := width * height
	if count > total {
		count = total
	}
	if count <= 0 {
		return g
	}
	rng := rand.New(rand.NewPCG(seed, ^seed))
	for _, i := range rng.Perm(total)[:count] {
		g.Cells[i] = true
	}
	return g
}
