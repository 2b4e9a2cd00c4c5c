package geo

import (
	"github.com/l2kgo/server/internal/data"
	"github.com/l2kgo/server/internal/world"
)

// cellSize is the sampling step when walking a line across terrain.
const cellSize = 16

// Grid is an Oracle over loaded terrain zones.
type Grid struct {
	terrain *data.TerrainTable
}

func NewGrid(terrain *data.TerrainTable) *Grid {
	return &Grid{terrain: terrain}
}

func (g *Grid) NearestZ(x, y, refZ int32) int32 {
	return g.terrain.ZAt(x, y, refZ)
}

// AvailableTargetPosition samples the segment from "from" to "to" every
// cell and stops one step short of the first blocked sample. Diagonal
// samples also require both adjacent orthogonal cells to be open, so a
// path cannot cut a corner.
func (g *Grid) AvailableTargetPosition(from, to world.Position) world.Position {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	dist := from.Distance2D(to)
	if dist == 0 {
		return to
	}
	steps := int(dist / cellSize)
	goodX, goodY := from.X, from.Y
	for i := 1; i <= steps; i++ {
		f := float64(i) * cellSize / dist
		x := from.X + int32(dx*f)
		y := from.Y + int32(dy*f)
		if !g.terrain.Walkable(x, y) {
			return world.Position{X: goodX, Y: goodY, Z: g.NearestZ(goodX, goodY, from.Z)}
		}
		if x != goodX && y != goodY {
			if !g.terrain.Walkable(x, goodY) || !g.terrain.Walkable(goodX, y) {
				return world.Position{X: goodX, Y: goodY, Z: g.NearestZ(goodX, goodY, from.Z)}
			}
		}
		goodX, goodY = x, y
	}
	if !g.terrain.Walkable(to.X, to.Y) {
		return world.Position{X: goodX, Y: goodY, Z: g.NearestZ(goodX, goodY, from.Z)}
	}
	return world.Position{X: to.X, Y: to.Y, Z: g.NearestZ(to.X, to.Y, to.Z)}
}

func (g *Grid) CanSee(from, to world.Position) bool {
	reach := g.AvailableTargetPosition(from, to)
	return reach.X == to.X && reach.Y == to.Y
}
