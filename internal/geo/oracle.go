// Package geo answers terrain questions: floor height, reachability of a
// point, line of sight.
package geo

import "github.com/l2kgo/server/internal/world"

// Oracle is the terrain interface the engines depend on.
type Oracle interface {
	// NearestZ returns the floor height at (x, y) closest to refZ.
	NearestZ(x, y, refZ int32) int32
	// AvailableTargetPosition walks the line from "from" toward "to" and
	// returns the last reachable point before an obstruction, with its Z
	// corrected. Returns "to" itself when the path is clear.
	AvailableTargetPosition(from, to world.Position) world.Position
	// CanSee reports whether the straight line between the two points is
	// unobstructed.
	CanSee(from, to world.Position) bool
}

// Flat is an obstruction-free oracle. Used where no terrain data is
// loaded and by tests.
type Flat struct{}

func (Flat) NearestZ(_, _ int32, refZ int32) int32 { return refZ }

func (Flat) AvailableTargetPosition(_, to world.Position) world.Position { return to }

func (Flat) CanSee(_, _ world.Position) bool { return true }
