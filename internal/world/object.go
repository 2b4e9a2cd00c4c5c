package world

import (
	"math"
	"sync/atomic"
)

// Position is a world coordinate. Z is the floor height at (X, Y).
type Position struct {
	X int32
	Y int32
	Z int32
}

// Distance2D returns the euclidean distance on the XY plane.
func (p Position) Distance2D(o Position) float64 {
	dx := float64(o.X - p.X)
	dy := float64(o.Y - p.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Within2D reports whether o is within r units on the XY plane.
func (p Position) Within2D(o Position, r int32) bool {
	dx := float64(o.X - p.X)
	dy := float64(o.Y - p.Y)
	return dx*dx+dy*dy <= float64(r)*float64(r)
}

// HeadingTo returns the client heading (0..65535, full turn) from p toward o.
func (p Position) HeadingTo(o Position) uint16 {
	angle := math.Atan2(float64(o.Y-p.Y), float64(o.X-p.X))
	return uint16(int32(math.Round(angle*headingUnitsPerRadian)) & 0xFFFF)
}

const headingUnitsPerRadian = 65536.0 / (2 * math.Pi)

// Object is the base of everything placed in the world.
type Object struct {
	ID   int32
	Name string
}

func (o *Object) ObjectID() int32 { return o.ID }

// Entity is anything the store can hold.
type Entity interface {
	ObjectID() int32
	ObjectPos() Position
}

var objectIDSeq atomic.Int32

func init() {
	objectIDSeq.Store(1_000_000_000)
}

// NextObjectID allocates a runtime object ID. IDs below the start value
// are reserved for DB-backed characters and items.
func NextObjectID() int32 {
	return objectIDSeq.Add(1)
}
